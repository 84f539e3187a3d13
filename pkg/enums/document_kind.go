package enums

// DocumentKind identifies a numbered document family.
type DocumentKind string

const (
	DocumentKindQuote   DocumentKind = "quote"
	DocumentKindOrder   DocumentKind = "order"
	DocumentKindReceipt DocumentKind = "receipt"
)

// Prefix returns the human readable number prefix for the kind.
func (k DocumentKind) Prefix() string {
	switch k {
	case DocumentKindQuote:
		return "ORC"
	case DocumentKindOrder:
		return "PED"
	case DocumentKindReceipt:
		return "REC"
	}
	return ""
}

// IsValid reports whether the value is a known DocumentKind.
func (k DocumentKind) IsValid() bool {
	return k.Prefix() != ""
}
