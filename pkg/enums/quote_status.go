package enums

import "fmt"

// QuoteStatus tracks the lifecycle of a quote.
type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "pending"
	QuoteStatusApproved  QuoteStatus = "approved"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusConverted QuoteStatus = "converted"
	QuoteStatusCancelled QuoteStatus = "cancelled"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusPending,
	QuoteStatusApproved,
	QuoteStatusRejected,
	QuoteStatusConverted,
	QuoteStatusCancelled,
}

// Manual edits may move a quote along these edges. Converted is only ever
// reached through conversion.
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusPending:  {QuoteStatusApproved, QuoteStatusRejected, QuoteStatusCancelled},
	QuoteStatusApproved: {QuoteStatusPending, QuoteStatusRejected, QuoteStatusCancelled},
	QuoteStatusRejected: {QuoteStatusPending},
}

// String implements fmt.Stringer.
func (s QuoteStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known QuoteStatus.
func (s QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether a manual update may move the quote to next.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	if s == next {
		return s != QuoteStatusConverted
	}
	for _, candidate := range quoteTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseQuoteStatus converts raw input into a QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}
