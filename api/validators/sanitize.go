package validators

import "strings"

// SanitizeString trims input, collapses inner whitespace runs to one space
// and caps the result at maxLen runes so accented text is never split.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxLen {
		return cleaned
	}
	return string(runes[:maxLen])
}
