// Package brdoc validates and formats Brazilian document fields: CPF numbers
// and Real amounts.
package brdoc

import "strings"

// ValidCPF reports whether value is a well-formed CPF. Punctuation is ignored;
// sequences of one repeated digit are rejected.
func ValidCPF(value string) bool {
	digits := OnlyDigits(value)
	if len(digits) != 11 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 11 {
		return false
	}
	return checkDigit(digits[:9], 10) == digits[9] && checkDigit(digits[:10], 11) == digits[10]
}

// OnlyDigits strips everything but ASCII digits.
func OnlyDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func checkDigit(digits string, weight int) byte {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (weight - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		rest = 0
	}
	return byte('0' + rest)
}
