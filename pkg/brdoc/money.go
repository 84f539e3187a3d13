package brdoc

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders amount as "R$ 1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	negative := rounded.IsNegative()
	text := rounded.Abs().StringFixed(2)

	integer, cents, _ := strings.Cut(text, ".")
	var grouped strings.Builder
	for i, r := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	out := "R$ " + grouped.String() + "," + cents
	if negative {
		out = "-" + out
	}
	return out
}

var (
	units    = []string{"", "um", "dois", "três", "quatro", "cinco", "seis", "sete", "oito", "nove"}
	teens    = []string{"dez", "onze", "doze", "treze", "quatorze", "quinze", "dezesseis", "dezessete", "dezoito", "dezenove"}
	tens     = []string{"", "", "vinte", "trinta", "quarenta", "cinquenta", "sessenta", "setenta", "oitenta", "noventa"}
	hundreds = []string{"", "cento", "duzentos", "trezentos", "quatrocentos", "quinhentos", "seiscentos", "setecentos", "oitocentos", "novecentos"}
)

// wordsLimit is the first amount AmountInWords refuses to spell out.
var wordsLimit = decimal.NewFromInt(1_000_000)

// OverLimit is returned by AmountInWords for amounts of one million or more.
const OverLimit = "valor acima do limite"

// AmountInWords spells a Real amount in Portuguese, e.g.
// "mil e duzentos e trinta e quatro reais e cinquenta e seis centavos".
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	if amount.GreaterThanOrEqual(wordsLimit) {
		return OverLimit
	}

	integer := int(amount.IntPart())
	cents := int(amount.Sub(decimal.NewFromInt(int64(integer))).Mul(decimal.NewFromInt(100)).IntPart())

	var out string
	switch {
	case integer == 0:
		out = "zero"
	case integer >= 1000:
		thousands := integer / 1000
		if thousands == 1 {
			out = "mil"
		} else {
			out = hundredsInWords(thousands) + " mil"
		}
		if rest := integer % 1000; rest > 0 {
			out += " e " + hundredsInWords(rest)
		}
	default:
		out = hundredsInWords(integer)
	}

	if integer == 1 {
		out += " real"
	} else {
		out += " reais"
	}

	if cents > 0 {
		out += " e " + hundredsInWords(cents)
		if cents == 1 {
			out += " centavo"
		} else {
			out += " centavos"
		}
	}
	return out
}

// hundredsInWords spells 1..999.
func hundredsInWords(n int) string {
	var b strings.Builder
	if n >= 100 {
		if n == 100 {
			b.WriteString("cem")
		} else {
			b.WriteString(hundreds[n/100])
		}
		if n%100 > 0 {
			b.WriteString(" e ")
		}
	}
	rest := n % 100
	switch {
	case rest >= 20:
		b.WriteString(tens[rest/10])
		if rest%10 > 0 {
			b.WriteString(" e ")
			b.WriteString(units[rest%10])
		}
	case rest >= 10:
		b.WriteString(teens[rest-10])
	case rest > 0:
		b.WriteString(units[rest])
	}
	return b.String()
}
