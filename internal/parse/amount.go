package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reMillion  = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?)\s*(?:mln|million|млн)\b`)
	reThousand = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?)\s*(?:ming|min|тыс|k)\b`)
	reNumber   = regexp.MustCompile(`\b\d[\d\s.,]{0,15}`)
	reGrouped  = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'", "`", "'")

// Amount pulls the amount (in the smallest currency unit) out of free text.
// Multiplier shorthands win over bare numbers: "1.2 mln" -> 1200000,
// "15 ming" -> 15000, "20k" -> 20000, "15 000" -> 15000.
func Amount(text string) (int64, bool) {
	t := strings.ToLower(apostrophes.Replace(text))
	if m := reMillion.FindStringSubmatch(t); m != nil {
		return scaled(m[1], 1_000_000)
	}
	if m := reThousand.FindStringSubmatch(t); m != nil {
		return scaled(m[1], 1_000)
	}
	raw := strings.TrimSpace(reNumber.FindString(t))
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.Trim(raw, ".,")
	if reGrouped.MatchString(raw) {
		// "15,000" / "15.000" / "1.200.000" are thousands separators here,
		// not decimal points: chat amounts are whole soums.
		raw = strings.ReplaceAll(raw, ",", "")
		raw = strings.ReplaceAll(raw, ".", "")
	} else {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	n := d.IntPart()
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// scaled multiplies a possibly fractional number by mul without going
// through float64: int(1.2*1e6) style rounding bit us before.
func scaled(num string, mul int64) (int64, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(num, ",", "."))
	if err != nil {
		return 0, false
	}
	n := d.Mul(decimal.NewFromInt(mul)).IntPart()
	if n <= 0 {
		return 0, false
	}
	return n, true
}
