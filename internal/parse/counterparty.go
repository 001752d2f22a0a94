package parse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NoCounterparty is the placeholder used when no name can be extracted.
const NoCounterparty = "—"

var (
	reFromWho = regexp.MustCompile(`\b([\p{L}'-]+)dan\b`)
	reToWho   = regexp.MustCompile(`\b([\p{L}'-]+?)(?:\s+(akaga|opaga|ukaga|singlimga|брату|сестре))?\s*(?:ga|qa|га|ке)\b`)
)

// Counterparty extracts a person name from the grammatical particle around
// it: "Alidan" -> "Ali" (from), "Temurga" -> "Temur" (to). Never fails; a
// message with no candidate yields the placeholder.
func Counterparty(text string) string {
	t := strings.ToLower(apostrophes.Replace(text))
	if m := reFromWho.FindStringSubmatch(t); m != nil {
		return capitalize(m[1])
	}
	if m := reToWho.FindStringSubmatch(t); m != nil {
		name := capitalize(m[1])
		if m[2] != "" {
			name += " " + m[2]
		}
		return name
	}
	return NoCounterparty
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
