package parse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// reAmountToken locates amount-bearing tokens, with any multiplier word glued
// to its number so the word itself never reads as a clause boundary.
var reAmountToken = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?(?:\s*(?:mln|million|млн|ming|min|тыс|k)\b)?`)

// Segments splits one message into independent amount-bearing entries:
// "kofe 15000, taksi 20000" becomes two, "faqat bir gap 15000" stays one.
// A boundary between two consecutive amounts exists when the text between
// them contains a separator character or an alphabetic word (a new clause).
// This is a heuristic for the common "two short clauses in one message"
// case, not a grammar.
func Segments(text string) []string {
	locs := reAmountToken.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
		return nil
	}
	var segs []string
	start := 0
	for i := 0; i+1 < len(locs); i++ {
		cut := boundaryCut(text[locs[i][1]:locs[i+1][0]])
		if cut < 0 {
			continue
		}
		if s := strings.TrimSpace(text[start : locs[i][1]+cut]); s != "" {
			segs = append(segs, s)
		}
		start = locs[i][1] + cut
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return segs
}

// boundaryCut returns the byte offset inside between at which to split, or
// -1 when the two amounts belong to the same clause. A separator wins over a
// word so that trailing words like a currency name stay with their amount.
func boundaryCut(between string) int {
	for i, r := range between {
		switch r {
		case '\n', ',', ';', '/', '|':
			return i + utf8.RuneLen(r)
		}
	}
	for i, r := range between {
		if unicode.IsLetter(r) {
			return i
		}
	}
	return -1
}
