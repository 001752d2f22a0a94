package parse

import "testing"

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"qarz berdim Aliga 50000", IntentDebtGiven},
		{"qarzga berdim Temurga 150k", IntentDebtGiven},
		{"qarz oldim Alidan 200000", IntentDebtMine},
		{"qarzga oldim akadan 1 mln", IntentDebtMine},
		{"sotib oldim telefon 2 mln", IntentExpense},
		{"oylik keldi 4 mln", IntentIncome},
		{"maosh tushdi", IntentIncome},
		{"+ 500000 bonus", IntentIncome},
		{"taksi 20000", IntentExpense},
		{"- 15000", IntentExpense},
		{"kofe 15 ming", IntentExpense}, // default
	}
	for _, c := range cases {
		if got := ClassifyIntent(c.text); got != c.want {
			t.Errorf("ClassifyIntent(%q) = %v; want %v", c.text, got, c.want)
		}
	}
}

// Debt phrasing is the most specific signal and must never be shadowed by a
// generic keyword that co-occurs in the same sentence.
func TestDebtOutranksGenericKeywords(t *testing.T) {
	// "oldim" alone is an income keyword; "qarz oldim" is a debt taken.
	if got := ClassifyIntent("qarz oldim Alidan 200000"); got != IntentDebtMine {
		t.Fatalf("got %v; want IntentDebtMine", got)
	}
	// "sotib oldim" also contains "oldim" but is a purchase.
	if got := ClassifyIntent("sotib oldim non 5000"); got != IntentExpense {
		t.Fatalf("got %v; want IntentExpense", got)
	}
	// expense keyword alongside debt phrasing: debt wins.
	if got := ClassifyIntent("qarz berdim Aliga taksi puli 50000"); got != IntentDebtGiven {
		t.Fatalf("got %v; want IntentDebtGiven", got)
	}
}
