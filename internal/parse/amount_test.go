package parse

import "testing"

func TestAmount(t *testing.T) {
	cases := []struct {
		text string
		want int64
		ok   bool
	}{
		{"Kofe 15 ming", 15000, true},
		{"15ming", 15000, true},
		{"1.2 mln", 1200000, true},
		{"1,2 mln", 1200000, true},
		{"2 million so'm", 2000000, true},
		{"3 млн", 3000000, true},
		{"20k taksi", 20000, true},
		{"1.5k", 1500, true},
		{"5 тыс", 5000, true},
		{"oylik 4 500 000", 4500000, true},
		{"15,000 kofe", 15000, true},
		{"15.000 kofe", 15000, true},
		{"1.200.000 ijara", 1200000, true},
		{"benzin 90000", 90000, true},
		{"no numbers here", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := Amount(c.text)
		if ok != c.ok || got != c.want {
			t.Errorf("Amount(%q) = %d, %v; want %d, %v", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestAmountMultiplierWinsOverBareNumber(t *testing.T) {
	// "15 ming" must not read as a bare 15 even though 15 appears first.
	got, ok := Amount("qarz berdim Temurga 15 ming 12.12.2025")
	if !ok || got != 15000 {
		t.Fatalf("got %d, %v; want 15000, true", got, ok)
	}
}
