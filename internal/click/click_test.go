package click

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestPayLinkCarriesInvoice(t *testing.T) {
	cfg := Config{
		PayURL:     "https://my.click.uz/services/pay",
		ServiceID:  "svc-1",
		MerchantID: "m-1",
		ReturnURL:  "https://example.uz/payments/return",
	}
	link := cfg.PayLink("INV-42-1", 7900)

	u, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("transaction_param") != "INV-42-1" {
		t.Errorf("transaction_param = %q", q.Get("transaction_param"))
	}
	if q.Get("amount") != "7900" {
		t.Errorf("amount = %q", q.Get("amount"))
	}
	if got := q.Get("return_url"); got != "https://example.uz/payments/return?invoice_id=INV-42-1" {
		t.Errorf("return_url = %q", got)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		paid bool
	}{
		{"string paid", map[string]any{"status": "paid"}, true},
		{"string success", map[string]any{"status": "success"}, true},
		{"numeric two", map[string]any{"status": float64(2)}, true},
		{"payment_status two", map[string]any{"payment_status": float64(2)}, true},
		{"pending", map[string]any{"status": "pending"}, false},
		{"empty", map[string]any{}, false},
	}
	for _, tc := range cases {
		if got := ParseStatus(tc.raw).Paid; got != tc.paid {
			t.Errorf("%s: paid = %v, want %v", tc.name, got, tc.paid)
		}
	}

	st := ParseStatus(map[string]any{"status": "paid", "amount": "7900.00"})
	if !st.HasAmount || !st.Amount.Equal(st.Amount.Truncate(0)) || st.Amount.IntPart() != 7900 {
		t.Errorf("amount = %v (has=%v)", st.Amount, st.HasAmount)
	}
}

func TestClientStatusSignsRequest(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ts := "1715342400" // now.Unix()
	secret := "sekret"
	want := sha1.Sum([]byte(ts + secret))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != hex.EncodeToString(want[:]) {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Timestamp"); got != ts {
			t.Errorf("Timestamp = %q", got)
		}
		if got := r.URL.Query().Get("merchant_trans_id"); got != "INV-1-1" {
			t.Errorf("merchant_trans_id = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"paid","amount":"7900"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{StatusURL: srv.URL, SecretKey: secret, MerchantUserID: "mu-1"}, func() time.Time { return now })
	st, err := c.Status(context.Background(), "INV-1-1")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Paid || !st.HasAmount || st.Amount.IntPart() != 7900 {
		t.Errorf("status = %+v", st)
	}
}
