// Package click talks to the CLICK payment gateway: it builds outbound pay
// links and polls the merchant API for invoice status. The invoice id rides
// in transaction_param and must come back verbatim.
package click

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	PayURL         string // e.g. https://my.click.uz/services/pay
	StatusURL      string // e.g. https://merchant.click.uz/api/v2/invoice/status/
	ServiceID      string
	MerchantID     string
	MerchantUserID string
	SecretKey      string
	ReturnURL      string
}

// PayLink builds the outbound payment URL for one invoice.
func (c Config) PayLink(invoiceID string, amount int64) string {
	q := url.Values{}
	q.Set("service_id", c.ServiceID)
	q.Set("merchant_id", c.MerchantID)
	q.Set("transaction_param", invoiceID)
	q.Set("amount", strconv.FormatInt(amount, 10))
	if c.MerchantUserID != "" {
		q.Set("merchant_user_id", c.MerchantUserID)
	}
	if c.ReturnURL != "" {
		q.Set("return_url", c.ReturnURL+"?invoice_id="+url.QueryEscape(invoiceID))
	}
	return c.PayURL + "?" + q.Encode()
}

// Status is one gateway answer about an invoice.
type Status struct {
	Paid      bool
	Amount    decimal.Decimal
	HasAmount bool
	Raw       map[string]any
}

// Client polls the merchant status API.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func NewClient(cfg Config, now func() time.Time) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}, now: now}
}

// Status queries the gateway for the current state of one invoice. The API
// authenticates with sha1(timestamp + secret) per the merchant docs.
func (c *Client) Status(ctx context.Context, invoiceID string) (Status, error) {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sum := sha1.Sum([]byte(ts + c.cfg.SecretKey))

	q := url.Values{}
	q.Set("service_id", c.cfg.ServiceID)
	q.Set("merchant_id", c.cfg.MerchantID)
	q.Set("merchant_trans_id", invoiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.StatusURL+"?"+q.Encode(), nil)
	if err != nil {
		return Status{}, err
	}
	req.Header.Set("Merchant-User-Id", c.cfg.MerchantUserID)
	req.Header.Set("Authorization", hex.EncodeToString(sum[:]))
	req.Header.Set("Timestamp", ts)

	resp, err := c.http.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("click status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Status{}, fmt.Errorf("click status: http %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Status{}, fmt.Errorf("click status: %w", err)
	}
	return ParseStatus(raw), nil
}

// ParseStatus interprets a gateway payload. The API answers with loosely
// typed fields; anything clearly marking success counts as paid.
func ParseStatus(raw map[string]any) Status {
	st := Status{Raw: raw}
	switch v := raw["status"].(type) {
	case string:
		st.Paid = v == "paid" || v == "success" || v == "2"
	case float64:
		st.Paid = v == 2
	}
	if !st.Paid {
		if v, ok := raw["payment_status"].(float64); ok {
			st.Paid = v == 2
		}
	}
	for _, key := range []string{"amount", "amount_sum"} {
		if v, ok := raw[key]; ok {
			if d, err := toDecimal(v); err == nil {
				st.Amount = d
				st.HasAmount = true
				break
			}
		}
	}
	return st
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case string:
		return decimal.NewFromString(x)
	case float64:
		return decimal.NewFromFloat(x), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported amount type %T", v)
	}
}
