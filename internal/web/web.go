// Package web serves the payment gateway's inbound legs: the browser return
// redirect and the server-to-server callback. Responses are plain text
// verdicts the gateway operators read in their logs.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
	"github.com/izakirov770/MoliyaUz/internal/subs"
)

type Server struct {
	recon *subs.Reconciler
	srv   *http.Server
}

func New(addr string, recon *subs.Reconciler) *Server {
	s := &Server{recon: recon}
	mux := http.NewServeMux()
	mux.HandleFunc("/payments/return", s.handleReturn)
	mux.HandleFunc("/payments/callback", s.handleCallback)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
	log.Printf("payment web listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("payment web: %v", err)
	}
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	invoiceID := r.URL.Query().Get("invoice_id")
	if invoiceID == "" {
		verdict(w, http.StatusBadRequest, "NOTFOUND")
		return
	}
	p, err := s.recon.ConfirmReturn(r.Context(), invoiceID)
	switch {
	case errors.Is(err, subs.ErrNoInvoice):
		verdict(w, http.StatusNotFound, "NOTFOUND")
	case err != nil:
		log.Printf("return %s: %v", invoiceID, err)
		verdict(w, http.StatusInternalServerError, "ERROR")
	case p.Status == domain.PaymentPaid:
		verdict(w, http.StatusOK, "SUCCESS")
	default:
		verdict(w, http.StatusOK, "PENDING")
	}
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		verdict(w, http.StatusBadRequest, "ERROR")
		return
	}
	_, err = s.recon.ConfirmCallback(r.Context(), payload)
	switch {
	case err == nil:
		verdict(w, http.StatusOK, "SUCCESS")
	case errors.Is(err, subs.ErrNoInvoice):
		verdict(w, http.StatusNotFound, "NOTFOUND")
	case errors.Is(err, subs.ErrIdentityMismatch):
		if strings.Contains(err.Error(), "merchant_id") {
			verdict(w, http.StatusBadRequest, "MERCHANT_ID_MISMATCH")
		} else {
			verdict(w, http.StatusBadRequest, "SERVICE_ID_MISMATCH")
		}
	case errors.Is(err, subs.ErrAmountMismatch):
		verdict(w, http.StatusBadRequest, "AMOUNT_MISMATCH")
	default:
		log.Printf("callback: %v", err)
		verdict(w, http.StatusInternalServerError, "ERROR")
	}
}

// decodePayload accepts both form-encoded and JSON callbacks; the gateway
// has sent both shapes over the years.
func decodePayload(r *http.Request) (map[string]string, error) {
	out := make(map[string]string)
	ct := r.Header.Get("Content-Type")
	if r.Method == http.MethodPost && strings.HasPrefix(ct, "application/json") {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			switch x := v.(type) {
			case string:
				out[k] = x
			case float64:
				out[k] = strconv.FormatFloat(x, 'f', -1, 64)
			}
		}
		return out, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k := range r.Form {
		out[k] = r.Form.Get(k)
	}
	return out, nil
}

func verdict(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(text))
}
