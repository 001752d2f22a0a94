package parse

import (
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// Entry is one clause of a user message after segmentation, describing at
// most one financial event.
type Entry struct {
	Text         string
	Intent       Intent
	Amount       int64
	HasAmount    bool
	Currency     domain.Currency
	Account      domain.Account
	Counterparty string
	DueDate      string
	Category     string
}

// Direction maps a debt intent to its domain direction.
func (e Entry) Direction() domain.DebtDirection {
	if e.Intent == IntentDebtGiven {
		return domain.DebtGiven
	}
	return domain.DebtMine
}

// Message segments a raw message and runs the full extractor pipeline on
// each entry. now is injected by the caller; nothing here reads the clock.
//
// A debt entry with no resolvable due date picks the date up from the next
// entry when that one carries a date expression ("qarz oldim Alidan, ertaga
// taksi 20000"). The next entry is still emitted on its own: a clause that
// parses as a valid transaction is never silently dropped just because it
// also mentioned a date.
func Message(text string, now time.Time) []Entry {
	segs := Segments(text)
	entries := make([]Entry, 0, len(segs))
	for _, s := range segs {
		entries = append(entries, One(s, now))
	}
	for i := range entries {
		if entries[i].Intent.IsDebt() && entries[i].DueDate == "" && i+1 < len(entries) {
			if due, ok := DueDate(entries[i+1].Text, now); ok {
				entries[i].DueDate = due
			}
		}
	}
	return entries
}

// One runs every extractor over a single entry text.
func One(text string, now time.Time) Entry {
	e := Entry{
		Text:     text,
		Intent:   ClassifyIntent(text),
		Currency: Currency(text),
		Account:  Account(text),
	}
	e.Amount, e.HasAmount = Amount(text)
	if e.Intent == IntentIncome {
		e.Category = CategoryIncome
	} else {
		e.Category = Category(text)
	}
	if e.Intent.IsDebt() {
		e.Counterparty = Counterparty(text)
		if due, ok := DueDate(text, now); ok {
			e.DueDate = due
		}
	}
	return e
}
