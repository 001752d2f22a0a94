package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
	"github.com/izakirov770/MoliyaUz/internal/parse"
)

// RunReminderWorker fires the debt due-date reminders at the configured
// local hours and runs the subscription expiry sweep alongside them. Each
// send is claimed in the store first, so a crash mid-sweep or a restart
// inside a reminder hour cannot double-remind. One reminder per debt, slot
// and calendar day.
func (h *Handler) RunReminderWorker(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		now := time.Now().In(h.loc)
		if !h.isReminderHour(now.Hour()) {
			continue
		}

		day := now.Format(parse.DueLayout)
		h.remindDebts(ctx, "today", now.Format(parse.DueLayout), day)
		h.remindDebts(ctx, "tomorrow", now.AddDate(0, 0, 1).Format(parse.DueLayout), day)
		h.recon.SweepExpiring(ctx, 3*24*time.Hour)
	}
}

func (h *Handler) isReminderHour(hour int) bool {
	for _, rh := range h.cfg.ReminderHours {
		if rh == hour {
			return true
		}
	}
	return false
}

func (h *Handler) remindDebts(ctx context.Context, slot, due, day string) {
	debts, err := h.debts.DueOn(ctx, due)
	if err != nil {
		log.Printf("due sweep %s: %v", due, err)
		return
	}
	for _, d := range debts {
		ok, err := h.debts.ClaimReminder(ctx, d, slot, day)
		if err != nil {
			log.Printf("claim reminder %d/%d: %v", d.UserID, d.ID, err)
			continue
		}
		if !ok {
			continue
		}

		when := "Bugun"
		if slot == "tomorrow" {
			when = "Ertaga"
		}
		var txt string
		if d.Direction == domain.DebtMine {
			txt = fmt.Sprintf("🔔 %s (%s) %s %s qarzni %sga qaytarish muddati!",
				when, d.DueDate, formatAmount(d.Amount), d.Currency, d.Counterparty)
		} else {
			txt = fmt.Sprintf("🔔 %s (%s) %s sizga %s %s qaytarishi kerak.",
				when, d.DueDate, d.Counterparty, formatAmount(d.Amount), d.Currency)
		}
		h.Notify(d.UserID, txt)
	}
}
