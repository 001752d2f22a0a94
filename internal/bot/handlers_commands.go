package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/izakirov770/MoliyaUz/internal/domain"
	"github.com/izakirov770/MoliyaUz/internal/subs"
)

func (h *Handler) handleStart(chatID int64) {
	h.reply(chatID, "Assalomu alaykum! Men MoliyaUz botiman 🤖\n\n"+
		"Xarajat yoki daromadni shunchaki yozib yuboring:\n"+
		"• \"taksi 20 000\"\n"+
		"• \"oylik keldi 5 mln\"\n"+
		"• \"Alidan 500 ming qarz oldim, 15.06 gacha\"\n\n"+
		"Buyruqlar:\n"+
		"/balance — oylik hisobot\n"+
		"/debts — qarzlar ro'yxati\n"+
		"/archive — yopilgan qarzlar\n"+
		"/subscribe — obuna\n\n"+
		fmt.Sprintf("🎁 Sizga %d daqiqalik bepul sinov berildi.", int(h.cfg.Trial.Minutes())))
}

func (h *Handler) handleHelp(chatID int64) {
	h.reply(chatID, "Yozuvlar:\n"+
		"• xarajat: \"non 5000\", \"taksi 20 ming\"\n"+
		"• daromad: \"oylik keldi 5 mln\", \"+300000\"\n"+
		"• qarz oldim: \"Alidan 1 mln qarz oldim, 15.06 gacha\"\n"+
		"• qarz berdim: \"Karimga 200 ming qarz berdim\"\n\n"+
		"Bitta xabarda bir nechta yozuv bo'lishi mumkin.\n"+
		"Yozuvni o'chirish: /cancel <raqam>")
}

func (h *Handler) handleBalance(ctx context.Context, chatID, uid int64) {
	t, err := h.ledger.MonthToDate(ctx, uid)
	if err != nil {
		log.Printf("month-to-date %d: %v", uid, err)
		h.reply(chatID, "❌ Hisobotni o'qib bo'lmadi.")
		return
	}
	month := time.Now().In(h.loc).Format("01.2006")
	h.reply(chatID, fmt.Sprintf("📊 %s oyi:\n⬆️ Daromad: %s so'm\n⬇️ Xarajat: %s so'm\n💰 Farq: %s so'm",
		month, formatAmount(t.Income), formatAmount(t.Expense), formatAmount(t.Income-t.Expense)))
}

func (h *Handler) handleDebts(ctx context.Context, chatID, uid int64) {
	waiting, err := h.debts.Waiting(ctx, uid)
	if err != nil {
		log.Printf("waiting debts %d: %v", uid, err)
		h.reply(chatID, "❌ Qarzlarni o'qib bo'lmadi.")
		return
	}
	if len(waiting) == 0 {
		h.reply(chatID, "✅ Ochiq qarzlar yo'q.")
		return
	}

	var b strings.Builder
	b.WriteString("💳 Ochiq qarzlar:\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(waiting))
	for _, d := range waiting {
		b.WriteString(fmt.Sprintf("#%d %s — %s %s", d.ID, debtLine(d), formatAmount(d.Amount), d.Currency))
		if d.DueDate != "" {
			b.WriteString(" (muddat " + d.DueDate + ")")
		}
		b.WriteByte('\n')
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d yopish", d.ID),
				fmt.Sprintf("settle:%d", d.ID))))
	}
	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("send to %d: %v", chatID, err)
	}
}

func debtLine(d domain.Debt) string {
	if d.Direction == domain.DebtMine {
		return "men olganman, " + d.Counterparty + "dan"
	}
	return "men berganman, " + d.Counterparty + "ga"
}

func (h *Handler) handleArchive(ctx context.Context, chatID, uid int64) {
	arch, err := h.debts.Archive(ctx, uid)
	if err != nil {
		log.Printf("archive %d: %v", uid, err)
		h.reply(chatID, "❌ Arxivni o'qib bo'lmadi.")
		return
	}
	if len(arch) == 0 {
		h.reply(chatID, "🗂 Arxiv bo'sh.")
		return
	}
	var b strings.Builder
	b.WriteString("🗂 Yopilgan qarzlar:\n\n")
	for _, a := range arch {
		verb := "qaytarilgan"
		if a.Direction == domain.DebtGiven {
			verb = "qaytib kelgan"
		}
		b.WriteString(fmt.Sprintf("#%d %s — %s %s, %s (%s)\n",
			a.ID, a.Counterparty, formatAmount(a.Amount), a.Currency, verb, a.ArchivedAt.In(h.loc).Format("02.01.2006")))
	}
	h.reply(chatID, b.String())
}

func (h *Handler) handleCancel(ctx context.Context, chatID, uid int64, text string) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		h.reply(chatID, "Foydalanish: /cancel <raqam>")
		return
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.reply(chatID, "Foydalanish: /cancel <raqam>")
		return
	}
	ok, err := h.ledger.Cancel(ctx, uid, id)
	if err != nil {
		log.Printf("cancel tx %d/%d: %v", uid, id, err)
		h.reply(chatID, "❌ Xatolik yuz berdi.")
		return
	}
	if !ok {
		h.reply(chatID, fmt.Sprintf("🤷 #%d topilmadi, balki allaqachon o'chirilgan.", id))
		return
	}
	h.reply(chatID, fmt.Sprintf("🗑 Yozuv #%d o'chirildi.", id))
}

func (h *Handler) handleSubscribe(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"💎 Obuna tariflari:\n• 1 hafta — %s so'm\n• 1 oy — %s so'm\n\nTarif tanlang:",
		formatAmount(h.cfg.WeekPrice), formatAmount(h.cfg.MonthPrice)))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1 hafta", "sub:week"),
			tgbotapi.NewInlineKeyboardButtonData("1 oy", "sub:month"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Karta orqali to'ladim", "manualcard"),
		),
	)
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("send to %d: %v", chatID, err)
	}
}

// handleApprove, without an argument, lists undecided manual requests for a
// reviewer. With one, "/approve <invoiceID>" marks that invoice paid through
// the reconciler's single transition, same as every automated channel.
func (h *Handler) handleApprove(ctx context.Context, chatID, uid int64, text string) {
	if !h.cfg.IsAdmin(uid) {
		h.reply(chatID, "Bu buyruq faqat adminlar uchun.")
		return
	}
	if parts := strings.Fields(text); len(parts) >= 2 {
		h.approveInvoice(ctx, chatID, parts[1])
		return
	}
	pending, err := h.manual.Pending(ctx)
	if err != nil {
		log.Printf("pending manual: %v", err)
		h.reply(chatID, "❌ So'rovlarni o'qib bo'lmadi.")
		return
	}
	if len(pending) == 0 {
		h.reply(chatID, "Kutilayotgan so'rovlar yo'q.")
		return
	}
	for _, req := range pending {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"💳 So'rov #%d\nUser: %d\nInvoice: %s\nKarta oxiri: %s",
			req.ID, req.UserID, req.InvoiceID, req.LastFour))
		msg.ReplyMarkup = manualKeyboard(req.ID)
		if _, err := h.api.Send(msg); err != nil {
			log.Printf("send to %d: %v", chatID, err)
		}
	}
}

func (h *Handler) approveInvoice(ctx context.Context, chatID int64, invoiceID string) {
	p, err := h.recon.ApproveInvoice(ctx, invoiceID)
	switch {
	case errors.Is(err, subs.ErrNoInvoice):
		h.reply(chatID, fmt.Sprintf("🤷 Invoice %s topilmadi.", invoiceID))
	case err != nil:
		log.Printf("approve %s: %v", invoiceID, err)
		h.reply(chatID, "❌ Xatolik yuz berdi.")
	default:
		h.reply(chatID, fmt.Sprintf("✅ Invoice %s to'langan deb belgilandi.", p.InvoiceID))
	}
}

func manualKeyboard(requestID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Tasdiqlash", fmt.Sprintf("manual:%d:ok", requestID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rad etish", fmt.Sprintf("manual:%d:no", requestID)),
		),
	)
}
