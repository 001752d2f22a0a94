package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/izakirov770/MoliyaUz/internal/debt"
	"github.com/izakirov770/MoliyaUz/internal/subs"
)

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Telegram drops the originating message from callbacks older than about
	// 48 hours; without it there is no chat to answer into.
	if q.Message == nil {
		return
	}
	defer func() {
		if _, err := h.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			log.Printf("answer callback: %v", err)
		}
	}()

	uid := q.From.ID
	chatID := q.Message.Chat.ID
	mu := h.userLock(uid)
	mu.Lock()
	defer mu.Unlock()

	data := q.Data
	switch {
	case strings.HasPrefix(data, "settle:"):
		h.callbackSettle(ctx, chatID, uid, strings.TrimPrefix(data, "settle:"))
	case strings.HasPrefix(data, "sub:"):
		h.callbackSubscribe(ctx, chatID, uid, strings.TrimPrefix(data, "sub:"))
	case data == "paycheck":
		h.callbackPayCheck(ctx, chatID, uid)
	case data == "manualcard":
		h.setAwaitingCard(uid, true)
		h.reply(chatID, "✍️ To'lov qilgan kartangizning oxirgi 4 ta raqamini yuboring.")
	case strings.HasPrefix(data, "manual:"):
		h.callbackManualDecision(ctx, chatID, uid, strings.TrimPrefix(data, "manual:"))
	}
}

func (h *Handler) callbackSettle(ctx context.Context, chatID, uid int64, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	d, err := h.debts.Settle(ctx, uid, id)
	if errors.Is(err, debt.ErrNotFound) {
		h.reply(chatID, fmt.Sprintf("🤷 Qarz #%d topilmadi yoki allaqachon yopilgan.", id))
		return
	}
	if err != nil {
		log.Printf("settle %d/%d: %v", uid, id, err)
		h.reply(chatID, "❌ Qarzni yopib bo'lmadi.")
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ Qarz #%d yopildi: %s, %s %s. Arxivga o'tkazildi.",
		d.ID, d.Counterparty, formatAmount(d.Amount), d.Currency))
}

func (h *Handler) callbackSubscribe(ctx context.Context, chatID, uid int64, planKey string) {
	p, link, err := h.recon.CreateInvoice(ctx, uid, planKey)
	if err != nil {
		log.Printf("create invoice %d/%s: %v", uid, planKey, err)
		h.reply(chatID, "❌ To'lovni ochib bo'lmadi, qayta urinib ko'ring.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"💳 To'lov: %s so'm\nInvoice: %s\n\nQuyidagi havola orqali to'lang, so'ng \"Tekshirish\" tugmasini bosing.",
		formatAmount(p.Amount), p.InvoiceID))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💳 To'lash", link),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Tekshirish", "paycheck"),
		),
	)
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("send to %d: %v", chatID, err)
	}
}

func (h *Handler) callbackPayCheck(ctx context.Context, chatID, uid int64) {
	_, err := h.recon.CheckPending(ctx, uid)
	switch {
	case err == nil:
		// The winning channel already sent the activation message.
	case errors.Is(err, subs.ErrStillPending):
		h.reply(chatID, "⏳ To'lov hali ko'rinmayapti. Bir-ikki daqiqadan so'ng yana tekshiring.")
	case errors.Is(err, subs.ErrNoInvoice):
		h.reply(chatID, "❌ To'lov topilmadi. /subscribe orqali qaytadan boshlang.")
	case errors.Is(err, subs.ErrAmountMismatch):
		h.reply(chatID, "❌ To'lov summasi mos kelmadi. Admin bilan bog'laning.")
	default:
		log.Printf("paycheck %d: %v", uid, err)
		h.reply(chatID, "❌ Tekshirishda xatolik, keyinroq urinib ko'ring.")
	}
}

func (h *Handler) callbackManualDecision(ctx context.Context, chatID, reviewer int64, raw string) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return
	}
	approve := parts[1] == "ok"

	req, err := h.manual.Decide(ctx, id, reviewer, approve)
	switch {
	case errors.Is(err, subs.ErrNotAuthorized):
		h.reply(chatID, "Bu amal faqat adminlar uchun.")
	case errors.Is(err, subs.ErrRequestNotFound):
		h.reply(chatID, fmt.Sprintf("🤷 So'rov #%d topilmadi.", id))
	case errors.Is(err, subs.ErrAlreadyProcessed):
		h.reply(chatID, fmt.Sprintf("So'rov #%d allaqachon ko'rib chiqilgan (%s).", id, req.Status))
	case err != nil:
		log.Printf("manual decide %d: %v", id, err)
		h.reply(chatID, "❌ Xatolik yuz berdi.")
	case approve:
		h.reply(chatID, fmt.Sprintf("✅ So'rov #%d tasdiqlandi, obuna faollashtirildi.", id))
	default:
		h.reply(chatID, fmt.Sprintf("❌ So'rov #%d rad etildi.", id))
		h.Notify(req.UserID, "❌ To'lovingiz tasdiqlanmadi. Admin bilan bog'laning.")
	}
}
