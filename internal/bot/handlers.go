package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/izakirov770/MoliyaUz/internal/config"
	"github.com/izakirov770/MoliyaUz/internal/debt"
	"github.com/izakirov770/MoliyaUz/internal/domain"
	"github.com/izakirov770/MoliyaUz/internal/ledger"
	"github.com/izakirov770/MoliyaUz/internal/parse"
	"github.com/izakirov770/MoliyaUz/internal/subs"
)

type Handler struct {
	api *tgbotapi.BotAPI
	cfg config.Config
	loc *time.Location

	access  *subs.Access
	ledger  *ledger.Service
	debts   *debt.Service
	pending *debt.Pending
	recon   *subs.Reconciler
	manual  *subs.Manual

	// One message at a time per user: a user's entries must apply in the
	// order they arrive, and the pending-debt slot must not race itself.
	locks sync.Map // userID -> *sync.Mutex

	mu           sync.Mutex
	awaitingCard map[int64]bool
}

func NewHandler(api *tgbotapi.BotAPI, cfg config.Config, loc *time.Location,
	access *subs.Access, l *ledger.Service, d *debt.Service, pending *debt.Pending,
	recon *subs.Reconciler, manual *subs.Manual) *Handler {
	return &Handler{
		api:          api,
		cfg:          cfg,
		loc:          loc,
		access:       access,
		ledger:       l,
		debts:        d,
		pending:      pending,
		recon:        recon,
		manual:       manual,
		awaitingCard: make(map[int64]bool),
	}
}

// Notify delivers one message to one user. Send failures are logged and
// swallowed: a blocked bot must never stall a payment confirmation.
func (h *Handler) Notify(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("notify %d: %v", userID, err)
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	if !msg.Chat.IsPrivate() {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	uid := msg.From.ID
	mu := h.userLock(uid)
	mu.Lock()
	defer mu.Unlock()

	if _, err := h.access.Register(ctx, domain.User{
		ID:        uid,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
	}); err != nil {
		log.Printf("register user %d: %v", uid, err)
		return
	}

	switch {
	case strings.HasPrefix(text, "/start"):
		h.handleStart(msg.Chat.ID)
	case strings.HasPrefix(text, "/help"):
		h.handleHelp(msg.Chat.ID)
	case strings.HasPrefix(text, "/balance"):
		h.handleBalance(ctx, msg.Chat.ID, uid)
	case strings.HasPrefix(text, "/debts"):
		h.handleDebts(ctx, msg.Chat.ID, uid)
	case strings.HasPrefix(text, "/archive"):
		h.handleArchive(ctx, msg.Chat.ID, uid)
	case strings.HasPrefix(text, "/cancel"):
		h.handleCancel(ctx, msg.Chat.ID, uid, text)
	case strings.HasPrefix(text, "/subscribe"):
		h.handleSubscribe(msg.Chat.ID)
	case strings.HasPrefix(text, "/approve"):
		h.handleApprove(ctx, msg.Chat.ID, uid, text)
	default:
		h.handleText(ctx, msg.Chat.ID, uid, text)
	}
}

// handleText is the free-text pipeline: conversation continuations first,
// then the access gate, then the parser over each segmented entry.
func (h *Handler) handleText(ctx context.Context, chatID, uid int64, text string) {
	if h.takeAwaitingCard(uid) {
		h.handleCardDigits(ctx, chatID, uid, text)
		return
	}

	allowed, err := h.access.Allowed(ctx, uid)
	if err != nil {
		log.Printf("access %d: %v", uid, err)
		h.reply(chatID, "❌ Xatolik yuz berdi, birozdan so'ng urinib ko'ring.")
		return
	}
	if !allowed {
		h.pending.Clear(uid)
		h.reply(chatID, "⏳ Sinov muddati tugadi. Davom etish uchun obuna bo'ling: /subscribe")
		return
	}

	now := time.Now().In(h.loc)

	// A debt from the previous message may still be waiting for its date.
	if h.pending.Peek(uid) {
		if due, ok := parse.DueDate(text, now); ok {
			if pd, live := h.pending.Take(uid); live {
				h.openDebt(ctx, chatID, uid, pd.Direction, pd.Amount, pd.Currency, pd.Counterparty, due)
			}
			// The date may be the whole message; entries below then find
			// no amount and stay silent.
			if _, hasAmount := parse.Amount(text); !hasAmount {
				return
			}
		}
	}

	for _, e := range parse.Message(text, now) {
		h.handleEntry(ctx, chatID, uid, e)
	}
}

func (h *Handler) handleEntry(ctx context.Context, chatID, uid int64, e parse.Entry) {
	if !e.HasAmount {
		h.reply(chatID, "✍️ Summani ham yozing, masalan: \"taksi 20 000\" yoki \"Alidan 500 ming qarz oldim\".")
		return
	}

	if e.Intent.IsDebt() {
		if e.DueDate == "" {
			h.pending.Put(uid, domain.PendingDebt{
				Direction:    e.Direction(),
				Amount:       e.Amount,
				Currency:     e.Currency,
				Counterparty: e.Counterparty,
			})
			h.reply(chatID, "📅 Qachongacha? Sanani yozing (masalan: 15.06.2025 yoki \"ertaga\").")
			return
		}
		h.openDebt(ctx, chatID, uid, e.Direction(), e.Amount, e.Currency, e.Counterparty, e.DueDate)
		return
	}

	kind := domain.Expense
	if e.Intent == parse.IntentIncome {
		kind = domain.Income
	}
	tx, err := h.ledger.Append(ctx, uid, kind, e.Amount, e.Currency, e.Account, e.Category, e.Text)
	if err != nil {
		log.Printf("append tx user %d: %v", uid, err)
		h.reply(chatID, "❌ Yozib bo'lmadi, qayta urinib ko'ring.")
		return
	}

	verb := "Xarajat"
	if kind == domain.Income {
		verb = "Daromad"
	}
	h.reply(chatID, fmt.Sprintf("✅ %s #%d yozildi: %s %s\n%s\nBekor qilish: /cancel %d",
		verb, tx.ID, formatAmount(tx.Amount), tx.Currency, tx.Category, tx.ID))
}

func (h *Handler) openDebt(ctx context.Context, chatID, uid int64, dir domain.DebtDirection, amount int64, cur domain.Currency, counterparty, due string) {
	d, err := h.debts.Open(ctx, uid, dir, amount, cur, counterparty, due)
	if err != nil {
		log.Printf("open debt user %d: %v", uid, err)
		h.reply(chatID, "❌ Qarzni yozib bo'lmadi, qayta urinib ko'ring.")
		return
	}
	who := "Kimdan: "
	header := "💳 Qarz olindi"
	if dir == domain.DebtGiven {
		who = "Kimga: "
		header = "💳 Qarz berildi"
	}
	txt := fmt.Sprintf("%s #%d\n%s%s\nSumma: %s %s", header, d.ID, who, d.Counterparty, formatAmount(d.Amount), d.Currency)
	if d.DueDate != "" {
		txt += "\nMuddat: " + d.DueDate
	}
	h.reply(chatID, txt)
}

func (h *Handler) handleCardDigits(ctx context.Context, chatID, uid int64, text string) {
	req, err := h.manual.Submit(ctx, uid, strings.TrimSpace(text))
	switch {
	case err == subs.ErrBadDigits:
		h.setAwaitingCard(uid, true)
		h.reply(chatID, "✍️ Karta raqamining oxirgi 4 ta raqamini yuboring.")
		return
	case err == subs.ErrNoInvoice:
		h.reply(chatID, "❌ To'lov topilmadi. Avval /subscribe orqali tarif tanlang.")
		return
	case err != nil:
		log.Printf("manual submit %d: %v", uid, err)
		h.reply(chatID, "❌ Xatolik yuz berdi, qayta urinib ko'ring.")
		return
	}

	h.reply(chatID, "⏳ So'rovingiz adminga yuborildi. Tasdiqlangach xabar olasiz.")
	for _, admin := range h.cfg.AdminIDs {
		msg := tgbotapi.NewMessage(admin, fmt.Sprintf(
			"💳 Qo'lda tasdiqlash so'rovi #%d\nUser: %d\nInvoice: %s\nKarta oxiri: %s",
			req.ID, req.UserID, req.InvoiceID, req.LastFour))
		msg.ReplyMarkup = manualKeyboard(req.ID)
		if _, err := h.api.Send(msg); err != nil {
			log.Printf("notify admin %d: %v", admin, err)
		}
	}
}

func (h *Handler) userLock(uid int64) *sync.Mutex {
	v, _ := h.locks.LoadOrStore(uid, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (h *Handler) setAwaitingCard(uid int64, v bool) {
	h.mu.Lock()
	if v {
		h.awaitingCard[uid] = true
	} else {
		delete(h.awaitingCard, uid)
	}
	h.mu.Unlock()
}

func (h *Handler) takeAwaitingCard(uid int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.awaitingCard[uid] {
		delete(h.awaitingCard, uid)
		return true
	}
	return false
}

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("send to %d: %v", chatID, err)
	}
}

// formatAmount renders 1234567 as "1 234 567".
func formatAmount(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
