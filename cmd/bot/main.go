package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/izakirov770/MoliyaUz/internal/bot"
	"github.com/izakirov770/MoliyaUz/internal/click"
	"github.com/izakirov770/MoliyaUz/internal/config"
	"github.com/izakirov770/MoliyaUz/internal/db"
	"github.com/izakirov770/MoliyaUz/internal/debt"
	"github.com/izakirov770/MoliyaUz/internal/domain"
	"github.com/izakirov770/MoliyaUz/internal/ledger"
	"github.com/izakirov770/MoliyaUz/internal/repo"
	"github.com/izakirov770/MoliyaUz/internal/subs"
	"github.com/izakirov770/MoliyaUz/internal/web"
	"github.com/izakirov770/MoliyaUz/migrations"
)

func main() {
	cfg := config.MustLoad()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone %q: %v", cfg.Timezone, err)
	}
	now := func() time.Time { return time.Now().In(loc) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := db.MustConnect(ctx, cfg.DatabaseURL)
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, migrations.FS); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("bot init: %v", err)
	}
	botAPI.Debug = false

	clickCfg := click.Config{
		PayURL:         cfg.ClickPayURL,
		StatusURL:      cfg.ClickStatusURL,
		ServiceID:      cfg.ClickServiceID,
		MerchantID:     cfg.ClickMerchantID,
		MerchantUserID: cfg.ClickMerchantUserID,
		SecretKey:      cfg.ClickSecretKey,
		ReturnURL:      cfg.WebBaseURL + "/payments/return",
	}
	plans := subs.NewPlanTable(map[int64]domain.Plan{
		cfg.WeekPrice:  {Key: "week", Days: 7},
		cfg.MonthPrice: {Key: "month", Days: 30},
	})

	rUsers := repo.NewUsers(pool)
	rPayments := repo.NewPayments(pool)
	rManual := repo.NewManual(pool)

	ledgerSvc := ledger.New(repo.NewLedger(pool), ledger.Rates{USD: cfg.USDRate, EUR: cfg.EURRate}, now)
	debtSvc := debt.New(repo.NewDebts(pool), ledgerSvc, now)
	pending := debt.NewPending(10*time.Minute, now)

	var h *bot.Handler
	notify := notifierFunc(func(userID int64, text string) { h.Notify(userID, text) })

	recon := subs.NewReconciler(rPayments, click.NewClient(clickCfg, now), notify, plans, clickCfg, now)
	manual := subs.NewManual(rManual, recon, reviewerFunc(cfg.IsAdmin), now)
	access := subs.NewAccess(rUsers, recon, cfg.Trial, now)

	h = bot.NewHandler(botAPI, cfg, loc, access, ledgerSvc, debtSvc, pending, recon, manual)

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	go h.RunReminderWorker(ctx, 30*time.Second)
	go web.New(cfg.WebAddr, recon).Run(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	log.Printf("MoliyaUz started as @%s", botAPI.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			log.Println("shutdown")
			return
		case upd := <-updates:
			go func(upd tgbotapi.Update) {
				h.HandleUpdate(ctx, upd)
			}(upd)
		}
	}
}

type notifierFunc func(int64, string)

func (f notifierFunc) Notify(userID int64, text string) { f(userID, text) }

type reviewerFunc func(int64) bool

func (f reviewerFunc) CanReview(id int64) bool { return f(id) }
