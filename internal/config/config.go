package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string
	DatabaseURL string
	Timezone    string
	AdminIDs    []int64

	// UZS per one unit of foreign currency, for report normalization.
	USDRate int64
	EURRate int64

	// Subscription pricing, UZS.
	WeekPrice  int64
	MonthPrice int64
	Trial      time.Duration

	// CLICK gateway.
	ClickPayURL         string
	ClickStatusURL      string
	ClickServiceID      string
	ClickMerchantID     string
	ClickMerchantUserID string
	ClickSecretKey      string

	// Payment web callbacks.
	WebAddr    string
	WebBaseURL string

	// Local hours at which the debt due-date sweep fires.
	ReminderHours []int
}

func MustLoad() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	bt := os.Getenv("BOT_TOKEN")
	if bt == "" {
		log.Fatal("BOT_TOKEN is required")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	cfg := Config{
		BotToken:    bt,
		DatabaseURL: dsn,
		Timezone:    envStr("TZ", "Asia/Tashkent"),

		USDRate: envInt("USD_RATE", 12600),
		EURRate: envInt("EUR_RATE", 13500),

		WeekPrice:  envInt("WEEK_PRICE", 7900),
		MonthPrice: envInt("MONTH_PRICE", 19900),
		Trial:      time.Duration(envInt("TRIAL_MINUTES", 15)) * time.Minute,

		ClickPayURL:         envStr("CLICK_PAY_URL", "https://my.click.uz/services/pay"),
		ClickStatusURL:      os.Getenv("CLICK_STATUS_URL"),
		ClickServiceID:      os.Getenv("CLICK_SERVICE_ID"),
		ClickMerchantID:     os.Getenv("CLICK_MERCHANT_ID"),
		ClickMerchantUserID: os.Getenv("CLICK_MERCHANT_USER_ID"),
		ClickSecretKey:      os.Getenv("CLICK_SECRET_KEY"),

		WebAddr:    envStr("WEB_ADDR", ":8080"),
		WebBaseURL: os.Getenv("WEB_BASE_URL"),
	}

	for _, p := range strings.Split(envStr("ADMIN_IDS", ""), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Fatalf("ADMIN_IDS: bad id %q", p)
		}
		cfg.AdminIDs = append(cfg.AdminIDs, id)
	}

	for _, p := range strings.Split(envStr("REMINDER_HOURS", "9,20"), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		h, err := strconv.Atoi(p)
		if err != nil || h < 0 || h > 23 {
			log.Fatalf("REMINDER_HOURS: bad hour %q", p)
		}
		cfg.ReminderHours = append(cfg.ReminderHours, h)
	}
	if len(cfg.ReminderHours) == 0 {
		cfg.ReminderHours = []int{9, 20}
	}

	return cfg
}

// IsAdmin reports whether the id is configured as a reviewer.
func (c Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("%s: %v", key, err)
	}
	return n
}
