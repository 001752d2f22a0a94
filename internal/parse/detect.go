package parse

import (
	"strings"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

var (
	usdWords  = []string{"$", "usd", "dollar", "доллар"}
	eurWords  = []string{"eur", "€", "yevro", "евро"}
	uzsWords  = []string{"uzs", "so'm", "som", "сум", "soum"}
	cardWords = []string{"karta", "plastik", "card", "visa", "master", "uzcard", "humo", "bank"}
	cashWords = []string{"naqd", "cash", "qo'lda", "qolda", "qo'l", "qol"}
)

// Currency detects the entry currency by keyword, defaulting to UZS.
func Currency(text string) domain.Currency {
	t := strings.ToLower(apostrophes.Replace(text))
	if containsAny(t, usdWords) {
		return domain.USD
	}
	if containsAny(t, eurWords) {
		return domain.EUR
	}
	if containsAny(t, uzsWords) {
		return domain.UZS
	}
	return domain.UZS
}

// Account detects the payment rail, defaulting to cash.
func Account(text string) domain.Account {
	t := strings.ToLower(apostrophes.Replace(text))
	if containsAny(t, cardWords) {
		return domain.Card
	}
	if containsAny(t, cashWords) {
		return domain.Cash
	}
	return domain.Cash
}

func containsAny(t string, words []string) bool {
	for _, w := range words {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}
