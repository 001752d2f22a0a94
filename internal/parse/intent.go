package parse

import "strings"

// Intent is the classification of one entry.
type Intent int

const (
	IntentExpense Intent = iota
	IntentIncome
	IntentDebtMine  // user took a debt
	IntentDebtGiven // user gave a debt
)

func (i Intent) IsDebt() bool { return i == IntentDebtMine || i == IntentDebtGiven }

func (i Intent) String() string {
	switch i {
	case IntentIncome:
		return "income"
	case IntentDebtMine:
		return "debt_mine"
	case IntentDebtGiven:
		return "debt_given"
	default:
		return "expense"
	}
}

var (
	debtGivenWords = []string{"qarz berdim", "qarzga berdim", "qarz ber"}
	debtTakenWords = []string{"qarz oldim", "qarzga oldim", "qarz ol"}
	purchaseWords  = []string{"sotib oldim", "сотиб олдим"}
	incomeWords    = []string{"kirim", "кирим", "oylik", "maosh", "маош", "keldi", "tushdi", "oldim", "келди", "тушди"}
	expenseWords   = []string{"chiqim", "xarajat", "taksi", "benzin", "ovqat", "kafe", "restoran", "market", "kommunal", "internet", "telefon", "ijara", "arenda"}
)

type intentRule struct {
	match  func(t string) bool
	intent Intent
}

// intentRules is evaluated top to bottom; the order is load-bearing. Debt
// phrasing must win over the generic lists ("qarz oldim" contains "oldim",
// which alone reads as income; "sotib oldim" likewise).
var intentRules = []intentRule{
	{wordsRule(debtGivenWords), IntentDebtGiven},
	{wordsRule(debtTakenWords), IntentDebtMine},
	{wordsRule(purchaseWords), IntentExpense},
	{signedRule(incomeWords, "+"), IntentIncome},
	{signedRule(expenseWords, "-"), IntentExpense},
}

func wordsRule(words []string) func(string) bool {
	return func(t string) bool { return containsAny(t, words) }
}

func signedRule(words []string, sign string) func(string) bool {
	return func(t string) bool {
		return containsAny(t, words) || strings.HasPrefix(strings.TrimSpace(t), sign)
	}
}

// ClassifyIntent decides whether an entry records income, expense or a debt.
func ClassifyIntent(text string) Intent {
	t := strings.ToLower(apostrophes.Replace(text))
	for _, r := range intentRules {
		if r.match(t) {
			return r.intent
		}
	}
	return IntentExpense
}
