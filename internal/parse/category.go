package parse

import "strings"

// CategoryIncome is the bucket for labour income entries.
const CategoryIncome = "💪 Mehnat daromadlari"

type categoryRule struct {
	words []string
	name  string
}

var categoryRules = []categoryRule{
	{[]string{"taksi", "yo'l", "yol", "benzin", "transport", "metro", "avtobus", "такси", "метро", "автобус", "транспорт"}, "🚌 Transport"},
	{[]string{"ovqat", "kofe", "coffee", "kafe", "restoran", "non", "taom", "fastfood", "osh", "shashlik", "tushlik", "еда", "кафе", "ресторан", "фастфуд"}, "🍔 Oziq-ovqat"},
	{[]string{"kommunal", "svet", "gaz", "suv", "коммунал", "свет", "газ", "вода"}, "💡 Kommunal"},
	{[]string{"internet", "telefon", "uzmobile", "beeline", "ucell", "uztelecom", "интернет", "телефон"}, "📱 Aloqa"},
	{[]string{"ijara", "kvartira", "arenda", "ipoteka", "аренда", "ипотека", "квартира"}, "🏠 Uy-ijara"},
	{[]string{"dorixona", "shifokor", "apteka", "dori", "аптека", "врач", "лекар"}, "💊 Sog'liq"},
	{[]string{"soliq", "jarima", "patent", "налог", "штраф", "патент"}, "💸 Soliq/Jarima"},
	{[]string{"kiyim", "do'kon", "bozor", "market", "savdo", "shopping", "supermarket", "одежда", "магазин", "рынок", "маркет"}, "🛍 Savdo"},
	{[]string{"oylik", "maosh", "bonus", "premiya", "зарплата", "премия", "бонус"}, CategoryIncome},
}

// CategoryOther is the fallback expense bucket.
const CategoryOther = "🧾 Boshqa xarajatlar"

// Category infers an expense category from entry keywords.
func Category(text string) string {
	t := strings.ToLower(apostrophes.Replace(text))
	for _, r := range categoryRules {
		if containsAny(t, r.words) {
			return r.name
		}
	}
	return CategoryOther
}
