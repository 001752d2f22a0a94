package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DueLayout is the wire format for due dates throughout the bot.
const DueLayout = "02.01.2006"

var monthsUZ = map[string]time.Month{
	"yanvar": 1, "fevral": 2, "mart": 3, "aprel": 4, "may": 5, "iyun": 6,
	"iyul": 7, "avgust": 8, "sentabr": 9, "sentyabr": 9, "oktabr": 10,
	"noyabr": 11, "dekabr": 12,
}

var (
	reDateNum  = regexp.MustCompile(`\b(\d{1,2})[.\-/](\d{1,2})(?:[.\-/](\d{2,4}))?\b`)
	reDayMonth = regexp.MustCompile(`\b(\d{1,2})\s*[- ]\s*([\p{L}]+)\b`)
)

// DueDate resolves a due-date expression against the supplied "now".
// Relative words first, then D.M.Y with optional 2- or 4-digit year, then
// "<day> <uzbek month name>". Invalid calendar dates resolve to false so the
// caller can reprompt instead of recording the 31st of February.
func DueDate(text string, now time.Time) (string, bool) {
	t := strings.ToLower(strings.ReplaceAll(text, "–", "-"))
	if strings.Contains(t, "ertaga") || strings.Contains(t, "завтра") {
		return now.AddDate(0, 0, 1).Format(DueLayout), true
	}
	if strings.Contains(t, "bugun") || strings.Contains(t, "сегодня") {
		return now.Format(DueLayout), true
	}
	if m := reDateNum.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		return calendarDate(year, month, day)
	}
	for _, m := range reDayMonth.FindAllStringSubmatch(t, -1) {
		month, ok := monthsUZ[m[2]]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		return calendarDate(now.Year(), int(month), day)
	}
	return "", false
}

// calendarDate rejects combinations time.Date would silently normalize
// (31.02 becoming the 2nd-3rd of March).
func calendarDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return "", false
	}
	return d.Format(DueLayout), true
}
