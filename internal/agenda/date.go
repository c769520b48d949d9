package agenda

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	monthDayRE = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(\d{1,2})\b`)
	dateJPRE   = regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日`)
	isoRE      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	parensRE   = regexp.MustCompile(`[（(][^（()）]*[）)]`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// StripWeekday removes parenthesized segments such as "(Thu)" or "（木）"
// from a date line: "July 10 (Thu) 10:25-12:10" becomes "July 10  10:25-12:10".
func StripWeekday(s string) string {
	return strings.TrimSpace(parensRE.ReplaceAllString(s, ""))
}

// NormalizeDate extracts a civil date from raw seminar text. Supported
// shapes: "July 10", "Jul 10", "2025年7月10日", "2025-07-10", with any
// trailing time-of-day ignored. Month-day dates take their year from
// baseYear. Dates already past that fall in January through March are
// rolled into the next year: the listings span an academic year, so an
// early-year date on a page scraped in autumn means next spring.
func NormalizeDate(raw string, baseYear int, today time.Time) (Date, bool) {
	raw = StripWeekday(raw)

	if m := dateJPRE.FindStringSubmatch(raw); m != nil {
		return finishDate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), today)
	}
	if m := isoRE.FindStringSubmatch(raw); m != nil {
		return finishDate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), today)
	}
	if m := monthDayRE.FindStringSubmatch(raw); m != nil {
		month, ok := monthsByPrefix[strings.ToLower(m[1])]
		if !ok {
			return Date{}, false
		}
		return finishDate(baseYear, month, atoi(m[2]), today)
	}
	return Date{}, false
}

func finishDate(year int, month time.Month, day int, today time.Time) (Date, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return Date{}, false
	}
	d := NewDate(year, month, day)
	// Reject nonsense like June 31 that time.Date would normalize away.
	if d.Month() != month || d.Day() != day {
		return Date{}, false
	}
	if d.Before(today) && d.Month() <= time.March {
		d = NewDate(d.Year()+1, d.Month(), d.Day())
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
