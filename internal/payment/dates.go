package payment

import (
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

// Rent is due on the 7th of the month it covers
const dueDay = "07"

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsAdvancePayment reports whether a payment was made before the first day
// of the month it covers. Both values are compared as date strings.
func IsAdvancePayment(periodMonth, paidDate string) bool {
	if periodMonth == "" || paidDate == "" {
		return false
	}
	monthStart := prefix(periodMonth, 7) + "-01"
	return prefix(paidDate, 10) < monthStart
}

// DueDate returns the due date for a YYYY-MM period
func DueDate(monthYear string) string {
	return prefix(monthYear, 7) + "-" + dueDay
}

// FormatDate normalizes a date or timestamp to YYYY-MM-DD
func FormatDate(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	if isoDate.MatchString(value) {
		return value, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(dateLayout), true
}

// CurrentMonth returns t as YYYY-MM
func CurrentMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
