package krx

import (
	"strconv"
	"strings"
	"time"
)

// parseNumber parses KRX number cells like "35,010.12", "+1,234" or "-0.05".
// "-" and "" mean no value.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return 0, false
	}
	s = strings.TrimPrefix(s, "+")

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// parseDate parses KRX date cells: "2024/01/02", "2024-01-02" or "20240102"
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "", "-", "", ".", "").Replace(s)
	if len(s) != 8 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// krxDate formats a date the way the portal expects it in requests
func krxDate(t time.Time) string {
	return t.Format("20060102")
}
