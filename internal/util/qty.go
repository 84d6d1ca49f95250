package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern   = regexp.MustCompile(`(?:^|[^0-9.,])(\d{1,3}(?:[\s,]\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`)
	withUnitPattern = regexp.MustCompile(`(?i)(?:^|[^0-9.,])(\d{1,3}(?:[\s,]\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s*(pcs|pc|nos|no\.?|sets?|rolls?|drums?|coils?|km|mtrs?|meters?|metres?|m)\b`)
	groupedPattern  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// ParseQty reads a quantity such as "500", "1,000 m" or "2 drums" out of free text.
// When several numbers are present the one attached to a unit wins, then the last one.
func ParseQty(input string) (float64, bool) {
	line := strings.ReplaceAll(input, "\u00A0", " ")

	token := ""
	if wm := withUnitPattern.FindAllStringSubmatch(line, -1); len(wm) > 0 {
		token = strings.TrimSpace(wm[len(wm)-1][1])
	} else if nm := numberPattern.FindAllStringSubmatch(line, -1); len(nm) > 0 {
		token = strings.TrimSpace(nm[len(nm)-1][1])
	}
	if token == "" {
		return 0, false
	}

	qty, err := strconv.ParseFloat(normalizeNumericToken(token), 64)
	if err != nil {
		return 0, false
	}
	return qty, true
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if groupedPattern.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	return compact
}
