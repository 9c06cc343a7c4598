package util

import (
	"strings"
)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != '-' && r != ' ' {
			return ""
		}
	}
	return b.String()
}

// NormalizeBusinessNumber strips hyphens and spaces from a business registration
// number ("111-11-11111" -> "1111111111"). ok is false unless exactly 10 digits remain.
func NormalizeBusinessNumber(raw string) (string, bool) {
	digits := digitsOnly(strings.TrimSpace(raw))
	if len(digits) != 10 {
		return "", false
	}
	return digits, true
}

// NormalizePhone accepts Korean mobile numbers (010, 011, 016-019) with or without hyphens.
func NormalizePhone(raw string) (string, bool) {
	digits := digitsOnly(strings.TrimSpace(raw))
	if len(digits) < 10 || len(digits) > 11 {
		return "", false
	}
	if !strings.HasPrefix(digits, "01") {
		return "", false
	}
	switch digits[2] {
	case '0', '1', '6', '7', '8', '9':
	default:
		return "", false
	}
	if digits[2] == '0' && len(digits) != 11 {
		return "", false
	}
	return digits, true
}

// FormatBusinessNumber renders the 3-2-5 form used on 사업자등록증
func FormatBusinessNumber(digits string) string {
	if len(digits) != 10 {
		return digits
	}
	return digits[:3] + "-" + digits[3:5] + "-" + digits[5:]
}
