package validation

import (
	"regexp"
	"strings"
)

var (
	cnicPattern  = regexp.MustCompile(`^\d{5}-\d{7}-\d$`)
	phonePattern = regexp.MustCompile(`^\+92\d{10}$`)
)

// FormatCNIC renders a national identity number as NNNNN-NNNNNNN-N when the input holds
// exactly thirteen digits once separators are removed. Anything else is returned trimmed
// so validation can report it.
func FormatCNIC(raw string) string {
	trimmed := strings.TrimSpace(raw)
	digits := digitsOnly(trimmed)
	if len(digits) != 13 || len(digits)+strings.Count(trimmed, "-")+strings.Count(trimmed, " ") != len(trimmed) {
		return trimmed
	}
	return digits[:5] + "-" + digits[5:12] + "-" + digits[12:]
}

// IsValidCNIC reports whether v is in dashed national identity format.
func IsValidCNIC(v string) bool {
	return cnicPattern.MatchString(v)
}

// NormalizePhone converts local mobile numbers to +92 international form.
// 03001234567 and 923001234567 both become +923001234567; +92 numbers only lose separators.
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	compact := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(trimmed)
	switch {
	case strings.HasPrefix(compact, "+"):
		return compact
	case strings.HasPrefix(compact, "0092"):
		return "+" + compact[2:]
	case strings.HasPrefix(compact, "92") && len(compact) == 12:
		return "+" + compact
	case strings.HasPrefix(compact, "0") && len(compact) == 11:
		return "+92" + compact[1:]
	}
	return compact
}

// IsValidPhone reports whether v is a normalised +92 mobile number.
func IsValidPhone(v string) bool {
	return phonePattern.MatchString(v)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
