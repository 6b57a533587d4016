package observability

import (
	"strings"

	"go.uber.org/zap"
)

// RedactedValue replaces secrets too short to partially reveal.
const RedactedValue = "[REDACTED]"

// MaskSecret keeps a Paystack key's mode prefix (sk_test_, sk_live_) and its
// last four characters so operators can tell keys apart in logs.
func MaskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) < 12 {
		return RedactedValue
	}

	prefix := ""
	for _, mode := range []string{"sk_test_", "sk_live_"} {
		if strings.HasPrefix(value, mode) {
			prefix = mode
			break
		}
	}
	return prefix + "****" + value[len(value)-4:]
}

// MaskAccountNumber shows only the last four digits of a bank account number.
func MaskAccountNumber(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

// AccountField is a zap field carrying a masked account number.
func AccountField(key, value string) zap.Field {
	return zap.String(key, MaskAccountNumber(value))
}
