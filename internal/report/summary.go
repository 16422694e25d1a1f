package report

import (
	"fmt"
	"strings"

	"certsentry/internal/certs"
)

// WarnThresholdDays is the window before expiry that triggers a warning.
const WarnThresholdDays = 30

const dateLayout = "02.01.2006"

// Summary builds the text message that accompanies the Excel report:
// expired certificates first, then those expiring within the threshold.
func Summary(infos []certs.Info) string {
	var expired, expiringSoon []string
	for _, ci := range infos {
		switch {
		case ci.DaysLeft < 0:
			expired = append(expired, fmt.Sprintf("👤 %s — %s (expired %d d.)",
				ci.CommonName, ci.NotAfter.Format(dateLayout), -ci.DaysLeft))
		case ci.DaysLeft <= WarnThresholdDays:
			expiringSoon = append(expiringSoon, fmt.Sprintf("👤 %s — %s - days left – %d.",
				ci.CommonName, ci.NotAfter.Format(dateLayout), ci.DaysLeft))
		}
	}

	var parts []string
	if len(expired) > 0 {
		parts = append(parts, "❌ Expired certificates:")
		parts = append(parts, expired...)
		parts = append(parts, "")
	}
	if len(expiringSoon) > 0 {
		parts = append(parts, fmt.Sprintf("⚠️ Expiring soon (%d days):", WarnThresholdDays))
		parts = append(parts, expiringSoon...)
	}
	if len(parts) == 0 {
		return "✅ All certificates are valid or expire far in the future."
	}
	return strings.Join(parts, "\n")
}

// CountExpired returns how many certificates are already past their
// expiration date.
func CountExpired(infos []certs.Info) int {
	n := 0
	for _, ci := range infos {
		if ci.DaysLeft < 0 {
			n++
		}
	}
	return n
}
