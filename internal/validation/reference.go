package validation

import (
	"fmt"
	"strings"
	"time"
)

const referenceSuffixRange = 1000

// Reference builds a payment reference. The payer form REF-<cui>-<YYYYMMDD>-<n>
// is used when the payer CUI and the payment date are both usable, otherwise
// REF-<unix millis>-<n>.
func Reference(payerCUI, paymentDate string, now time.Time, suffix int) string {
	payerCUI = strings.TrimSpace(payerCUI)
	if payerCUI != "" {
		if date, err := time.Parse(dateLayout, strings.TrimSpace(paymentDate)); err == nil {
			return fmt.Sprintf("REF-%s-%s-%d", payerCUI, date.Format("20060102"), suffix)
		}
	}
	return fmt.Sprintf("REF-%d-%d", now.UnixMilli(), suffix)
}
