package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	cuiPattern  = regexp.MustCompile(`^\d{2,10}$`)
	ibanPattern = regexp.MustCompile(`^RO\d{2}[A-Z0-9]{20}$`)
)

var hundred = decimal.NewFromInt(100)

// ValidCUI reports whether value is a CUI/CIF of 2 to 10 decimal digits.
func ValidCUI(value string) bool {
	return cuiPattern.MatchString(value)
}

// NormalizeIBAN drops all whitespace and upper-cases the account.
func NormalizeIBAN(value string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value))
}

// ValidIBAN checks the Romanian structural shape only; the mod-97 checksum is
// not verified.
func ValidIBAN(value string) bool {
	iban := NormalizeIBAN(value)
	return len(iban) == 24 && ibanPattern.MatchString(iban)
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func parseRate(raw string) decimal.Decimal {
	d, ok := parseAmount(raw)
	if !ok {
		return decimal.Zero
	}
	return d
}

// Amounts holds the derived money fields of a payment order.
type Amounts struct {
	VAT   decimal.Decimal
	Tax   decimal.Decimal
	Total decimal.Decimal
}

// ComputeAmounts derives VAT, tax and total from the base amount and the two
// percentages. Each result is rounded half-up to 2 decimals; the total is
// rounded from the unrounded sum.
func ComputeAmounts(base, vatRate, taxRate decimal.Decimal) Amounts {
	vat := base.Mul(vatRate).Div(hundred)
	tax := base.Mul(taxRate).Div(hundred)
	return Amounts{
		VAT:   vat.Round(2),
		Tax:   tax.Round(2),
		Total: base.Add(vat).Add(tax).Round(2),
	}
}
