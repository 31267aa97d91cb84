package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"pohrebni-vence.cz/storefront/pkg/global"
)

// Format renders a with locale grouping: "1 299 Kč" for cs, "CZK 1,299" for en.
// Haléře are shown only when non-zero.
func Format(a Amount, locale string) string {
	tag := language.Czech
	if global.NormalizeLocale(locale) == global.LocaleEN {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	var digits string
	if a%MinorUnits == 0 {
		digits = p.Sprintf("%d", int64(a/MinorUnits))
	} else {
		f, _ := a.Decimal().Float64()
		digits = p.Sprint(number.Decimal(f, number.Scale(2)))
	}

	if tag == language.English {
		return Currency + " " + digits
	}
	return digits + " Kč"
}

// FormatGross adds VAT at rate before formatting.
func FormatGross(net Amount, rate float64, locale string) string {
	return Format(WithVAT(net, rate), locale)
}
