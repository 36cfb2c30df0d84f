// Package display transforms domain objects into flat, display-ready
// structures for template rendering. All presentation decisions (amount and
// date formatting per locale) happen here, so templates stay free of logic.
package display

import (
	"fmt"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"billmail/internal/locale"
)

// dateLayouts maps language codes to a date layout. Formatting falls back to
// ISO 8601 for languages without an entry.
var dateLayouts = map[string]string{
	"en": "Jan 2, 2006",
	"fr": "02/01/2006",
	"de": "02.01.2006",
	"es": "02/01/2006",
	"it": "02/01/2006",
}

const isoDateLayout = "2006-01-02"

// FormatAmount renders a monetary amount with its currency symbol using the
// locale's number conventions. An unknown currency code degrades to
// "CODE 12.34" rather than failing; formatting problems must never abort an
// email whose amounts are already computed upstream.
func FormatAmount(amount float64, currencyCode string, loc locale.Locale) string {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return fmt.Sprintf("%s %.2f", currencyCode, amount)
	}

	printer := message.NewPrinter(languageTag(loc))
	return printer.Sprint(currency.Symbol(unit.Amount(amount)))
}

// FormatDate renders a date in the locale's customary short form.
func FormatDate(t time.Time, loc locale.Locale) string {
	if t.IsZero() {
		return ""
	}
	layout, ok := dateLayouts[loc.Language]
	if !ok {
		layout = isoDateLayout
	}
	return t.Format(layout)
}

// languageTag converts a canonical locale into an x/text language tag,
// falling back to English when the pair is not a registered tag.
func languageTag(loc locale.Locale) language.Tag {
	raw := loc.Language
	if loc.Country != "" {
		raw = loc.Language + "-" + loc.Country
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.English
	}
	return tag
}
