// Package locale normalizes free-form account locale strings into canonical
// (language, country, variant) triples.
//
// Parsing is intentionally strict: a loosely parsed locale would cause silent
// mis-localization of billing emails, which is far worse than a visible
// failure. Only the exact shapes `ll`, `ll_CC`, and `ll_CC_variant` are
// accepted, where ll is two lowercase ASCII letters and CC two uppercase
// ASCII letters.
package locale

import (
	"strings"

	"billmail/internal/types"
)

// Locale is a canonical parsed locale.
type Locale struct {
	Language string // two lowercase ASCII letters, always present
	Country  string // two uppercase ASCII letters, or empty
	Variant  string // free-form, or empty
}

// String reassembles the canonical form. Parse(l.String()) round-trips.
func (l Locale) String() string {
	var b strings.Builder
	b.WriteString(l.Language)
	if l.Country != "" {
		b.WriteByte('_')
		b.WriteString(l.Country)
		if l.Variant != "" {
			b.WriteByte('_')
			b.WriteString(l.Variant)
		}
	}
	return b.String()
}

// Parse converts a raw locale string into a canonical Locale. Any shape other
// than `ll`, `ll_CC`, or `ll_CC_variant` fails with a locale_invalid_format
// error. The empty string is also an error; callers handle the "account has
// no locale" case by substituting a default before calling Parse.
func Parse(raw string) (Locale, error) {
	parts := strings.SplitN(raw, "_", 3)

	if len(parts[0]) != 2 || !isLowerAlpha(parts[0]) {
		return Locale{}, invalid(raw)
	}

	loc := Locale{Language: parts[0]}

	if len(parts) >= 2 {
		if len(parts[1]) != 2 || !isUpperAlpha(parts[1]) {
			return Locale{}, invalid(raw)
		}
		loc.Country = parts[1]
	}

	if len(parts) == 3 {
		if parts[2] == "" {
			return Locale{}, invalid(raw)
		}
		loc.Variant = parts[2]
	}

	return loc, nil
}

// Resolve parses an account's locale, substituting the fallback when the
// account carries none. An account with no locale is normal; an account with
// a malformed locale is a hard error.
func Resolve(accountLocale, fallback string) (Locale, error) {
	if accountLocale == "" {
		return Parse(fallback)
	}
	return Parse(accountLocale)
}

func invalid(raw string) error {
	return types.NewAppErrorWithDetails(
		types.ErrCodeLocaleFormat,
		"locale must be of the form ll, ll_CC, or ll_CC_variant",
		nil,
		map[string]any{"locale": raw},
	)
}

func isLowerAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

func isUpperAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
