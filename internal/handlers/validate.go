package handlers

import (
	"strings"
	"unicode/utf8"

	"taxonomy/internal/store"
)

// Validation limits for taxonomy fields. The stores enforce semantics
// (uniqueness, cycles); these bounds just keep request payloads sane.
const (
	maxSlugLen        = 300
	maxNameLen        = 300
	maxDescriptionLen = 2_000
	maxLocaleLen      = 35 // longest registered BCP 47 tag
	maxBatchSize      = 1_000
)

// validateTranslations checks per-locale inputs and returns the first error
// found, or "" when everything is within bounds. Presence of a name is the
// store's concern; this only bounds lengths and locale shape.
func validateTranslations(translations map[string]store.Translation) string {
	for locale, tr := range translations {
		if msg := validateLocale(locale); msg != "" {
			return msg
		}
		if utf8.RuneCountInString(tr.Name) > maxNameLen {
			return "Name is too long (max 300 characters)."
		}
		if utf8.RuneCountInString(tr.Description) > maxDescriptionLen {
			return "Description is too long (max 2,000 characters)."
		}
	}
	return ""
}

// validateLocale checks a locale tag: non-empty, bounded, and made of
// letters, digits, and hyphens.
func validateLocale(locale string) string {
	if strings.TrimSpace(locale) == "" {
		return "Locale must not be empty."
	}
	if len(locale) > maxLocaleLen {
		return "Locale tag is too long."
	}
	for _, r := range locale {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return "Locale tag contains invalid characters."
		}
	}
	return ""
}

// validateSlug bounds an explicitly provided slug. Emptiness and well-
// formedness are left to the store, which also derives missing slugs.
func validateSlug(slug string) string {
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	return ""
}
