// Package fingerprint computes stable content fingerprints for concept
// deduplication. Two candidate texts that differ only by casing, whitespace,
// or a generic "app idea" style prefix produce the same fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/apperrors"
)

// genericPrefixes are boilerplate lead-ins that carry no concept identity.
// They are stripped repeatedly, so "mobile app idea: ..." loses both
// "mobile app" and "idea".
var genericPrefixes = []string{
	"mobile app",
	"web app",
	"app idea",
	"startup idea",
	"business idea",
	"saas idea",
	"product idea",
	"an app",
	"app",
	"idea",
	"saas",
}

// Normalize lowercases text, strips generic prefixes and separator
// punctuation, and collapses internal whitespace. Returns
// apperrors.ErrEmptyConcept when nothing meaningful remains; an empty string
// is never silently fingerprinted.
func Normalize(text string) (string, error) {
	s := strings.ToLower(text)
	s = collapseWhitespace(s)

	for {
		trimmed := strings.TrimLeftFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || r == ':' || r == '-' || r == ','
		})
		stripped := stripOnePrefix(trimmed)
		if stripped == s {
			s = stripped
			break
		}
		s = stripped
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperrors.ErrEmptyConcept
	}
	return s, nil
}

// Fingerprint returns the SHA-256 hex digest of the normalized text's UTF-8
// bytes. It assumes its input came from Normalize.
func Fingerprint(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Compute is the common normalize-then-hash path.
func Compute(text string) (normalized, fp string, err error) {
	normalized, err = Normalize(text)
	if err != nil {
		return "", "", err
	}
	return normalized, Fingerprint(normalized), nil
}

// ConceptName derives a human-readable registry label from normalized text:
// first letter capitalized, truncated at a word boundary. Truncation and
// capitalization work on runes, so multibyte text is never split mid-rune.
func ConceptName(normalized string) string {
	const maxLen = 80
	name := normalized
	if len(name) > maxLen {
		cut := strings.LastIndexByte(name[:maxLen], ' ')
		if cut <= 0 {
			// Single long word; back off to the nearest rune boundary.
			cut = maxLen
			for cut > 0 && !utf8.RuneStart(name[cut]) {
				cut--
			}
		}
		name = name[:cut]
	}
	if name == "" {
		return name
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[size:]
}

// stripOnePrefix removes the first matching generic prefix, requiring a word
// boundary so "application tracker" is not mangled by the "app" prefix.
func stripOnePrefix(s string) string {
	for _, prefix := range genericPrefixes {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		rest := s[len(prefix):]
		if rest == "" {
			return rest
		}
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return rest
	}
	return s
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
