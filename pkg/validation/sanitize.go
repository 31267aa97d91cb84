package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MinTextLength = 2
	MaxTextLength = 50
)

// SanitizeText cleans free text entered for a ribbon. It strips angle
// brackets and anything that is not a letter, number, punctuation mark or
// space, collapses whitespace and clamps the result to MaxTextLength runes.
// Over-long input is truncated, not rejected.
func SanitizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '<' || r == '>':
			return -1
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsPunct(r), unicode.IsMark(r):
			return r
		}
		return -1
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > MaxTextLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxTextLength]))
	}
	return s
}

// strippedCharacters reports whether sanitization removed characters beyond
// whitespace normalization and truncation.
func strippedCharacters(raw, sanitized string) bool {
	collapsed := strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
	if utf8.RuneCountInString(collapsed) > MaxTextLength {
		collapsed = strings.TrimSpace(string([]rune(collapsed)[:MaxTextLength]))
	}
	return collapsed != sanitized
}

var forbiddenPatterns = []*regexp.Regexp{
	// markup and script injection
	regexp.MustCompile(`<[^>]*>`),
	regexp.MustCompile(`(?i)<\s*/?\s*script`),
	regexp.MustCompile(`(?i)(?:java|vb)script\s*:`),
	regexp.MustCompile(`(?i)data\s*:\s*[a-z]+/[a-z0-9.+-]+`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	// english
	regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:fuck|shit|bitch|cunt|asshole|bastard|whore|slut|nigg)`),
	// czech
	regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:kurv|píč|pič|kokot|zmrd|čurák|curak|hovn|debil|mrdk|sráč|srac)`),
}

// ContainsForbiddenContent reports whether s matches a profanity or markup pattern.
func ContainsForbiddenContent(s string) bool {
	for _, p := range forbiddenPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
