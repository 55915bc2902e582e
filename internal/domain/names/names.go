// Package names canonicalizes, tokenizes and validates free-text player names.
//
// Every cache key in the service is derived here so that equivalent spellings
// ("Serena  WILLIAMS", "serena williams") land on the same entry.
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLength is the longest raw name IsValid accepts, in characters.
	MaxLength = 100
	// minLetterRatio is the share of letters a valid name must carry.
	minLetterRatio = 0.7
)

// Name is the canonical form of a player name.
type Name struct {
	First string `json:"firstName"`
	Last  string `json:"lastName"`
	Full  string `json:"fullName"`
}

// IsZero reports whether no token survived normalization.
func (n Name) IsZero() bool { return n.Full == "" }

// Normalize folds diacritics, lower-cases, drops everything except letters,
// digits, underscore, whitespace, hyphen and apostrophe, then collapses
// whitespace. It never fails; blank input yields the zero Name.
func Normalize(raw string) Name {
	full := canonical(raw)
	if full == "" {
		return Name{}
	}
	first, last, _ := strings.Cut(full, " ")
	return Name{First: first, Last: last, Full: full}
}

// FirstNameOf returns the first token of the normalized name.
func FirstNameOf(raw string) string {
	return Normalize(raw).First
}

// Key derives a cache key: namespace followed by the normalized full name.
func Key(namespace, raw string) string {
	return namespace + Normalize(raw).Full
}

// IsValid rejects blank input, names over MaxLength characters, single-token
// names and strings where letters make up less than 70% of the characters.
func IsValid(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(trimmed)
	if n == 0 || n > MaxLength {
		return false
	}
	if !strings.ContainsFunc(trimmed, unicode.IsSpace) {
		return false
	}
	letters := 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) >= float64(n)*minLetterRatio
}

func canonical(raw string) string {
	folded, _, err := transform.String(foldChain(), raw)
	if err != nil {
		folded = raw
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case keep(r):
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// keep matches the ASCII word class plus hyphen and apostrophe.
func keep(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == '\'':
		return true
	}
	return false
}

// foldChain decomposes, drops combining marks and recomposes. A transformer
// chain holds state, so each call gets its own.
func foldChain() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
