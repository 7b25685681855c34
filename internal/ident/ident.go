// Package ident generates opaque record IDs and human-readable project slugs.
//
// IDs are random hex tokens with no uniqueness check — callers rely on
// primary-key constraints to catch the astronomically rare collision.
// Slugs are short mnemonics derived from project names; collisions among
// siblings are resolved by the caller with Disambiguate.
package ident

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// idLength is the length of generated record IDs in hex characters.
const idLength = 16

// defaultSlug is used when a name normalizes to nothing.
const defaultSlug = "prj"

// GenerateID returns a fixed-length random lowercase-hex token.
func GenerateID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:idLength]
}

// foldASCII strips combining marks so "Café" folds to "cafe" before
// the alphanumeric filter runs.
var foldASCII = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// GenerateSlug derives a short mnemonic from a project name.
//
// Multi-word names take up to the first four words' initials ("Data Sync
// Service" → "dss"). Single-word names strip vowels and take up to four
// leading consonants ("handoff" → "hndf"), falling back to the first four
// raw characters when fewer than two consonants remain.
func GenerateSlug(name string) string {
	words := normalizeWords(name)

	if len(words) == 0 {
		return defaultSlug
	}

	if len(words) > 1 {
		var b strings.Builder
		for i, w := range words {
			if i == 4 {
				break
			}
			b.WriteByte(w[0])
		}
		return b.String()
	}

	word := words[0]
	consonants := stripVowels(word)
	if len(consonants) < 2 {
		if len(word) > 4 {
			return word[:4]
		}
		return word
	}
	if len(consonants) > 4 {
		consonants = consonants[:4]
	}
	return consonants
}

// Disambiguate appends an incrementing numeric suffix (2, 3, …) until
// taken reports the slug as free. The base slug itself is tried first.
func Disambiguate(slug string, taken func(string) bool) string {
	if !taken(slug) {
		return slug
	}
	for i := 2; ; i++ {
		candidate := slug + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// normalizeWords lowercases, folds away diacritics, and splits a name
// into alphanumeric words.
func normalizeWords(name string) []string {
	folded, _, err := transform.String(foldASCII, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

func stripVowels(word string) string {
	var b strings.Builder
	for _, r := range word {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
