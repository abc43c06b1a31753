package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Regularize folds a rune into the form the dictionaries are keyed by.
// Full-width forms (including the ideographic space) become their half-width
// counterparts and, when lowercase is set, letters are lowercased.
func Regularize(r rune, lowercase bool) rune {
	if r >= 0x3000 {
		if p := width.LookupRune(r); p.Kind() == width.EastAsianFullwidth {
			if n := p.Narrow(); n != 0 {
				r = n
			}
		}
	}
	if lowercase && unicode.IsUpper(r) {
		r = unicode.ToLower(r)
	}
	return r
}

// NormalizeWord trims a dictionary entry and regularizes every rune of it.
// It returns "" for blank entries.
func NormalizeWord(word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		return Regularize(r, true)
	}, word)
}

// IsPunctuation checks if a string consists entirely of punctuation or special CJK symbols.
func IsPunctuation(s string) bool {
	for _, r := range s {
		if !isPunct(r) {
			return false
		}
	}
	return true
}

// ContainsPunctuation checks if any part of the string contains punctuation or special symbols.
func ContainsPunctuation(s string) bool {
	return strings.IndexFunc(s, isPunct) >= 0
}

func isPunct(r rune) bool {
	if unicode.IsPunct(r) || unicode.IsSymbol(r) {
		return true
	}
	// CJK Symbols and Punctuation
	if r >= 0x3000 && r <= 0x303F {
		return true
	}
	// Full-width forms
	return r >= 0xFF00 && r <= 0xFFEF
}
