// Package names canonicalizes attorney names and headshot filenames so they
// can be compared with string similarity scoring.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// suffixTokens are standalone honorific/generational tokens removed during
// normalization. Matched against whole tokens only, after lowering.
var suffixTokens = map[string]struct{}{
	"esq": {},
	"jr":  {},
	"sr":  {},
	"ii":  {},
	"iii": {},
	"iv":  {},
}

// Normalize canonicalizes a raw name or filename stem into a comparable token
// string: lower-cased, diacritics folded to ASCII, punctuation replaced with
// spaces, honorific/generational suffixes removed, whitespace collapsed.
// It is pure and total; empty input normalizes to the empty string, and
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(raw)

	// Decompose and drop combining marks so "José" compares as "jose".
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	parts := strings.Fields(b.String())
	kept := parts[:0]
	for _, p := range parts {
		if _, ok := suffixTokens[p]; ok {
			continue
		}
		kept = append(kept, p)
	}

	return strings.Join(kept, " ")
}

// Stem strips the last dot-delimited extension segment from a filename.
// "smith_robert.backup.jpeg" becomes "smith_robert.backup"; a name with no
// dot is returned unchanged.
func Stem(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx <= 0 {
		return filename
	}
	return filename[:idx]
}

// NormalizeStem is Stem followed by Normalize, the canonical form used when
// scoring a candidate file against an attorney name.
func NormalizeStem(filename string) string {
	return Normalize(Stem(filename))
}

// Variants returns the plausible word orderings of a normalized name, always
// including the input itself. Filenames drop middle names and invert name
// order often enough that scoring against a handful of reorderings and taking
// the best is cheap and catches the common cases.
//
//	"robert j smith" -> {"robert j smith", "smith robert j", "robert smith"}
func Variants(normalized string) []string {
	variants := []string{normalized}
	seen := map[string]struct{}{normalized: {}}

	parts := strings.Fields(normalized)
	add := func(v string) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			variants = append(variants, v)
		}
	}

	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		add(last + " " + strings.Join(parts[:len(parts)-1], " "))
	}
	if len(parts) >= 3 {
		add(parts[0] + " " + parts[len(parts)-1])
	}

	return variants
}
