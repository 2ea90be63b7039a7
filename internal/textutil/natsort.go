package textutil

import (
	"sort"
	"strings"
	"unicode"
)

// NaturalLess reports whether a sorts before b when digit runs are compared
// by numeric value and text is compared case-insensitively.
func NaturalLess(a, b string) bool {
	if c := naturalCompare(a, b); c != 0 {
		return c < 0
	}
	return a < b
}

// SortNatural sorts values in place using NaturalLess.
func SortNatural(values []string) {
	sort.SliceStable(values, func(i, j int) bool {
		return NaturalLess(values[i], values[j])
	})
}

// SortNaturalBy sorts items in place by the natural order of key(item).
func SortNaturalBy[T any](items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return NaturalLess(key(items[i]), key(items[j]))
	})
}

func naturalCompare(a, b string) int {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			si := i
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			sj := j
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}
			if c := compareDigits(string(ar[si:i]), string(br[sj:j])); c != 0 {
				return c
			}
			continue
		}
		ra, rb := unicode.ToLower(ar[i]), unicode.ToLower(br[j])
		if ra != rb {
			if ra < rb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(ar)-i < len(br)-j:
		return -1
	case len(ar)-i > len(br)-j:
		return 1
	}
	return 0
}

// compareDigits compares two digit runs numerically without overflowing on
// long runs.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
