package archive

import (
	"sort"
	"strings"
)

// naturalToken is one run of a name: either a digit run compared
// numerically or a non-digit run compared as lowercased text.
type naturalToken struct {
	num  bool
	text string
}

func naturalTokens(s string) []naturalToken {
	var tokens []naturalToken
	start := 0
	digits := false
	for i := 0; i <= len(s); i++ {
		var isDigit bool
		if i < len(s) {
			isDigit = s[i] >= '0' && s[i] <= '9'
		}
		if i == len(s) || isDigit != digits {
			if i > start {
				text := s[start:i]
				if !digits {
					text = strings.ToLower(text)
				}
				tokens = append(tokens, naturalToken{num: digits, text: text})
			}
			start = i
			digits = isDigit
		}
	}
	return tokens
}

// compareDigits compares two digit runs by numeric value. The runs may
// be arbitrarily long, so they are compared as trimmed strings rather
// than parsed integers.
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

// NaturalCompare orders names so that embedded numbers compare by
// value: "task2" sorts before "task10". Non-digit runs compare
// case-insensitively; a digit run sorts before a non-digit run at the
// same position.
func NaturalCompare(a, b string) int {
	at := naturalTokens(a)
	bt := naturalTokens(b)
	for i := 0; i < len(at) && i < len(bt); i++ {
		x, y := at[i], bt[i]
		switch {
		case x.num && y.num:
			if c := compareDigits(x.text, y.text); c != 0 {
				return c
			}
		case !x.num && !y.num:
			if c := strings.Compare(x.text, y.text); c != 0 {
				return c
			}
		case x.num:
			return -1
		default:
			return 1
		}
	}
	switch {
	case len(at) < len(bt):
		return -1
	case len(at) > len(bt):
		return 1
	default:
		return 0
	}
}

// NaturalLess reports whether a orders before b under NaturalCompare.
func NaturalLess(a, b string) bool {
	return NaturalCompare(a, b) < 0
}

// SortNatural sorts names in place in natural order.
func SortNatural(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return NaturalLess(names[i], names[j])
	})
}
