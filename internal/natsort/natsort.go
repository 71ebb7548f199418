// Package natsort orders strings the way humans read numbered filenames:
// runs of digits compare by numeric value, so "chunk_10" sorts after
// "chunk_2". Leading zeros do not affect the comparison.
package natsort

import "sort"

// Less reports whether a orders before b under natural ordering.
func Less(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		ad, arest, aIsNum := nextToken(a)
		bd, brest, bIsNum := nextToken(b)

		switch {
		case aIsNum && bIsNum:
			if c := compareDigits(ad, bd); c != 0 {
				return c < 0
			}
		case aIsNum != bIsNum:
			// Digit runs order before text runs.
			return aIsNum
		default:
			if ad != bd {
				return ad < bd
			}
		}
		a, b = arest, brest
	}
	return len(a) < len(b)
}

// Sort sorts ss in place in natural order.
func Sort(ss []string) {
	sort.Slice(ss, func(i, j int) bool { return Less(ss[i], ss[j]) })
}

// nextToken splits off the leading maximal digit or non-digit run.
func nextToken(s string) (tok, rest string, isNum bool) {
	isNum = isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == isNum {
		i++
	}
	return s[:i], s[i:], isNum
}

// compareDigits compares two digit runs by numeric value.
func compareDigits(a, b string) int {
	a = trimZeros(a)
	b = trimZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func trimZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
