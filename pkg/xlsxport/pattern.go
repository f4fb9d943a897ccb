package xlsxport

import "strings"

// MatchPattern reports whether a column name matches a selector. Selectors
// support a leading or trailing wildcard: "*x*" contains, "*s" suffix,
// "p*" prefix, anything else is an exact match. Matching is case sensitive.
func MatchPattern(pattern, name string) bool {
	starts := strings.HasPrefix(pattern, "*")
	ends := strings.HasSuffix(pattern, "*")
	switch {
	case starts && ends:
		if len(pattern) <= 2 {
			return true
		}
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case starts:
		return strings.HasSuffix(name, pattern[1:])
	case ends:
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return pattern == name
	}
}

// matchColumns returns the zero-based indexes of columns matched by the
// selector, preserving column order.
func matchColumns(pattern string, columns []string) []int {
	var out []int
	for i, name := range columns {
		if MatchPattern(pattern, name) {
			out = append(out, i)
		}
	}
	return out
}
