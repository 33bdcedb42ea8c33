package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNum = regexp.MustCompile(`[^0-9.\-]`)

// ParseNumber parses numbers the way spreadsheets export them: grouping
// spaces (including NBSP/NNBSP/thin space), decimal commas, parenthesized
// negatives. "1 234,50" -> 1234.5, "(42)" -> -42.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}

	repl := strings.NewReplacer("\u00A0", "", "\u2009", "", "\u202F", "", " ", "", "\t", "", ",", ".")
	s = repl.Replace(s)
	s = rxKeepNum.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
