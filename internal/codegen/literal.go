package codegen

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// unescape interprets Go string escapes such as \t in s. Text that is not a
// valid escaped string is returned unchanged.
func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}

// goString renders a user-supplied delimiter as a Go string literal.
func goString(s string) string {
	return strconv.Quote(unescape(s))
}

func singleRune(s string) (rune, error) {
	u := unescape(s)
	if utf8.RuneCountInString(u) != 1 {
		return 0, fmt.Errorf("%q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(u)
	return r, nil
}

func runeLiteral(r rune) string {
	return strconv.QuoteRune(r)
}
