package runtime

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

const (
	ansiClear = "\033[0m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
	ansiBold  = "\033[1m"
)

// prettyWidth is the line length above which containers are indented.
const prettyWidth = 120

type recordViewer struct {
	w       io.Writer
	num     int
	colored bool
}

func newViewer(w io.Writer, colored bool) *recordViewer {
	return &recordViewer{w: w, num: 1, colored: colored}
}

func (v *recordViewer) paint(s, code string, bold bool) string {
	if !v.colored {
		return s
	}
	if bold {
		return ansiBold + code + s + ansiClear
	}
	return code + s + ansiClear
}

// view prints one titled record. Headers are used only when they line up
// with the values.
func (v *recordViewer) view(headers []string, args ...any) {
	fmt.Fprintln(v.w, v.paint(fmt.Sprintf("[Record %d]", v.num), ansiCyan, true))
	vals := expandArgs(args)
	if len(headers) > 0 && len(headers) == len(vals) {
		v.viewWithHeaders(vals, headers)
	} else {
		v.viewPlain(vals)
	}
	fmt.Fprintln(v.w)
	v.num++
}

func (v *recordViewer) viewPlain(vals []any) {
	numWidth := len(fmt.Sprint(len(vals)))
	for i, val := range vals {
		for j, line := range strings.Split(prettyValue(val), "\n") {
			num := "."
			if j == 0 {
				num = fmt.Sprint(i + 1)
			}
			fmt.Fprintf(v.w, "%-*s  %s\n", numWidth, num, v.paint(line, ansiGreen, false))
		}
	}
}

func (v *recordViewer) viewWithHeaders(vals []any, headers []string) {
	numWidth := len(fmt.Sprint(len(vals)))
	headerWidth := 0
	for _, h := range headers {
		if w := displayWidth(h); w > headerWidth {
			headerWidth = w
		}
	}
	for i, val := range vals {
		for j, line := range strings.Split(prettyValue(val), "\n") {
			num, header := "", ""
			if j == 0 {
				num, header = fmt.Sprint(i+1), headers[i]
			}
			fmt.Fprintf(v.w, "%-*s | %s | %s\n", numWidth, num, padRight(header, headerWidth), v.paint(line, ansiGreen, false))
		}
	}
}

// prettyValue renders containers as JSON, indented once they get long.
func prettyValue(val any) string {
	if val == nil {
		return "<nil>"
	}
	switch reflect.ValueOf(val).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if _, ok := val.([]byte); ok {
			break
		}
		b, err := json.Marshal(val)
		if err != nil {
			break
		}
		if len(b) <= prettyWidth {
			return string(b)
		}
		if b, err = json.MarshalIndent(val, "", " "); err == nil {
			return string(b)
		}
	}
	return formatValue(val)
}

func padRight(s string, width int) string {
	if n := width - displayWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

// wideRanges covers the East Asian Fullwidth, Wide and the most common
// Ambiguous blocks; runes inside occupy two terminal cells.
var wideRanges = [][2]rune{
	{0x00A1, 0x00A1}, {0x00A7, 0x00A8}, {0x00B0, 0x00B4}, {0x00B6, 0x00BA},
	{0x00BC, 0x00BF}, {0x00D7, 0x00D7}, {0x00F7, 0x00F7},
	{0x0391, 0x03A9}, {0x03B1, 0x03C9}, {0x0401, 0x0401}, {0x0410, 0x044F}, {0x0451, 0x0451},
	{0x1100, 0x115F}, {0x2010, 0x2027}, {0x2030, 0x203E}, {0x2100, 0x214F},
	{0x2190, 0x21FF}, {0x2200, 0x22FF}, {0x2460, 0x24FF}, {0x2500, 0x257F},
	{0x25A0, 0x25FF}, {0x2600, 0x26FF}, {0x2E80, 0x303E}, {0x3041, 0x33FF},
	{0x3400, 0x4DBF}, {0x4E00, 0x9FFF}, {0xA000, 0xA4CF}, {0xA960, 0xA97F},
	{0xAC00, 0xD7A3}, {0xE000, 0xF8FF}, {0xF900, 0xFAFF}, {0xFE10, 0xFE19},
	{0xFE30, 0xFE6F}, {0xFF00, 0xFF60}, {0xFFE0, 0xFFE6},
	{0x1F300, 0x1F64F}, {0x1F900, 0x1F9FF}, {0x20000, 0x2FFFD}, {0x30000, 0x3FFFD},
}

func runeWidth(r rune) int {
	if r < 0x00A1 {
		return 1
	}
	lo, hi := 0, len(wideRanges)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case r < wideRanges[mid][0]:
			hi = mid - 1
		case r > wideRanges[mid][1]:
			lo = mid + 1
		default:
			return 2
		}
	}
	return 1
}
