// Package runtime holds the support code inlined into generated programs.
//
// Files listed in sources.go must depend on the standard library only: their
// declarations are copied verbatim into package main of every program that
// needs them, next to the user's fragments.
package runtime

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Output formats understood by linePrinter.
const (
	formatDefault = "default"
	formatJSON    = "json"
	formatNative  = "native"
)

// linePrinter writes one output line per call.
type linePrinter struct {
	w      io.Writer
	sep    string
	format string
}

func newPrinter(w io.Writer, sep, format string) *linePrinter {
	switch format {
	case "d", "":
		format = formatDefault
	case "j":
		format = formatJSON
	case "n":
		format = formatNative
	}
	return &linePrinter{w: w, sep: sep, format: format}
}

func (p *linePrinter) print(args ...any) {
	var parts []string
	switch p.format {
	case formatJSON:
		for _, v := range args {
			parts = append(parts, jsonValue(v))
		}
	case formatNative:
		for _, v := range args {
			parts = append(parts, fmt.Sprint(v))
		}
	default:
		for _, v := range expandArgs(args) {
			parts = append(parts, formatValue(v))
		}
	}
	fmt.Fprintln(p.w, strings.Join(parts, p.sep))
}

// native prints args with fmt.Sprint and sep, without expanding slices.
func (p *linePrinter) native(sep string, args ...any) {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = fmt.Sprint(v)
	}
	fmt.Fprintln(p.w, strings.Join(parts, sep))
}

// expandArgs unpacks a lone slice argument into its elements.
func expandArgs(args []any) []any {
	if len(args) != 1 || args[0] == nil {
		return args
	}
	rv := reflect.ValueOf(args[0])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return args
	}
	if _, ok := args[0].([]byte); ok {
		return args
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// jsonValue renders containers as JSON and everything else as text.
func jsonValue(v any) string {
	if v == nil {
		return "null"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	return formatValue(v)
}
