package codegen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kolkov/gopipe/internal/custom"
	"github.com/kolkov/gopipe/internal/runtime"
)

// Command selects the program skeleton.
type Command string

const (
	CommandLine   Command = "line"
	CommandRec    Command = "rec"
	CommandCSV    Command = "csv"
	CommandText   Command = "text"
	CommandFile   Command = "file"
	CommandCustom Command = "custom"
)

// Output formats accepted by Options.OutputFormat, with their short names.
var outputFormats = map[string]string{
	"default": "default", "d": "default",
	"json": "json", "j": "json",
	"native": "native", "n": "native",
}

// FieldType converts the 1-based field Field; Type is one of i, f, b, j.
type FieldType struct {
	Field int
	Type  byte
}

// fieldAccessors maps field type letters to Record methods.
var fieldAccessors = map[byte]string{
	'i': "Int",
	'f': "Float",
	'b': "Bool",
	'j': "JSON",
}

// csvOptions lists the keys accepted by -O on the csv command.
var csvOptions = map[string]bool{
	"comment":            true,
	"lazy_quotes":        true,
	"trim_leading_space": true,
	"fields_per_record":  true,
	"use_crlf":           true,
}

// Options is the parsed command line. It is not modified by Generate.
type Options struct {
	Command Command

	Codes     []string // main body fragments
	Imports   []string // -i
	Pre       []string // -b
	Post      []string // -a
	LoopHeads []string // -e
	Filters   []string // -f

	View       bool
	Colored    bool
	Counter    bool
	NoWrapping bool
	NoComments bool
	NoAbbrevs  bool

	OutputDelimiter string // raw, escapes allowed; "" picks the default
	OutputFormat    string // default|d, json|j, native|n

	JSON bool // line, text, file

	FieldLength int         // rec, csv
	FieldTypes  []FieldType // rec, csv
	Header      bool        // rec, csv
	Delimiter   string      // rec, csv; raw, escapes allowed
	Regex       string      // rec

	CSVOptions map[string]string // csv

	Custom        *custom.Command   // custom
	CustomOptions map[string]string // custom
}

// ValidationError reports an option combination that cannot be generated.
type ValidationError struct {
	Option  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Option == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Option, e.Message)
}

// ParseFieldTypes parses "1:i,3:j,5:b" into field types sorted by field.
func ParseFieldTypes(s string) ([]FieldType, error) {
	var out []FieldType
	seen := make(map[int]bool)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		f, t, ok := strings.Cut(item, ":")
		if !ok {
			return nil, &ValidationError{Option: "field-type", Message: fmt.Sprintf("%q: want FIELD:TYPE", item)}
		}
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 1 {
			return nil, &ValidationError{Option: "field-type", Message: fmt.Sprintf("%q: field must be a positive number", item)}
		}
		t = strings.TrimSpace(t)
		if len(t) != 1 || fieldAccessors[t[0]] == "" {
			return nil, &ValidationError{Option: "field-type", Message: fmt.Sprintf("%q: type must be one of i, f, b, j", item)}
		}
		if seen[n] {
			// Later entries win, as with repeated dictionary keys.
			for i := range out {
				if out[i].Field == n {
					out[i].Type = t[0]
				}
			}
			continue
		}
		seen[n] = true
		out = append(out, FieldType{Field: n, Type: t[0]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

// defaultDelimiter is the input delimiter of commands that split records.
func defaultDelimiter(cmd Command) string {
	switch cmd {
	case CommandRec:
		return `\t`
	case CommandCSV:
		return ","
	}
	return ""
}

func (o *Options) delimiter() string {
	if o.Delimiter != "" {
		return o.Delimiter
	}
	return defaultDelimiter(o.Command)
}

// outputDelimiter follows the input delimiter when that is a single
// character, and is a tab otherwise.
func (o *Options) outputDelimiter() string {
	if o.OutputDelimiter != "" {
		return o.OutputDelimiter
	}
	if d := o.delimiter(); utf8.RuneCountInString(d) == 1 {
		return d
	}
	return `\t`
}

func (o *Options) outputFormat() string {
	if o.OutputFormat == "" {
		return "default"
	}
	return outputFormats[o.OutputFormat]
}

// isRegexDelimiter reports whether the rec delimiter is treated as a pattern.
func (o *Options) isRegexDelimiter() bool {
	d := o.delimiter()
	return o.Command == CommandRec && d != `\t` && utf8.RuneCountInString(d) > 1
}

func (o *Options) fieldType(n int) (byte, bool) {
	for _, ft := range o.FieldTypes {
		if ft.Field == n {
			return ft.Type, true
		}
	}
	return 0, false
}

// jsonNeeded reports whether the program decodes or encodes JSON.
func (o *Options) jsonNeeded() bool {
	if o.JSON || o.outputFormat() == "json" {
		return true
	}
	for _, ft := range o.FieldTypes {
		if ft.Type == 'j' {
			return true
		}
	}
	return false
}

func (o *Options) splitsRecords() bool {
	return o.Command == CommandRec || o.Command == CommandCSV
}

// validate rejects options that would produce a program that cannot work.
func (o *Options) validate() error {
	switch o.Command {
	case CommandLine, CommandRec, CommandCSV, CommandText, CommandFile:
	case CommandCustom:
		if o.Custom == nil {
			return &ValidationError{Option: "name", Message: "custom command requires a definition"}
		}
	default:
		return &ValidationError{Message: fmt.Sprintf("unknown command %q", o.Command)}
	}

	if o.OutputFormat != "" && outputFormats[o.OutputFormat] == "" {
		return &ValidationError{Option: "output-format", Message: fmt.Sprintf("%q is not one of default, json, native", o.OutputFormat)}
	}
	if o.FieldLength < 0 {
		return &ValidationError{Option: "field-length", Message: "must not be negative"}
	}
	if !o.splitsRecords() && (o.FieldLength > 0 || len(o.FieldTypes) > 0 || o.Header) {
		return &ValidationError{Message: fmt.Sprintf("field options are not supported by %s", o.Command)}
	}
	for _, ft := range o.FieldTypes {
		if fieldAccessors[ft.Type] == "" {
			return &ValidationError{Option: "field-type", Message: fmt.Sprintf("unknown type %q for field %d", ft.Type, ft.Field)}
		}
		if ft.Field < 1 {
			return &ValidationError{Option: "field-type", Message: fmt.Sprintf("field %d out of range", ft.Field)}
		}
	}

	switch o.Command {
	case CommandRec:
		if o.Regex != "" {
			if err := runtime.ValidatePattern(o.Regex); err != nil {
				return &ValidationError{Option: "regex-match", Message: err.Error()}
			}
		} else if o.isRegexDelimiter() {
			if err := runtime.ValidatePattern(o.delimiter()); err != nil {
				return &ValidationError{Option: "delimiter", Message: err.Error()}
			}
		}
	case CommandCSV:
		if _, err := singleRune(o.delimiter()); err != nil {
			return &ValidationError{Option: "delimiter", Message: err.Error()}
		}
		if _, err := singleRune(o.outputDelimiter()); err != nil {
			return &ValidationError{Option: "output-delimiter", Message: err.Error()}
		}
		for k := range o.CSVOptions {
			if !csvOptions[k] {
				return &ValidationError{Option: "csv-opt", Message: fmt.Sprintf("unknown csv option %q", k)}
			}
		}
	}
	return nil
}
