package codegen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kolkov/gopipe/internal/runtime"
)

// abbrevMarker ends every line that only defines a short alias.
const abbrevMarker = "// ABBREV"

// baseImports are available to every skeleton. Unused ones are dropped when
// the program is formatted.
var baseImports = []string{`"bufio"`, `"fmt"`, `"os"`, `"strings"`}

func indent(code string, level int) string {
	return strings.Repeat("\t", level) + code
}

func indentAll(codes []string, level int) string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = indent(c, level)
	}
	return strings.Join(out, "\n")
}

// extendCodes splits fragments into right-trimmed, non-empty lines, led by
// an optional section comment.
func extendCodes(codes []string, comment string) []string {
	var out []string
	if comment != "" {
		out = append(out, "// "+comment)
	}
	for _, code := range codes {
		for _, line := range strings.Split(code, "\n") {
			if line = strings.TrimRight(line, " \t\r"); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// importSpec turns a -i argument into an import spec: a bare path is quoted,
// "name path" becomes an aliased import, quoted specs are kept.
func importSpec(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "import "))
	if s == "" || strings.ContainsAny(s, "\"`") {
		return s
	}
	if name, path, ok := strings.Cut(s, " "); ok {
		return name + " " + strconv.Quote(strings.TrimSpace(path))
	}
	return strconv.Quote(s)
}

// builder assembles the sections of one program.
type builder struct {
	opts    *Options
	helpers []runtime.Helper
}

func newBuilder(opts *Options) (*builder, error) {
	helpers, err := runtime.LoadHelpers(helperNames(opts)...)
	if err != nil {
		return nil, err
	}
	return &builder{opts: opts, helpers: helpers}, nil
}

// helperNames lists the runtime files a program needs.
func helperNames(o *Options) []string {
	names := []string{runtime.HelperEmit, runtime.HelperInput}
	if o.splitsRecords() || o.Command == CommandCustom {
		names = append(names, runtime.HelperRecord)
	}
	if o.View || o.Command == CommandCustom {
		names = append(names, runtime.HelperViewer)
	}
	if o.Counter || o.Command == CommandCustom {
		names = append(names, runtime.HelperCounter)
	}
	return names
}

func (b *builder) skeletonImports() []string {
	var specs []string
	if b.opts.jsonNeeded() {
		specs = append(specs, `"encoding/json"`)
	}
	switch b.opts.Command {
	case CommandRec:
		specs = append(specs, `"regexp"`)
	case CommandCSV:
		specs = append(specs, `"encoding/csv"`, `"io"`)
	case CommandFile:
		specs = append(specs, `"compress/gzip"`)
	}
	return specs
}

func (b *builder) imports() string {
	var specs []string
	seen := make(map[string]bool)
	add := func(spec string) {
		if spec != "" && !seen[spec] {
			seen[spec] = true
			specs = append(specs, spec)
		}
	}
	for _, s := range baseImports {
		add(s)
	}
	for _, s := range b.skeletonImports() {
		add(s)
	}
	for _, h := range b.helpers {
		for _, s := range h.Imports {
			add(s)
		}
	}
	for _, s := range b.opts.Imports {
		add(importSpec(s))
	}

	lines := []string{"// IMPORT", "import ("}
	for _, s := range specs {
		lines = append(lines, indent(s, 1))
	}
	lines = append(lines, ")")
	return strings.Join(lines, "\n")
}

// helpersSection holds the package-level glue and the inlined runtime.
func (b *builder) helpersSection() string {
	o := b.opts
	var g []string
	add := func(lines ...string) { g = append(g, lines...) }

	add("// HELPERS",
		"var (",
		"\tstdout      = bufio.NewWriter(os.Stdout)",
		fmt.Sprintf("\tprinter     = newPrinter(stdout, %s, %q)", goString(o.outputDelimiter()), o.outputFormat()),
		"\tinteractive = isCharDevice(os.Stdout)",
		")",
		"",
		"func isCharDevice(f *os.File) bool {",
		"\tinfo, err := f.Stat()",
		"\treturn err == nil && info.Mode()&os.ModeCharDevice != 0",
		"}",
		"",
		"// flushLine hands each record to a terminal as soon as it is written.",
		"func flushLine() {",
		"\tif !interactive {",
		"\t\treturn",
		"\t}",
	)
	if o.Command == CommandCSV {
		add("\twriter.Flush()")
	}
	add("\tstdout.Flush()",
		"}",
		"",
		`var I, S, B, L, D, SET = 0, "", false, []any{}, map[string]any{}, map[any]bool{} `+abbrevMarker,
		"",
		`func p(args ...any) { printer.native("\t", args...); flushLine() } `+abbrevMarker,
		"",
		"func emit(args ...any) { printer.print(args...); flushLine() }",
	)
	if o.splitsRecords() {
		add("", "var header Record")
	}
	if o.View || o.Command == CommandCustom {
		add("",
			fmt.Sprintf("var viewer = newViewer(stdout, %t)", o.Colored),
			"",
			"func view(args ...any) { viewer.view(nil, args...); flushLine() }",
		)
		if o.splitsRecords() {
			add("", "func viewWith(headers Record, args ...any) { viewer.view(headers, args...); flushLine() }")
		}
	}
	if o.Counter || o.Command == CommandCustom {
		add("",
			"var counter = newCounter()",
			"",
			"var c = counter "+abbrevMarker,
		)
	}
	if o.Command == CommandCSV {
		add("",
			"var writer = csv.NewWriter(stdout)",
			"",
			"func write(args ...any) { writeRecord(writer, args...); flushLine() }",
			"",
			"var w = write "+abbrevMarker,
		)
	}
	add("",
		"func fail(err error) {",
		"\tstdout.Flush()",
		"\tfmt.Fprintf(os.Stderr, \"gopipe: %v\\n\", err)",
		"\tos.Exit(1)",
		"}",
		"",
		"func finish() {",
		"\tr := recover()",
	)
	if o.Command == CommandCSV {
		add("\twriter.Flush()")
	}
	add("\tif r != nil {",
		"\t\terr, ok := r.(error)",
		"\t\tif !ok {",
		"\t\t\terr = fmt.Errorf(\"%v\", r)",
		"\t\t}",
		"\t\tfail(err)",
		"\t}",
	)
	if o.Command == CommandCSV {
		add("\tif err := writer.Error(); err != nil {",
			"\t\tfail(err)",
			"\t}",
		)
	}
	add("\tstdout.Flush()", "}")

	parts := []string{strings.Join(g, "\n"), "// RUNTIME"}
	for _, h := range b.helpers {
		parts = append(parts, h.Body)
	}
	return strings.Join(parts, "\n\n")
}

func (b *builder) pre() string {
	return indentAll(extendCodes(b.opts.Pre, "PRE"), 1)
}

func (b *builder) post() string {
	if len(b.opts.Post) > 0 {
		return indentAll(extendCodes(b.opts.Post, "POST"), 1)
	}
	codes := []string{"// POST"}
	if b.opts.Counter {
		codes = append(codes, "counter.print(stdout)")
	}
	return indentAll(codes, 1)
}

// mainBody wraps the last line of the user code, or the default code, in
// wrapper. wrapper holds a {} placeholder.
func (b *builder) mainBody(defaultCode, wrapper string, level int) (string, error) {
	codes := extendCodes(b.opts.Codes, "MAIN")
	if len(codes) == 1 {
		if defaultCode == "" {
			return "", &ValidationError{Message: "no code given and the command has no default code"}
		}
		codes = append(codes, defaultCode)
	}
	if !b.opts.NoWrapping {
		last := codes[len(codes)-1]
		code := strings.TrimLeft(last, " \t")
		spaces := last[:len(last)-len(code)]
		if b.opts.Counter {
			codes[len(codes)-1] = spaces + "counter.add(" + code + ")"
		} else {
			codes[len(codes)-1] = spaces + strings.Replace(wrapper, "{}", code, 1)
		}
	}
	return indentAll(codes, level), nil
}

func (b *builder) loopFilter(level int) string {
	codes := []string{"// LOOP FILTER"}
	for _, f := range b.opts.Filters {
		if f = strings.TrimSpace(f); f != "" {
			codes = append(codes, fmt.Sprintf("if !(%s) {", f), "\tcontinue", "}")
		}
	}
	return indentAll(codes, level)
}

// declare defines name from expr and marks it used.
func declare(name, expr string, abbrev bool) []string {
	if abbrev {
		return []string{name + " := " + expr + " " + abbrevMarker, "_ = " + name + " " + abbrevMarker}
	}
	return []string{name + " := " + expr, "_ = " + name}
}

func (b *builder) jsonHead(source string) []string {
	if !b.opts.JSON {
		return nil
	}
	codes := declare("dic", "decodeObject("+source+")", false)
	return append(codes, declare("d", "dic", true)...)
}

// loopHeadLine serves the line and file commands.
func (b *builder) loopHeadLine(source string, level int) string {
	codes := []string{"// LOOP HEAD"}
	codes = append(codes, b.jsonHead(source)...)
	codes = append(codes, extendCodes(b.opts.LoopHeads, "")...)
	return indentAll(codes, level)
}

// loopHeadRecord declares typed and positional fields for rec and csv.
func (b *builder) loopHeadRecord() string {
	o := b.opts
	codes := []string{"// LOOP HEAD"}

	fields := make(map[int]bool)
	for n := 1; n <= o.FieldLength; n++ {
		fields[n] = true
	}
	for _, ft := range o.FieldTypes {
		fields[ft.Field] = true
	}
	if len(fields) > 0 {
		nums := make([]int, 0, len(fields))
		for n := range fields {
			nums = append(nums, n)
		}
		sort.Ints(nums)
		names := make([]string, len(nums))
		exprs := make([]string, len(nums))
		blanks := make([]string, len(nums))
		for i, n := range nums {
			names[i] = fmt.Sprintf("f%d", n)
			blanks[i] = "_"
			if t, ok := o.fieldType(n); ok {
				exprs[i] = fmt.Sprintf("rec.%s(%d)", fieldAccessors[t], n)
			} else {
				exprs[i] = fmt.Sprintf("rec.Get(%d)", n)
			}
		}
		codes = append(codes,
			strings.Join(names, ", ")+" := "+strings.Join(exprs, ", "),
			strings.Join(blanks, ", ")+" = "+strings.Join(names, ", "),
		)
	}
	if o.Header {
		codes = append(codes, declare("dic", "header.Zip(rec)", false)...)
		codes = append(codes, declare("d", "dic", true)...)
	}
	codes = append(codes, extendCodes(o.LoopHeads, "")...)
	return indentAll(codes, 2)
}

// recordWrapper picks the output call for rec and csv bodies.
func (b *builder) recordWrapper(plain string) string {
	switch {
	case b.opts.View && b.opts.Header:
		return "viewWith(header, {})"
	case b.opts.View:
		return "view({})"
	}
	return plain
}

func (b *builder) wrapper() string {
	if b.opts.View {
		return "view({})"
	}
	return "emit({})"
}

// splitExpr returns the expression splitting src into a Record and the
// package-level pattern declaration it needs, if any.
func (b *builder) splitExpr(src string) (expr, decl string) {
	o := b.opts
	switch {
	case o.Regex != "":
		return "matchFields(pattern, " + src + ")", "var pattern = regexp.MustCompile(" + strconv.Quote(o.Regex) + ")"
	case o.isRegexDelimiter():
		return "splitPattern(pattern, " + src + ")", "var pattern = regexp.MustCompile(" + strconv.Quote(o.delimiter()) + ")"
	}
	return "splitFields(" + src + ", " + goString(o.delimiter()) + ")", ""
}

// csvSetup configures the reader and writer created by the csv skeleton.
func (b *builder) csvSetup() (readerOpts, writerOpts string, err error) {
	o := b.opts
	in, err := singleRune(o.delimiter())
	if err != nil {
		return "", "", &ValidationError{Option: "delimiter", Message: err.Error()}
	}
	out, err := singleRune(o.outputDelimiter())
	if err != nil {
		return "", "", &ValidationError{Option: "output-delimiter", Message: err.Error()}
	}

	reader := []string{
		"reader.Comma = " + runeLiteral(in),
		"reader.FieldsPerRecord = -1",
	}
	writer := []string{"writer.Comma = " + runeLiteral(out)}

	keys := make([]string, 0, len(o.CSVOptions))
	for k := range o.CSVOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := o.CSVOptions[k]
		bad := func(want string) error {
			return &ValidationError{Option: "csv-opt", Message: fmt.Sprintf("%s=%q: want %s", k, v, want)}
		}
		switch k {
		case "comment":
			r, err := singleRune(v)
			if err != nil {
				return "", "", bad("a single character")
			}
			reader = append(reader, "reader.Comment = "+runeLiteral(r))
		case "lazy_quotes", "trim_leading_space", "use_crlf":
			flag, err := strconv.ParseBool(v)
			if err != nil {
				return "", "", bad("a boolean")
			}
			switch k {
			case "lazy_quotes":
				reader = append(reader, fmt.Sprintf("reader.LazyQuotes = %t", flag))
			case "trim_leading_space":
				reader = append(reader, fmt.Sprintf("reader.TrimLeadingSpace = %t", flag))
			default:
				writer = append(writer, fmt.Sprintf("writer.UseCRLF = %t", flag))
			}
		case "fields_per_record":
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", "", bad("an integer")
			}
			reader = append(reader, fmt.Sprintf("reader.FieldsPerRecord = %d", n))
		default:
			return "", "", &ValidationError{Option: "csv-opt", Message: fmt.Sprintf("unknown csv option %q", k)}
		}
	}
	return indentAll(reader, 1), indentAll(writer, 1), nil
}
