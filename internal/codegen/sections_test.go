package codegen

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtendCodes(t *testing.T) {
	got := extendCodes([]string{"a := 1\n\nb := 2  ", "", "c"}, "MAIN")
	want := []string{"// MAIN", "a := 1", "b := 2", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extendCodes() mismatch (-want +got):\n%s", diff)
	}
	if got := extendCodes(nil, ""); got != nil {
		t.Errorf("extendCodes(nil) = %v, want nil", got)
	}
}

func TestImportSpec(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"strconv", `"strconv"`},
		{" net/url ", `"net/url"`},
		{"u net/url", `u "net/url"`},
		{`"math"`, `"math"`},
		{`m "math"`, `m "math"`},
		{"import os", `"os"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := importSpec(tt.in); got != tt.want {
			t.Errorf("importSpec(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMainBodyWrapping(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wrapper string
		want    string
	}{
		{"default code", Options{}, "emit({})", "\t// MAIN\n\temit(line)"},
		{"last line wrapped", Options{Codes: []string{"x := 1\nx + 1"}}, "emit({})", "\t// MAIN\n\tx := 1\n\temit(x + 1)"},
		{"keeps indentation", Options{Codes: []string{"for _, f := range rec {\n\tf"}}, "emit({})", "\t// MAIN\n\tfor _, f := range rec {\n\t\temit(f)"},
		{"no wrapping", Options{NoWrapping: true, Codes: []string{"foo()"}}, "emit({})", "\t// MAIN\n\tfoo()"},
		{"counter", Options{Counter: true, Codes: []string{"len(line)"}}, "view({})", "\t// MAIN\n\tcounter.add(len(line))"},
		{"custom wrapper", Options{Codes: []string{"line"}}, "out.WriteString({} + \"\\n\")", "\t// MAIN\n\tout.WriteString(line + \"\\n\")"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &builder{opts: &tt.opts}
			got, err := b.mainBody("line", tt.wrapper, 1)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("mainBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMainBodyNoDefault(t *testing.T) {
	b := &builder{opts: &Options{}}
	_, err := b.mainBody("", "emit({})", 1)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("mainBody() error = %v, want *ValidationError", err)
	}
}

func TestLoopFilter(t *testing.T) {
	b := &builder{opts: &Options{Filters: []string{"i > 1", "  ", "line != \"\""}}}
	want := "\t\t// LOOP FILTER\n" +
		"\t\tif !(i > 1) {\n\t\t\tcontinue\n\t\t}\n" +
		"\t\tif !(line != \"\") {\n\t\t\tcontinue\n\t\t}"
	if got := b.loopFilter(2); got != want {
		t.Errorf("loopFilter() = %q, want %q", got, want)
	}
}

func TestLoopHeadRecord(t *testing.T) {
	b := &builder{opts: &Options{
		Command:     CommandRec,
		FieldLength: 1,
		FieldTypes:  []FieldType{{Field: 3, Type: 'f'}, {Field: 1, Type: 'b'}},
		Header:      true,
		LoopHeads:   []string{"x := f1"},
	}}
	want := "\t\t// LOOP HEAD\n" +
		"\t\tf1, f3 := rec.Bool(1), rec.Float(3)\n" +
		"\t\t_, _ = f1, f3\n" +
		"\t\tdic := header.Zip(rec)\n" +
		"\t\t_ = dic\n" +
		"\t\td := dic // ABBREV\n" +
		"\t\t_ = d // ABBREV\n" +
		"\t\tx := f1"
	if got := b.loopHeadRecord(); got != want {
		t.Errorf("loopHeadRecord() =\n%s\nwant\n%s", got, want)
	}
}

func TestHelperNames(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"line", Options{Command: CommandLine}, []string{"emit.go", "input.go"}},
		{"rec view", Options{Command: CommandRec, View: true}, []string{"emit.go", "input.go", "record.go", "viewer.go"}},
		{"text counter", Options{Command: CommandText, Counter: true}, []string{"emit.go", "input.go", "counter.go"}},
		{"custom", Options{Command: CommandCustom}, []string{"emit.go", "input.go", "record.go", "viewer.go", "counter.go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, helperNames(&tt.opts)); diff != "" {
				t.Errorf("helperNames() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterLines(t *testing.T) {
	code := "\n// IMPORT\nx := 1 // keep\n\t// drop\nl := line // ABBREV\n_ = l // ABBREV\n\n"
	tests := []struct {
		name       string
		noComments bool
		noAbbrevs  bool
		want       string
	}{
		{"none", false, false, "// IMPORT\nx := 1 // keep\n\t// drop\nl := line // ABBREV\n_ = l // ABBREV\n"},
		{"comments", true, false, "x := 1 // keep\nl := line // ABBREV\n_ = l // ABBREV\n"},
		{"abbrevs", false, true, "// IMPORT\nx := 1 // keep\n\t// drop\n"},
		{"both", true, true, "x := 1 // keep\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterLines(code, tt.noComments, tt.noAbbrevs); got != tt.want {
				t.Errorf("filterLines() = %q, want %q", got, tt.want)
			}
		})
	}
}
