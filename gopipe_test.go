package gopipe_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kolkov/gopipe"
)

func requireGo(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping build in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
}

func TestGenerate(t *testing.T) {
	prog, err := gopipe.Generate(nil)
	if err != nil {
		t.Fatal(err)
	}
	src := prog.Source()
	if !strings.HasPrefix(src, "package main") {
		t.Errorf("Source() should start with package main:\n%.40s", src)
	}
	if !strings.Contains(src, "emit(line)") {
		t.Error("default line program should emit each line")
	}
	if prog.Raw() == "" {
		t.Error("Raw() should keep the unformatted program")
	}
	if !strings.HasPrefix(prog.String(), "gopipe.Program(") {
		t.Errorf("String() = %q", prog.String())
	}
}

func TestGenerateDoesNotModifyOptions(t *testing.T) {
	opts := &gopipe.Options{Codes: []string{"line"}}
	if _, err := gopipe.Generate(opts); err != nil {
		t.Fatal(err)
	}
	if opts.Command != "" {
		t.Errorf("Command = %q, want unchanged", opts.Command)
	}
}

func TestGenerateErrors(t *testing.T) {
	_, err := gopipe.Generate(&gopipe.Options{Command: gopipe.CommandCSV, Delimiter: "::"})
	var oe *gopipe.OptionError
	if !errors.As(err, &oe) || oe.Option != "delimiter" {
		t.Errorf("error = %v, want *OptionError for delimiter", err)
	}

	prog, err := gopipe.Generate(&gopipe.Options{Codes: []string{"emit(("}})
	var se *gopipe.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if prog == nil || !strings.Contains(prog.Source(), "emit((") || !strings.Contains(se.Source, "emit((") {
		t.Error("unformatted source should be available")
	}
	if err := prog.Run(context.Background(), nil); !errors.As(err, &se) {
		t.Errorf("Run() of an unformatted program = %v, want *SyntaxError", err)
	}
}

func TestParseFieldTypes(t *testing.T) {
	ft, err := gopipe.ParseFieldTypes("3:f,1:i")
	if err != nil {
		t.Fatal(err)
	}
	if len(ft) != 2 || ft[0] != (gopipe.FieldType{Field: 1, Type: 'i'}) || ft[1] != (gopipe.FieldType{Field: 3, Type: 'f'}) {
		t.Errorf("ParseFieldTypes() = %v", ft)
	}

	_, err = gopipe.ParseFieldTypes("1:q")
	var oe *gopipe.OptionError
	if !errors.As(err, &oe) || oe.Option != "field-type" {
		t.Errorf("error = %v, want *OptionError", err)
	}
}

func TestWriteFile(t *testing.T) {
	prog, err := gopipe.Generate(&gopipe.Options{Command: gopipe.CommandText})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "script.go")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := prog.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	first, rest, _ := strings.Cut(string(data), "\n")
	if first != `//usr/bin/env go run "$0" "$@"; exit "$?"` {
		t.Errorf("first line = %q", first)
	}
	if rest != prog.Source() {
		t.Error("saved program differs from Source()")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestWriteTo(t *testing.T) {
	prog, err := gopipe.Generate(&gopipe.Options{Command: gopipe.CommandRec})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := prog.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != buf.Len() || buf.String() != prog.Source() {
		t.Error("WriteTo() should write Source()")
	}
}

func TestLoadCustomCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	data := "[commands.echo]\ntemplate = \"{{ main }}\"\ndefault_code = \"line\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd, err := gopipe.LoadCustomCommand(path, "echo")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Name != "echo" || cmd.DefaultCode != "line" {
		t.Errorf("unexpected command: %+v", cmd)
	}

	_, err = gopipe.LoadCustomCommand(path, "missing")
	var oe *gopipe.OptionError
	if !errors.As(err, &oe) {
		t.Errorf("error = %v, want *OptionError", err)
	}

	t.Setenv("GOPIPE_CUSTOM", path)
	if _, err := gopipe.LoadCustomCommand("", "echo"); err != nil {
		t.Errorf("default path: %v", err)
	}
}

func TestExec(t *testing.T) {
	requireGo(t)

	tests := []struct {
		name  string
		opts  *gopipe.Options
		input string
		want  string
	}{
		{
			name:  "line upper",
			opts:  &gopipe.Options{Codes: []string{"strings.ToUpper(line)"}},
			input: "a\nb\n",
			want:  "A\nB\n",
		},
		{
			name: "rec typed sum",
			opts: &gopipe.Options{
				Command:    gopipe.CommandRec,
				FieldTypes: []gopipe.FieldType{{Field: 2, Type: 'i'}},
				Pre:        []string{"sum := 0"},
				Codes:      []string{"sum += f2"},
				NoWrapping: true,
				Post:       []string{"emit(sum)"},
			},
			input: "a\t1\nb\t2\nc\t\n",
			want:  "3\n",
		},
		{
			name:  "rec swap with filter",
			opts:  &gopipe.Options{Command: gopipe.CommandRec, Delimiter: ",", Filters: []string{`rec.Get(1) != "x"`}, Codes: []string{"rec.Get(2), rec.Get(1)"}},
			input: "a,1\nx,2\nb,3\n",
			want:  "1,a\n3,b\n",
		},
		{
			name:  "csv header",
			opts:  &gopipe.Options{Command: gopipe.CommandCSV, Header: true, Codes: []string{`dic["name"], i`}},
			input: "name,age\n\"Doe, J\",30\nAnn,4\n",
			want:  "\"Doe, J\",1\nAnn,2\n",
		},
		{
			name:  "counter",
			opts:  &gopipe.Options{Counter: true},
			input: "b\na\nb\n",
			want:  "b\t2\na\t1\n",
		},
		{
			name:  "text",
			opts:  &gopipe.Options{Command: gopipe.CommandText, Codes: []string{`strings.Count(text, "\n")`}},
			input: "1\n2\n3\n",
			want:  "3\n",
		},
		{
			name:  "json output",
			opts:  &gopipe.Options{Command: gopipe.CommandRec, OutputFormat: "json", Codes: []string{"[]string(rec)"}},
			input: "a\tb\n",
			want:  "[\"a\",\"b\"]\n",
		},
	}

	cache := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := gopipe.Exec(context.Background(), tt.opts, &gopipe.RunConfig{
				Stdin:    strings.NewReader(tt.input),
				Stdout:   &stdout,
				Stderr:   &stderr,
				CacheDir: cache,
			})
			if err != nil {
				t.Fatalf("Exec() error: %v\n%s", err, stderr.String())
			}
			if got := stdout.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecFieldError(t *testing.T) {
	requireGo(t)

	var stdout, stderr bytes.Buffer
	err := gopipe.Exec(context.Background(), &gopipe.Options{
		Command:    gopipe.CommandRec,
		FieldTypes: []gopipe.FieldType{{Field: 1, Type: 'i'}},
		Codes:      []string{"f1 * 2"},
	}, &gopipe.RunConfig{
		Stdin:   strings.NewReader("2\nnope\n"),
		Stdout:  &stdout,
		Stderr:  &stderr,
		NoCache: true,
	})
	code, ok := gopipe.IsExitError(err)
	if !ok || code != 1 {
		t.Fatalf("error = %v, want exit 1", err)
	}
	if stdout.String() != "4\n" {
		t.Errorf("output before the failure = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), `field 1: cannot convert "nope" to int`) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestExecBuildError(t *testing.T) {
	requireGo(t)

	err := gopipe.Exec(context.Background(), &gopipe.Options{Codes: []string{"undefinedName(line)"}}, &gopipe.RunConfig{
		Stdin:   strings.NewReader(""),
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
		NoCache: true,
	})
	var be *gopipe.BuildError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *BuildError", err)
	}
	if !strings.Contains(be.Output, "undefinedName") {
		t.Errorf("Output = %q", be.Output)
	}
}

func BenchmarkGenerate(b *testing.B) {
	opts := &gopipe.Options{
		Command:     gopipe.CommandRec,
		FieldLength: 3,
		Header:      true,
		Codes:       []string{"f3, f1"},
	}
	for i := 0; i < b.N; i++ {
		if _, err := gopipe.Generate(opts); err != nil {
			b.Fatal(err)
		}
	}
}

func ExampleParseFieldTypes() {
	ft, _ := gopipe.ParseFieldTypes("5:b,1:i,3:j")
	for _, f := range ft {
		fmt.Printf("f%d %c\n", f.Field, f.Type)
	}
	// Output:
	// f1 i
	// f3 j
	// f5 b
}
