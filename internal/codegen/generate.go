// Package codegen turns command-line fragments into a runnable Go program.
//
// A program is assembled from sections in a fixed order: imports, helpers
// (package-level glue plus the inlined runtime), pre code, loop head, loop
// filter, main body and post code. Each command fills one skeleton from
// templates/ with those sections.
package codegen

import (
	"fmt"
	"strings"

	"golang.org/x/tools/imports"
)

// Result is a generated program.
type Result struct {
	Source []byte // formatted, imports fixed
	Raw    string // rendered skeleton before formatting
}

// SyntaxError reports generated source that is not valid Go, usually because
// of a broken fragment. Raw holds the unformatted program.
type SyntaxError struct {
	Raw string
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("generated program does not parse: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Generate builds the program described by opts.
// On a *SyntaxError the returned Result still carries Raw.
func Generate(opts *Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	b, err := newBuilder(opts)
	if err != nil {
		return nil, err
	}

	raw, err := b.render()
	if err != nil {
		return nil, err
	}
	raw = filterLines(raw, opts.NoComments, opts.NoAbbrevs)

	src, err := imports.Process("main.go", []byte(raw), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return &Result{Raw: raw}, &SyntaxError{Raw: raw, Err: err}
	}
	return &Result{Source: src, Raw: raw}, nil
}

func (b *builder) render() (string, error) {
	o := b.opts
	params := map[string]string{
		"imp":     b.imports(),
		"helpers": b.helpersSection(),
		"pre":     b.pre(),
		"post":    b.post(),
	}

	var err error
	switch o.Command {
	case CommandLine:
		params["loop_head"] = b.loopHeadLine("line", 2)
		params["loop_filter"] = b.loopFilter(2)
		params["main"], err = b.mainBody("line", b.wrapper(), 2)

	case CommandRec:
		expr, decl := b.splitExpr("line")
		params["re_compile"] = decl
		params["parse_line"] = expr
		if o.Header {
			headerExpr, _ := b.splitExpr("scanner.Text()")
			params["parse_header"] = indentAll([]string{
				"if scanner.Scan() {",
				"\theader = " + headerExpr,
				"}",
			}, 1)
		}
		params["loop_head"] = b.loopHeadRecord()
		params["loop_filter"] = b.loopFilter(2)
		params["main"], err = b.mainBody("rec", b.recordWrapper("emit({})"), 2)

	case CommandCSV:
		params["reader_opts"], params["writer_opts"], err = b.csvSetup()
		if err != nil {
			return "", err
		}
		if o.Header {
			params["parse_header"] = indentAll([]string{
				"if fields, err := reader.Read(); err == nil {",
				"\theader = Record(fields)",
				"} else if err != io.EOF {",
				"\tfail(err)",
				"}",
			}, 1)
		}
		params["loop_head"] = b.loopHeadRecord()
		params["loop_filter"] = b.loopFilter(2)
		params["main"], err = b.mainBody("rec", b.recordWrapper("write({})"), 2)

	case CommandText:
		params["pre_main"] = indentAll(b.jsonHead("text"), 1)
		params["main"], err = b.mainBody("text", b.wrapper(), 1)

	case CommandFile:
		params["loop_head"] = b.loopHeadLine("text", 2)
		params["loop_filter"] = b.loopFilter(2)
		params["main"], err = b.mainBody("text", b.wrapper(), 2)

	case CommandCustom:
		return b.renderCustom(params)
	}
	if err != nil {
		return "", err
	}
	return renderSkeleton(o.Command, params)
}

func (b *builder) renderCustom(params map[string]string) (string, error) {
	cmd := b.opts.Custom
	level := cmd.CodeIndent

	wrapper := cmd.Wrapper
	if wrapper == "" {
		wrapper = "emit({})"
	}
	if b.opts.View {
		wrapper = "view({})"
	}

	params["loop_head"] = indentAll(extendCodes(b.opts.LoopHeads, "LOOP HEAD"), level)
	params["loop_filter"] = b.loopFilter(level)
	main, err := b.mainBody(cmd.DefaultCode, wrapper, level)
	if err != nil {
		return "", err
	}
	params["main"] = main

	opts, err := cmd.Params(b.opts.CustomOptions)
	if err != nil {
		return "", &ValidationError{Option: "opt", Message: err.Error()}
	}
	for k, v := range opts {
		params[k] = v
	}
	return renderString(cmd.Name, cmd.Template, params)
}

// filterLines drops whole-line comments and alias lines on request.
func filterLines(code string, noComments, noAbbrevs bool) string {
	code = strings.Trim(code, "\n")
	if !noComments && !noAbbrevs {
		return code + "\n"
	}
	lines := strings.Split(code, "\n")
	out := lines[:0]
	for _, line := range lines {
		if noComments && strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		if noAbbrevs && strings.HasSuffix(line, abbrevMarker) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n"
}
