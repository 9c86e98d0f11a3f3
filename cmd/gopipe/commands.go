package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kolkov/gopipe"
)

// flags holds the values of every flag a command may register.
type flags struct {
	// common
	view            bool
	color           string
	print           bool
	output          string
	noComments      bool
	noAbbrevs       bool
	noWrapping      bool
	imports         []string
	pre             []string
	post            []string
	counter         bool
	outputDelimiter string
	linebreak       bool
	outputFormat    string
	noCache         bool

	// loop
	loopHeads []string
	filters   []string

	// rec and csv
	fieldLength int
	fieldType   string
	header      bool

	// per command
	json      bool
	delimiter string
	regex     string
	comma     bool
	spaces    bool
	tsv       bool
	keyValues []string
	name      string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gopipe",
		Short: "Go PiPe command line tool",
		Long: `gopipe weaves Go fragments into a small per-record program and runs it
against standard input, prints it (-p) or saves it as a script (-o).

When the first argument is not a command, "line" is implied:
  seq 10 | gopipe 'strconv.Itoa(i*2)'`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().BoolP("version", "V", false, "print version and exit")
	root.SetVersionTemplate("gopipe {{.Version}}\n")

	root.AddCommand(
		newLineCmd(),
		newRecCmd(),
		newCSVCmd(),
		newTextCmd(),
		newFileCmd(),
		newCustomCmd(),
	)
	return root
}

func addCommonFlags(cmd *cobra.Command, f *flags) {
	fs := cmd.Flags()
	fs.BoolVarP(&f.view, "view", "v", false, "view records in a readable layout")
	fs.StringVarP(&f.color, "color", "k", "auto", "color the viewer: always, auto, never")
	fs.BoolVarP(&f.print, "print", "p", false, "only print the generated code")
	fs.StringVarP(&f.output, "output", "o", "", "save the generated code as an executable script")
	fs.BoolVarP(&f.noComments, "no-comments", "q", false, "drop comment lines from the code")
	fs.BoolVarP(&f.noAbbrevs, "no-abbrevs", "r", false, "drop abbreviation lines from the code")
	fs.BoolVarP(&f.noWrapping, "no-wrapping", "n", false, "do not wrap the last line of code")
	fs.StringArrayVarP(&f.imports, "import", "i", nil, "import a package (repeatable)")
	fs.StringArrayVarP(&f.pre, "pre", "b", nil, "code run before the loop (repeatable)")
	fs.StringArrayVarP(&f.post, "post", "a", nil, "code run after the loop (repeatable)")
	fs.BoolVarP(&f.counter, "counter", "c", false, "count the values of the last line")
	fs.StringVarP(&f.outputDelimiter, "output-delimiter", "D", "", "output delimiter")
	fs.BoolVarP(&f.linebreak, "linebreak", "L", false, `use "\n" as the output delimiter`)
	fs.StringVarP(&f.outputFormat, "output-format", "F", "default", "output format: default|d, json|j, native|n")
	fs.BoolVar(&f.noCache, "no-cache", false, "build the program without the binary cache")
}

func addLoopFlags(cmd *cobra.Command, f *flags) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.loopHeads, "loop-head", "e", nil, "code run at the top of the loop (repeatable)")
	fs.StringArrayVarP(&f.filters, "filter", "f", nil, "skip records for which the expression is false (repeatable)")
}

func addRecordFlags(cmd *cobra.Command, f *flags) {
	fs := cmd.Flags()
	fs.IntVarP(&f.fieldLength, "field-length", "l", 0, "declare fields f1..fN")
	fs.StringVarP(&f.fieldType, "field-type", "t", "", "typed fields, ex) 1:i,3:j,5:b")
	fs.BoolVarP(&f.header, "header", "H", false, "read a header from the first record")
}

func addJSONFlag(cmd *cobra.Command, f *flags) {
	cmd.Flags().BoolVarP(&f.json, "json", "j", false, "decode the input as a JSON object into dic")
}

func newLineCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:     "line [code...]",
		Aliases: []string{"l"},
		Short:   "Process input line by line",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, gopipe.CommandLine, f, args)
		},
	}
	addCommonFlags(cmd, f)
	addLoopFlags(cmd, f)
	addJSONFlag(cmd, f)
	return cmd
}

func newRecCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:     "rec [code...]",
		Aliases: []string{"r", "record"},
		Short:   "Process input split into records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, gopipe.CommandRec, f, args)
		},
	}
	addCommonFlags(cmd, f)
	addLoopFlags(cmd, f)
	addRecordFlags(cmd, f)
	fs := cmd.Flags()
	fs.StringVarP(&f.delimiter, "delimiter", "d", `\t`, "field delimiter; longer than one character is a pattern")
	fs.StringVarP(&f.regex, "regex-match", "m", "", "fields are the matches of this pattern")
	fs.BoolVarP(&f.comma, "csv", "C", false, `same as -d ","`)
	fs.BoolVarP(&f.spaces, "spaces", "S", false, `same as -d "\s+"`)
	return cmd
}

func newCSVCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "csv [code...]",
		Short: "Process CSV records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, gopipe.CommandCSV, f, args)
		},
	}
	addCommonFlags(cmd, f)
	addLoopFlags(cmd, f)
	addRecordFlags(cmd, f)
	fs := cmd.Flags()
	fs.StringVarP(&f.delimiter, "delimiter", "d", ",", "field delimiter")
	fs.StringArrayVarP(&f.keyValues, "csv-opt", "O", nil, "csv option KEY=VALUE: comment, lazy_quotes, trim_leading_space, fields_per_record, use_crlf")
	fs.BoolVarP(&f.tsv, "tsv", "T", false, `same as -d "\t"`)
	return cmd
}

func newTextCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:     "text [code...]",
		Aliases: []string{"t"},
		Short:   "Process the whole input at once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, gopipe.CommandText, f, args)
		},
	}
	addCommonFlags(cmd, f)
	addJSONFlag(cmd, f)
	return cmd
}

func newFileCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:     "file [code...]",
		Aliases: []string{"f"},
		Short:   "Process the files named on input lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, gopipe.CommandFile, f, args)
		},
	}
	addCommonFlags(cmd, f)
	addLoopFlags(cmd, f)
	addJSONFlag(cmd, f)
	return cmd
}

func newCustomCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:     "custom [code...]",
		Aliases: []string{"c"},
		Short:   "Use a skeleton from the custom command file ($GOPIPE_CUSTOM)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, gopipe.CommandCustom, f, args)
		},
	}
	addCommonFlags(cmd, f)
	addLoopFlags(cmd, f)
	fs := cmd.Flags()
	fs.StringVarP(&f.name, "name", "N", "", "custom command name")
	fs.StringArrayVarP(&f.keyValues, "opt", "O", nil, "template option KEY=VALUE (repeatable)")
	cmd.MarkFlagRequired("name")
	return cmd
}

// parseKeyValues splits KEY=VALUE arguments.
func parseKeyValues(flag string, items []string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("-%s %q: expected KEY=VALUE", flag, item)
		}
		m[k] = v
	}
	return m, nil
}

// options converts parsed flags into generator options.
func (f *flags) options(command gopipe.Command, codes []string, terminal bool) (*gopipe.Options, error) {
	opts := &gopipe.Options{
		Command:         command,
		Codes:           codes,
		Imports:         f.imports,
		Pre:             f.pre,
		Post:            f.post,
		LoopHeads:       f.loopHeads,
		Filters:         f.filters,
		View:            f.view,
		Counter:         f.counter,
		NoWrapping:      f.noWrapping,
		NoComments:      f.noComments,
		NoAbbrevs:       f.noAbbrevs,
		OutputDelimiter: f.outputDelimiter,
		OutputFormat:    f.outputFormat,
		JSON:            f.json,
		FieldLength:     f.fieldLength,
		Header:          f.header,
		Delimiter:       f.delimiter,
		Regex:           f.regex,
	}
	if f.linebreak {
		opts.OutputDelimiter = `\n`
	}

	switch f.color {
	case "always":
		opts.Colored = true
	case "auto":
		opts.Colored = terminal
	case "never":
	default:
		return nil, fmt.Errorf("-k %q: expected always, auto or never", f.color)
	}

	switch {
	case f.comma:
		opts.Delimiter = ","
	case f.spaces:
		opts.Delimiter = `\s+`
	case f.tsv:
		opts.Delimiter = `\t`
	}

	if f.fieldType != "" {
		ft, err := gopipe.ParseFieldTypes(f.fieldType)
		if err != nil {
			return nil, err
		}
		opts.FieldTypes = ft
	}

	kv, err := parseKeyValues("O", f.keyValues)
	if err != nil {
		return nil, err
	}
	switch command {
	case gopipe.CommandCSV:
		opts.CSVOptions = kv
	case gopipe.CommandCustom:
		opts.CustomOptions = kv
		def, err := gopipe.LoadCustomCommand("", f.name)
		if err != nil {
			return nil, err
		}
		opts.Custom = def
	}
	return opts, nil
}
