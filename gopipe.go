package gopipe

import (
	"context"

	"github.com/kolkov/gopipe/internal/codegen"
	"github.com/kolkov/gopipe/internal/custom"
)

// Version is the gopipe version string.
const Version = "0.3.1"

// CustomCommand is a user-defined skeleton loaded from a TOML or YAML file.
type CustomCommand = custom.Command

// Generate builds the program described by opts.
//
// If the user fragments make the program invalid Go, Generate returns the
// unformatted Program together with a *SyntaxError, so callers can still
// show the source.
//
// Example:
//
//	prog, err := gopipe.Generate(&gopipe.Options{
//	    Command: gopipe.CommandRec,
//	    Codes:   []string{"f2, f1"},
//	    FieldLength: 2,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(prog.Source())
func Generate(opts *Options) (*Program, error) {
	if opts == nil {
		opts = &Options{}
	}
	o := *opts
	if o.Command == "" {
		o.Command = CommandLine
	}

	res, err := codegen.Generate(&o)
	if res != nil {
		prog := &Program{source: res.Source, raw: res.Raw}
		return prog, convertError(err)
	}
	return nil, convertError(err)
}

// Exec generates the program and runs it.
//
// Example:
//
//	err := gopipe.Exec(ctx, &gopipe.Options{Codes: []string{"strings.ToUpper(line)"}}, nil)
func Exec(ctx context.Context, opts *Options, config *RunConfig) error {
	prog, err := Generate(opts)
	if err != nil {
		return err
	}
	return prog.Run(ctx, config)
}

// LoadCustomCommand reads the custom command file at path and returns the
// named command. An empty path selects custom.DefaultPath:
// $GOPIPE_CUSTOM or ~/.config/gopipe/custom.toml.
func LoadCustomCommand(path, name string) (*CustomCommand, error) {
	if path == "" {
		p, err := custom.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	f, err := custom.Load(path)
	if err != nil {
		return nil, err
	}
	cmd, err := f.Lookup(name)
	if err != nil {
		return nil, convertError(err)
	}
	return cmd, nil
}
