package gopipe

import (
	"io"
	"os"

	"github.com/kolkov/gopipe/internal/codegen"
	"github.com/kolkov/gopipe/internal/runner"
)

// Options describes the program to generate. See the field comments of
// codegen.Options; the zero value generates a line program that prints
// every input line.
type Options = codegen.Options

// Command selects the program skeleton.
type Command = codegen.Command

// FieldType requests a typed field variable fN.
type FieldType = codegen.FieldType

// Commands.
const (
	CommandLine   = codegen.CommandLine
	CommandRec    = codegen.CommandRec
	CommandCSV    = codegen.CommandCSV
	CommandText   = codegen.CommandText
	CommandFile   = codegen.CommandFile
	CommandCustom = codegen.CommandCustom
)

// ParseFieldTypes parses a field type list such as "1:i,3:j,5:b".
func ParseFieldTypes(s string) ([]FieldType, error) {
	ft, err := codegen.ParseFieldTypes(s)
	if err != nil {
		return nil, convertError(err)
	}
	return ft, nil
}

// RunConfig holds configuration for running a generated program.
type RunConfig struct {
	// Stdin is the program input (default: os.Stdin).
	Stdin io.Reader

	// Stdout receives program output (default: os.Stdout).
	Stdout io.Writer

	// Stderr receives program diagnostics and build output (default: os.Stderr).
	Stderr io.Writer

	// GoBin is the go command used to build the program.
	// Default: $GOPIPE_GO, then "go" from PATH.
	GoBin string

	// CacheDir keeps built programs so that repeated runs skip the build.
	// Default: $GOPIPE_CACHE, then the user cache directory.
	CacheDir string

	// NoCache builds every program from scratch.
	NoCache bool
}

// applyDefaults fills in default values for unset RunConfig fields.
func (c *RunConfig) applyDefaults() {
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.NoCache {
		c.CacheDir = ""
	} else if c.CacheDir == "" {
		if dir, err := runner.DefaultCacheDir(); err == nil {
			c.CacheDir = dir
		}
	}
}
