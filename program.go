package gopipe

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kolkov/gopipe/internal/runner"
)

// scriptHeader makes a saved program executable as a script: sh runs the
// first line, Go reads it as a comment.
const scriptHeader = `//usr/bin/env go run "$0" "$@"; exit "$?"` + "\n"

// Program represents a generated program ready to be printed, saved or run.
type Program struct {
	source []byte // formatted source, nil when formatting failed
	raw    string // source before formatting
}

// Source returns the program text. When the program could not be formatted
// the unformatted text is returned.
func (p *Program) Source() string {
	if p.source == nil {
		return p.raw
	}
	return string(p.source)
}

// Raw returns the program text before formatting and import fixing.
func (p *Program) Raw() string {
	return p.raw
}

// WriteTo writes the program text to w.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, p.Source())
	return int64(n), err
}

// WriteFile saves the program as an executable script.
func (p *Program) WriteFile(path string) error {
	data := append([]byte(scriptHeader), p.Source()...)
	if err := os.WriteFile(path, data, 0o755); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0o755)
}

// Run builds the program and runs it with the given configuration.
// If config is nil, default configuration is used.
func (p *Program) Run(ctx context.Context, config *RunConfig) error {
	if p.source == nil {
		return &SyntaxError{Source: p.raw, Message: "program was not formatted"}
	}
	if config == nil {
		config = &RunConfig{}
	}
	config.applyDefaults()

	r := &runner.Runner{
		GoBin:    config.GoBin,
		CacheDir: config.CacheDir,
		Stdin:    config.Stdin,
		Stdout:   config.Stdout,
		Stderr:   config.Stderr,
	}
	if err := r.Run(ctx, p.source); err != nil {
		return convertError(err)
	}
	return nil
}

// String implements fmt.Stringer.
func (p *Program) String() string {
	return fmt.Sprintf("gopipe.Program(%d bytes)", len(p.Source()))
}
