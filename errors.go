package gopipe

import (
	"errors"
	"fmt"

	"github.com/kolkov/gopipe/internal/codegen"
	"github.com/kolkov/gopipe/internal/custom"
	"github.com/kolkov/gopipe/internal/runner"
)

// OptionError reports options that cannot be turned into a program.
type OptionError struct {
	Option  string // flag name without dashes, empty when not tied to one
	Message string // Error description
}

func (e *OptionError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("invalid options: %s", e.Message)
	}
	return fmt.Sprintf("invalid option %s: %s", e.Option, e.Message)
}

// TemplateError represents a skeleton that failed to render.
type TemplateError struct {
	Name    string // template name
	Message string // Error description
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %s", e.Name, e.Message)
}

// SyntaxError represents a generated program that is not valid Go.
// Source holds the unformatted program so it can still be shown.
type SyntaxError struct {
	Source  string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Message)
}

// BuildError represents a failed build of the generated program.
type BuildError struct {
	Output string // compiler output
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build error:\n%s", e.Output)
}

// ExitError represents a program that finished with a non-zero status.
type ExitError struct {
	Code int // Exit status code
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// IsExitError reports whether err is an ExitError and returns the exit code.
// Returns (code, true) if err is an ExitError, or (0, false) otherwise.
func IsExitError(err error) (int, bool) {
	var e *ExitError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// convertError maps internal errors to the public types.
func convertError(err error) error {
	var (
		ve *codegen.ValidationError
		te *codegen.TemplateError
		se *codegen.SyntaxError
		be *runner.BuildError
		ee *runner.ExitError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ve):
		return &OptionError{Option: ve.Option, Message: ve.Message}
	case errors.Is(err, custom.ErrUnknownCommand), errors.Is(err, custom.ErrUnknownOption):
		return &OptionError{Option: "name", Message: err.Error()}
	case errors.As(err, &te):
		return &TemplateError{Name: te.Name, Message: te.Err.Error()}
	case errors.As(err, &se):
		return &SyntaxError{Source: se.Raw, Message: se.Err.Error()}
	case errors.As(err, &be):
		return &BuildError{Output: be.Output}
	case errors.As(err, &ee):
		return &ExitError{Code: ee.Code}
	}
	return err
}
