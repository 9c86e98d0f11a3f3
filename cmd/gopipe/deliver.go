package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kolkov/gopipe"
	"github.com/kolkov/gopipe/internal/runner"
)

// run generates the program for command and prints, saves or runs it.
func run(cmd *cobra.Command, command gopipe.Command, f *flags, codes []string) error {
	stdout := cmd.OutOrStdout()
	terminal := isTerminal(stdout)

	opts, err := f.options(command, codes, terminal)
	if err != nil {
		return err
	}

	prog, err := gopipe.Generate(opts)
	if err != nil {
		var se *gopipe.SyntaxError
		if !errors.As(err, &se) {
			return err
		}
		if !f.print {
			return fmt.Errorf("%w (rerun with -p to see the generated program)", err)
		}
		if prog != nil {
			io.WriteString(stdout, se.Source)
		}
		return err
	}

	switch {
	case f.output != "":
		return prog.WriteFile(f.output)
	case f.print:
		_, err := prog.WriteTo(stdout)
		return err
	}

	config := &gopipe.RunConfig{
		Stdin:   cmd.InOrStdin(),
		Stdout:  stdout,
		Stderr:  cmd.ErrOrStderr(),
		NoCache: f.noCache,
	}

	pagerCmd := runner.PagerCommand(os.Getenv, terminal)
	if pagerCmd == "" {
		return prog.Run(cmd.Context(), config)
	}
	pager, err := runner.StartPager(pagerCmd, stdout, config.Stderr)
	if err != nil {
		// No usable pager: write to the terminal directly.
		return prog.Run(cmd.Context(), config)
	}
	config.Stdout = pager.Writer()
	runErr := prog.Run(cmd.Context(), config)
	pager.Close()
	return runErr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && runner.IsTerminal(f)
}
