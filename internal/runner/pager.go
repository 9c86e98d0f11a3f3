package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/mattn/go-isatty"
)

// Environment variables controlling the pager.
const (
	EnvPager        = "GOPIPE_PAGER"
	EnvPagerEnabled = "GOPIPE_PAGER_ENABLED"
)

// DefaultPager keeps colors, exits when output fits one screen and lets
// Ctrl-C quit.
const DefaultPager = "less -R -F -K"

// PagerCommand returns the pager to use, or "" when paging is off.
// Paging needs a terminal and can be disabled with GOPIPE_PAGER_ENABLED=false.
func PagerCommand(getenv func(string) string, terminal bool) string {
	if !terminal {
		return ""
	}
	if strings.EqualFold(strings.TrimSpace(getenv(EnvPagerEnabled)), "false") {
		return ""
	}
	if p := strings.TrimSpace(getenv(EnvPager)); p != "" {
		return p
	}
	return DefaultPager
}

// Pager is a running pager process fed through its stdin.
type Pager struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *bufio.Writer
}

// StartPager starts command with its output on stdout.
func StartPager(command string, stdout, stderr io.Writer) (*Pager, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("pager %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("pager: empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("pager %q: %w", command, err)
	}

	return &Pager{
		cmd:    cmd,
		stdin:  stdin,
		writer: bufio.NewWriter(stdin),
	}, nil
}

// Writer returns the buffered pager input.
func (p *Pager) Writer() io.Writer {
	return p.writer
}

// Close flushes pending output, closes the pager input and waits for the
// pager to exit.
func (p *Pager) Close() error {
	p.writer.Flush()
	p.stdin.Close()
	return p.cmd.Wait()
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
