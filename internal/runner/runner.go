// Package runner builds generated programs with the local Go toolchain and
// runs them.
package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"syscall"
	"time"
)

// Environment variables read by Runner.
const (
	EnvGo    = "GOPIPE_GO"
	EnvCache = "GOPIPE_CACHE"
)

// goMod is written next to the program so it builds outside any
// surrounding module or workspace.
const goMod = "module gopipescript\n\ngo 1.21\n"

// BuildError carries the compiler output of a failed build.
type BuildError struct {
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("build failed: %v", e.Err)
	}
	return fmt.Sprintf("build failed:\n%s", out)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ExitError is a non-zero exit status of the program.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Runner builds and runs programs.
type Runner struct {
	// GoBin is the go command. Default: $GOPIPE_GO, then "go" from PATH.
	GoBin string

	// CacheDir keeps built binaries keyed by source hash. Empty disables
	// caching; see DefaultCacheDir.
	CacheDir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultCacheDir returns $GOPIPE_CACHE or <user cache dir>/gopipe.
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv(EnvCache); dir != "" {
		return dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gopipe"), nil
}

// Key returns the cache key of source.
func Key(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

func (r *Runner) goBin() (string, error) {
	bin := r.GoBin
	if bin == "" {
		bin = os.Getenv(EnvGo)
	}
	if bin == "" {
		bin = "go"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("go toolchain not found: %w", err)
	}
	return path, nil
}

func exeName() string {
	if goruntime.GOOS == "windows" {
		return "program.exe"
	}
	return "program"
}

// binaryPath is where the cached binary of key lives.
func (r *Runner) binaryPath(key string) string {
	return filepath.Join(r.CacheDir, key[:2], key, exeName())
}

// Run builds source, unless a cached binary exists, and runs it.
func (r *Runner) Run(ctx context.Context, source []byte) error {
	bin, cleanup, err := r.Build(ctx, source)
	if err != nil {
		return err
	}
	defer cleanup()
	return r.execute(ctx, bin)
}

// Build returns the path of a binary for source. The cleanup function
// removes temporary files and must be called once the binary is no longer
// needed.
func (r *Runner) Build(ctx context.Context, source []byte) (string, func(), error) {
	noop := func() {}
	if r.CacheDir != "" {
		bin := r.binaryPath(Key(source))
		if _, err := os.Stat(bin); err == nil {
			return bin, noop, nil
		}
	}

	goBin, err := r.goBin()
	if err != nil {
		return "", noop, err
	}

	dir, err := os.MkdirTemp("", "gopipe-")
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	if err := writeModule(dir, source); err != nil {
		cleanup()
		return "", noop, err
	}

	out := filepath.Join(dir, exeName())
	cmd := exec.CommandContext(ctx, goBin, "build", "-o", out, ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOWORK=off")
	if output, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return "", noop, &BuildError{Output: string(output), Err: err}
	}

	if r.CacheDir == "" {
		return out, cleanup, nil
	}
	bin, err := r.store(out, Key(source))
	if err != nil {
		// An unwritable cache still leaves a usable binary.
		return out, cleanup, nil
	}
	cleanup()
	return bin, noop, nil
}

func writeModule(dir string, source []byte) error {
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "main.go"), source, 0o644)
}

// store moves a fresh binary into the cache. Every builder writes its own
// temp file, and the rename publishes only complete binaries.
func (r *Runner) store(built, key string) (string, error) {
	bin := r.binaryPath(key)
	if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
		return "", fmt.Errorf("cache: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(bin), "program-*")
	if err != nil {
		return "", fmt.Errorf("cache: %w", err)
	}
	tmpName := tmp.Name()
	if err := copyTo(tmp, built); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("cache: %w", err)
	}
	if err := os.Rename(tmpName, bin); err != nil {
		os.Remove(tmpName)
		// Another builder won the race.
		if _, statErr := os.Stat(bin); statErr == nil {
			return bin, nil
		}
		return "", fmt.Errorf("cache: %w", err)
	}
	return bin, nil
}

// copyTo copies src into out, makes it executable and closes it.
func copyTo(out *os.File, src string) error {
	in, err := os.Open(src)
	if err != nil {
		out.Close()
		return err
	}
	defer in.Close()
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Chmod(0o755); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// startAttempts bounds retries of a start that failed with ETXTBSY. A
// concurrent fork can briefly hold a write descriptor of a binary that was
// just renamed into the cache.
const startAttempts = 5

func (r *Runner) execute(ctx context.Context, bin string) error {
	var err error
	for attempt := 1; ; attempt++ {
		cmd := exec.CommandContext(ctx, bin)
		cmd.Stdin = r.Stdin
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
		err = cmd.Run()
		if !errors.Is(err, syscall.ETXTBSY) || attempt == startAttempts {
			break
		}
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}
	// A reader that went away, such as a pager quit early, ends the run quietly.
	if strings.Contains(exitErr.ProcessState.String(), "broken pipe") {
		return nil
	}
	return &ExitError{Code: exitErr.ExitCode()}
}
