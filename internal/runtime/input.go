package runtime

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxLineSize bounds a single input line.
const maxLineSize = 64 * 1024 * 1024

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

func readAll(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// readFile returns the contents of path, decompressing .gz files.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if filepath.Ext(path) != ".gz" {
		return io.ReadAll(f)
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// decodeObject parses s as a JSON object.
func decodeObject(s string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		panic(fmt.Errorf("decode json: %w", err))
	}
	return m
}

// writeRecord writes args as one CSV row. A lone slice is written as the row.
func writeRecord(w *csv.Writer, args ...any) {
	vals := expandArgs(args)
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = formatValue(v)
	}
	if err := w.Write(row); err != nil {
		panic(err)
	}
}
