package runtime

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewScannerLongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	sc := newScanner(strings.NewReader("short\n" + long + "\nlast"))
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 || lines[1] != long || lines[2] != "last" {
		t.Errorf("unexpected lines: %d", len(lines))
	}
}

func TestReadAll(t *testing.T) {
	if got := readAll(strings.NewReader("a\nb\n")); got != "a\nb\n" {
		t.Errorf("readAll() = %q", got)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(plain, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write([]byte("compressed\n"))
	zw.Close()
	packed := filepath.Join(dir, "packed.txt.gz")
	if err := os.WriteFile(packed, gz.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{plain, "hello\n", false},
		{packed, "compressed\n", false},
		{filepath.Join(dir, "missing"), "", true},
		{plain + ".gz", "", true},
	}
	// A .gz file that is not gzip data.
	if err := os.WriteFile(plain+".gz", []byte("not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			got, err := readFile(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("readFile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	got := decodeObject(`{"a":1,"b":"x"}`)
	want := map[string]any{"a": 1.0, "b": "x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeObject() mismatch (-want +got):\n%s", diff)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid JSON")
		}
	}()
	decodeObject("[1,2]")
}

func TestWriteRecord(t *testing.T) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	writeRecord(w, "a", 1, "x,y")
	writeRecord(w, []string{"p", "q"})
	w.Flush()
	want := "a,1,\"x,y\"\np,q\n"
	if got := buf.String(); got != want {
		t.Errorf("writeRecord() = %q, want %q", got, want)
	}
}
