package runtime

import (
	"embed"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// Helper files that can be inlined into a generated program.
const (
	HelperEmit    = "emit.go"
	HelperRecord  = "record.go"
	HelperViewer  = "viewer.go"
	HelperCounter = "counter.go"
	HelperInput   = "input.go"
)

//go:embed emit.go record.go viewer.go counter.go input.go
var sources embed.FS

// Helper is the inlinable part of a helper file.
type Helper struct {
	Name    string
	Imports []string // import specs as written, e.g. `"fmt"`
	Body    string   // everything after the import declarations
}

// LoadHelper splits an embedded helper file into its imports and body.
func LoadHelper(name string) (Helper, error) {
	src, err := sources.ReadFile(name)
	if err != nil {
		return Helper{}, fmt.Errorf("helper %s: %w", name, err)
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, name, src, parser.ImportsOnly|parser.ParseComments)
	if err != nil {
		return Helper{}, fmt.Errorf("helper %s: %w", name, err)
	}

	end := f.Name.End()
	for _, decl := range f.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			end = gd.End()
		}
	}

	h := Helper{Name: name, Body: strings.TrimSpace(string(src[fset.Position(end).Offset:]))}
	for _, spec := range f.Imports {
		imp := spec.Path.Value
		if spec.Name != nil {
			imp = spec.Name.Name + " " + imp
		}
		h.Imports = append(h.Imports, imp)
	}
	return h, nil
}

// LoadHelpers loads names in order, skipping duplicates.
func LoadHelpers(names ...string) ([]Helper, error) {
	seen := make(map[string]bool, len(names))
	var out []Helper
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		h, err := LoadHelper(name)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
