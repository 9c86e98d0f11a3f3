// Package custom loads user-defined command skeletons.
//
// A custom command is a pongo2 template plus a few settings, stored in a TOML
// or YAML file:
//
//	[commands.grep]
//	template = '''
//	package main
//
//	{{ imp }}
//
//	var pattern = regexp.MustCompile({{ pattern }})
//
//	{{ helpers }}
//
//	func main() {
//		defer finish()
//	{{ pre }}
//		scanner := newScanner(os.Stdin)
//		for i := 1; scanner.Scan(); i++ {
//			line := scanner.Text()
//			_, _ = i, line
//	{{ loop_head }}
//	{{ loop_filter }}
//			if !pattern.MatchString(line) {
//				continue
//			}
//	{{ main }}
//		}
//	{{ post }}
//	}
//	'''
//	code_indent = 2
//	wrapper = "emit({})"
//	default_code = "line"
//
//	[commands.grep.options.pattern]
//	default = '"."'
package custom

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides DefaultPath.
const EnvPath = "GOPIPE_CUSTOM"

var (
	// ErrUnknownCommand is returned by Lookup for undefined names.
	ErrUnknownCommand = errors.New("unknown custom command")

	// ErrUnknownOption is returned by Params for options the command does not declare.
	ErrUnknownOption = errors.New("unknown option")
)

// Option is a named template parameter.
type Option struct {
	Default string `toml:"default" yaml:"default"`
}

// Command describes one custom command.
type Command struct {
	Name        string            `toml:"-" yaml:"-"`
	Template    string            `toml:"template" yaml:"template"`
	CodeIndent  int               `toml:"code_indent" yaml:"code_indent"`
	Wrapper     string            `toml:"wrapper" yaml:"wrapper"`
	DefaultCode string            `toml:"default_code" yaml:"default_code"`
	Options     map[string]Option `toml:"options" yaml:"options"`
}

// File is the decoded custom command file.
type File struct {
	Commands map[string]*Command `toml:"commands" yaml:"commands"`
}

// DefaultPath returns $GOPIPE_CUSTOM, or ~/.config/gopipe/custom.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return expandHome(p)
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".config", "gopipe", "custom.toml"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, strings.TrimPrefix(p, "~")), nil
}

// Load reads and decodes a custom command file. The format follows the file
// extension: .yaml and .yml are YAML, anything else TOML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("custom: %w", err)
	}
	format := "toml"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("custom: %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data as "toml" or "yaml".
func Parse(data []byte, format string) (*File, error) {
	var f File
	switch format {
	case "toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	for name, cmd := range f.Commands {
		if cmd == nil {
			return nil, fmt.Errorf("command %q is empty", name)
		}
		cmd.Name = name
		if strings.TrimSpace(cmd.Template) == "" {
			return nil, fmt.Errorf("command %q has no template", name)
		}
		if cmd.CodeIndent < 0 {
			return nil, fmt.Errorf("command %q: negative code_indent", name)
		}
	}
	return &f, nil
}

// Lookup returns the named command.
func (f *File) Lookup(name string) (*Command, error) {
	if f != nil {
		if cmd, ok := f.Commands[name]; ok {
			return cmd, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownCommand, name)
}

// Names returns the defined command names, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Commands))
	for name := range f.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Params merges user values over the declared option defaults.
// An empty user value falls back to the default.
func (c *Command) Params(values map[string]string) (map[string]string, error) {
	params := make(map[string]string, len(c.Options))
	for name, opt := range c.Options {
		params[name] = opt.Default
	}
	for name, v := range values {
		if _, ok := c.Options[name]; !ok {
			return nil, fmt.Errorf("%s: %w %q", c.Name, ErrUnknownOption, name)
		}
		if v != "" {
			params[name] = v
		}
	}
	return params, nil
}
