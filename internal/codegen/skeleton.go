package codegen

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tpl
var templateFiles embed.FS

var (
	setOnce     sync.Once
	skeletonSet *pongo2.TemplateSet
	setErr      error
)

func templateSet() (*pongo2.TemplateSet, error) {
	setOnce.Do(func() {
		sub, err := fs.Sub(templateFiles, "templates")
		if err != nil {
			setErr = err
			return
		}
		skeletonSet = pongo2.NewSet("gopipe", pongo2.NewFSLoader(sub))
	})
	return skeletonSet, setErr
}

// TemplateError reports a skeleton that failed to parse or render.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// renderSkeleton fills the built-in skeleton for cmd.
func renderSkeleton(cmd Command, params map[string]string) (string, error) {
	name := string(cmd) + ".tpl"
	set, err := templateSet()
	if err != nil {
		return "", &TemplateError{Name: name, Err: err}
	}
	tpl, err := set.FromCache(name)
	if err != nil {
		return "", &TemplateError{Name: name, Err: err}
	}
	return execute(name, tpl, params)
}

// renderString fills a user-supplied skeleton. Autoescaping is disabled so
// that Go source passes through untouched.
func renderString(name, content string, params map[string]string) (string, error) {
	set, err := templateSet()
	if err != nil {
		return "", &TemplateError{Name: name, Err: err}
	}
	tpl, err := set.FromString("{% autoescape off %}" + content + "{% endautoescape %}")
	if err != nil {
		return "", &TemplateError{Name: name, Err: err}
	}
	return execute(name, tpl, params)
}

func execute(name string, tpl *pongo2.Template, params map[string]string) (string, error) {
	ctx := make(pongo2.Context, len(params))
	for k, v := range params {
		ctx[k] = v
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", &TemplateError{Name: name, Err: err}
	}
	return out, nil
}
