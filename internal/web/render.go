package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

//go:embed templates
var embeddedTemplates embed.FS

type Renderer interface {
	Render(w io.Writer, name string, data map[string]any) error
}

// TemplateRenderer рендерит страницы внутри templates/layout.html
type TemplateRenderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t any) string {
		switch v := t.(type) {
		case time.Time:
			return v.Format("2006-01-02")
		case *time.Time:
			if v == nil {
				return ""
			}
			return v.Format("2006-01-02")
		}
		return ""
	},
	"join": strings.Join,
}

// NewTemplateRenderer парсит встроенные шаблоны или шаблоны из dir
func NewTemplateRenderer(dir string) (*TemplateRenderer, error) {
	var fsys fs.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}

	names, err := fs.Glob(fsys, "*/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &TemplateRenderer{pages: pages}, nil
}

func (tr *TemplateRenderer) Render(w io.Writer, name string, data map[string]any) error {
	t, ok := tr.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
