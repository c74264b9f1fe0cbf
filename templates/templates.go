// Package templates holds the server-rendered pages. Every page is parsed together with the
// shared layout and executed through it.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/cppla/inkwell/forms"
	"github.com/cppla/inkwell/services"
	"github.com/cppla/inkwell/utils"
)

//go:embed html/*.html
var files embed.FS

const layout = "html/layout.html"

// Funcs are available to every page.
var Funcs = template.FuncMap{
	"markdown": func(s string) template.HTML {
		return template.HTML(utils.RenderMarkdown(s))
	},
	"fieldError": func(errs forms.Errors, field string) string {
		return errs.Message(field)
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"userURL": services.UserPath,
	"avatarInitial": func(name string) string {
		if name == "" {
			return "?"
		}
		return strings.ToUpper(string([]rune(name)[0]))
	},
}

// Renderer implements gin's render.HTMLRender over the embedded pages.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page with the layout.
func New() (*Renderer, error) {
	names, err := fs.Glob(files, "html/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, name := range names {
		if name == layout {
			continue
		}
		t, err := template.New("layout.html").Funcs(Funcs).ParseFS(files, layout, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimPrefix(name, "html/")] = t
	}
	return r, nil
}

// MustNew is New for program start-up.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic("templates: unknown page " + name)
	}
	return render.HTML{Template: t, Name: "layout.html", Data: data}
}
