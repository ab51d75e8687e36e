// Package views holds the embedded HTML templates and static assets.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"socialblog/internal/forms"
	"socialblog/internal/models"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Layout wraps every page.
const Layout = "layouts/base"

// Engine returns a template engine over the embedded templates.
func Engine() *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(Funcs())
	return engine
}

// Static serves the embedded assets mounted at /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"avatar": func(p *models.Profile) string { return p.AvatarURL() },
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"datetime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"canModify": func(userID uint, entity models.Published) bool {
			return models.CanModify(userID, entity)
		},
		"fieldError": func(errs forms.Errors, field string) string {
			return errs[field]
		},
	}
}
