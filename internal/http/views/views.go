// Package views renders the broker's small set of HTML pages.
package views

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/compasshq/websignin/internal/observability/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// SignInData feeds the sign-in page.
type SignInData struct {
	Me       string
	UserID   string
	SignedIn bool
}

// ErrorData feeds the error page.
type ErrorData struct {
	Error string
}

// RenderSignIn writes the landing page. It doubles as the signed-in
// home when the session is authenticated.
func RenderSignIn(w http.ResponseWriter, data SignInData) {
	render(w, http.StatusOK, "signin.html", data)
}

// RenderError writes the error page with the given status code.
func RenderError(w http.ResponseWriter, status int, message string) {
	render(w, status, "error.html", ErrorData{Error: message})
}

func render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		logger.L().Error("template render failed", logger.String("template", name), logger.Err(err))
	}
}
