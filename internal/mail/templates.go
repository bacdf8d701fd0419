package mail

import (
	"bytes"
	"embed"
	"html/template"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// Template names.
const (
	TemplateLoginOTP  = "login-otp"
	TemplateSignupOTP = "signup-otp"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders the embedded HTML templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every page template together with the shared layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range []string{TemplateLoginOTP, TemplateSignupOTP} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, apperrors.Wrapf(err, "failed to parse template %s", name)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", apperrors.Wrapf(apperrors.ErrNotFound, "template %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", apperrors.Wrapf(err, "failed to render template %s", name)
	}
	return buf.String(), nil
}
