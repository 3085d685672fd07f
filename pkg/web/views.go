package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/nyaruka/phonenumbers"
	"github.com/synaptica-ai/hospital/pkg/common/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"home",
	"doctors",
	"edit_doctor",
	"patients",
	"edit_patient",
	"prescriptions",
	"edit_prescription",
	"audit",
}

// Views holds one parsed template set per page, each sharing the layout.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses the embedded templates. region is the default region used
// to display phone numbers written without a country code.
func NewViews(region string) (*Views, error) {
	funcs := template.FuncMap{
		"phone": func(raw string) string { return FormatPhone(raw, region) },
	}
	v := &Views{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		v.pages[page] = tpl
	}
	return v, nil
}

// Render buffers the page so a template failure still yields a clean 500.
func (v *Views) Render(w http.ResponseWriter, page string, data interface{}) {
	tpl, ok := v.pages[page]
	if !ok {
		logger.Log.WithField("page", page).Error("unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Log.WithError(err).WithField("page", page).Error("failed to render template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// FormatPhone renders valid numbers in international format. Anything that
// does not parse is shown exactly as stored.
func FormatPhone(raw, region string) string {
	if raw == "" {
		return raw
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
