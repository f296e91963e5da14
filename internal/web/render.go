package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/example/spanishbot/internal/learning"
	"github.com/example/spanishbot/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"date": func(t models.Timestamp) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
	}
	return template.New("page.html").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// page is the template data of the single screen
type page struct {
	learning.View
	WordTypes []models.WordType
	Languages []models.NativeLanguage
}

func (p page) Msg(action string) learning.Result {
	return p.Result(learning.Action(action))
}

func (p page) Pending(action string) bool {
	return p.Busy(learning.Action(action))
}

func (p page) IsTab(tab string) bool {
	return p.Tab == learning.Tab(tab)
}

func (p page) Asking() bool {
	return p.Quiz.Phase == learning.PhaseQuestion
}

func (p page) Answered() bool {
	return p.Quiz.Phase == learning.PhaseAnswered
}

func (s *Server) render(w http.ResponseWriter, v learning.View) {
	data := page{
		View:      v,
		WordTypes: models.WordTypes,
		Languages: []models.NativeLanguage{models.LanguageEnglish, models.LanguageUkrainian},
	}
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
		s.log.Error("error rendering page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
