// Package web serves the learning screen as a server-rendered page
package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/example/spanishbot/internal/api"
	"github.com/example/spanishbot/internal/excel"
	"github.com/example/spanishbot/internal/learning"
	"github.com/example/spanishbot/internal/logger"
	"github.com/example/spanishbot/pkg/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Options configures the web front-end
type Options struct {
	// Origins allowed to read /api/state from a browser
	AllowedOrigins []string
	// Largest accepted upload in bytes
	MaxUploadSize int64
	SecureCookie  bool
}

// Server renders one Screen per browser session
type Server struct {
	sessions *learning.Sessions
	log      *logger.Logger
	opts     Options
	tmpl     *template.Template
}

// New creates the web front-end
func New(sessions *learning.Sessions, log *logger.Logger, opts Options) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 20 << 20
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Server{sessions: sessions, log: log, opts: opts, tmpl: tmpl}, nil
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/vocabulary/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/words", s.handleAddText).Methods(http.MethodPost)
	r.HandleFunc("/words/image", s.handleUpload(learning.ActionAddImage)).Methods(http.MethodPost)
	r.HandleFunc("/words/audio", s.handleUpload(learning.ActionAddAudio)).Methods(http.MethodPost)
	r.HandleFunc("/words/import", s.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/export.xlsx", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/learn/start", s.handleStartQuiz).Methods(http.MethodPost)
	r.HandleFunc("/learn/next", s.handleNextQuestion).Methods(http.MethodPost)
	r.HandleFunc("/learn/answer", s.handleAnswer).Methods(http.MethodPost)
	r.HandleFunc("/learn/reset", s.handleResetQuiz).Methods(http.MethodPost)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsHandler.Handler)
	apiRouter.HandleFunc("/state", s.handleState).Methods(http.MethodGet, http.MethodOptions)

	var h http.Handler = r
	h = accessLogMiddleware(s.log)(h)
	h = requestIDMiddleware(h)
	return recoverMiddleware(s.log)(h)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	screen := s.currentScreen(r)
	if screen == nil {
		s.render(w, learning.View{})
		return
	}
	if screen.User() != nil {
		if tab := r.URL.Query().Get("tab"); tab != "" {
			screen.SetTab(learning.ParseTab(tab))
		}
		if !screen.Snapshot().VocabularyLoaded {
			_ = screen.LoadVocabulary(r.Context())
		}
	}
	s.render(w, screen.Snapshot())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	screen := s.screenFor(w, r)
	lang := models.NativeLanguage(r.FormValue("native_language"))
	err := screen.Register(r.Context(), r.FormValue("username"), lang)
	s.logResult(learning.ActionRegister, err)
	redirect(w, r, learning.TabVocabulary)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	screen := s.screenFor(w, r)
	s.logResult(learning.ActionLoadVocabulary, screen.LoadVocabulary(r.Context()))
	redirect(w, r, learning.TabVocabulary)
}

func (s *Server) handleAddText(w http.ResponseWriter, r *http.Request) {
	screen := s.screenFor(w, r)
	_, err := screen.AddText(r.Context(), learning.WordDraft{
		Spanish: r.FormValue("word_spanish"),
		Native:  r.FormValue("word_native"),
		Type:    models.WordType(r.FormValue("word_type")),
	})
	s.logResult(learning.ActionAddText, err)
	redirect(w, r, learning.TabAdd)
}

func (s *Server) handleUpload(action learning.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen := s.screenFor(w, r)
		upload, closeFile, err := s.formFile(w, r)
		if err != nil {
			s.log.Warn("error reading upload", "action", action, "error", err)
		}
		defer closeFile()

		if action == learning.ActionAddImage {
			_, err = screen.AddImage(r.Context(), upload)
		} else {
			_, err = screen.AddAudio(r.Context(), upload)
		}
		s.logResult(action, err)
		redirect(w, r, learning.TabAdd)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	screen := s.screenFor(w, r)
	upload, closeFile, err := s.formFile(w, r)
	defer closeFile()

	switch {
	case err != nil || upload.Body == nil:
		err = screen.RejectImport("Please choose a file")
	default:
		rows, perr := excel.ParseWordList(upload.Body, upload.Filename, excel.DefaultImportConfig())
		if perr != nil {
			err = screen.RejectImport(importError(perr))
			break
		}
		_, err = screen.ImportWords(r.Context(), rows)
	}
	s.logResult(learning.ActionImport, err)
	redirect(w, r, learning.TabAdd)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	screen := s.currentScreen(r)
	if screen == nil {
		redirect(w, r, learning.TabVocabulary)
		return
	}
	if err := screen.LoadVocabulary(r.Context()); err != nil {
		if errors.Is(err, learning.ErrNotRegistered) {
			redirect(w, r, learning.TabVocabulary)
			return
		}
		http.Error(w, learning.Message(learning.ActionLoadVocabulary, err), http.StatusBadGateway)
		return
	}

	v := screen.Snapshot()
	data, err := excel.ExportVocabulary(v.Vocabulary, v.User.NativeLanguage)
	if err != nil {
		s.log.Error("error exporting vocabulary", "error", err)
		http.Error(w, "Failed to export vocabulary", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="vocabulary.xlsx"`)
	w.Write(data)
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	screen := s.screenFor(w, r)
	_, err := screen.StartQuiz(r.Context())
	s.logResult(learning.ActionQuestion, err)
	redirect(w, r, learning.TabLearn)
}

func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	screen := s.screenFor(w, r)
	_, err := screen.NextQuestion(r.Context())
	s.logResult(learning.ActionQuestion, err)
	redirect(w, r, learning.TabLearn)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	screen := s.screenFor(w, r)
	_, err := screen.SubmitAnswer(r.Context(), r.FormValue("answer"))
	s.logResult(learning.ActionAnswer, err)
	redirect(w, r, learning.TabLearn)
}

func (s *Server) handleResetQuiz(w http.ResponseWriter, r *http.Request) {
	s.screenFor(w, r).ResetQuiz()
	redirect(w, r, learning.TabLearn)
}

// formFile reads the "file" field. A missing file yields an empty Upload,
// which the screen reports as a validation failure.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (api.Upload, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)
	if err := r.ParseMultipartForm(s.opts.MaxUploadSize); err != nil {
		return api.Upload{}, noop, err
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return api.Upload{}, noop, nil
	}
	if err != nil {
		return api.Upload{}, noop, err
	}
	upload := api.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return upload, func() { file.Close() }, nil
}

// logResult logs failures other than input validation
func (s *Server) logResult(action learning.Action, err error) {
	if err == nil || learning.IsValidation(err) {
		return
	}
	s.log.Debug("action failed", "action", action, "error", err)
}

// redirect sends the browser back to the page after a form post
func redirect(w http.ResponseWriter, r *http.Request, tab learning.Tab) {
	http.Redirect(w, r, "/?tab="+string(tab), http.StatusSeeOther)
}

func importError(err error) string {
	if errors.Is(err, excel.ErrUnsupportedFormat) {
		return "Please upload an .xlsx or .csv file"
	}
	return "Could not read the word list: " + strings.TrimSpace(err.Error())
}
