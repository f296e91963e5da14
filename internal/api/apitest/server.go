// Package apitest runs an in-memory vocabulary backend for tests
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/spanishbot/pkg/models"
)

// Upload is a file received by one of the extraction endpoints
type Upload struct {
	Kind     string
	UserID   int64
	Filename string
	Body     []byte
}

// Server mimics the backend endpoints the client uses
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	nextUser     int64
	nextWord     int64
	users        map[int64]models.User
	words        map[int64][]models.Vocabulary
	cursor       map[int64]int
	conjugations map[int64]models.VerbConjugation
	uploads      []Upload
	answers      []models.LearningAnswer
	calls        map[string]int
	failures     map[string]string

	// Words returned by the image and audio endpoints
	ImageWord models.NewWord
	AudioWord models.NewWord
}

// NewServer starts a backend; it is closed by Close
func NewServer() *Server {
	s := &Server{
		users:        make(map[int64]models.User),
		words:        make(map[int64][]models.Vocabulary),
		cursor:       make(map[int64]int),
		conjugations: make(map[int64]models.VerbConjugation),
		calls:        make(map[string]int),
		failures:     make(map[string]string),
		ImageWord:    models.NewWord{WordSpanish: "gato", WordNative: "cat", WordType: models.WordNoun},
		AudioWord:    models.NewWord{WordSpanish: "hablar", WordNative: "to speak", WordType: models.WordVerb},
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/users", s.createUser).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id:[0-9]+}", s.getUser).Methods(http.MethodGet)
	r.HandleFunc("/api/vocabulary/{id:[0-9]+}", s.listWords).Methods(http.MethodGet)
	r.HandleFunc("/api/vocabulary/{id:[0-9]+}", s.addWord).Methods(http.MethodPost)
	r.HandleFunc("/api/vocabulary/{id:[0-9]+}/from-image", s.upload("image")).Methods(http.MethodPost)
	r.HandleFunc("/api/vocabulary/{id:[0-9]+}/from-audio", s.upload("audio")).Methods(http.MethodPost)
	r.HandleFunc("/api/vocabulary/{id:[0-9]+}/conjugation", s.conjugation).Methods(http.MethodGet)
	r.HandleFunc("/api/learning/{id:[0-9]+}/question", s.question).Methods(http.MethodGet)
	r.HandleFunc("/api/learning/{id:[0-9]+}/answer", s.answer).Methods(http.MethodPost)
	r.Use(s.count)

	s.Server = httptest.NewServer(r)
	return s
}

// Fail makes the named endpoint answer 400 with detail. An empty detail
// answers 500 without a body.
func (s *Server) Fail(endpoint, detail string) {
	s.mu.Lock()
	s.failures[endpoint] = detail
	s.mu.Unlock()
}

// Calls returns how many requests hit the endpoint, e.g. "POST /api/vocabulary/{id}"
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// AddUser registers a user directly
func (s *Server) AddUser(username string, lang models.NativeLanguage) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	u := models.User{ID: s.nextUser, Username: username, NativeLanguage: lang}
	s.users[u.ID] = u
	return u
}

// AddWord stores a word for userID directly
func (s *Server) AddWord(userID int64, w models.NewWord) models.Vocabulary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addWordLocked(userID, w)
}

// SetConjugation makes the conjugation endpoint answer for vocabularyID
func (s *Server) SetConjugation(vocabularyID int64, c models.VerbConjugation) {
	s.mu.Lock()
	s.conjugations[vocabularyID] = c
	s.mu.Unlock()
}

// Words returns the stored words of a user
func (s *Server) Words(userID int64) []models.Vocabulary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Vocabulary(nil), s.words[userID]...)
}

// Uploads returns the files received so far
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Answers returns the answers received so far
func (s *Server) Answers() []models.LearningAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LearningAnswer(nil), s.answers...)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tpl := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if t, err := route.GetPathTemplate(); err == nil {
				tpl = strings.ReplaceAll(t, ":[0-9]+", "")
			}
		}
		key := r.Method + " " + tpl

		s.mu.Lock()
		s.calls[key]++
		detail, fail := s.failures[key]
		s.mu.Unlock()

		if fail {
			if detail == "" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeDetail(w, http.StatusBadRequest, detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username       string                `json:"username"`
		NativeLanguage models.NativeLanguage `json:"native_language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if !req.NativeLanguage.Valid() {
		writeDetail(w, http.StatusBadRequest, "Native language must be 'en' or 'ua'")
		return
	}
	writeJSON(w, s.AddUser(req.Username, req.NativeLanguage))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u, ok := s.users[pathID(r)]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, u)
}

func (s *Server) listWords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, append([]models.Vocabulary{}, s.Words(pathID(r))...))
}

func (s *Server) addWord(w http.ResponseWriter, r *http.Request) {
	var req models.NewWord
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	userID := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	for _, existing := range s.words[userID] {
		if strings.EqualFold(existing.WordSpanish, req.WordSpanish) {
			writeDetail(w, http.StatusBadRequest, "Word already exists")
			return
		}
	}
	writeJSON(w, s.addWordLocked(userID, req))
}

func (s *Server) upload(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "file is required")
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)

		userID := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.uploads = append(s.uploads, Upload{Kind: kind, UserID: userID, Filename: header.Filename, Body: body})
		word := s.ImageWord
		if kind == "audio" {
			word = s.AudioWord
		}
		writeJSON(w, s.addWordLocked(userID, word))
	}
}

func (s *Server) conjugation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.conjugations[pathID(r)]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Word is not a verb")
		return
	}
	writeJSON(w, c)
}

// question cycles through the user's words in insertion order
func (s *Server) question(w http.ResponseWriter, r *http.Request) {
	userID := pathID(r)
	s.mu.Lock()
	words := s.words[userID]
	if len(words) == 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "No vocabulary found for user")
		return
	}
	word := words[s.cursor[userID]%len(words)]
	s.cursor[userID]++
	s.mu.Unlock()

	writeJSON(w, models.LearningQuestion{
		VocabularyID:  word.ID,
		Question:      fmt.Sprintf("Translate '%s' to Spanish", word.WordNative),
		CorrectAnswer: word.WordSpanish,
	})
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	var req models.LearningAnswer
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	userID := pathID(r)
	s.mu.Lock()
	s.answers = append(s.answers, req)
	var word *models.Vocabulary
	for i := range s.words[userID] {
		if s.words[userID][i].ID == req.VocabularyID {
			word = &s.words[userID][i]
		}
	}
	s.mu.Unlock()
	if word == nil {
		writeDetail(w, http.StatusNotFound, "Vocabulary not found")
		return
	}

	correct := strings.EqualFold(strings.TrimSpace(req.UserAnswer), word.WordSpanish)
	fb := models.LearningFeedback{IsCorrect: correct, CorrectAnswer: word.WordSpanish}
	if correct {
		fb.Explanation = "Great job!"
	} else {
		fb.Explanation = fmt.Sprintf("'%s' means '%s'.", word.WordSpanish, word.WordNative)
	}
	writeJSON(w, fb)
}

func (s *Server) addWordLocked(userID int64, w models.NewWord) models.Vocabulary {
	s.nextWord++
	if w.WordType == "" {
		w.WordType = models.WordNoun
	}
	v := models.Vocabulary{
		ID:          s.nextWord,
		WordSpanish: w.WordSpanish,
		WordNative:  w.WordNative,
		WordType:    w.WordType,
		IsVerb:      w.WordType == models.WordVerb,
		CreatedAt:   models.Timestamp{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	s.words[userID] = append(s.words[userID], v)
	return v
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
