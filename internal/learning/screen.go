package learning

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/example/spanishbot/internal/api"
	"github.com/example/spanishbot/internal/logger"
	"github.com/example/spanishbot/pkg/models"
)

// Backend is the subset of the vocabulary API the screen drives
type Backend interface {
	CreateUser(ctx context.Context, username string, lang models.NativeLanguage) (*models.User, error)
	ListVocabulary(ctx context.Context, userID int64) ([]models.Vocabulary, error)
	AddWord(ctx context.Context, userID int64, word models.NewWord) (*models.Vocabulary, error)
	AddWordFromImage(ctx context.Context, userID int64, file api.Upload) (*models.Vocabulary, error)
	AddWordFromAudio(ctx context.Context, userID int64, file api.Upload) (*models.Vocabulary, error)
	NextQuestion(ctx context.Context, userID int64) (*models.LearningQuestion, error)
	SubmitAnswer(ctx context.Context, userID int64, answer models.LearningAnswer) (*models.LearningFeedback, error)
	Conjugation(ctx context.Context, vocabularyID int64) (*models.VerbConjugation, error)
}

// Tab is one panel of the main view
type Tab string

const (
	TabVocabulary Tab = "vocabulary"
	TabAdd        Tab = "add"
	TabLearn      Tab = "learn"
)

// ParseTab returns the tab named s, defaulting to the vocabulary list
func ParseTab(s string) Tab {
	switch Tab(s) {
	case TabAdd, TabLearn:
		return Tab(s)
	default:
		return TabVocabulary
	}
}

// Phase is the state of the quiz loop
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseQuestion
	PhaseAnswered
)

func (p Phase) String() string {
	switch p {
	case PhaseQuestion:
		return "question"
	case PhaseAnswered:
		return "answered"
	default:
		return "idle"
	}
}

// RegistrationDraft is what the user typed into the registration form
type RegistrationDraft struct {
	Username       string
	NativeLanguage models.NativeLanguage
}

// WordDraft is the add-by-text form
type WordDraft struct {
	Spanish string
	Native  string
	Type    models.WordType
}

type quizState struct {
	phase       Phase
	round       uint64
	question    *models.LearningQuestion
	answer      string
	feedback    *models.LearningFeedback
	conjugation *models.VerbConjugation
}

// Screen holds the state of one learner's session: registration, word list,
// add forms and the quiz loop. It is safe for concurrent use; the lock is
// never held across backend calls.
type Screen struct {
	backend Backend
	log     *logger.Logger
	now     func() time.Time

	mu         sync.Mutex
	user       *models.User
	tab        Tab
	reg        RegistrationDraft
	vocabulary []models.Vocabulary
	loaded     bool
	loadSeq    uint64
	loadDone   uint64
	draft      WordDraft
	quiz       quizState
	results    map[Action]Result
}

// NewScreen creates an unauthenticated screen
func NewScreen(backend Backend, log *logger.Logger) *Screen {
	if log == nil {
		log = logger.Nop()
	}
	return &Screen{
		backend: backend,
		log:     log,
		now:     time.Now,
		tab:     TabVocabulary,
		reg:     RegistrationDraft{NativeLanguage: models.LanguageEnglish},
		draft:   WordDraft{Type: models.WordNoun},
		results: make(map[Action]Result),
	}
}

// Register creates the session's user in the backend and switches to the main view
func (s *Screen) Register(ctx context.Context, username string, lang models.NativeLanguage) error {
	s.mu.Lock()
	if s.user != nil {
		s.mu.Unlock()
		return ErrAlreadyRegistered
	}
	s.reg = RegistrationDraft{Username: username, NativeLanguage: lang}
	s.mu.Unlock()

	username = strings.TrimSpace(username)
	if username == "" {
		return s.invalid(ActionRegister, msgEnterUsername)
	}
	if !lang.Valid() {
		return s.invalid(ActionRegister, msgChooseLanguage)
	}
	if err := s.begin(ActionRegister); err != nil {
		return err
	}

	user, err := s.backend.CreateUser(ctx, username, lang)
	if err != nil {
		return s.fail(ActionRegister, err)
	}

	s.mu.Lock()
	if s.user != nil {
		s.setLocked(ActionRegister, StatusIdle, "", nil)
		s.mu.Unlock()
		return ErrAlreadyRegistered
	}
	s.user = user
	s.tab = TabVocabulary
	s.reg = RegistrationDraft{NativeLanguage: models.LanguageEnglish}
	s.setLocked(ActionRegister, StatusSucceeded, successMessages[ActionRegister], nil)
	s.mu.Unlock()

	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	// A failed first load is shown on the vocabulary panel, registration itself succeeded
	_ = s.LoadVocabulary(ctx)
	return nil
}

// Restore attaches an already registered user without contacting the backend
func (s *Screen) Restore(user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		return ErrAlreadyRegistered
	}
	s.user = &user
	s.tab = TabVocabulary
	return nil
}

// User returns the registered user, or nil
func (s *Screen) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetTab switches the visible panel
func (s *Screen) SetTab(tab Tab) {
	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()
}

// LoadVocabulary replaces the local word list with the backend's.
// When loads overlap, a load never overwrites the outcome of a later one.
func (s *Screen) LoadVocabulary(ctx context.Context) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotRegistered
	}
	userID := s.user.ID
	s.loadSeq++
	seq := s.loadSeq
	s.setLocked(ActionLoadVocabulary, StatusPending, "", nil)
	s.mu.Unlock()

	words, err := s.backend.ListVocabulary(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.loadDone {
		s.log.Debug("discarding stale vocabulary load", "user_id", userID, "seq", seq)
		return err
	}
	s.loadDone = seq
	if err != nil {
		s.setLocked(ActionLoadVocabulary, StatusFailed, Message(ActionLoadVocabulary, err), err)
		s.log.Warn("load vocabulary failed", "user_id", userID, "error", err)
		return err
	}
	s.vocabulary = words
	s.loaded = true
	s.setLocked(ActionLoadVocabulary, StatusSucceeded, "", nil)
	return nil
}

// AddText adds a word typed by the user. On success the form is cleared and
// the list reloaded; on failure the draft is kept for correction.
func (s *Screen) AddText(ctx context.Context, draft WordDraft) (*models.Vocabulary, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotRegistered
	}
	userID := s.user.ID
	s.draft = draft
	s.mu.Unlock()

	word, verr := validateDraft(draft)
	if verr != "" {
		return nil, s.invalid(ActionAddText, verr)
	}
	if err := s.begin(ActionAddText); err != nil {
		return nil, err
	}

	created, err := s.backend.AddWord(ctx, userID, word)
	if err != nil {
		return nil, s.fail(ActionAddText, err)
	}

	s.mu.Lock()
	s.draft = WordDraft{Type: models.WordNoun}
	s.setLocked(ActionAddText, StatusSucceeded, successMessages[ActionAddText], nil)
	s.mu.Unlock()

	s.log.Info("word added", "user_id", userID, "vocabulary_id", created.ID)
	_ = s.LoadVocabulary(ctx)
	return created, nil
}

// AddImage uploads a picture containing a Spanish word
func (s *Screen) AddImage(ctx context.Context, file api.Upload) (*models.Vocabulary, error) {
	return s.addUpload(ctx, ActionAddImage, file, s.backend.AddWordFromImage)
}

// AddAudio uploads a recording of a Spanish word
func (s *Screen) AddAudio(ctx context.Context, file api.Upload) (*models.Vocabulary, error) {
	return s.addUpload(ctx, ActionAddAudio, file, s.backend.AddWordFromAudio)
}

type uploadFunc func(ctx context.Context, userID int64, file api.Upload) (*models.Vocabulary, error)

func (s *Screen) addUpload(ctx context.Context, action Action, file api.Upload, send uploadFunc) (*models.Vocabulary, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	if file.Body == nil {
		return nil, s.invalid(action, msgChooseFile)
	}
	if err := s.begin(action); err != nil {
		return nil, err
	}

	created, err := send(ctx, userID, file)
	if err != nil {
		return nil, s.fail(action, err)
	}
	s.set(action, StatusSucceeded, successMessages[action], nil)
	s.log.Info("word extracted", "action", action, "user_id", userID, "vocabulary_id", created.ID)

	_ = s.LoadVocabulary(ctx)
	return created, nil
}

// ImportSummary reports the outcome of a bulk import
type ImportSummary struct {
	Total  int
	Added  int
	Errors []string
}

// ImportWords adds every row as a text word and reloads the list once at the end.
// Invalid or rejected rows are reported in the summary and do not stop the import.
func (s *Screen) ImportWords(ctx context.Context, rows []WordDraft) (*ImportSummary, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, s.invalid(ActionImport, "The file contains no words")
	}
	if err := s.begin(ActionImport); err != nil {
		return nil, err
	}

	summary := &ImportSummary{Total: len(rows)}
	for i, row := range rows {
		word, verr := validateDraft(row)
		if verr != "" {
			summary.Errors = append(summary.Errors, rowError(i, row, verr))
			continue
		}
		if _, err := s.backend.AddWord(ctx, userID, word); err != nil {
			summary.Errors = append(summary.Errors, rowError(i, row, Message(ActionAddText, err)))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		summary.Added++
	}

	msg := importMessage(summary)
	if summary.Added == 0 {
		s.set(ActionImport, StatusFailed, msg, nil)
	} else {
		s.set(ActionImport, StatusSucceeded, msg, nil)
	}
	s.log.Info("words imported", "user_id", userID, "added", summary.Added, "total", summary.Total)

	if summary.Added > 0 {
		_ = s.LoadVocabulary(ctx)
	}
	return summary, nil
}

// RejectImport records a word list the front-end could not read
func (s *Screen) RejectImport(msg string) error {
	if _, err := s.userID(); err != nil {
		return err
	}
	return s.invalid(ActionImport, msg)
}

// CanStartQuiz reports whether the start control is enabled
func (s *Screen) CanStartQuiz() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && len(s.vocabulary) > 0 && !s.results[ActionQuestion].Pending()
}

// StartQuiz fetches the first question. It refuses to run without words.
func (s *Screen) StartQuiz(ctx context.Context) (*models.LearningQuestion, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotRegistered
	}
	empty := len(s.vocabulary) == 0
	s.mu.Unlock()
	if empty {
		s.set(ActionQuestion, StatusFailed, msgAddWordsFirst, ErrEmptyVocabulary)
		return nil, ErrEmptyVocabulary
	}
	return s.fetchQuestion(ctx)
}

// NextQuestion replaces the current question, discarding feedback and conjugation
func (s *Screen) NextQuestion(ctx context.Context) (*models.LearningQuestion, error) {
	s.mu.Lock()
	idle := s.quiz.phase == PhaseIdle
	s.mu.Unlock()
	if idle {
		return s.StartQuiz(ctx)
	}
	return s.fetchQuestion(ctx)
}

func (s *Screen) fetchQuestion(ctx context.Context) (*models.LearningQuestion, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	if err := s.begin(ActionQuestion); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.quiz.round++
	s.quiz.answer = ""
	s.quiz.feedback = nil
	s.quiz.conjugation = nil
	if s.quiz.question != nil {
		s.quiz.phase = PhaseQuestion
	}
	delete(s.results, ActionAnswer)
	delete(s.results, ActionConjugation)
	s.mu.Unlock()

	q, err := s.backend.NextQuestion(ctx, userID)
	if err != nil {
		return nil, s.fail(ActionQuestion, err)
	}

	s.mu.Lock()
	s.quiz.round++
	s.quiz.question = q
	s.quiz.phase = PhaseQuestion
	s.setLocked(ActionQuestion, StatusSucceeded, "", nil)
	s.mu.Unlock()
	return q, nil
}

// SubmitAnswer grades the answer to the current question. For words known to
// be verbs the conjugation is fetched afterwards; that follow-up never changes
// the returned feedback or error.
func (s *Screen) SubmitAnswer(ctx context.Context, answer string) (*models.LearningFeedback, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotRegistered
	}
	if s.quiz.question == nil {
		s.mu.Unlock()
		return nil, ErrNoQuestion
	}
	userID := s.user.ID
	question := *s.quiz.question
	round := s.quiz.round
	s.quiz.answer = answer
	isVerb := s.isVerbLocked(question.VocabularyID)
	s.mu.Unlock()

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, s.invalid(ActionAnswer, msgEnterAnswer)
	}
	if err := s.begin(ActionAnswer); err != nil {
		return nil, err
	}

	fb, err := s.backend.SubmitAnswer(ctx, userID, models.LearningAnswer{
		VocabularyID: question.VocabularyID,
		UserAnswer:   answer,
	})
	if err != nil {
		return nil, s.fail(ActionAnswer, err)
	}

	s.mu.Lock()
	current := s.quiz.round == round
	if current {
		s.quiz.feedback = fb
		s.quiz.conjugation = nil
		s.quiz.phase = PhaseAnswered
	}
	s.setLocked(ActionAnswer, StatusSucceeded, "", nil)
	s.mu.Unlock()

	if !current {
		s.log.Debug("question changed while grading, feedback not shown", "user_id", userID)
		return fb, nil
	}
	if isVerb {
		s.loadConjugation(ctx, question.VocabularyID, round)
	}
	_ = s.LoadVocabulary(ctx)
	return fb, nil
}

// loadConjugation is best effort: its error lands in the conjugation slot only.
func (s *Screen) loadConjugation(ctx context.Context, vocabularyID int64, round uint64) {
	s.set(ActionConjugation, StatusPending, "", nil)
	conj, err := s.backend.Conjugation(ctx, vocabularyID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz.round != round {
		return
	}
	if err != nil {
		s.log.Debug("conjugation unavailable", "vocabulary_id", vocabularyID, "error", err)
		s.setLocked(ActionConjugation, StatusFailed, Message(ActionConjugation, err), err)
		return
	}
	s.quiz.conjugation = conj
	s.setLocked(ActionConjugation, StatusSucceeded, "", nil)
}

// ResetQuiz returns the learn panel to its start state
func (s *Screen) ResetQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiz = quizState{round: s.quiz.round + 1}
	delete(s.results, ActionQuestion)
	delete(s.results, ActionAnswer)
	delete(s.results, ActionConjugation)
}

func (s *Screen) isVerbLocked(vocabularyID int64) bool {
	for _, v := range s.vocabulary {
		if v.ID == vocabularyID {
			return v.IsVerb
		}
	}
	return false
}

func (s *Screen) userID() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return 0, ErrNotRegistered
	}
	return s.user.ID, nil
}

// begin marks action as pending, refusing a second concurrent run of the same action
func (s *Screen) begin(action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results[action].Pending() {
		return ErrBusy
	}
	s.setLocked(action, StatusPending, "", nil)
	return nil
}

// invalid records a validation failure. A run of the same action still in
// flight keeps its slot and the caller gets ErrBusy.
func (s *Screen) invalid(action Action, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results[action].Pending() {
		return ErrBusy
	}
	err := &ValidationError{Action: action, Message: msg}
	s.setLocked(action, StatusFailed, msg, err)
	return err
}

func (s *Screen) fail(action Action, err error) error {
	msg := Message(action, err)
	s.set(action, StatusFailed, msg, err)
	s.log.Warn("action failed", "action", action, "error", err)
	return err
}

func (s *Screen) set(action Action, status Status, msg string, err error) {
	s.mu.Lock()
	s.setLocked(action, status, msg, err)
	s.mu.Unlock()
}

func (s *Screen) setLocked(action Action, status Status, msg string, err error) {
	s.results[action] = Result{Status: status, Message: msg, Err: err, UpdatedAt: s.now()}
}

func validateDraft(d WordDraft) (models.NewWord, string) {
	spanish := strings.TrimSpace(d.Spanish)
	native := strings.TrimSpace(d.Native)
	if spanish == "" || native == "" {
		return models.NewWord{}, msgFillAllFields
	}
	wt, err := models.ParseWordType(string(d.Type))
	if err != nil {
		return models.NewWord{}, msgChooseWordType
	}
	return models.NewWord{WordSpanish: spanish, WordNative: native, WordType: wt}, ""
}
