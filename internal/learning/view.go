package learning

import (
	"fmt"

	"github.com/example/spanishbot/pkg/models"
)

// QuizView is the learn panel state
type QuizView struct {
	Phase       Phase
	Question    *models.LearningQuestion
	Answer      string
	Feedback    *models.LearningFeedback
	Conjugation *models.VerbConjugation
}

// View is an immutable snapshot of a Screen for rendering
type View struct {
	User             *models.User
	Tab              Tab
	Registration     RegistrationDraft
	Vocabulary       []models.Vocabulary
	VocabularyLoaded bool
	Draft            WordDraft
	Quiz             QuizView
	CanStartQuiz     bool
	results          map[Action]Result
}

// Registered reports whether the main view should be shown
func (v View) Registered() bool {
	return v.User != nil
}

// LanguageLabel is the display name of the user's native language
func (v View) LanguageLabel() string {
	if v.User == nil {
		return ""
	}
	return v.User.NativeLanguage.Label()
}

// Result returns the outcome slot of action
func (v View) Result(action Action) Result {
	return v.results[action]
}

// Busy reports whether action is in flight; front-ends disable its control
func (v View) Busy(action Action) bool {
	return v.results[action].Pending()
}

// Snapshot copies the current state
func (s *Screen) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Tab:              s.tab,
		Registration:     s.reg,
		Vocabulary:       append([]models.Vocabulary(nil), s.vocabulary...),
		VocabularyLoaded: s.loaded,
		Draft:            s.draft,
		CanStartQuiz:     s.user != nil && len(s.vocabulary) > 0 && !s.results[ActionQuestion].Pending(),
		results:          make(map[Action]Result, len(s.results)),
	}
	if s.user != nil {
		u := *s.user
		v.User = &u
	}
	for k, r := range s.results {
		v.results[k] = r
	}
	v.Quiz = QuizView{Phase: s.quiz.phase, Answer: s.quiz.answer}
	if s.quiz.question != nil {
		q := *s.quiz.question
		v.Quiz.Question = &q
	}
	if s.quiz.feedback != nil {
		fb := *s.quiz.feedback
		v.Quiz.Feedback = &fb
	}
	if s.quiz.conjugation != nil {
		c := *s.quiz.conjugation
		v.Quiz.Conjugation = &c
	}
	return v
}

func rowError(i int, row WordDraft, msg string) string {
	if row.Spanish != "" {
		return fmt.Sprintf("Row %d (%s): %s", i+1, row.Spanish, msg)
	}
	return fmt.Sprintf("Row %d: %s", i+1, msg)
}

func importMessage(s *ImportSummary) string {
	if len(s.Errors) == 0 {
		return fmt.Sprintf("Imported %d words", s.Added)
	}
	return fmt.Sprintf("Imported %d of %d words, %d failed", s.Added, s.Total, len(s.Errors))
}
