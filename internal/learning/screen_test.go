package learning

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/example/spanishbot/internal/api"
	"github.com/example/spanishbot/pkg/models"
)

func registered(t *testing.T, fb *fakeBackend) *Screen {
	t.Helper()
	s := NewScreen(fb, nil)
	if err := s.Register(context.Background(), "ana", models.LanguageEnglish); err != nil {
		t.Fatalf("register: %v", err)
	}
	return s
}

func TestRegisterEmptyUsernameMakesNoRequest(t *testing.T) {
	fb := newFakeBackend()
	s := NewScreen(fb, nil)

	err := s.Register(context.Background(), "   ", models.LanguageEnglish)
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fb.count("create_user") != 0 {
		t.Fatalf("no request expected")
	}
	v := s.Snapshot()
	if v.Registered() {
		t.Fatalf("should stay on registration form")
	}
	if got := v.Result(ActionRegister).Message; got != "Please enter a username" {
		t.Fatalf("message: %q", got)
	}
}

func TestRegisterTransitionsToMainView(t *testing.T) {
	for _, tc := range []struct {
		lang  models.NativeLanguage
		label string
	}{
		{models.LanguageEnglish, "English"},
		{models.LanguageUkrainian, "Ukrainian"},
	} {
		fb := newFakeBackend()
		s := NewScreen(fb, nil)
		if err := s.Register(context.Background(), " ana ", tc.lang); err != nil {
			t.Fatalf("register: %v", err)
		}
		v := s.Snapshot()
		if !v.Registered() || v.Tab != TabVocabulary {
			t.Fatalf("expected main view, got %+v", v)
		}
		if v.User.Username != "ana" {
			t.Fatalf("username should be trimmed, got %q", v.User.Username)
		}
		if v.LanguageLabel() != tc.label {
			t.Fatalf("label: want %q got %q", tc.label, v.LanguageLabel())
		}
		if v.Result(ActionRegister).Message != "User created successfully!" {
			t.Fatalf("success message: %+v", v.Result(ActionRegister))
		}
		if fb.count("list") != 1 || !v.VocabularyLoaded {
			t.Fatalf("vocabulary should load on entering the main view")
		}
	}
}

func TestRegisterBackendFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.createErr = &api.Error{StatusCode: 400, Detail: "Native language must be 'en' or 'ua'"}
	s := NewScreen(fb, nil)
	if err := s.Register(context.Background(), "ana", models.LanguageEnglish); err == nil {
		t.Fatalf("expected error")
	}
	v := s.Snapshot()
	if v.Registered() {
		t.Fatalf("should not be registered")
	}
	if got := v.Result(ActionRegister).Message; got != "Native language must be 'en' or 'ua'" {
		t.Fatalf("detail should be shown verbatim, got %q", got)
	}
	if v.Registration.Username != "ana" {
		t.Fatalf("draft should be kept, got %+v", v.Registration)
	}

	fb.createErr = errors.New("connection refused")
	s.Register(context.Background(), "ana", models.LanguageEnglish)
	if got := s.Snapshot().Result(ActionRegister).Message; got != "Failed to create user" {
		t.Fatalf("generic message expected, got %q", got)
	}
}

func TestRegisterTwice(t *testing.T) {
	s := registered(t, newFakeBackend())
	if err := s.Register(context.Background(), "bob", models.LanguageEnglish); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("want ErrAlreadyRegistered, got %v", err)
	}
}

func TestMainViewActionsRequireUser(t *testing.T) {
	s := NewScreen(newFakeBackend(), nil)
	ctx := context.Background()
	if err := s.LoadVocabulary(ctx); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("load: %v", err)
	}
	if _, err := s.AddText(ctx, WordDraft{Spanish: "a", Native: "b"}); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.StartQuiz(ctx); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("quiz: %v", err)
	}
}

func TestAddTextValidation(t *testing.T) {
	fb := newFakeBackend()
	s := registered(t, fb)
	for _, d := range []WordDraft{
		{Spanish: "", Native: "house"},
		{Spanish: "casa", Native: "  "},
	} {
		_, err := s.AddText(context.Background(), d)
		if !IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", d, err)
		}
	}
	if fb.count("add") != 0 {
		t.Fatalf("no add request expected")
	}
	if got := s.Snapshot().Result(ActionAddText).Message; got != "Please fill in all fields" {
		t.Fatalf("message: %q", got)
	}
}

func TestAddTextSuccessClearsDraftAndReloads(t *testing.T) {
	fb := newFakeBackend()
	s := registered(t, fb)
	loads := fb.count("list")

	created, err := s.AddText(context.Background(), WordDraft{Spanish: "comer", Native: "to eat", Type: models.WordVerb})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !created.IsVerb {
		t.Fatalf("verb flag: %+v", created)
	}
	v := s.Snapshot()
	if fb.count("list") != loads+1 {
		t.Fatalf("vocabulary should be re-fetched")
	}
	if v.Draft.Spanish != "" || v.Draft.Native != "" || v.Draft.Type != models.WordNoun {
		t.Fatalf("draft should be cleared, got %+v", v.Draft)
	}
	if len(v.Vocabulary) != 1 || v.Vocabulary[0].WordSpanish != "comer" {
		t.Fatalf("vocabulary: %+v", v.Vocabulary)
	}
	if v.Result(ActionAddText).Message != "Word added successfully!" {
		t.Fatalf("message: %+v", v.Result(ActionAddText))
	}
}

func TestAddTextFailureKeepsDraft(t *testing.T) {
	fb := newFakeBackend()
	fb.addErr = &api.Error{StatusCode: 404, Detail: "User not found"}
	s := registered(t, fb)
	_, err := s.AddText(context.Background(), WordDraft{Spanish: "casa", Native: "house"})
	if err == nil {
		t.Fatalf("expected error")
	}
	v := s.Snapshot()
	if v.Draft.Spanish != "casa" {
		t.Fatalf("draft should survive failure, got %+v", v.Draft)
	}
	if v.Result(ActionAddText).Message != "User not found" {
		t.Fatalf("message: %+v", v.Result(ActionAddText))
	}
}

func TestUploadsLeaveTextDraftAlone(t *testing.T) {
	fb := newFakeBackend()
	fb.addErr = errors.New("down")
	s := registered(t, fb)
	s.AddText(context.Background(), WordDraft{Spanish: "perro", Native: "dog"})
	loads := fb.count("list")

	if _, err := s.AddImage(context.Background(), api.Upload{Filename: "a.png", Body: strings.NewReader("png")}); err != nil {
		t.Fatalf("image: %v", err)
	}
	if _, err := s.AddAudio(context.Background(), api.Upload{Filename: "a.ogg", Body: strings.NewReader("ogg")}); err != nil {
		t.Fatalf("audio: %v", err)
	}
	v := s.Snapshot()
	if fb.count("list") != loads+2 {
		t.Fatalf("each upload should reload the vocabulary")
	}
	if v.Draft.Spanish != "perro" {
		t.Fatalf("text draft should be untouched, got %+v", v.Draft)
	}
	if v.Result(ActionAddImage).Message != "Word extracted from image and added!" ||
		v.Result(ActionAddAudio).Message != "Word extracted from audio and added!" {
		t.Fatalf("upload messages: %+v %+v", v.Result(ActionAddImage), v.Result(ActionAddAudio))
	}
	if v.Result(ActionAddText).Message != "Failed to add word" {
		t.Fatalf("text failure should not be overwritten, got %+v", v.Result(ActionAddText))
	}
}

func TestUploadFailureMessage(t *testing.T) {
	fb := newFakeBackend()
	fb.uploadErr = &api.Error{StatusCode: 400, Detail: "No text found in image"}
	s := registered(t, fb)
	_, err := s.AddImage(context.Background(), api.Upload{Body: strings.NewReader("x")})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := s.Snapshot().Result(ActionAddImage).Message; got != "No text found in image" {
		t.Fatalf("message: %q", got)
	}
	fb.uploadErr = errors.New("timeout")
	s.AddAudio(context.Background(), api.Upload{Body: strings.NewReader("x")})
	if got := s.Snapshot().Result(ActionAddAudio).Message; got != "Failed to process audio" {
		t.Fatalf("message: %q", got)
	}
}

func TestQuizCannotStartWithoutWords(t *testing.T) {
	fb := newFakeBackend()
	s := registered(t, fb)
	if s.CanStartQuiz() {
		t.Fatalf("start control should be disabled")
	}
	if _, err := s.StartQuiz(context.Background()); !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("want ErrEmptyVocabulary, got %v", err)
	}
	if fb.count("question") != 0 {
		t.Fatalf("no question request expected")
	}
}

func quizScreen(t *testing.T, isVerb bool) (*Screen, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend()
	wt := models.WordNoun
	if isVerb {
		wt = models.WordVerb
	}
	fb.words = []models.Vocabulary{{ID: 5, WordSpanish: "comer", WordNative: "to eat", WordType: wt, IsVerb: isVerb}}
	fb.question = &models.LearningQuestion{VocabularyID: 5, Question: "Translate 'to eat' to Spanish", CorrectAnswer: "comer"}
	fb.feedback = &models.LearningFeedback{IsCorrect: true, CorrectAnswer: "comer", Explanation: "Well done"}
	fb.conjugate = &models.VerbConjugation{Yo: "como", Tu: "comes"}
	s := registered(t, fb)
	if !s.CanStartQuiz() {
		t.Fatalf("start control should be enabled")
	}
	q, err := s.StartQuiz(context.Background())
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if q.VocabularyID != 5 || s.Snapshot().Quiz.Phase != PhaseQuestion {
		t.Fatalf("unexpected question state")
	}
	return s, fb
}

func TestEmptyAnswerMakesNoRequest(t *testing.T) {
	s, fb := quizScreen(t, false)
	if _, err := s.SubmitAnswer(context.Background(), "  "); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fb.count("answer") != 0 {
		t.Fatalf("no answer request expected")
	}
	if got := s.Snapshot().Result(ActionAnswer).Message; got != "Please enter an answer" {
		t.Fatalf("message: %q", got)
	}
}

func TestAnswerNonVerbSkipsConjugation(t *testing.T) {
	s, fb := quizScreen(t, false)
	if _, err := s.SubmitAnswer(context.Background(), "comer"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fb.count("conjugation") != 0 {
		t.Fatalf("conjugation should only be fetched for verbs")
	}
	v := s.Snapshot()
	if v.Quiz.Phase != PhaseAnswered || v.Quiz.Feedback == nil || !v.Quiz.Feedback.IsCorrect {
		t.Fatalf("feedback: %+v", v.Quiz)
	}
}

func TestAnswerVerbFetchesConjugation(t *testing.T) {
	s, fb := quizScreen(t, true)
	if _, err := s.SubmitAnswer(context.Background(), "comer"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fb.count("conjugation") != 1 {
		t.Fatalf("conjugation should be fetched once")
	}
	v := s.Snapshot()
	if v.Quiz.Conjugation == nil || v.Quiz.Conjugation.Yo != "como" {
		t.Fatalf("conjugation: %+v", v.Quiz.Conjugation)
	}
}

func TestConjugationFailureDoesNotAffectFeedback(t *testing.T) {
	s, fb := quizScreen(t, true)
	fb.conjErr = &api.Error{StatusCode: 400, Detail: "Word is not a verb"}

	got, err := s.SubmitAnswer(context.Background(), "comer")
	if err != nil {
		t.Fatalf("conjugation failure must not surface: %v", err)
	}
	if !got.IsCorrect {
		t.Fatalf("feedback changed: %+v", got)
	}
	v := s.Snapshot()
	if fb.count("conjugation") != 1 {
		t.Fatalf("conjugation should have been attempted")
	}
	if v.Quiz.Conjugation != nil {
		t.Fatalf("no conjugation should be shown")
	}
	if !v.Result(ActionAnswer).Succeeded() || v.Result(ActionAnswer).Message != "" {
		t.Fatalf("answer slot should be clean: %+v", v.Result(ActionAnswer))
	}
	if !v.Result(ActionConjugation).Failed() {
		t.Fatalf("conjugation slot should record the failure")
	}
	if v.Quiz.Feedback == nil || v.Quiz.Feedback.Explanation != "Well done" {
		t.Fatalf("feedback: %+v", v.Quiz.Feedback)
	}
}

func TestNextQuestionClearsFeedbackAndConjugation(t *testing.T) {
	s, _ := quizScreen(t, true)
	s.SubmitAnswer(context.Background(), "comer")
	if s.Snapshot().Quiz.Conjugation == nil {
		t.Fatalf("precondition: conjugation shown")
	}
	if _, err := s.NextQuestion(context.Background()); err != nil {
		t.Fatalf("next: %v", err)
	}
	v := s.Snapshot()
	if v.Quiz.Feedback != nil || v.Quiz.Conjugation != nil || v.Quiz.Answer != "" {
		t.Fatalf("previous answer state should be cleared: %+v", v.Quiz)
	}
	if v.Quiz.Phase != PhaseQuestion {
		t.Fatalf("phase: %v", v.Quiz.Phase)
	}
}

func TestNextQuestionFailureStillClearsFeedback(t *testing.T) {
	s, fb := quizScreen(t, false)
	s.SubmitAnswer(context.Background(), "comer")
	fb.question = nil
	if _, err := s.NextQuestion(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	v := s.Snapshot()
	if v.Quiz.Feedback != nil {
		t.Fatalf("feedback should be cleared")
	}
	if v.Result(ActionQuestion).Message != "No vocabulary found for user" {
		t.Fatalf("message: %+v", v.Result(ActionQuestion))
	}
}

func TestResetQuiz(t *testing.T) {
	s, _ := quizScreen(t, false)
	s.ResetQuiz()
	v := s.Snapshot()
	if v.Quiz.Phase != PhaseIdle || v.Quiz.Question != nil {
		t.Fatalf("quiz should be idle: %+v", v.Quiz)
	}
	if _, err := s.SubmitAnswer(context.Background(), "x"); !errors.Is(err, ErrNoQuestion) {
		t.Fatalf("want ErrNoQuestion, got %v", err)
	}
}

func TestAnswerForReplacedQuestionIsDropped(t *testing.T) {
	s, fb := quizScreen(t, false)
	fb.onAnswer = func() {
		s.ResetQuiz()
	}
	if _, err := s.SubmitAnswer(context.Background(), "comer"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.Snapshot().Quiz.Feedback != nil {
		t.Fatalf("feedback for a replaced question must not be shown")
	}
}

func TestSameActionIsNotReentrant(t *testing.T) {
	s, fb := quizScreen(t, false)
	release := make(chan struct{})
	entered := make(chan struct{})
	fb.onAnswer = func() {
		close(entered)
		<-release
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SubmitAnswer(context.Background(), "comer")
	}()
	<-entered
	if !s.Snapshot().Busy(ActionAnswer) {
		t.Fatalf("answer should be pending")
	}
	if _, err := s.SubmitAnswer(context.Background(), "comer"); !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy, got %v", err)
	}
	close(release)
	wg.Wait()
	if fb.count("answer") != 1 {
		t.Fatalf("only one answer request expected, got %d", fb.count("answer"))
	}
}

func TestInvalidInputWhilePendingKeepsActionBusy(t *testing.T) {
	s, fb := quizScreen(t, false)
	release := make(chan struct{})
	entered := make(chan struct{})
	fb.onAnswer = func() {
		close(entered)
		<-release
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SubmitAnswer(context.Background(), "comer")
	}()
	<-entered

	if _, err := s.SubmitAnswer(context.Background(), "   "); !errors.Is(err, ErrBusy) {
		t.Fatalf("blank answer while pending: want ErrBusy, got %v", err)
	}
	if !s.Snapshot().Busy(ActionAnswer) {
		t.Fatalf("answer should still be pending")
	}
	if _, err := s.SubmitAnswer(context.Background(), "comer"); !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy, got %v", err)
	}
	close(release)
	wg.Wait()
	if got := fb.count("answer"); got != 1 {
		t.Fatalf("only one answer request expected, got %d", got)
	}
}

func TestRegisterDoesNotReplaceRestoredUser(t *testing.T) {
	fb := newFakeBackend()
	s := NewScreen(fb, nil)
	release := make(chan struct{})
	entered := make(chan struct{})
	fb.onCreate = func() {
		close(entered)
		<-release
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.Register(context.Background(), "ana", models.LanguageEnglish)
	}()
	<-entered

	if err := s.Register(context.Background(), "", models.LanguageEnglish); !errors.Is(err, ErrBusy) {
		t.Fatalf("empty username while pending: want ErrBusy, got %v", err)
	}
	if err := s.Restore(models.User{ID: 7, Username: "luis", NativeLanguage: models.LanguageUkrainian}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	close(release)

	if err := <-errc; !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("want ErrAlreadyRegistered, got %v", err)
	}
	if u := s.User(); u == nil || u.ID != 7 {
		t.Fatalf("restored user replaced: %+v", u)
	}
	if s.Snapshot().Busy(ActionRegister) {
		t.Fatalf("register slot left pending")
	}
	if got := fb.count("create_user"); got != 1 {
		t.Fatalf("want 1 create request, got %d", got)
	}
}

func TestStaleVocabularyLoadIsDiscarded(t *testing.T) {
	fb := newFakeBackend()
	s := registered(t, fb)
	base := fb.count("list")

	first := make(chan struct{})
	release := make(chan struct{})
	fb.onList = func(n int) {
		if n == base+1 {
			close(first)
			<-release
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.LoadVocabulary(context.Background())
	}()
	<-first

	fb.mu.Lock()
	fb.words = []models.Vocabulary{{ID: 1, WordSpanish: "nuevo"}}
	fb.mu.Unlock()
	if err := s.LoadVocabulary(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}

	fb.mu.Lock()
	fb.words = nil
	fb.mu.Unlock()
	close(release)
	wg.Wait()

	v := s.Snapshot()
	if len(v.Vocabulary) != 1 || v.Vocabulary[0].WordSpanish != "nuevo" {
		t.Fatalf("older load overwrote newer result: %+v", v.Vocabulary)
	}
}

func TestLoadVocabularyFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.listErr = errors.New("boom")
	s := registered(t, fb)
	v := s.Snapshot()
	if !v.Registered() {
		t.Fatalf("registration must succeed even if the first load fails")
	}
	if got := v.Result(ActionLoadVocabulary).Message; got != "Failed to load vocabulary" {
		t.Fatalf("message: %q", got)
	}
}

func TestImportWords(t *testing.T) {
	fb := newFakeBackend()
	fb.rejectWord = "mal"
	s := registered(t, fb)
	loads := fb.count("list")

	summary, err := s.ImportWords(context.Background(), []WordDraft{
		{Spanish: "casa", Native: "house"},
		{Spanish: "", Native: "nothing"},
		{Spanish: "mal", Native: "bad"},
		{Spanish: "ir", Native: "to go", Type: models.WordVerb},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Added != 2 || len(summary.Errors) != 2 {
		t.Fatalf("summary: %+v", summary)
	}
	if !strings.Contains(summary.Errors[1], "duplicate word") {
		t.Fatalf("backend detail should be reported: %v", summary.Errors)
	}
	if fb.count("list") != loads+1 {
		t.Fatalf("import should reload once")
	}
	r := s.Snapshot().Result(ActionImport)
	if !r.Succeeded() || r.Message != "Imported 2 of 4 words, 2 failed" {
		t.Fatalf("import slot: %+v", r)
	}
}

func TestRejectImport(t *testing.T) {
	s := registered(t, newFakeBackend())
	if err := s.RejectImport("unsupported file format"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	r := s.Snapshot().Result(ActionImport)
	if !r.Failed() || r.Message != "unsupported file format" {
		t.Fatalf("import slot: %+v", r)
	}
}
