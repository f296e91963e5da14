package learning

import (
	"context"
	"errors"
	"sync"

	"github.com/example/spanishbot/internal/api"
	"github.com/example/spanishbot/pkg/models"
)

// fakeBackend records calls and serves canned responses
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	nextID     int64
	words      []models.Vocabulary
	question   *models.LearningQuestion
	feedback   *models.LearningFeedback
	conjugate  *models.VerbConjugation
	createErr  error
	listErr    error
	addErr     error
	uploadErr  error
	answerErr  error
	conjErr    error
	onAnswer   func()
	onCreate   func()
	onList     func(n int)
	rejectWord string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int), nextID: 100}
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) record(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.calls[name]
}

func (f *fakeBackend) CreateUser(ctx context.Context, username string, lang models.NativeLanguage) (*models.User, error) {
	f.record("create_user")
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.User{ID: 1, Username: username, NativeLanguage: lang}, nil
}

func (f *fakeBackend) ListVocabulary(ctx context.Context, userID int64) ([]models.Vocabulary, error) {
	n := f.record("list")
	if f.onList != nil {
		f.onList(n)
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Vocabulary{}, f.words...), nil
}

func (f *fakeBackend) add(word models.NewWord) *models.Vocabulary {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	v := models.Vocabulary{
		ID:          f.nextID,
		WordSpanish: word.WordSpanish,
		WordNative:  word.WordNative,
		WordType:    word.WordType,
		IsVerb:      word.WordType == models.WordVerb,
	}
	f.words = append(f.words, v)
	return &v
}

func (f *fakeBackend) AddWord(ctx context.Context, userID int64, word models.NewWord) (*models.Vocabulary, error) {
	f.record("add")
	if f.addErr != nil {
		return nil, f.addErr
	}
	if f.rejectWord != "" && word.WordSpanish == f.rejectWord {
		return nil, &api.Error{StatusCode: 400, Detail: "duplicate word"}
	}
	return f.add(word), nil
}

func (f *fakeBackend) AddWordFromImage(ctx context.Context, userID int64, file api.Upload) (*models.Vocabulary, error) {
	f.record("image")
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.add(models.NewWord{WordSpanish: "gato", WordNative: "cat", WordType: models.WordNoun}), nil
}

func (f *fakeBackend) AddWordFromAudio(ctx context.Context, userID int64, file api.Upload) (*models.Vocabulary, error) {
	f.record("audio")
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.add(models.NewWord{WordSpanish: "hablar", WordNative: "to speak", WordType: models.WordVerb}), nil
}

func (f *fakeBackend) NextQuestion(ctx context.Context, userID int64) (*models.LearningQuestion, error) {
	f.record("question")
	if f.question == nil {
		return nil, &api.Error{StatusCode: 404, Detail: "No vocabulary found for user"}
	}
	q := *f.question
	return &q, nil
}

func (f *fakeBackend) SubmitAnswer(ctx context.Context, userID int64, answer models.LearningAnswer) (*models.LearningFeedback, error) {
	f.record("answer")
	if f.onAnswer != nil {
		f.onAnswer()
	}
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	fb := *f.feedback
	return &fb, nil
}

func (f *fakeBackend) Conjugation(ctx context.Context, vocabularyID int64) (*models.VerbConjugation, error) {
	f.record("conjugation")
	if f.conjErr != nil {
		return nil, f.conjErr
	}
	if f.conjugate == nil {
		return nil, errors.New("no conjugation")
	}
	c := *f.conjugate
	return &c, nil
}
