package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/spanishbot/pkg/models"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second)
}

func TestCreateUser(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["username"] != "ana" || body["native_language"] != "ua" {
			t.Errorf("unexpected body %v", body)
		}
		w.Write([]byte(`{"id":7,"username":"ana","native_language":"ua","created_at":"2024-01-01T00:00:00"}`))
	}))

	user, err := c.CreateUser(context.Background(), "ana", models.LanguageUkrainian)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID != 7 || user.NativeLanguage != models.LanguageUkrainian {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestListVocabularyEmptyArray(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/vocabulary/3" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[]`))
	}))
	words, err := c.ListVocabulary(context.Background(), 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if words == nil || len(words) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", words)
	}
}

func TestErrorDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"User not found"}`))
	}))
	_, err := c.ListVocabulary(context.Background(), 99)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Detail != "User not found" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if Detail(err) != "User not found" || !IsNotFound(err) {
		t.Fatalf("helpers disagree with %v", err)
	}
}

func TestErrorWithoutStringDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","username"],"msg":"field required"}]}`))
	}))
	_, err := c.CreateUser(context.Background(), "", models.LanguageEnglish)
	if err == nil {
		t.Fatalf("expected error")
	}
	if Detail(err) != "" {
		t.Fatalf("list detail should not be shown, got %q", Detail(err))
	}
}

func TestUploadSendsMultipartFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/vocabulary/5/from-audio" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "OggS..." || hdr.Filename != "voice.ogg" {
			t.Errorf("unexpected upload %q %q", hdr.Filename, data)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "audio/ogg" {
			t.Errorf("content type %q", ct)
		}
		w.Write([]byte(`{"id":11,"word_spanish":"hola","word_native":"hello","word_type":"other","is_verb":false,"created_at":"2024-01-01T00:00:00"}`))
	}))
	v, err := c.AddWordFromAudio(context.Background(), 5, Upload{
		Filename:    "voice.ogg",
		ContentType: "audio/ogg",
		Body:        strings.NewReader("OggS..."),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if v.ID != 11 || v.WordSpanish != "hola" {
		t.Fatalf("unexpected entry %+v", v)
	}
}

func TestSubmitAnswerAndConjugation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/learning/2/answer", func(w http.ResponseWriter, r *http.Request) {
		var a models.LearningAnswer
		json.NewDecoder(r.Body).Decode(&a)
		if a.VocabularyID != 4 || a.UserAnswer != "comer" {
			t.Errorf("unexpected answer %+v", a)
		}
		w.Write([]byte(`{"is_correct":true,"correct_answer":"comer","explanation":"Well done"}`))
	})
	mux.HandleFunc("/api/vocabulary/4/conjugation", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"yo":"como","tu":"comes","el_ella_usted":"come","nosotros":"comemos","vosotros":"coméis","ellos_ellas_ustedes":"comen"}`))
	})
	c := newTestClient(t, mux)

	fb, err := c.SubmitAnswer(context.Background(), 2, models.LearningAnswer{VocabularyID: 4, UserAnswer: "comer"})
	if err != nil || !fb.IsCorrect {
		t.Fatalf("submit: %v %+v", err, fb)
	}
	conj, err := c.Conjugation(context.Background(), 4)
	if err != nil {
		t.Fatalf("conjugation: %v", err)
	}
	if conj.Vosotros != "coméis" {
		t.Fatalf("unexpected conjugation %+v", conj)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, time.Second)
	_, err := c.NextQuestion(context.Background(), 1)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if Detail(err) != "" {
		t.Fatalf("transport errors carry no detail")
	}
}
