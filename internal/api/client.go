package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/example/spanishbot/internal/logger"
	"github.com/example/spanishbot/pkg/models"
)

// Client talks to the vocabulary backend over its JSON API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for request tracing
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the backend at baseURL
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload is a file handed to one of the extraction endpoints
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CreateUser registers a new learner
func (c *Client) CreateUser(ctx context.Context, username string, lang models.NativeLanguage) (*models.User, error) {
	payload := map[string]string{"username": username, "native_language": string(lang)}
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/users", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches an existing learner
func (c *Client) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListVocabulary returns every word the user owns
func (c *Client) ListVocabulary(ctx context.Context, userID int64) ([]models.Vocabulary, error) {
	words := []models.Vocabulary{}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/vocabulary/%d", userID), nil, &words); err != nil {
		return nil, err
	}
	return words, nil
}

// AddWord creates a vocabulary entry from text
func (c *Client) AddWord(ctx context.Context, userID int64, word models.NewWord) (*models.Vocabulary, error) {
	var created models.Vocabulary
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/vocabulary/%d", userID), word, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AddWordFromImage uploads an image for OCR extraction
func (c *Client) AddWordFromImage(ctx context.Context, userID int64, file Upload) (*models.Vocabulary, error) {
	return c.upload(ctx, fmt.Sprintf("/api/vocabulary/%d/from-image", userID), file)
}

// AddWordFromAudio uploads a recording for speech transcription
func (c *Client) AddWordFromAudio(ctx context.Context, userID int64, file Upload) (*models.Vocabulary, error) {
	return c.upload(ctx, fmt.Sprintf("/api/vocabulary/%d/from-audio", userID), file)
}

// NextQuestion asks the backend for a quiz question
func (c *Client) NextQuestion(ctx context.Context, userID int64) (*models.LearningQuestion, error) {
	var q models.LearningQuestion
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/learning/%d/question", userID), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// SubmitAnswer sends the user's answer for grading
func (c *Client) SubmitAnswer(ctx context.Context, userID int64, answer models.LearningAnswer) (*models.LearningFeedback, error) {
	var fb models.LearningFeedback
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/learning/%d/answer", userID), answer, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}

// Conjugation fetches the present tense forms of a verb entry
func (c *Client) Conjugation(ctx context.Context, vocabularyID int64) (*models.VerbConjugation, error) {
	var conj models.VerbConjugation
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/vocabulary/%d/conjugation", vocabularyID), nil, &conj); err != nil {
		return nil, err
	}
	return &conj, nil
}

func (c *Client) upload(ctx context.Context, path string, file Upload) (*models.Vocabulary, error) {
	if file.Body == nil {
		return nil, fmt.Errorf("upload %s: empty file", path)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(filePartHeader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var created models.Vocabulary
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("backend request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("backend request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func filePartHeader(file Upload) textproto.MIMEHeader {
	name := file.Filename
	if name == "" {
		name = "upload"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name))},
		"Content-Type":        {contentType},
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
