package web

import (
	"encoding/json"
	"net/http"

	"github.com/example/spanishbot/internal/learning"
	"github.com/example/spanishbot/pkg/models"
)

type resultState struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type quizState struct {
	Phase       string                   `json:"phase"`
	Question    *models.LearningQuestion `json:"question,omitempty"`
	Feedback    *models.LearningFeedback `json:"feedback,omitempty"`
	Conjugation *models.VerbConjugation  `json:"conjugation,omitempty"`
}

// stateResponse is the JSON form of a screen snapshot
type stateResponse struct {
	User             *models.User                    `json:"user"`
	Tab              learning.Tab                    `json:"tab"`
	Vocabulary       []models.Vocabulary             `json:"vocabulary"`
	VocabularyLoaded bool                            `json:"vocabulary_loaded"`
	CanStartQuiz     bool                            `json:"can_start_quiz"`
	Quiz             quizState                       `json:"quiz"`
	Results          map[learning.Action]resultState `json:"results"`
}

func newStateResponse(v learning.View) stateResponse {
	resp := stateResponse{
		User:             v.User,
		Tab:              v.Tab,
		Vocabulary:       v.Vocabulary,
		VocabularyLoaded: v.VocabularyLoaded,
		CanStartQuiz:     v.CanStartQuiz,
		Quiz: quizState{
			Phase:       v.Quiz.Phase.String(),
			Question:    v.Quiz.Question,
			Feedback:    v.Quiz.Feedback,
			Conjugation: v.Quiz.Conjugation,
		},
		Results: make(map[learning.Action]resultState),
	}
	if resp.Vocabulary == nil {
		resp.Vocabulary = []models.Vocabulary{}
	}
	for _, a := range learning.Actions {
		if r := v.Result(a); r.Status != learning.StatusIdle {
			resp.Results[a] = resultState{Status: r.Status.String(), Message: r.Message}
		}
	}
	return resp
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, newStateResponse(s.snapshot(r)))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
