package models

// LearningQuestion is a single quiz prompt generated by the backend
type LearningQuestion struct {
	VocabularyID  int64  `json:"vocabulary_id"`
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
}

// LearningAnswer is what the user submits for a question
type LearningAnswer struct {
	VocabularyID int64  `json:"vocabulary_id"`
	UserAnswer   string `json:"user_answer"`
}

// LearningFeedback is the backend's grading of an answer
type LearningFeedback struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// AnswerStats summarizes a user's answer history
type AnswerStats struct {
	Total   int `json:"total" db:"total"`
	Correct int `json:"correct" db:"correct"`
}

// Wrong returns the number of incorrect answers
func (s AnswerStats) Wrong() int {
	return s.Total - s.Correct
}

// Accuracy returns the percentage of correct answers
func (s AnswerStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total) * 100
}
