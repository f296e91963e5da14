package bot

import (
	"fmt"
	"strings"

	"github.com/example/spanishbot/internal/learning"
	"github.com/example/spanishbot/pkg/models"
)

var wordSeparators = []string{" - ", " — ", " – ", "="}

// splitWordLine splits "español - translation [- type]"
func splitWordLine(line string) ([]string, bool) {
	for _, sep := range wordSeparators {
		if strings.Contains(line, sep) {
			parts := strings.SplitN(line, sep, 3)
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts, true
		}
	}
	return nil, false
}

// parseWordLine turns a line into a draft. Missing parts stay empty and are
// reported by the screen's validation.
func parseWordLine(line string) learning.WordDraft {
	parts, ok := splitWordLine(line)
	if !ok {
		return learning.WordDraft{Spanish: strings.TrimSpace(line), Type: models.WordNoun}
	}
	d := learning.WordDraft{Spanish: parts[0], Native: parts[1], Type: models.WordNoun}
	if len(parts) == 3 && parts[2] != "" {
		d.Type = models.WordType(strings.ToLower(parts[2]))
	}
	return d
}

func formatWord(w models.Vocabulary) string {
	return fmt.Sprintf("%s - %s (%s)", w.WordSpanish, w.WordNative, w.WordType.Label())
}

// formatVocabulary splits the list into messages of at most perPage words
func formatVocabulary(words []models.Vocabulary, perPage int) []string {
	if perPage <= 0 {
		perPage = len(words)
	}
	var pages []string
	for start := 0; start < len(words); start += perPage {
		end := start + perPage
		if end > len(words) {
			end = len(words)
		}
		var sb strings.Builder
		if start == 0 {
			sb.WriteString(fmt.Sprintf("📚 Your vocabulary (%d words)\n\n", len(words)))
		}
		for i := start; i < end; i++ {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatWord(words[i])))
		}
		pages = append(pages, strings.TrimRight(sb.String(), "\n"))
	}
	return pages
}

func formatFeedback(fb *models.LearningFeedback, conj *models.VerbConjugation) string {
	var sb strings.Builder
	if fb.IsCorrect {
		sb.WriteString("✅ Correct!")
	} else {
		sb.WriteString("❌ Not quite.\nCorrect answer: " + fb.CorrectAnswer)
	}
	if fb.Explanation != "" {
		sb.WriteString("\n\n" + fb.Explanation)
	}
	if conj != nil {
		sb.WriteString("\n\nPresent tense:\n")
		for _, row := range conj.Rows() {
			sb.WriteString(fmt.Sprintf("%s: %s\n", row.Person, row.Form))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatImport(msg string, summary *learning.ImportSummary, maxErrors int) string {
	var sb strings.Builder
	if summary.Added > 0 {
		sb.WriteString("✅ ")
	} else {
		sb.WriteString("❌ ")
	}
	sb.WriteString(msg)
	for i, e := range summary.Errors {
		if i == maxErrors {
			sb.WriteString(fmt.Sprintf("\n... and %d more", len(summary.Errors)-maxErrors))
			break
		}
		sb.WriteString("\n• " + e)
	}
	return sb.String()
}

func formatStats(words []models.Vocabulary, stats models.AnswerStats) string {
	verbs := 0
	for _, w := range words {
		if w.IsVerb {
			verbs++
		}
	}
	text := "📊 Your statistics\n\n" +
		fmt.Sprintf("Words: %d (verbs: %d)\n", len(words), verbs) +
		fmt.Sprintf("Answers: %d\n", stats.Total) +
		fmt.Sprintf("Correct: %d\n", stats.Correct) +
		fmt.Sprintf("Wrong: %d", stats.Wrong())
	if stats.Total > 0 {
		text += fmt.Sprintf("\nAccuracy: %.1f%%", stats.Accuracy())
	}
	return text
}
