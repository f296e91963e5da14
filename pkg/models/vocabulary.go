package models

import (
	"fmt"
	"strings"
)

// WordType is the part of speech of a vocabulary entry
type WordType string

const (
	WordNoun      WordType = "noun"
	WordVerb      WordType = "verb"
	WordAdjective WordType = "adjective"
	WordAdverb    WordType = "adverb"
	WordOther     WordType = "other"
)

// WordTypes lists the selectable word types in display order
var WordTypes = []WordType{WordNoun, WordVerb, WordAdjective, WordAdverb, WordOther}

// Label returns the capitalized name shown in selectors
func (t WordType) Label() string {
	s := string(t)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseWordType converts user input into a WordType. Empty input means noun.
func ParseWordType(s string) (WordType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return WordNoun, nil
	}
	for _, t := range WordTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown word type %q", s)
}

// Vocabulary represents one Spanish word with its translation
type Vocabulary struct {
	ID          int64     `json:"id"`
	WordSpanish string    `json:"word_spanish"`
	WordNative  string    `json:"word_native"`
	WordType    WordType  `json:"word_type"`
	IsVerb      bool      `json:"is_verb"`
	CreatedAt   Timestamp `json:"created_at"`
}

// NewWord is the payload for adding a word by text
type NewWord struct {
	WordSpanish string   `json:"word_spanish"`
	WordNative  string   `json:"word_native"`
	WordType    WordType `json:"word_type"`
}

// VerbConjugation holds the simple present forms of a Spanish verb
type VerbConjugation struct {
	Yo                string `json:"yo"`
	Tu                string `json:"tu"`
	ElEllaUsted       string `json:"el_ella_usted"`
	Nosotros          string `json:"nosotros"`
	Vosotros          string `json:"vosotros"`
	EllosEllasUstedes string `json:"ellos_ellas_ustedes"`
}

// ConjugationRow pairs a grammatical person with its verb form
type ConjugationRow struct {
	Person string
	Form   string
}

// Rows returns the six persons in conventional order
func (c VerbConjugation) Rows() []ConjugationRow {
	return []ConjugationRow{
		{Person: "Yo", Form: c.Yo},
		{Person: "Tú", Form: c.Tu},
		{Person: "Él/Ella/Usted", Form: c.ElEllaUsted},
		{Person: "Nosotros", Form: c.Nosotros},
		{Person: "Vosotros", Form: c.Vosotros},
		{Person: "Ellos/Ellas/Ustedes", Form: c.EllosEllasUstedes},
	}
}
