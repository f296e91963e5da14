package models

import "fmt"

// NativeLanguage is the language a user translates Spanish words into
type NativeLanguage string

const (
	LanguageEnglish   NativeLanguage = "en"
	LanguageUkrainian NativeLanguage = "ua"
)

// Label returns the human readable name of the language
func (l NativeLanguage) Label() string {
	if l == LanguageEnglish {
		return "English"
	}
	return "Ukrainian"
}

// Valid reports whether the backend accepts the language
func (l NativeLanguage) Valid() bool {
	return l == LanguageEnglish || l == LanguageUkrainian
}

// ParseNativeLanguage converts a form or callback value into a NativeLanguage
func ParseNativeLanguage(s string) (NativeLanguage, error) {
	l := NativeLanguage(s)
	if !l.Valid() {
		return "", fmt.Errorf("unsupported native language %q", s)
	}
	return l, nil
}

// User represents a learner registered in the backend
type User struct {
	ID             int64          `json:"id" db:"user_id"`
	Username       string         `json:"username" db:"username"`
	NativeLanguage NativeLanguage `json:"native_language" db:"native_language"`
}
