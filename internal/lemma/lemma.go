// Package lemma normalizes free text to canonical word forms for matching.
package lemma

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"go.uber.org/zap"
)

// Lemmatizer normalizes text before phrase matching
type Lemmatizer interface {
	Normalize(text string) string
	Name() string
}

const (
	NameSnowball  = "snowball"
	NameLowercase = "lowercase"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9а-яё]+`)

// Snowball tokenizes the lowercased text and stems every token. The result
// is the stems joined by single spaces; punctuation is dropped.
type Snowball struct{}

// NewSnowball returns the stemming lemmatizer
func NewSnowball() *Snowball {
	return &Snowball{}
}

func (s *Snowball) Name() string { return NameSnowball }

func (s *Snowball) Normalize(text string) string {
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	stems := make([]string, 0, len(words))
	for _, w := range words {
		stems = append(stems, stem(w))
	}
	return strings.Join(stems, " ")
}

func stem(word string) string {
	lang := "english"
	for _, r := range word {
		if unicode.Is(unicode.Cyrillic, r) {
			lang = "russian"
			break
		}
	}
	out, err := snowball.Stem(word, lang, false)
	if err != nil || out == "" {
		return word
	}
	return out
}

// Lowercase is the degraded lemmatizer: it lowercases and keeps spacing and
// punctuation as typed.
type Lowercase struct{}

func (Lowercase) Name() string { return NameLowercase }

func (Lowercase) Normalize(text string) string {
	return strings.ToLower(text)
}

// New selects a lemmatizer by configuration name. Unknown names fall back
// to Lowercase.
func New(name string, logger *zap.Logger) Lemmatizer {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameSnowball, "":
		return NewSnowball()
	case NameLowercase:
		return Lowercase{}
	}
	if logger != nil {
		logger.Warn("unknown lemmatizer, falling back to lowercase", zap.String("name", name))
	}
	return Lowercase{}
}
