// Package morphology provides per-language word analysis: part-of-speech
// screening, validation, normalization and stemming.
package morphology

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedWord is returned for words outside a provider's alphabet.
var ErrUnsupportedWord = errors.New("word is not supported by morphology")

// Script identifies the alphabet a provider handles.
type Script string

const (
	Latin    Script = "latin"
	Cyrillic Script = "cyrillic"
)

// Provider is the capability set the lemma engine needs from a language.
type Provider interface {
	Language() string
	Script() Script
	// Analyze returns one "base|TAG" string per reading of word.
	Analyze(word string) ([]string, error)
	// IsValid reports whether every letter of word belongs to the alphabet.
	IsValid(word string) bool
	// Normalize returns the canonical forms of word.
	Normalize(word string) ([]string, error)
	// Stem reduces a normalized form to its stem.
	Stem(word string) string
}

// ClosedClassTags lists tags of function-word categories that never
// become lemmas.
var ClosedClassTags = []string{
	TagInterjectionRU, TagPrepositionRU, TagConjunctionRU, TagParticleRU, TagPronounRU,
	TagArticle, TagConjunction, TagPreposition, TagPronoun, TagParticle, TagInterjection,
}

// IsClosedClass reports whether an analysis string carries a closed-class tag.
func IsClosedClass(analysis string) bool {
	_, tag := SplitAnalysis(analysis)
	for _, closed := range ClosedClassTags {
		if tag == closed {
			return true
		}
	}
	return false
}

// SplitAnalysis splits "base|TAG" into its parts.
func SplitAnalysis(analysis string) (base, tag string) {
	base, tag, _ = strings.Cut(analysis, "|")
	return base, tag
}

// lexicon maps function words to their closed-class tags.
type lexicon map[string][]string

func newLexicon(groups map[string][]string) lexicon {
	lx := make(lexicon)
	for tag, words := range groups {
		for _, w := range words {
			lx[w] = append(lx[w], tag)
		}
	}
	return lx
}

// analyze builds analyses for a lower-cased word already known to be valid.
func (lx lexicon) analyze(word, openTag string) []string {
	tags, ok := lx[word]
	if !ok {
		return []string{word + "|" + openTag}
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, word+"|"+tag)
	}
	return out
}

func unsupported(word string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedWord, word)
}
