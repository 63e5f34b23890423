// Package lemmatizer turns raw text into stemmed lemma counts.
package lemmatizer

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/user/sitesearch/internal/morphology"
)

var wordPatterns = map[morphology.Script]*regexp.Regexp{
	morphology.Cyrillic: regexp.MustCompile(`[А-Яа-яЁё]+`),
	morphology.Latin:    regexp.MustCompile(`[A-Za-z]+`),
}

// ExtractWords returns, in order, every maximal run of letters of the
// given script. Unknown scripts yield nil.
func ExtractWords(text string, script morphology.Script) []string {
	re, ok := wordPatterns[script]
	if !ok || text == "" {
		return nil
	}
	return re.FindAllString(text, -1)
}

// Lemmatizer combines one morphology provider per script.
type Lemmatizer struct {
	providers []morphology.Provider
}

// New creates a Lemmatizer over the given providers.
func New(providers ...morphology.Provider) *Lemmatizer {
	return &Lemmatizer{providers: providers}
}

// Default returns a Lemmatizer for Russian and English text.
func Default() *Lemmatizer {
	return New(morphology.NewRussian(), morphology.NewEnglish())
}

// Lemmatize maps each surviving stem to its occurrence count in words.
// Function words and words the provider cannot analyze are skipped.
func (l *Lemmatizer) Lemmatize(words []string, p morphology.Provider) map[string]int {
	counts := make(map[string]int)
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		analyses, err := p.Analyze(word)
		if err != nil {
			slog.Debug("Word skipped by morphology", "word", word, "language", p.Language(), "error", err)
			continue
		}
		for _, analysis := range analyses {
			if morphology.IsClosedClass(analysis) {
				continue
			}
			base, _ := morphology.SplitAnalysis(analysis)
			if strings.TrimSpace(base) == "" || !p.IsValid(base) {
				continue
			}
			forms, err := p.Normalize(base)
			if err != nil {
				slog.Debug("Normalization failed", "word", base, "error", err)
				continue
			}
			for _, form := range forms {
				if stem := p.Stem(form); stem != "" {
					counts[stem]++
				}
			}
		}
	}
	return counts
}

// Lemmas extracts and lemmatizes the words of every supported script in
// text. Scripts are disjoint, so the per-script maps never collide.
func (l *Lemmatizer) Lemmas(text string) map[string]int {
	counts := make(map[string]int)
	for _, p := range l.providers {
		for stem, n := range l.Lemmatize(ExtractWords(text, p.Script()), p) {
			counts[stem] += n
		}
	}
	return counts
}

// HasLemmas reports whether text yields at least one lemma.
func (l *Lemmatizer) HasLemmas(text string) bool {
	return len(l.Lemmas(text)) > 0
}
