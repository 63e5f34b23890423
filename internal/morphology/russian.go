package morphology

import (
	"strings"

	"github.com/kljensen/snowball/russian"
)

const (
	TagInterjectionRU = "МЕЖД"
	TagPrepositionRU  = "ПРЕДЛ"
	TagConjunctionRU  = "СОЮЗ"
	TagParticleRU     = "ЧАСТ"
	TagPronounRU      = "МС"
	// TagLexicalRU marks open-class words.
	TagLexicalRU = "ЛЕКС"
)

// Entries are stored after ё→е folding.
var russianLexicon = newLexicon(map[string][]string{
	TagPrepositionRU: {
		"в", "во", "на", "с", "со", "к", "ко", "по", "о", "об", "обо", "от", "ото", "до", "из", "изо",
		"у", "за", "над", "надо", "под", "подо", "про", "через", "для", "без", "безо", "при", "перед",
		"передо", "между", "около", "вокруг", "после", "среди", "кроме", "вместо", "сквозь", "ради",
		"возле", "мимо", "вдоль", "внутри",
	},
	TagConjunctionRU: {
		"и", "а", "но", "или", "либо", "что", "чтобы", "если", "как", "будто", "словно", "хотя",
		"зато", "однако", "тоже", "также", "потому", "то",
	},
	TagParticleRU: {
		"не", "ни", "ли", "же", "бы", "вот", "вон", "даже", "лишь", "только", "уже", "еще", "разве",
		"неужели", "пусть", "да", "нет", "именно",
	},
	TagPronounRU: {
		"я", "меня", "мне", "мной", "мною", "ты", "тебя", "тебе", "тобой", "он", "его", "ему", "им",
		"нем", "она", "ее", "ей", "ней", "нее", "ею", "оно", "мы", "нас", "нам", "нами", "вы", "вас",
		"вам", "вами", "они", "их", "ими", "них", "ним", "ними", "себя", "себе", "собой", "мой", "моя",
		"мое", "мои", "твой", "твоя", "твои", "наш", "наша", "наше", "наши", "ваш", "ваша", "ваше",
		"ваши", "свой", "своя", "свои", "этот", "эта", "это", "эти", "тот", "та", "те", "кто", "что",
	},
	TagInterjectionRU: {"ах", "ох", "эх", "ой", "ай", "увы", "ура", "ого", "ух", "эй", "ну"},
})

// Russian handles Cyrillic-script words.
type Russian struct{}

func NewRussian() *Russian { return &Russian{} }

func (*Russian) Language() string { return "russian" }

func (*Russian) Script() Script { return Cyrillic }

func (r *Russian) Analyze(word string) ([]string, error) {
	forms, err := r.Normalize(word)
	if err != nil {
		return nil, err
	}
	return russianLexicon.analyze(forms[0], TagLexicalRU), nil
}

func (*Russian) IsValid(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !isCyrillic(r) {
			return false
		}
	}
	return true
}

// Normalize lower-cases the word and folds ё into е.
func (r *Russian) Normalize(word string) ([]string, error) {
	if !r.IsValid(word) {
		return nil, unsupported(word)
	}
	word = strings.ReplaceAll(strings.ToLower(word), "ё", "е")
	return []string{word}, nil
}

func (*Russian) Stem(word string) string {
	return russian.Stem(word, true)
}

func isCyrillic(r rune) bool {
	return (r >= 'А' && r <= 'я') || r == 'Ё' || r == 'ё'
}
