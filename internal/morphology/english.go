package morphology

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

const (
	TagArticle      = "ARTICLE"
	TagConjunction  = "CONJ"
	TagPreposition  = "PREP"
	TagPronoun      = "PN"
	TagParticle     = "PART"
	TagInterjection = "INT"
	// TagLexical marks open-class words.
	TagLexical = "LEX"
)

var englishLexicon = newLexicon(map[string][]string{
	TagArticle: {"a", "an", "the"},
	TagPreposition: {
		"about", "above", "across", "after", "against", "along", "amid", "among", "around", "as", "at",
		"before", "behind", "below", "beneath", "beside", "besides", "between", "beyond", "by",
		"despite", "down", "during", "except", "for", "from", "in", "inside", "into", "near", "of",
		"off", "on", "onto", "out", "outside", "over", "past", "per", "since", "through", "throughout",
		"till", "to", "toward", "towards", "under", "underneath", "until", "unto", "up", "upon", "via",
		"with", "within", "without",
	},
	TagConjunction: {
		"and", "or", "but", "nor", "so", "yet", "because", "although", "though", "while", "whereas",
		"if", "unless", "whether", "than", "that", "either", "neither", "both",
	},
	TagPronoun: {
		"i", "me", "my", "mine", "myself", "you", "your", "yours", "yourself", "yourselves",
		"he", "him", "his", "himself", "she", "her", "hers", "herself", "it", "its", "itself",
		"we", "us", "our", "ours", "ourselves", "they", "them", "their", "theirs", "themselves",
		"this", "these", "those", "that", "who", "whom", "whose", "which", "what",
		"whoever", "whatever", "whichever", "someone", "somebody", "something", "anyone", "anybody",
		"anything", "everyone", "everybody", "everything", "nobody", "nothing", "none",
	},
	TagParticle:     {"not"},
	TagInterjection: {"oh", "ah", "wow", "hey", "alas", "oops", "ouch", "hmm", "ugh", "uh", "um"},
})

// English handles Latin-script words.
type English struct{}

func NewEnglish() *English { return &English{} }

func (*English) Language() string { return "english" }

func (*English) Script() Script { return Latin }

func (e *English) Analyze(word string) ([]string, error) {
	word = strings.ToLower(word)
	if !e.IsValid(word) {
		return nil, unsupported(word)
	}
	return englishLexicon.analyze(word, TagLexical), nil
}

func (*English) IsValid(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !isLatin(r) {
			return false
		}
	}
	return true
}

func (e *English) Normalize(word string) ([]string, error) {
	word = strings.ToLower(word)
	if !e.IsValid(word) {
		return nil, unsupported(word)
	}
	return []string{word}, nil
}

func (*English) Stem(word string) string {
	return english.Stem(word, true)
}

func isLatin(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
