// Package snippet extracts page titles and builds highlighted text
// fragments around query matches.
package snippet

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DefaultRadius is the number of characters kept on each side of the anchor.
const DefaultRadius = 150

var (
	titlePattern     = regexp.MustCompile(`(?is)<title(?:\s[^>]*)?>(.*?)</title>`)
	blockPattern     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
	bracePattern     = regexp.MustCompile(`(?s)\{.*?\}`)
	callPattern      = regexp.MustCompile(`[\p{L}\p{N}_]+\([^)]*\)`)
	foreignPattern   = regexp.MustCompile(`[^А-Яа-яЁёA-Za-z0-9\s]`)
	spacePattern     = regexp.MustCompile(`\s+`)
	wordSplitPattern = regexp.MustCompile(`[\s,.!?;:]+`)
)

// LemmaChecker reports whether a word lemmatizes to anything.
type LemmaChecker interface {
	HasLemmas(text string) bool
}

// Title returns the trimmed text of the first <title> element, or "".
func Title(page string) string {
	m := titlePattern.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// Clean strips markup, template and call-like fragments and every
// character outside the Latin and Cyrillic alphabets, digits and
// whitespace, then collapses whitespace.
func Clean(page string) string {
	text := blockPattern.ReplaceAllString(page, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = bracePattern.ReplaceAllString(text, " ")
	text = callPattern.ReplaceAllString(text, " ")
	text = foreignPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Generator builds snippets.
type Generator struct {
	checker LemmaChecker
	radius  int
}

// NewGenerator creates a Generator with DefaultRadius.
func NewGenerator(checker LemmaChecker) *Generator {
	return &Generator{checker: checker, radius: DefaultRadius}
}

// Snippet returns a fragment of the page around the first matching word
// with every matching word wrapped in <b></b>. It returns "" when nothing
// on the page matches.
func (g *Generator) Snippet(page, query string, lemmas []string) string {
	text := Clean(page)
	if text == "" {
		return ""
	}
	pageWords := splitWords(text)
	matching := g.matchingWords(pageWords, query, lemmas)
	if len(matching) == 0 {
		return ""
	}

	set := make(map[string]struct{}, len(matching))
	for _, w := range matching {
		set[w] = struct{}{}
	}
	anchor := ""
	for _, w := range pageWords {
		if _, ok := set[strings.ToLower(w)]; ok {
			anchor = strings.ToLower(w)
			break
		}
	}
	if anchor == "" {
		return ""
	}

	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	anchorRunes := []rune(anchor)
	pos := indexWholeWord(lower, anchorRunes, 0)
	if pos < 0 {
		return ""
	}

	start, end := g.window(runes, pos, pos+len(anchorRunes))
	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(highlight(runes[start:end], lower[start:end], matching))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// matchingWords returns, lower-cased and deduplicated in page order, the
// page words that equal or contain a query lemma or a query word longer
// than three characters that lemmatizes to something.
func (g *Generator) matchingWords(pageWords []string, query string, lemmas []string) []string {
	needles := make([]string, 0, len(lemmas))
	for _, lemma := range lemmas {
		if lemma != "" {
			needles = append(needles, strings.ToLower(lemma))
		}
	}
	for _, w := range splitWords(Clean(query)) {
		lw := strings.ToLower(w)
		if len([]rune(lw)) > 3 && g.checker.HasLemmas(lw) {
			needles = append(needles, lw)
		}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, w := range pageWords {
		lw := strings.ToLower(w)
		if _, ok := seen[lw]; ok {
			continue
		}
		for _, needle := range needles {
			if strings.Contains(lw, needle) {
				seen[lw] = struct{}{}
				out = append(out, lw)
				break
			}
		}
	}
	return out
}

// window widens [from, to) by the radius and then outward to whitespace.
func (g *Generator) window(runes []rune, from, to int) (int, int) {
	start := max(0, from-g.radius)
	end := min(len(runes), to+g.radius)
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}
	return start, end
}

type span struct{ start, end int }

func highlight(frag, lowerFrag []rune, words []string) string {
	var spans []span
	for _, w := range words {
		wr := []rune(w)
		for at := indexWholeWord(lowerFrag, wr, 0); at >= 0; at = indexWholeWord(lowerFrag, wr, at+len(wr)) {
			spans = append(spans, span{at, at + len(wr)})
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var b strings.Builder
	cursor := 0
	for _, s := range spans {
		if s.start < cursor {
			continue
		}
		b.WriteString(string(frag[cursor:s.start]))
		b.WriteString("<b>")
		b.WriteString(string(frag[s.start:s.end]))
		b.WriteString("</b>")
		cursor = s.end
	}
	b.WriteString(string(frag[cursor:]))
	return strings.TrimSpace(b.String())
}

// indexWholeWord finds word in text at or after from, bounded on both
// sides by a non letter-or-digit rune or the text edge.
func indexWholeWord(text, word []rune, from int) int {
	if len(word) == 0 {
		return -1
	}
	for i := from; i+len(word) <= len(text); i++ {
		if !equalRunes(text[i:i+len(word)], word) {
			continue
		}
		if i > 0 && isWordRune(text[i-1]) {
			continue
		}
		if j := i + len(word); j < len(text) && isWordRune(text[j]) {
			continue
		}
		return i
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func splitWords(text string) []string {
	parts := wordSplitPattern.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
