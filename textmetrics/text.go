// Package textmetrics implements the text primitives the readability scorer
// and the feature extractor are built on: HTML stripping, word, sentence and
// paragraph segmentation, syllable counting and link extraction.
//
// None of the functions fail on malformed HTML. Unmatched or broken tags are
// simply not counted.
package textmetrics

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	blankLine      = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)
	trailingSuffix = regexp.MustCompile(`(?:[^laeiouy]es|ed|[^laeiouy]e)$`)
	leadingY       = regexp.MustCompile(`^y`)
	vowelGroup     = regexp.MustCompile(`[aeiouy]{1,2}`)
)

// blockElements start a new paragraph when rendered as text.
var blockElements = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Tr:         true,
	atom.Table:      true,
	atom.Ul:         true,
	atom.Ol:         true,
}

// Counts aggregates the totals the readability formulas consume.
type Counts struct {
	Words         int `json:"words"`
	Sentences     int `json:"sentences"`
	Syllables     int `json:"syllables"`
	Characters    int `json:"characters"`
	Polysyllables int `json:"polysyllables"`
}

// StripHTML removes script and style blocks, then every remaining tag, and
// collapses runs of whitespace into a single space.
func StripHTML(content string) string {
	return collapseSpace(render(content, false))
}

// Paragraphs splits content on blank lines. Block-level elements are rendered
// as paragraph breaks first, so HTML yields one paragraph per block and plain
// text yields one paragraph per blank-line separated run. Empty paragraphs are
// dropped and whitespace inside each paragraph is collapsed.
func Paragraphs(content string) []string {
	raw := blankLine.Split(render(content, true), -1)
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = collapseSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// render walks the token stream and returns the text content. Tags become a
// single space so adjacent elements never glue words together; with blocks
// set, block-level tags become blank lines instead.
func render(content string, blocks bool) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				skip++
			}
			writeBoundary(&b, a, blocks)
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			writeBoundary(&b, a, blocks)
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func writeBoundary(b *strings.Builder, a atom.Atom, blocks bool) {
	if blocks && blockElements[a] {
		b.WriteString("\n\n")
		return
	}
	b.WriteByte(' ')
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Words splits text into lower-cased tokens on non-word characters.
// Letters, digits and the underscore are word characters.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Sentences splits text on runs of terminal punctuation. Fragments are
// trimmed and empty ones dropped.
func Sentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// CountSyllables approximates the syllable count of an English word.
// Words of three letters or fewer count as one syllable.
func CountSyllables(word string) int {
	word = strings.ToLower(word)
	if utf8.RuneCountInString(word) <= 3 {
		return 1
	}

	word = trailingSuffix.ReplaceAllString(word, "")
	word = leadingY.ReplaceAllString(word, "")

	if n := len(vowelGroup.FindAllStringIndex(word, -1)); n > 0 {
		return n
	}
	return 1
}

// IsPolysyllabic reports whether word has three or more syllables.
func IsPolysyllabic(word string) bool {
	return CountSyllables(word) >= 3
}

// CountCharacters counts the non-whitespace runes of text.
func CountCharacters(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// Analyze computes the readability totals of already-stripped text.
func Analyze(text string) Counts {
	words := Words(text)
	c := Counts{
		Words:      len(words),
		Sentences:  len(Sentences(text)),
		Characters: CountCharacters(text),
	}
	for _, w := range words {
		s := CountSyllables(w)
		c.Syllables += s
		if s >= 3 {
			c.Polysyllables++
		}
	}
	return c
}
