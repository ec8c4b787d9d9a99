package textmetrics

import (
	"reflect"
	"testing"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Hello   world", "Hello world"},
		{"tags become spaces", "<p>one</p><p>two</p>", "one two"},
		{"script removed", "a<script>var x = '<p>no</p>';</script>b", "a b"},
		{"style removed", "<style>p { color: red; }</style><b>bold</b>", "bold"},
		{"entities decoded", "fish &amp; chips", "fish & chips"},
		{"unclosed tag", "<div><p>open", "open"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWords(t *testing.T) {
	got := Words("The cat's 2 HATS, on_the mat!")
	want := []string{"the", "cat", "s", "2", "hats", "on_the", "mat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if len(Words("  ... !!! ")) != 0 {
		t.Error("Expected no words from punctuation only")
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("First one. Second one!! Third?  ")
	want := []string{"First one", "Second one", "Third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if n := len(Sentences("no terminal punctuation")); n != 1 {
		t.Errorf("Expected 1 sentence, got %d", n)
	}
	if n := len(Sentences("")); n != 0 {
		t.Errorf("Expected 0 sentences, got %d", n)
	}
}

func TestParagraphs(t *testing.T) {
	t.Run("plain text blank lines", func(t *testing.T) {
		got := Paragraphs("First para\nstill first.\n\n\nSecond para.\n  \nThird.")
		want := []string{"First para still first.", "Second para.", "Third."}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("html blocks", func(t *testing.T) {
		got := Paragraphs("<h1>Title</h1><p>Intro <b>text</b>.</p><p></p><ul><li>item</li></ul>")
		want := []string{"Title", "Intro text .", "item"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})
}

func TestCountSyllables(t *testing.T) {
	tests := map[string]int{
		"cat":       1,
		"the":       1,
		"yes":       1,
		"table":     2,
		"hello":     2,
		"computer":  3,
		"banana":    3,
		"important": 3,
		"created":   1,
		"rhythm":    1,
		"Syllable":  3,
	}
	for word, want := range tests {
		if got := CountSyllables(word); got != want {
			t.Errorf("CountSyllables(%q): expected %d, got %d", word, want, got)
		}
	}

	if !IsPolysyllabic("computer") {
		t.Error("Expected computer to be polysyllabic")
	}
	if IsPolysyllabic("table") {
		t.Error("Expected table not to be polysyllabic")
	}
}

func TestAnalyze(t *testing.T) {
	c := Analyze("The cat sat on the mat.")
	want := Counts{Words: 6, Sentences: 1, Syllables: 6, Characters: 18, Polysyllables: 0}
	if c != want {
		t.Errorf("Expected %+v, got %+v", want, c)
	}

	if empty := Analyze(""); empty != (Counts{}) {
		t.Errorf("Expected zero counts, got %+v", empty)
	}
}
