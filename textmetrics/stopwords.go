package textmetrics

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"to": {}, "for": {}, "of": {}, "in": {}, "on": {}, "and": {}, "or": {},
	"with": {}, "by": {}, "at": {},
}

// IsStopWord reports whether a lower-cased token carries no topical meaning.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// SignificantWords returns the tokens of text with stop words removed.
func SignificantWords(text string) []string {
	words := Words(text)
	out := words[:0]
	for _, w := range words {
		if !IsStopWord(w) {
			out = append(out, w)
		}
	}
	return out
}
