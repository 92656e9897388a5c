package readability

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Go's regexp treats \b as an ASCII word boundary, which would split
// "café" after "caf". Words are therefore scanned by hand with the
// semantics of \b(\p{L}+(?:[-']\p{L}+)?)\b under Unicode word boundaries:
// a letter run, optionally joined to a second run by one hyphen or
// apostrophe, with no word character (letter, mark, digit, connector)
// touching either end.

// Words returns every word token of text in order of appearance.
func (e *Engine) Words(text string) []string {
	text = e.prepare(text)
	var words []string
	eachWord(text, func(w string) {
		words = append(words, w)
	})
	return words
}

// WordCount returns the number of word tokens in text.
func (e *Engine) WordCount(text string) int {
	n := 0
	eachWord(e.prepare(text), func(string) { n++ })
	return n
}

// SentenceCount returns the number of sentence boundary markers in text,
// never less than one.
func (e *Engine) SentenceCount(text string) int {
	return e.sentenceCount(e.prepare(text))
}

func (e *Engine) sentenceCount(text string) int {
	n := len(e.sentence.FindAllStringIndex(text, -1))
	if n < 1 {
		return 1
	}
	return n
}

func eachWord(text string, yield func(string)) {
	prevWord := false
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if prevWord || !isLetter(r) {
			prevWord = isWordChar(r)
			i += size
			continue
		}

		runEnd := letterRunEnd(text, i)
		if end, ok := joinedRunEnd(text, runEnd); ok && boundaryAt(text, end) {
			yield(text[i:end])
			i, prevWord = end, true
			continue
		}
		if boundaryAt(text, runEnd) {
			yield(text[i:runEnd])
			i, prevWord = runEnd, true
			continue
		}
		// The run is glued to a digit or mark; nothing inside it can start
		// a word either.
		i, prevWord = runEnd, true
	}
}

func letterRunEnd(text string, start int) int {
	i := start
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLetter(r) {
			break
		}
		i += size
	}
	return i
}

// joinedRunEnd reports the end of a second letter run attached at pos by a
// single hyphen or apostrophe.
func joinedRunEnd(text string, pos int) (int, bool) {
	if pos >= len(text) || (text[pos] != '-' && text[pos] != '\'') {
		return 0, false
	}
	end := letterRunEnd(text, pos+1)
	if end == pos+1 {
		return 0, false
	}
	return end, true
}

// boundaryAt reports whether a word boundary sits at pos, given that the
// rune before pos is a letter.
func boundaryAt(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return !isWordChar(r)
}

// ypogegrammeni is U+0345 COMBINING GREEK YPOGEGRAMMENI, a nonspacing mark
// whose case folding is the letter iota.
const ypogegrammeni = '\u0345'

// isLetter matches \p{L} under case-insensitive matching, which also
// admits runes that case-fold onto a letter.
func isLetter(r rune) bool {
	return r == ypogegrammeni || unicode.IsLetter(r)
}

func isWordChar(r rune) bool {
	if r == '_' || r == '\u200c' || r == '\u200d' {
		return true
	}
	return unicode.In(r, unicode.L, unicode.M, unicode.Nd, unicode.Nl, unicode.Pc, unicode.Other_Alphabetic)
}

// maskWord prepares a word token for the exception matchers. Non-ASCII
// letters become '_' so that the ASCII \b of Go's regexp sees them as word
// characters, exactly like a Unicode boundary would, while never matching
// a pattern letter. The two non-ASCII runes that case-fold onto ASCII
// letters are folded first.
func maskWord(word string) string {
	ascii := true
	for i := 0; i < len(word); i++ {
		if word[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return word
	}
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		switch {
		case r == '\u212a': // Kelvin sign
			b.WriteByte('k')
		case r == '\u017f': // long s
			b.WriteByte('s')
		case r >= utf8.RuneSelf:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
