package readability

// SyllablesInWord estimates the syllables of a single word: its vowel
// groups, plus one per matching add pattern, minus one per matching sub
// pattern. The result is never below one.
func (e *Engine) SyllablesInWord(word string) int {
	return e.syllablesInWord(e.prepare(word))
}

// SyllableCount returns the estimated syllables summed over every word of
// text. Text without words has zero syllables.
func (e *Engine) SyllableCount(text string) int {
	n := 0
	eachWord(e.prepare(text), func(w string) {
		n += e.syllablesInWord(w)
	})
	return n
}

func (e *Engine) syllablesInWord(word string) int {
	w := maskWord(word)
	groups := len(e.vowelGroup.FindAllStringIndex(w, -1))
	add := e.add.Matches(w)
	sub := e.sub.Matches(w)

	// Compare before subtracting: a word with more sub than vowel groups
	// plus add matches still has one syllable.
	if groups+add < sub+1 {
		return 1
	}
	return groups + add - sub
}
