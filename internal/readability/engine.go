// Package readability estimates how hard English text is to read using the
// Flesch Reading Ease and Flesch-Kincaid Grade Level formulas.
//
// Syllables are approximated per word from its vowel groups, corrected by
// two fixed sets of spelling patterns that add or remove a syllable. An
// Engine compiles those patterns once and is safe for concurrent use; a
// Scorer accumulates counts over any number of text chunks and is not.
package readability

import (
	"fmt"
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// Engine holds the compiled matchers. It is immutable after construction.
type Engine struct {
	sentence   *regexp.Regexp
	vowelGroup *regexp.Regexp
	add        *PatternSet
	sub        *PatternSet
	normalize  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithNormalization makes the Engine convert text to Unicode NFC before
// tokenizing, so letters written with combining accents count as letters.
func WithNormalization() Option {
	return func(e *Engine) {
		e.normalize = true
	}
}

// New compiles every matcher. An error here means the built-in pattern
// tables are broken, not that the caller did anything wrong.
func New(opts ...Option) (*Engine, error) {
	sentence, err := regexp.Compile(sentencePattern)
	if err != nil {
		return nil, fmt.Errorf("compiling sentence pattern: %w", err)
	}
	vowelGroup, err := regexp.Compile(vowelGroupPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling vowel group pattern: %w", err)
	}
	add, err := compileSet("add", addPatterns)
	if err != nil {
		return nil, err
	}
	sub, err := compileSet("sub", subPatterns)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sentence:   sentence,
		vowelGroup: vowelGroup,
		add:        add,
		sub:        sub,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MustNew is like New but panics if a matcher fails to compile.
func MustNew(opts ...Option) *Engine {
	e, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("readability: %v", err))
	}
	return e
}

// AddPatterns returns the set of patterns that add a syllable.
func (e *Engine) AddPatterns() *PatternSet { return e.add }

// SubPatterns returns the set of patterns that remove a syllable.
func (e *Engine) SubPatterns() *PatternSet { return e.sub }

// Normalizes reports whether the Engine applies NFC normalization.
func (e *Engine) Normalizes() bool { return e.normalize }

func (e *Engine) prepare(text string) string {
	if e.normalize {
		return norm.NFC.String(text)
	}
	return text
}

// ReadingEase scores text as a single chunk.
func (e *Engine) ReadingEase(text string) (ReadingEase, error) {
	return ReadingEaseFromMetrics(e.Measure(text))
}

// GradeLevel grades text as a single chunk.
func (e *Engine) GradeLevel(text string) (GradeLevel, error) {
	return GradeLevelFromMetrics(e.Measure(text))
}

// Score builds the full report for text as a single chunk.
func (e *Engine) Score(text string) (Report, error) {
	return NewReport(e.Measure(text))
}

// NewScorer returns an empty accumulator bound to e.
func (e *Engine) NewScorer() *Scorer {
	return &Scorer{engine: e}
}
