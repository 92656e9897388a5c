package readability

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Metrics are the raw counts of one chunk, or the running totals of many.
type Metrics struct {
	Words     int `json:"words"`
	Syllables int `json:"syllables"`
	Sentences int `json:"sentences"`
}

// Add returns the element-wise sum of m and o.
func (m Metrics) Add(o Metrics) Metrics {
	return Metrics{
		Words:     m.Words + o.Words,
		Syllables: m.Syllables + o.Syllables,
		Sentences: m.Sentences + o.Sentences,
	}
}

// Measure counts the words, syllables and sentences of one chunk.
// Sentences is at least one even for empty text.
func (e *Engine) Measure(text string) Metrics {
	text = e.prepare(text)
	var m Metrics
	eachWord(text, func(w string) {
		m.Words++
		m.Syllables += e.syllablesInWord(w)
	})
	m.Sentences = e.sentenceCount(text)
	return m
}

// MeasureAll measures every chunk using at most workers goroutines and
// returns the totals. The result equals measuring the chunks one after
// another. A workers value below one means one goroutine per chunk.
func (e *Engine) MeasureAll(ctx context.Context, chunks []string, workers int) (Metrics, error) {
	results := make([]Metrics, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Measure(chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Metrics{}, err
	}

	var total Metrics
	for _, m := range results {
		total = total.Add(m)
	}
	return total, nil
}
