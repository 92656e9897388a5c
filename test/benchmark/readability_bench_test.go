package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/markdown"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog.",
	"medium": `Readability formulas estimate how hard a passage is to read from two
        ratios: words per sentence and syllables per word. Counting words and
        sentences is simple. Counting syllables is not, because English spelling
        does not map cleanly to pronunciation, so the estimate starts from vowel
        groups and is corrected by hand-tuned exception patterns.`,
	"long": strings.Repeat(`Plain language guidelines recommend short sentences and
        familiar words. Writers who follow them tend to score higher on the
        reading ease scale and lower on the grade level scale. Technical
        documentation, legal contracts and academic prose usually fall at the
        opposite end, where long sentences and polysyllabic vocabulary dominate. `, 20),
}

var engine = readability.MustNew()

func BenchmarkWords(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				_ = engine.Words(text)
			}
		})
	}
}

func BenchmarkSyllablesInWord(b *testing.B) {
	words := []string{
		"readability", "egregious", "pernicious", "beautiful", "created",
		"people", "rhythm", "strength", "idea", "unaware",
	}
	b.ReportAllocs()
	for b.Loop() {
		for _, w := range words {
			_ = engine.SyllablesInWord(w)
		}
	}
}

func BenchmarkMeasure(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				_ = engine.Measure(text)
			}
		})
	}
}

func BenchmarkMeasureParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = engine.Measure(text)
		}
	})
}

// BenchmarkMeasureAll scores a 200-chunk document with different worker
// counts.
func BenchmarkMeasureAll(b *testing.B) {
	chunks := make([]string, 200)
	for i := range chunks {
		chunks[i] = sampleTexts["medium"]
	}
	ctx := context.Background()
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := engine.MeasureAll(ctx, chunks, workers); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkNormalizedMeasure(b *testing.B) {
	nfc := readability.MustNew(readability.WithNormalization())
	text := strings.Repeat("The café serves crème brûlée. ", 50)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for b.Loop() {
		_ = nfc.Measure(text)
	}
}

func BenchmarkMarkdownChunks(b *testing.B) {
	var doc strings.Builder
	for i := range 50 {
		fmt.Fprintf(&doc, "## Section %d\n\nSome *emphasized* text with a [link](https://example.com).\n\n", i)
		doc.WriteString("```go\nfmt.Println(\"skipped\")\n```\n\n- first item\n- second item\n\n")
	}
	src := []byte(doc.String())
	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	for b.Loop() {
		_ = markdown.Chunks(src)
	}
}

func BenchmarkScorerReport(b *testing.B) {
	text := sampleTexts["long"]
	b.ReportAllocs()
	for b.Loop() {
		s := engine.NewScorer()
		s.Add(text)
		if _, err := s.Report(); err != nil {
			b.Fatal(err)
		}
	}
}
