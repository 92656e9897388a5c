package readability

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoWords is returned by every score operation when there are no words
// to divide by.
var ErrNoWords = errors.New("no words to score")

const (
	minReadingEase = 0.0
	maxReadingEase = 100.0
	minGradeLevel  = 1.0
)

// ReadingEase is a Flesch Reading Ease score in [0, 100]. Higher is easier.
type ReadingEase float64

// GradeLevel is a Flesch-Kincaid Grade Level, never below 1.
type GradeLevel float64

// Description is a pair of human-readable labels for a ReadingEase band.
type Description struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

// easeBands are ordered by descending lower bound. Each band covers
// [min, next band's min); the first band also includes 100.
var easeBands = []struct {
	min  float64
	desc Description
}{
	{90, Description{"5th grade", "Very easy to read. Easily understood by an average 11-year-old student."}},
	{80, Description{"6th grade", "Easy to read. Conversational English for consumers."}},
	{70, Description{"7th grade", "Fairly easy to read."}},
	{60, Description{"8th & 9th grade", "Plain English. Easily understood by 13- to 15-year-old students."}},
	{50, Description{"10th to 12th grade", "Fairly difficult to read."}},
	{30, Description{"College", "Difficult to read."}},
	{10, Description{"College graduate", "Very difficult to read. Best understood by university graduates."}},
	{0, Description{"Professional", "Extremely difficult to read. Best understood by university graduates."}},
}

// Description returns the band r falls into. Scores are clamped on
// construction, so the last band catches anything below every bound.
func (r ReadingEase) Description() Description {
	for _, b := range easeBands {
		if float64(r) >= b.min {
			return b.desc
		}
	}
	return easeBands[len(easeBands)-1].desc
}

// Description returns the ordinal school grade of g, e.g. "2nd grade".
func (g GradeLevel) Description() string {
	n := int(math.Floor(float64(g)))
	switch n {
	case 1:
		return "1st grade"
	case 2:
		return "2nd grade"
	case 3:
		return "3rd grade"
	default:
		return fmt.Sprintf("%dth grade", n)
	}
}

// ReadingEaseFromMetrics applies
// 206.835 - 1.015*(words/sentences) - 84.6*(syllables/words), clamped to
// [0, 100].
func ReadingEaseFromMetrics(m Metrics) (ReadingEase, error) {
	wps, spw, err := ratios(m)
	if err != nil {
		return 0, err
	}
	score := 206.835 - 1.015*wps - 84.6*spw
	return ReadingEase(math.Max(minReadingEase, math.Min(maxReadingEase, score))), nil
}

// GradeLevelFromMetrics applies
// 0.39*(words/sentences) + 11.8*(syllables/words) - 15.9, floored at 1.
func GradeLevelFromMetrics(m Metrics) (GradeLevel, error) {
	wps, spw, err := ratios(m)
	if err != nil {
		return 0, err
	}
	score := 0.39*wps + 11.8*spw - 15.9
	return GradeLevel(math.Max(minGradeLevel, score)), nil
}

// ratios returns words per sentence and syllables per word. Sentences are
// floored at one, as Measure guarantees for every chunk.
func ratios(m Metrics) (wordsPerSentence, syllablesPerWord float64, err error) {
	if m.Words <= 0 {
		return 0, 0, ErrNoWords
	}
	sentences := max(m.Sentences, 1)
	words := float64(m.Words)
	return words / float64(sentences), float64(m.Syllables) / words, nil
}

// Report combines the counts and both scores of a document.
type Report struct {
	Metrics
	ReadingEase            ReadingEase `json:"reading_ease"`
	ReadingEaseLabel       string      `json:"reading_ease_label"`
	ReadingEaseDescription string      `json:"reading_ease_description"`
	GradeLevel             GradeLevel  `json:"grade_level"`
	GradeLevelLabel        string      `json:"grade_level_label"`
}

// NewReport scores m. It fails with ErrNoWords when m has no words.
func NewReport(m Metrics) (Report, error) {
	ease, err := ReadingEaseFromMetrics(m)
	if err != nil {
		return Report{}, err
	}
	grade, err := GradeLevelFromMetrics(m)
	if err != nil {
		return Report{}, err
	}
	desc := ease.Description()
	return Report{
		Metrics:                m,
		ReadingEase:            ease,
		ReadingEaseLabel:       desc.Short,
		ReadingEaseDescription: desc.Long,
		GradeLevel:             grade,
		GradeLevelLabel:        grade.Description(),
	}, nil
}
