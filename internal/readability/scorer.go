package readability

// Scorer accumulates Metrics over chunks of one document. The zero number
// of chunks is allowed but leaves nothing to score. A Scorer must not be
// written from several goroutines at once.
type Scorer struct {
	engine *Engine
	totals Metrics
	chunks int
}

// Add measures text and folds it into the running totals.
func (s *Scorer) Add(text string) {
	s.AddMetrics(s.engine.Measure(text))
}

// AddMetrics folds counts measured elsewhere into the running totals.
func (s *Scorer) AddMetrics(m Metrics) {
	s.totals = s.totals.Add(m)
	s.chunks++
}

// Merge folds the totals of other into s.
func (s *Scorer) Merge(other *Scorer) {
	s.totals = s.totals.Add(other.totals)
	s.chunks += other.chunks
}

// Totals returns the running totals.
func (s *Scorer) Totals() Metrics { return s.totals }

// Chunks returns how many chunks have been added.
func (s *Scorer) Chunks() int { return s.chunks }

// ReadingEase returns the Flesch Reading Ease of everything added so far.
func (s *Scorer) ReadingEase() (ReadingEase, error) {
	return ReadingEaseFromMetrics(s.totals)
}

// GradeLevel returns the Flesch-Kincaid Grade Level of everything added so
// far.
func (s *Scorer) GradeLevel() (GradeLevel, error) {
	return GradeLevelFromMetrics(s.totals)
}

// Report returns both scores and their descriptions.
func (s *Scorer) Report() (Report, error) {
	return NewReport(s.totals)
}
