package readability

import (
	"fmt"
	"regexp"
)

// sentencePattern matches one sentence boundary marker: a run of terminal
// punctuation.
const sentencePattern = `[.?!]+`

// vowelGroupPattern matches one maximal run of vowels.
const vowelGroupPattern = `(?i)[aeiou]+`

// subPatterns mark a vowel group that the plain count wrongly treats as a
// syllable (silent final e, -ed, -ely, -eful, ...). Each matching pattern
// removes one syllable from the estimate.
var subPatterns = []string{
	`e\b`,
	`ey\b`,
	`ed\b`,
	`ay\b`,
	`[kmrpbdtnvrw]es\b`,
	`ely\b`,
	`oy\b`,
	`cia`,
	`[aeilouy]le\b`,
	`tia[nl]?\b`,
	`tia([nl]s)?\b`,
	`[aeo]ym`,
	`eness\b`,
	`\bfore`,
	`ay[bclntrw]`,
	`ement`,
	`iles\b`,
	`[ao]les\b`,
	`eman\b`,
	`aying\b`,
	`oy[cln]`,
	`eful`,
	`\bey`,
	`geon`,
	`\bhome`,
	`eyn`,
	`ically`,
	`eless`,
	`sian\b`,
	`yles`,
	`\bwhite`,
	`eway`,
	`georg`,
	`lles\b`,
	`busine`,
	`illia`,
	`ules\b`,
	`\bhym`,
	`ryst`,
	`eyl`,
	`ehou`,
	`eyw`,
	`ekeep`,
	`people`,
	`every`,
	`\blife`,
	`giu`,
	`eyin`,
	`eout`,
	`oying\b`,
	`gues\b`,
	`\breine`,
	`geou`,
	`ques\b`,
	`vior`,
	`sewo`,
	`oseb`,
	`eyc`,
	`\bspace`,
	`\bstone`,
	`eover`,
	`ehol`,
	`iliar`,
	`estone`,
	`eyb`,
	`oyk`,
	`velan`,
	`piet`,
	`\bgia`,
	`somet`,
	`esvil`,
	`lyst`,
	`arriag`,
	`gior`,
}

// addPatterns mark a syllable the plain vowel-group count misses (final y,
// hiatus vowels such as "ia" and "eo", -ted/-ded endings, ...). Each
// matching pattern adds one syllable to the estimate.
var addPatterns = []string{
	`y\b`,
	`ia`,
	`\bmc`,
	`[il]e\b`,
	`ted\b`,
	`ee\b`,
	`io\b`,
	`ded\b`,
	`[io]er\b`,
	`y[bckglmnrstwxv]`,
	`sms?\b`,
	`eo`,
	`[eior]ed\b`,
	`iol`,
	`\bhy`,
	`iu`,
	`s'`,
	`oe\b`,
	`iot`,
	`tua`,
	`aue`,
	`ea\b`,
	`iest\b`,
	`ios`,
	`yst`,
	`nte\b`,
	`ce's`,
	`ying\b`,
	`[bcdfgkopt]led\b`,
	`ciat`,
	`lement`,
	`typ`,
	`ly[dehops]`,
	`[drv]ious`,
	`z's\b`,
	`ae\b`,
	`io[mpr]`,
	`tre\b`,
	`ione\b`,
	`[cdehlorn]ue\b`,
	`se's`,
	`nua`,
	`x'`,
	`oing`,
	`yz`,
	`creat`,
	`lua`,
	`iod`,
	`\breass`,
	`eing\b`,
	`dua`,
	`[bdprz]ion`,
	`iello\b`,
	`oa\b`,
	`ge's`,
	`phys`,
	`eact`,
	`ioc`,
	`iog`,
	`scien`,
	`dys`,
	`uou`,
	`\brein`,
	`ienn`,
	`rya`,
	`bre\b`,
	`tke\b`,
	`ryd`,
	`sh's\b`,
	`rua`,
	`ryp`,
	`rient`,
	`uing`,
	`xual`,
	`eely\b`,
	`leman\b`,
	`fluen`,
	`he'`,
	`dre\b`,
	`iet`,
	`loui`,
	`dl\b`,
	`\bio`,
	`rys`,
	`tui`,
	`rye`,
	`\bcoe`,
	`\breali`,
	`ntes\b`,
	`ch'`,
	`mye`,
	`eeman\b`,
	`ryo`,
	`linea`,
	`theat`,
	`reapp`,
	`oers\b`,
	`tys`,
	`\bcyp`,
	`eemp`,
	`nys`,
	`aic\b`,
	`cua`,
	`tl\b`,
	`tres\b`,
	`ciano`,
	`lione`,
	`eand`,
	`\bdya`,
	`gyp`,
	`croat`,
	`heroi`,
	`rearr`,
	`eex`,
	`cre\b`,
	`oniou`,
	`eum\b`,
	`fred\b`,
	`dien`,
	`oua`,
	`oincid`,
	`coordi`,
	`nucle`,
	`nyd`,
	`\breen`,
	`\breun`,
	`bys`,
	`iale\b`,
	`ifiers`,
	`rean`,
	`pre\b`,
	`iore\b`,
	`-in\b`,
}

// PatternSet is an immutable collection of case-insensitive matchers. Only
// the number of distinct members matching a word matters, never which ones.
type PatternSet struct {
	name     string
	matchers []*regexp.Regexp
}

func compileSet(name string, patterns []string) (*PatternSet, error) {
	set := &PatternSet{
		name:     name,
		matchers: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for i, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling %s pattern %d %q: %w", name, i, p, err)
		}
		set.matchers = append(set.matchers, re)
	}
	return set, nil
}

// Name returns the set's label ("add" or "sub").
func (s *PatternSet) Name() string { return s.name }

// Len returns the number of patterns in the set.
func (s *PatternSet) Len() int { return len(s.matchers) }

// Matches counts the patterns that match anywhere in word. A pattern that
// matches several times still counts once.
func (s *PatternSet) Matches(word string) int {
	n := 0
	for _, re := range s.matchers {
		if re.MatchString(word) {
			n++
		}
	}
	return n
}
