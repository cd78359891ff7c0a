// Package turn decides when a dictated utterance has ended: a lexical
// completeness heuristic plus the silence and turn-confirmation timers that
// act on it.
package turn

import "strings"

const (
	// Utterances shorter than this are never judged complete.
	minJudgeableLength = 10

	// Punctuation alone only counts as completion past this length.
	punctuatedMinLength = 20
)

// Analyzer classifies whether a transcript reads as a finished thought.
// The verdict is a pure function of the transcript string.
type Analyzer struct {
	cues CueSet
}

// NewAnalyzer creates an analyzer over the given cue set.
func NewAnalyzer(cues CueSet) *Analyzer {
	return &Analyzer{cues: cues}
}

// IsComplete applies the heuristic policy in order, first match wins:
// too short, explicit completion cue, explicit incompleteness cue, then the
// conservative punctuation-plus-length default. False negatives (keep
// listening) are preferred over cutting the speaker off early.
func (a *Analyzer) IsComplete(transcript string) bool {
	text := strings.TrimSpace(transcript)
	if len(text) < minJudgeableLength {
		return false
	}

	lower := strings.ToLower(text)

	for _, cue := range a.cues.Completion {
		if strings.Contains(lower, cue) {
			return true
		}
	}

	if a.looksUnfinished(lower) {
		return false
	}

	return endsWithTerminalPunctuation(text) && len(text) > punctuatedMinLength
}

func (a *Analyzer) looksUnfinished(lower string) bool {
	if strings.HasSuffix(lower, ",") {
		return true
	}

	for _, lead := range a.cues.LeadIn {
		if lower == lead || strings.HasSuffix(lower, " "+lead) {
			return true
		}
	}

	last := lastWord(lower)
	for _, w := range a.cues.TrailingIncomplete {
		if last == w {
			return true
		}
	}
	return false
}

// lastWord returns the final whitespace-delimited token with trailing
// punctuation stripped, so "go, and" and "go and" classify alike.
func lastWord(lower string) string {
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(fields[len(fields)-1], ".,!?;:")
}

func endsWithTerminalPunctuation(text string) bool {
	switch text[len(text)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
