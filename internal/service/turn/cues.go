package turn

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CueSet holds the lexical cues the analyzer matches against. The lists are
// language-specific configuration, not fixed logic; load a different file
// for other locales.
type CueSet struct {
	// Completion phrases mark an utterance as a finished thought wherever
	// they appear, matched case-insensitively as substrings.
	Completion []string `yaml:"completion"`

	// TrailingIncomplete words signal an unfinished thought when they are
	// the last word of the utterance (conjunctions, copulas, auxiliaries).
	TrailingIncomplete []string `yaml:"trailing_incomplete"`

	// LeadIn phrases signal an unfinished thought when the utterance ends
	// with them ("I feel", "I have").
	LeadIn []string `yaml:"lead_in"`
}

// DefaultEnglishCues returns the built-in English cue lists.
func DefaultEnglishCues() CueSet {
	return CueSet{
		Completion: []string{
			"thank you",
			"thanks",
			"that's all",
			"that is all",
			"that's it",
			"i'm done",
			"what should i do",
			"what do you think",
			"can you help",
			"please help",
			"any advice",
		},
		TrailingIncomplete: []string{
			"and", "but", "or", "so", "because", "since", "although",
			"while", "if", "when", "that", "which", "with", "for",
			"is", "are", "was", "were", "am", "be", "been",
			"will", "would", "should", "could", "can", "may", "might",
			"have", "has", "had", "do", "does", "did",
			"the", "a", "an", "my", "your", "their", "of", "to", "in", "on", "at",
			"very", "really", "quite",
		},
		LeadIn: []string{
			"i feel",
			"i have",
			"i think",
			"i want",
			"i need",
			"it is",
			"it's",
			"there is",
			"there are",
		},
	}
}

// LoadCues reads a cue set from a YAML file. Missing lists fall back to the
// English defaults so a partial override stays usable.
func LoadCues(path string) (CueSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CueSet{}, fmt.Errorf("reading cue file: %w", err)
	}

	cues := DefaultEnglishCues()
	if err := yaml.Unmarshal(data, &cues); err != nil {
		return CueSet{}, fmt.Errorf("parsing cue file %s: %w", path, err)
	}
	return cues, nil
}
