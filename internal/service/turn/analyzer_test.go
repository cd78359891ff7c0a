package turn

import "testing"

func TestIsComplete_Policy(t *testing.T) {
	a := NewAnalyzer(DefaultEnglishCues())

	tests := []struct {
		name       string
		transcript string
		want       bool
	}{
		{"empty", "", false},
		{"too short", "I feel", false},
		{"too short punctuated", "Stop it.", false},
		{"completion cue thanks", "Thanks, that's all I needed.", true},
		{"completion cue question", "My back hurts, what should I do", true},
		{"completion cue without punctuation", "okay thank you so much", true},
		{"trailing conjunction", "I have a headache and", false},
		{"trailing comma", "I took some painkillers this morning,", false},
		{"dangling copula", "the pain in my lower back is", false},
		{"lead in i feel", "when I wake up in the morning I feel", false},
		{"lead in i have", "for about two weeks now I have", false},
		{"punctuated long sentence", "I have a headache that won't go away.", true},
		{"punctuated but short", "It hurts a lot.", false},
		{"long but unpunctuated", "I have been coughing for three days straight now", false},
		{"question mark", "Could this be related to the new medication?", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.IsComplete(tt.transcript); got != tt.want {
				t.Errorf("IsComplete(%q) = %v, want %v", tt.transcript, got, tt.want)
			}
		})
	}
}

func TestIsComplete_Deterministic(t *testing.T) {
	a := NewAnalyzer(DefaultEnglishCues())
	transcript := "I have a headache that won't go away."

	first := a.IsComplete(transcript)
	for i := 0; i < 10; i++ {
		if a.IsComplete(transcript) != first {
			t.Fatal("verdict changed between identical calls")
		}
	}
}

func TestIsComplete_TrailingWordIgnoresPunctuation(t *testing.T) {
	a := NewAnalyzer(DefaultEnglishCues())

	// A conjunction stays a conjunction even with a stray trailing comma
	// already handled, and a terminal word keeps its verdict with or
	// without punctuation noise around it.
	if a.IsComplete("it started on monday and.") {
		t.Error("trailing conjunction should read as unfinished")
	}
}

func TestIsComplete_CustomCueSet(t *testing.T) {
	cues := CueSet{
		Completion:         []string{"over and out"},
		TrailingIncomplete: []string{"pero"},
	}
	a := NewAnalyzer(cues)

	if !a.IsComplete("message received, over and out") {
		t.Error("custom completion cue not matched")
	}
	if a.IsComplete("me duele la cabeza pero") {
		t.Error("custom trailing cue not matched")
	}
	// The default English lists are replaced, not merged.
	if a.IsComplete("I have a headache and it hurts") {
		t.Error("unpunctuated text without cues should stay incomplete")
	}
}
