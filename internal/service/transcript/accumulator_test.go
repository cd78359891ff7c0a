package transcript

import (
	"testing"

	"dictation-turn-service/internal/service/source"
)

func final(text string) source.Hypothesis {
	return source.Hypothesis{Text: text, IsFinal: true, Confidence: 0.9}
}

func interim(text string) source.Hypothesis {
	return source.Hypothesis{Text: text, IsFinal: false}
}

func TestApply_FinalsJoinedBySingleSpaces(t *testing.T) {
	a := New()

	a.Apply([]source.Hypothesis{final("I have a")})
	a.Apply([]source.Hypothesis{final("headache that won't go away.")})

	want := "I have a headache that won't go away."
	if a.Committed() != want {
		t.Errorf("committed = %q, want %q", a.Committed(), want)
	}
	if a.Text() != want {
		t.Errorf("text = %q, want %q", a.Text(), want)
	}
}

func TestApply_SurvivesRestartBetweenFinals(t *testing.T) {
	a := New()

	a.Apply([]source.Hypothesis{final("I have a")})

	// A session restart clears interim state only; committed text persists.
	a.ClearPending()

	a.Apply([]source.Hypothesis{final("headache that won't go away.")})

	want := "I have a headache that won't go away."
	if a.Committed() != want {
		t.Errorf("committed after restart = %q, want %q", a.Committed(), want)
	}
}

func TestApply_NoSeparatorAfterWhitespaceOrPunctuation(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
		want   string
	}{
		{"plain words", "hello", "world", "hello world"},
		{"terminal period", "Done.", "Next", "Done.Next"},
		{"terminal question", "Really?", "Yes", "Really?Yes"},
		{"terminal exclamation", "Wow!", "Indeed", "Wow!Indeed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New()
			a.Apply([]source.Hypothesis{final(tt.first), final(tt.second)})
			if a.Committed() != tt.want {
				t.Errorf("committed = %q, want %q", a.Committed(), tt.want)
			}
		})
	}
}

func TestApply_InterimReplacesNeverAppends(t *testing.T) {
	a := New()

	a.Apply([]source.Hypothesis{interim("I")})
	a.Apply([]source.Hypothesis{interim("I have")})
	a.Apply([]source.Hypothesis{interim("I have a headache")})

	if a.Committed() != "" {
		t.Errorf("interim hypotheses must not touch committed text, got %q", a.Committed())
	}
	if a.Pending() != "I have a headache" {
		t.Errorf("pending = %q, want latest interim only", a.Pending())
	}
	if a.Text() != "I have a headache" {
		t.Errorf("text = %q, want %q", a.Text(), "I have a headache")
	}
}

func TestApply_FinalSupersedesPending(t *testing.T) {
	a := New()

	a.Apply([]source.Hypothesis{interim("I have a head")})
	a.Apply([]source.Hypothesis{final("I have a headache")})

	if a.Pending() != "" {
		t.Errorf("pending after final = %q, want empty", a.Pending())
	}
	if a.Text() != "I have a headache" {
		t.Errorf("text = %q, want no duplicated words", a.Text())
	}
}

func TestApply_BatchAppliedInEventOrder(t *testing.T) {
	a := New()

	a.Apply([]source.Hypothesis{
		final("first part"),
		interim("second par"),
	})

	if a.Committed() != "first part" {
		t.Errorf("committed = %q", a.Committed())
	}
	if a.Text() != "first part second par" {
		t.Errorf("text = %q, want committed plus pending", a.Text())
	}
}

func TestApply_IgnoresEmptyAndWhitespaceHypotheses(t *testing.T) {
	a := New()

	a.Apply([]source.Hypothesis{final("hello")})
	a.Apply([]source.Hypothesis{final(""), final("   "), interim("\t")})

	if a.Committed() != "hello" {
		t.Errorf("committed = %q, want unchanged %q", a.Committed(), "hello")
	}
	if a.Pending() != "" {
		t.Errorf("pending = %q, want empty", a.Pending())
	}
}

func TestApply_TrimsHypothesisText(t *testing.T) {
	a := New()

	a.Apply([]source.Hypothesis{final("  hello  "), final("  world  ")})

	if a.Committed() != "hello world" {
		t.Errorf("committed = %q, want %q", a.Committed(), "hello world")
	}
}

func TestApply_NoFinalCommittedTwice(t *testing.T) {
	a := New()

	finals := []string{"one", "two", "three", "four"}
	for _, f := range finals {
		a.Apply([]source.Hypothesis{final(f)})
	}

	if a.Committed() != "one two three four" {
		t.Errorf("committed = %q", a.Committed())
	}
}

func TestReset_ClearsAllState(t *testing.T) {
	a := New()
	a.Apply([]source.Hypothesis{final("committed"), interim("pending")})

	a.Reset()

	if a.Committed() != "" || a.Pending() != "" || a.Text() != "" {
		t.Errorf("reset left state behind: committed=%q pending=%q", a.Committed(), a.Pending())
	}
}
