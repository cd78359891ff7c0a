package mock

import (
	"context"
	"sync"
	"testing"
	"time"

	"dictation-turn-service/internal/service/source"
)

func TestSource_PlaysInterimsThenOneFinal(t *testing.T) {
	script := []SimulatedUtterance{
		{Interims: []string{"hello", "hello there"}, Final: "hello there friend", Confidence: 0.9},
	}
	s := NewWithScript(script, 10*time.Millisecond)

	var mu sync.Mutex
	var interims, finals []string
	started := false
	done := make(chan struct{})

	ev := source.Events{
		OnSessionStart: func() { started = true },
		OnResult: func(hyps []source.Hypothesis) {
			mu.Lock()
			defer mu.Unlock()
			for _, h := range hyps {
				if h.IsFinal {
					finals = append(finals, h.Text)
				} else {
					interims = append(interims, h.Text)
				}
			}
		},
		OnSessionEnd: func() { close(done) },
	}

	if err := s.Start(context.Background(), source.Config{InterimResults: true}, ev); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session never ended")
	}

	if !started {
		t.Error("session start not emitted")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(finals) != 1 || finals[0] != "hello there friend" {
		t.Errorf("finals = %v, want exactly the scripted final", finals)
	}
	if len(interims) != 2 {
		t.Errorf("got %d interims, want 2", len(interims))
	}
}

func TestSource_InterimsSuppressedWhenDisabled(t *testing.T) {
	script := []SimulatedUtterance{
		{Interims: []string{"a", "b"}, Final: "final only", Confidence: 0.9},
	}
	s := NewWithScript(script, 10*time.Millisecond)

	var mu sync.Mutex
	var interimCount int
	done := make(chan struct{})

	ev := source.Events{
		OnResult: func(hyps []source.Hypothesis) {
			mu.Lock()
			defer mu.Unlock()
			for _, h := range hyps {
				if !h.IsFinal {
					interimCount++
				}
			}
		},
		OnSessionEnd: func() { close(done) },
	}

	if err := s.Start(context.Background(), source.Config{InterimResults: false}, ev); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-done

	mu.Lock()
	defer mu.Unlock()
	if interimCount != 0 {
		t.Errorf("got %d interims with interim results disabled", interimCount)
	}
}

func TestSource_StopStillDeliversSessionEnd(t *testing.T) {
	script := []SimulatedUtterance{
		{Interims: []string{"one", "two", "three"}, Final: "never reached", Confidence: 0.9},
	}
	s := NewWithScript(script, 50*time.Millisecond)

	done := make(chan struct{})
	ev := source.Events{
		OnSessionEnd: func() { close(done) },
	}

	if err := s.Start(context.Background(), source.Config{InterimResults: true}, ev); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stopped session never emitted its end event")
	}
}
