package events

import (
	"context"
	"testing"

	"dictation-turn-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
		{"nil config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerUpdate != nil {
				t.Error("expected nil update writer when disabled")
			}
			if p.writerFinal != nil {
				t.Error("expected nil final writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:     false,
		Brokers:     []string{"localhost:9092"},
		TopicUpdate: "dictation.turn.update",
		TopicFinal:  "dictation.turn.final",
		Principal:   "dictation-turn-service",
	}

	p := New(cfg)

	if p.principal != "dictation-turn-service" {
		t.Errorf("expected principal 'dictation-turn-service', got %s", p.principal)
	}
	if p.topicUpdate != "dictation.turn.update" {
		t.Errorf("expected topic update 'dictation.turn.update', got %s", p.topicUpdate)
	}
	if p.topicFinal != "dictation.turn.final" {
		t.Errorf("expected topic final 'dictation.turn.final', got %s", p.topicFinal)
	}
}

func TestPublisher_PublishUpdate_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := models.TurnUpdate{
		EventType: "dictation.turn.update",
		FinalText: "I have a headache",
	}
	if err := p.PublishUpdate(context.Background(), "act-1", event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishFinal_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := models.TurnFinal{
		EventType:  "dictation.turn.final",
		FinalText:  "I have a headache that won't go away.",
		IsComplete: true,
		StopReason: "turn-complete",
	}
	if err := p.PublishFinal(context.Background(), "act-1", event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels are not marshalable.
	event := make(chan int)
	if err := p.PublishUpdate(context.Background(), "act-1", event); err == nil {
		t.Error("expected error for unmarshalable update event")
	}
	if err := p.PublishFinal(context.Background(), "act-1", event); err == nil {
		t.Error("expected error for unmarshalable final event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{
		writerUpdate: nil,
		writerFinal:  nil,
	}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
