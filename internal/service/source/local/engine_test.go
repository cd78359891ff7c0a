package local

import "testing"

func TestParseFinal(t *testing.T) {
	resultJSON := `{
		"result": [
			{"conf": 0.9, "start": 0.0, "end": 0.4, "word": "my"},
			{"conf": 0.7, "start": 0.4, "end": 0.9, "word": "head"},
			{"conf": 0.8, "start": 0.9, "end": 1.3, "word": "hurts"}
		],
		"text": "my head hurts"
	}`

	res, err := parseFinal(resultJSON)
	if err != nil {
		t.Fatalf("parseFinal: %v", err)
	}
	if res.Text != "my head hurts" {
		t.Errorf("text = %q", res.Text)
	}
	if !res.Final {
		t.Error("parsed result must be final")
	}
	if res.Confidence < 0.79 || res.Confidence > 0.81 {
		t.Errorf("confidence = %v, want mean of word confidences 0.8", res.Confidence)
	}
}

func TestParseFinal_EmptyResult(t *testing.T) {
	res, err := parseFinal(`{"text": ""}`)
	if err != nil {
		t.Fatalf("parseFinal: %v", err)
	}
	if res.Text != "" || res.Confidence != 0 {
		t.Errorf("empty result parsed as %+v", res)
	}
}

func TestParseFinal_TextWithoutWordScores(t *testing.T) {
	res, err := parseFinal(`{"text": "hello world"}`)
	if err != nil {
		t.Fatalf("parseFinal: %v", err)
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence without word scores = %v, want 1.0", res.Confidence)
	}
}

func TestParseFinal_MalformedJSON(t *testing.T) {
	if _, err := parseFinal(`{not json`); err == nil {
		t.Fatal("malformed result did not error")
	}
}
