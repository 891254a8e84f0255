package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/edusense/edusense/internal/insights"
	"github.com/edusense/edusense/internal/metrics"
)

func sampleMetrics() metrics.Metrics {
	return metrics.Metrics{
		DurationSec:    900,
		TeachingSec:    600,
		QnASec:         100,
		InteractiveSec: 150,
		TimeWastedSec:  50,
	}
}

func sampleInsights() *insights.Insights {
	return &insights.Insights{
		Topics: []string{"Photosynthesis", "Chlorophyll"},
		TopicExplanations: insights.Bilingual{
			English: "How plants make food.",
			Roman:   "Poday khana kaise banate hain.",
		},
		Summary: insights.Bilingual{
			English: "A biology lesson.",
			Roman:   "Biology ka sabaq.",
		},
	}
}

func TestNewFullReport(t *testing.T) {
	r := New(7, sampleMetrics(), 27.5, sampleInsights())

	if r.SessionID != 7 {
		t.Fatalf("expected session id 7, got %d", r.SessionID)
	}
	if r.Scores.InteractivityScore != 27.5 {
		t.Fatalf("expected score 27.5, got %v", r.Scores.InteractivityScore)
	}
	if len(r.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %v", r.Topics)
	}
}

func TestNewDegradedReport(t *testing.T) {
	r := New(7, sampleMetrics(), 27.5, nil)

	if r.Topics == nil || len(r.Topics) != 0 {
		t.Fatalf("expected empty non-nil topics, got %v", r.Topics)
	}
	if r.Summary.English != "" || r.Summary.Roman != "" {
		t.Fatalf("expected empty summary, got %+v", r.Summary)
	}
	if r.Metrics != sampleMetrics() {
		t.Fatalf("expected metrics preserved in degraded report, got %+v", r.Metrics)
	}
}

func TestEncodeShape(t *testing.T) {
	payload, err := New(7, sampleMetrics(), 27.5, sampleInsights()).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode report failed: %v", err)
	}

	for _, key := range []string{"session_id", "metrics", "scores", "topics", "topic_explanations", "summary"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("expected top-level key %q in %s", key, payload)
		}
	}

	var m map[string]float64
	if err := json.Unmarshal(decoded["metrics"], &m); err != nil {
		t.Fatalf("decode metrics failed: %v", err)
	}
	for _, key := range []string{"duration_sec", "teaching_sec", "qna_sec", "interactive_sec", "time_wasted_sec"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("expected metrics key %q", key)
		}
	}

	var s map[string]float64
	if err := json.Unmarshal(decoded["scores"], &s); err != nil {
		t.Fatalf("decode scores failed: %v", err)
	}
	if s["interactivity_score"] != 27.5 {
		t.Fatalf("expected interactivity_score 27.5, got %v", s["interactivity_score"])
	}
}

func TestEncodeDegradedHasEmptyNotNull(t *testing.T) {
	payload, err := New(7, sampleMetrics(), 0, nil).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	body := string(payload)
	if !strings.Contains(body, `"topics": []`) {
		t.Fatalf("expected empty topics array, got %s", body)
	}
	if strings.Contains(body, "null") {
		t.Fatalf("expected no null fields in degraded report, got %s", body)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := New(7, sampleMetrics(), 27.5, sampleInsights()).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b, err := New(7, sampleMetrics(), 27.5, sampleInsights()).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("expected byte-identical encodings for identical reports")
	}
}
