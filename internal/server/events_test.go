package server

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventSerialization(t *testing.T) {
	events := []any{
		AnalysisStartedEvent{Event: newEvent("analysis_started", time.Unix(1, 0)), SessionID: 1, RunID: "r1"},
		StageChangedEvent{Event: newEvent("stage_changed", time.Unix(1, 0)), SessionID: 1, RunID: "r1", Stage: "transcribing"},
		AnalysisCompleteEvent{Event: newEvent("analysis_complete", time.Unix(1, 0)), SessionID: 1, RunID: "r1", InteractivityScore: 27.5, Degraded: true},
		AnalysisFailedEvent{Event: newEvent("analysis_failed", time.Unix(1, 0)), SessionID: 1, RunID: "r1", Reason: "boom"},
		ConnectionEvent{Event: newEvent("connection", time.Unix(1, 0)), Connected: true},
	}

	for _, event := range events {
		b, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var payload map[string]any
		if err := json.Unmarshal(b, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if payload["type"] == nil {
			t.Fatalf("missing type in payload: %s", string(b))
		}
		if payload["version"] == nil {
			t.Fatalf("missing version in payload: %s", string(b))
		}
		if payload["timestamp"] == nil {
			t.Fatalf("missing timestamp in payload: %s", string(b))
		}
	}
}

func TestHubBroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	hub.BroadcastStageChanged(7, "r1", "classifying")

	select {
	case msg := <-ch:
		var payload StageChangedEvent
		if err := json.Unmarshal(msg, &payload); err != nil {
			t.Fatalf("unmarshal broadcast failed: %v", err)
		}
		if payload.Type != "stage_changed" || payload.SessionID != 7 || payload.Stage != "classifying" {
			t.Fatalf("unexpected payload %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected broadcast on subscriber channel")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// Fill the buffer past capacity; Broadcast must drop, not block.
	for i := 0; i < 200; i++ {
		hub.BroadcastAnalysisStarted(1, "r1")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
}
