package server

import "time"

const EventVersion = 1

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type AnalysisStartedEvent struct {
	Event
	SessionID int64  `json:"session_id"`
	RunID     string `json:"run_id"`
}

type StageChangedEvent struct {
	Event
	SessionID int64  `json:"session_id"`
	RunID     string `json:"run_id"`
	Stage     string `json:"stage"`
}

type AnalysisCompleteEvent struct {
	Event
	SessionID          int64   `json:"session_id"`
	RunID              string  `json:"run_id"`
	InteractivityScore float64 `json:"interactivity_score"`
	Degraded           bool    `json:"degraded"`
}

type AnalysisFailedEvent struct {
	Event
	SessionID int64  `json:"session_id"`
	RunID     string `json:"run_id"`
	Reason    string `json:"reason"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
