package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/edusense/edusense/internal/analysis"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) BroadcastAnalysisStarted(sessionID int64, runID string) {
	h.broadcastEvent(AnalysisStartedEvent{
		Event:     newEvent("analysis_started", time.Now().UTC()),
		SessionID: sessionID,
		RunID:     runID,
	})
}

func (h *Hub) BroadcastStageChanged(sessionID int64, runID string, stage analysis.Status) {
	h.broadcastEvent(StageChangedEvent{
		Event:     newEvent("stage_changed", time.Now().UTC()),
		SessionID: sessionID,
		RunID:     runID,
		Stage:     string(stage),
	})
}

func (h *Hub) BroadcastAnalysisComplete(sessionID int64, runID string, interactivity float64, degraded bool) {
	h.broadcastEvent(AnalysisCompleteEvent{
		Event:              newEvent("analysis_complete", time.Now().UTC()),
		SessionID:          sessionID,
		RunID:              runID,
		InteractivityScore: interactivity,
		Degraded:           degraded,
	})
}

func (h *Hub) BroadcastAnalysisFailed(sessionID int64, runID string, reason string) {
	h.broadcastEvent(AnalysisFailedEvent{
		Event:     newEvent("analysis_failed", time.Now().UTC()),
		SessionID: sessionID,
		RunID:     runID,
		Reason:    reason,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	h.Broadcast(payload)
}
