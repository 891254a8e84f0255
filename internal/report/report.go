// Package report assembles the immutable analysis report and persists its
// JSON and PDF renderings.
package report

import (
	"encoding/json"

	"github.com/edusense/edusense/internal/insights"
	"github.com/edusense/edusense/internal/metrics"
)

// Report is the immutable snapshot produced by one successful analysis run.
// A re-run overwrites the prior report for the session; there is no version
// history.
type Report struct {
	SessionID         int64              `json:"session_id"`
	Metrics           metrics.Metrics    `json:"metrics"`
	Scores            Scores             `json:"scores"`
	Topics            []string           `json:"topics"`
	TopicExplanations insights.Bilingual `json:"topic_explanations"`
	Summary           insights.Bilingual `json:"summary"`
}

type Scores struct {
	InteractivityScore float64 `json:"interactivity_score"`
}

// New joins the mandatory metrics/score section with the optional insights
// section. A nil enrichment produces a degraded but complete report with
// empty topics and summaries.
func New(sessionID int64, m metrics.Metrics, interactivity float64, enrichment *insights.Insights) Report {
	r := Report{
		SessionID: sessionID,
		Metrics:   m,
		Scores:    Scores{InteractivityScore: interactivity},
		Topics:    []string{},
	}

	if enrichment != nil {
		if len(enrichment.Topics) > 0 {
			r.Topics = enrichment.Topics
		}
		r.TopicExplanations = enrichment.TopicExplanations
		r.Summary = enrichment.Summary
	}

	return r
}

// Encode serializes the report for the persisted artifact. Output is
// deterministic: fixed key order from the struct and two-space indentation,
// so identical runs produce byte-identical artifacts.
func (r Report) Encode() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
