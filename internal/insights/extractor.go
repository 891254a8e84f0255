// Package insights derives topics and a bilingual summary from a session
// transcript. It is the optional branch of the analysis: a failure here
// degrades the report, it never fails the run.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/edusense/edusense/internal/llm"
)

// ErrUnavailable is returned when the language model cannot produce insights.
// The report builder substitutes empty fields and records the degradation.
var ErrUnavailable = errors.New("summarization unavailable")

// Insights is the optional enrichment section of a report. Topics are ordered
// most salient first; the paired strings describe the same content in English
// and Roman script. Fields may be empty, never null.
type Insights struct {
	Topics            []string  `json:"topics"`
	TopicExplanations Bilingual `json:"topic_explanations"`
	Summary           Bilingual `json:"summary"`
}

type Bilingual struct {
	English string `json:"english"`
	Roman   string `json:"roman"`
}

const (
	maxTranscriptChars = 16000
	maxTopics          = 8
	maxTopicChars      = 80
	maxProseChars      = 2000
)

const systemPrompt = "You analyze a classroom transcript (Roman Urdu or English). " +
	"1) List 3-6 main topics (short titles only, most important first). " +
	"2) Give two short explanations of the topics: (a) English, (b) Roman Urdu. " +
	"3) Provide a brief class summary in both English and Roman Urdu. " +
	"Return strict JSON with keys: topics[list], topic_explanations{english,roman}, summary{english,roman}. " +
	"Do not add commentary."

// Extractor asks a language model for topics and summaries. The transcript is
// romanized before prompting so Urdu-script input stays token-cheap.
type Extractor struct {
	client llm.Client
	sleep  func(time.Duration)
}

func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{client: client, sleep: time.Sleep}
}

// Extract derives insights from the transcript. An empty transcript returns
// empty insights without calling the model. Model failures after retries are
// reported as ErrUnavailable.
func (e *Extractor) Extract(ctx context.Context, transcript string) (Insights, error) {
	if strings.TrimSpace(transcript) == "" {
		return emptyInsights(), nil
	}
	if e.client == nil {
		return emptyInsights(), fmt.Errorf("%w: no llm client configured", ErrUnavailable)
	}

	text := Romanize(transcript)
	if len(text) > maxTranscriptChars {
		text = clip(text, maxTranscriptChars) + " ..."
	}

	backoff := []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second}
	var lastErr error
	for attempt := range backoff {
		raw, err := e.client.Complete(ctx, llm.Request{System: systemPrompt, User: text})
		if err == nil {
			return parseInsights(raw), nil
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < len(backoff)-1 {
			e.sleep(backoff[attempt])
		}
	}

	return emptyInsights(), fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// parseInsights decodes the model output, tolerating prose around the JSON
// object. Anything unparsable collapses to empty insights rather than an
// error: a degraded section beats a failed run.
func parseInsights(raw string) Insights {
	var decoded struct {
		Topics            []string  `json:"topics"`
		TopicExplanations Bilingual `json:"topic_explanations"`
		Summary           Bilingual `json:"summary"`
	}

	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		// Models wrap JSON in prose or fences often enough to be worth one
		// salvage attempt on the outermost braces.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			slog.Warn("insights: no JSON object in model output")
			return emptyInsights()
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &decoded); err != nil {
			slog.Warn("insights: model output not valid JSON", "error", err)
			return emptyInsights()
		}
	}

	out := Insights{
		Topics:            make([]string, 0, len(decoded.Topics)),
		TopicExplanations: clipBilingual(decoded.TopicExplanations),
		Summary:           clipBilingual(decoded.Summary),
	}

	seen := make(map[string]struct{}, len(decoded.Topics))
	for _, topic := range decoded.Topics {
		topic = clip(strings.TrimSpace(topic), maxTopicChars)
		if topic == "" {
			continue
		}
		key := strings.ToLower(topic)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.Topics = append(out.Topics, topic)
		if len(out.Topics) == maxTopics {
			break
		}
	}

	return out
}

func emptyInsights() Insights {
	return Insights{Topics: []string{}}
}

func clipBilingual(b Bilingual) Bilingual {
	return Bilingual{
		English: clip(strings.TrimSpace(b.English), maxProseChars),
		Roman:   clip(strings.TrimSpace(b.Roman), maxProseChars),
	}
}

// clip truncates s to at most max bytes without splitting a UTF-8 rune.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
