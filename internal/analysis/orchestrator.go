// Package analysis drives the full pipeline for one session: load, transcribe,
// classify, aggregate, then score and summarize in parallel, and finally build
// the report. The orchestrator owns the per-session state machine and the
// at-most-one-run-per-session guarantee.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/edusense/edusense/internal/audio"
	"github.com/edusense/edusense/internal/classify"
	"github.com/edusense/edusense/internal/insights"
	"github.com/edusense/edusense/internal/metrics"
	"github.com/edusense/edusense/internal/report"
	"github.com/edusense/edusense/internal/score"
	"github.com/edusense/edusense/internal/storage"
	"github.com/edusense/edusense/internal/transcribe"
)

type Store interface {
	GetSession(id int64) (storage.Session, error)
	UpdateStatus(id int64, status string) error
	SaveAnalysis(id int64, m metrics.Metrics, interactivity float64, jsonURL, pdfURL string) error
	ReplaceUtterances(id int64, utterances []transcribe.Utterance) error
}

type Loader interface {
	Load(ctx context.Context, path string) (audio.Clip, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip) ([]transcribe.Utterance, error)
}

type Extractor interface {
	Extract(ctx context.Context, transcript string) (insights.Insights, error)
}

type EventBroadcaster interface {
	BroadcastAnalysisStarted(sessionID int64, runID string)
	BroadcastStageChanged(sessionID int64, runID string, stage Status)
	BroadcastAnalysisComplete(sessionID int64, runID string, interactivity float64, degraded bool)
	BroadcastAnalysisFailed(sessionID int64, runID string, reason string)
}

// Config bounds the externally-bound calls and carries scoring policy. Each
// external capability gets an independent timeout; exceeding it maps to that
// capability's failure kind.
type Config struct {
	DecodeTimeout     time.Duration
	TranscribeTimeout time.Duration
	SummarizeTimeout  time.Duration
	WastedPenalty     float64
}

func DefaultConfig() Config {
	return Config{
		DecodeTimeout:     2 * time.Minute,
		TranscribeTimeout: 5 * time.Minute,
		SummarizeTimeout:  2 * time.Minute,
		WastedPenalty:     score.DefaultWastedPenalty,
	}
}

// Result is the outcome of one successful run. Degraded marks a report whose
// optional insights section is empty because summarization failed.
type Result struct {
	RunID     string
	Report    report.Report
	Artifacts report.Artifacts
	Degraded  bool
}

type Orchestrator struct {
	store       Store
	loader      Loader
	transcriber Transcriber
	classifier  *classify.Classifier
	scorer      score.Scorer
	extractor   Extractor
	builder     *report.Builder
	hub         EventBroadcaster
	cfg         Config
	sleep       func(time.Duration)

	mu       sync.Mutex
	inflight map[int64]context.CancelFunc
}

func NewOrchestrator(
	store Store,
	loader Loader,
	transcriber Transcriber,
	extractor Extractor,
	builder *report.Builder,
	hub EventBroadcaster,
	cfg Config,
) *Orchestrator {
	if cfg.DecodeTimeout <= 0 {
		cfg.DecodeTimeout = DefaultConfig().DecodeTimeout
	}
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = DefaultConfig().TranscribeTimeout
	}
	if cfg.SummarizeTimeout <= 0 {
		cfg.SummarizeTimeout = DefaultConfig().SummarizeTimeout
	}
	if cfg.WastedPenalty <= 0 {
		cfg.WastedPenalty = score.DefaultWastedPenalty
	}

	return &Orchestrator{
		store:       store,
		loader:      loader,
		transcriber: transcriber,
		classifier:  classify.New(),
		scorer:      score.Scorer{WastedPenalty: cfg.WastedPenalty},
		extractor:   extractor,
		builder:     builder,
		hub:         hub,
		cfg:         cfg,
		sleep:       time.Sleep,
		inflight:    make(map[int64]context.CancelFunc),
	}
}

// Analyze runs the whole pipeline for sessionID. It returns ErrInProgress if
// a run for the same session is already in flight. On failure the session's
// stored status reverts to its pre-analysis value so a retry stays possible,
// and any prior report is left untouched.
func (o *Orchestrator) Analyze(ctx context.Context, sessionID int64) (Result, error) {
	sess, err := o.store.GetSession(sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("load session %d: %w", sessionID, err)
	}

	runCtx, release, err := o.acquire(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	runID := ulid.Make().String()
	prevStatus := sess.Status
	logger := slog.With("session_id", sessionID, "run_id", runID)

	if o.hub != nil {
		o.hub.BroadcastAnalysisStarted(sessionID, runID)
	}

	fail := func(stage Status, err error) (Result, error) {
		logger.Error("analysis failed", "stage", string(stage), "error", err)
		if restoreErr := o.store.UpdateStatus(sessionID, prevStatus); restoreErr != nil {
			logger.Warn("restore session status failed", "error", restoreErr)
		}
		if o.hub != nil {
			o.hub.BroadcastAnalysisFailed(sessionID, runID, err.Error())
		}
		return Result{}, err
	}

	// Stage 1: decode and normalize.
	if err := o.setStage(sessionID, runID, StatusLoading); err != nil {
		return fail(StatusLoading, err)
	}
	clip, err := o.loadClip(runCtx, sess.AudioPath)
	if err != nil {
		return fail(StatusLoading, err)
	}
	logger.Info("audio loaded", "duration_sec", clip.Duration, "lead_silence_sec", clip.LeadSilence)

	// Stage 2: transcription, the primary transient failure point.
	if err := o.setStage(sessionID, runID, StatusTranscribing); err != nil {
		return fail(StatusTranscribing, err)
	}
	utterances, err := o.transcribeWithRetry(runCtx, clip)
	if err != nil {
		return fail(StatusTranscribing, err)
	}
	if err := o.store.ReplaceUtterances(sessionID, utterances); err != nil {
		return fail(StatusTranscribing, err)
	}
	logger.Info("transcription done", "utterances", len(utterances))

	// Stage 3: classification into the four categories.
	if err := o.setStage(sessionID, runID, StatusClassifying); err != nil {
		return fail(StatusClassifying, err)
	}
	segments := o.classifier.Classify(utterances, clip.Duration)

	m, err := metrics.Aggregate(segments, clip.Duration)
	if err != nil {
		// MetricsInconsistent is a classifier defect: fatal, never retried.
		return fail(StatusClassifying, err)
	}

	// Stage 4: scoring and summarization run as independent branches over
	// the immutable transcript and metrics.
	if err := o.setStage(sessionID, runID, StatusScoring); err != nil {
		return fail(StatusScoring, err)
	}

	var (
		interactivity = o.scorer.Score(m)
		enrichment    *insights.Insights
		degraded      bool
	)

	g, branchCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		summarizeCtx, cancel := context.WithTimeout(branchCtx, o.cfg.SummarizeTimeout)
		defer cancel()

		result, err := o.extractor.Extract(summarizeCtx, transcribe.FullText(utterances))
		if err != nil {
			if errors.Is(err, insights.ErrUnavailable) && runCtx.Err() == nil {
				logger.Warn("summarization degraded", "error", err)
				degraded = true
				return nil
			}
			return err
		}
		enrichment = &result
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail(StatusScoring, err)
	}

	// Stage 5: assemble and persist the report.
	if err := o.setStage(sessionID, runID, StatusBuilding); err != nil {
		return fail(StatusBuilding, err)
	}

	rep := report.New(sessionID, m, interactivity, enrichment)
	artifacts, err := o.builder.Persist(rep)
	if err != nil {
		return fail(StatusBuilding, err)
	}

	if err := o.store.SaveAnalysis(sessionID, m, interactivity, artifacts.JSONURL, artifacts.PDFURL); err != nil {
		return fail(StatusBuilding, err)
	}
	if err := o.store.UpdateStatus(sessionID, string(StatusComplete)); err != nil {
		return fail(StatusBuilding, err)
	}

	if o.hub != nil {
		o.hub.BroadcastAnalysisComplete(sessionID, runID, interactivity, degraded)
	}
	logger.Info("analysis complete", "interactivity_score", interactivity, "degraded", degraded)

	return Result{RunID: runID, Report: rep, Artifacts: artifacts, Degraded: degraded}, nil
}

// Cancel signals cooperative cancellation to an in-flight run for the
// session, if any. In-flight external calls are not force-killed; their
// results are discarded when they return.
func (o *Orchestrator) Cancel(sessionID int64) {
	o.mu.Lock()
	cancel, ok := o.inflight[sessionID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

// acquire takes the per-session run lease. The lease is released on every
// exit path through the returned release func.
func (o *Orchestrator) acquire(ctx context.Context, sessionID int64) (context.Context, func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.inflight[sessionID]; ok {
		return nil, nil, fmt.Errorf("session %d: %w", sessionID, ErrInProgress)
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.inflight[sessionID] = cancel

	release := func() {
		o.mu.Lock()
		delete(o.inflight, sessionID)
		o.mu.Unlock()
		cancel()
	}
	return runCtx, release, nil
}

func (o *Orchestrator) setStage(sessionID int64, runID string, stage Status) error {
	if err := o.store.UpdateStatus(sessionID, string(stage)); err != nil {
		return fmt.Errorf("set stage %s: %w", stage, err)
	}
	if o.hub != nil {
		o.hub.BroadcastStageChanged(sessionID, runID, stage)
	}
	return nil
}

func (o *Orchestrator) loadClip(ctx context.Context, path string) (audio.Clip, error) {
	decodeCtx, cancel := context.WithTimeout(ctx, o.cfg.DecodeTimeout)
	defer cancel()
	return o.loader.Load(decodeCtx, path)
}

// transcribeWithRetry retries transient transcription failures with bounded
// backoff. Anything else, including cancellation, fails immediately.
func (o *Orchestrator) transcribeWithRetry(ctx context.Context, clip audio.Clip) ([]transcribe.Utterance, error) {
	backoff := []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second}

	var lastErr error
	for attempt := range backoff {
		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.TranscribeTimeout)
		utterances, err := o.transcriber.Transcribe(attemptCtx, clip)
		cancel()

		if err == nil {
			return utterances, nil
		}

		lastErr = err
		if !errors.Is(err, transcribe.ErrUnavailable) || ctx.Err() != nil {
			break
		}
		if attempt < len(backoff)-1 {
			o.sleep(backoff[attempt])
		}
	}

	return nil, lastErr
}
