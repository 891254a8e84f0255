package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edusense/edusense/internal/analysis"
	"github.com/edusense/edusense/internal/audio"
	"github.com/edusense/edusense/internal/config"
	"github.com/edusense/edusense/internal/gdrive"
	"github.com/edusense/edusense/internal/insights"
	"github.com/edusense/edusense/internal/llm"
	"github.com/edusense/edusense/internal/report"
	"github.com/edusense/edusense/internal/server"
	"github.com/edusense/edusense/internal/storage"
	"github.com/edusense/edusense/internal/transcribe"
)

func main() {
	log.Println("edusense: starting")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: load .env failed: %v", err)
	}

	configPath := os.Getenv(config.EnvPrefix + "CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, warnings, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	for _, warning := range warnings {
		log.Printf("warning: %s", warning)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	hub := server.NewHub()
	loader := audio.NewLoader()
	transcriber := transcribe.NewDeepgram(cfg.DeepgramAPIKey, cfg.DeepgramModel, cfg.Language, cfg.TurnGapSec)

	var llmClient llm.Client
	if provider, modelName, parseErr := llm.ParseModel(cfg.LLMModel); parseErr == nil {
		if key := cfg.LLMAPIKey(provider); key != "" {
			llmClient, err = llm.NewClient(provider, key, modelName)
			if err != nil {
				log.Printf("warning: llm client init failed, summaries disabled: %v", err)
			}
		}
	}
	extractor := insights.NewExtractor(llmClient)

	builder := report.NewBuilder(cfg.ReportsDir, "/reports", report.NewExecRenderer())

	orchestrator := analysis.NewOrchestrator(store, loader, transcriber, extractor, builder, hub, analysis.Config{
		DecodeTimeout:     cfg.ParsedDecodeTimeout(),
		TranscribeTimeout: cfg.ParsedTranscribeTimeout(),
		SummarizeTimeout:  cfg.ParsedSummarizeTimeout(),
		WastedPenalty:     cfg.WastedPenalty,
	})

	handler := server.Handler(hub, store, orchestrator, server.APIConfig{
		UploadsDir: cfg.UploadsDir,
		ReportsDir: cfg.ReportsDir,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	go func() {
		log.Printf("edusense: api on http://%s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	if cfg.GDriveFolderID != "" {
		syncer, syncErr := gdrive.NewSyncer(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if syncErr != nil {
			log.Printf("warning: gdrive sync disabled: %v", syncErr)
		} else {
			go syncReports(ctx, syncer, cfg.ReportsDir)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("edusense: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: http shutdown failed: %v", err)
	}
}

// syncReports mirrors every generated report artifact to Drive on a fixed
// interval. SyncReport deduplicates per file name, so re-uploading unchanged
// files only costs one update call each.
func syncReports(ctx context.Context, syncer *gdrive.Syncer, reportsDir string) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, pattern := range []string{"session_*.json", "session_*.pdf"} {
				paths, err := filepath.Glob(filepath.Join(reportsDir, pattern))
				if err != nil {
					continue
				}
				for _, path := range paths {
					if err := syncer.SyncReport(path); err != nil {
						log.Printf("gdrive sync error for %s: %v", filepath.Base(path), err)
					}
				}
			}
		}
	}
}
