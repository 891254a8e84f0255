package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/edusense/edusense/internal/analysis"
	"github.com/edusense/edusense/internal/audio"
	"github.com/edusense/edusense/internal/storage"
	"github.com/edusense/edusense/internal/transcribe"
)

const maxUploadBytes = 512 << 20

var uploadNamePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type SessionStore interface {
	CreateSession(audioPath string) (int64, error)
	GetSession(id int64) (storage.Session, error)
	ListSessions() ([]storage.Session, error)
	GetUtterances(sessionID int64) ([]transcribe.Utterance, error)
	DeleteSession(id int64) error
}

type Analyzer interface {
	Analyze(ctx context.Context, sessionID int64) (analysis.Result, error)
	Cancel(sessionID int64)
}

type APIConfig struct {
	UploadsDir string
	ReportsDir string
}

func registerAPIRoutes(mux *http.ServeMux, store SessionStore, analyzer Analyzer, cfg APIConfig) {
	mux.HandleFunc("POST /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %v", err))
			return
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "missing audio file field")
			return
		}
		defer func() { _ = file.Close() }()

		audioPath, err := saveUpload(cfg.UploadsDir, header.Filename, file)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("save upload: %v", err))
			return
		}

		id, err := store.CreateSession(audioPath)
		if err != nil {
			_ = os.Remove(audioPath)
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("create session: %v", err))
			return
		}

		sess, err := store.GetSession(id)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get session: %v", err))
			return
		}

		writeJSON(w, http.StatusCreated, sess)
	})

	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.ListSessions()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list sessions: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	})

	mux.HandleFunc("GET /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}

		sess, err := store.GetSession(id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, sql.ErrNoRows) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("get session: %v", err))
			return
		}

		utterances, err := store.GetUtterances(id)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get session transcript: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"session":    sess,
			"utterances": utterances,
		})
	})

	mux.HandleFunc("POST /api/sessions/{id}/analyze", func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}

		result, err := analyzer.Analyze(r.Context(), id)
		if err != nil {
			writeJSONError(w, statusForAnalysisError(err), fmt.Sprintf("analyze session: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":              result.RunID,
			"report_json_url":     result.Artifacts.JSONURL,
			"report_pdf_url":      result.Artifacts.PDFURL,
			"interactivity_score": result.Report.Scores.InteractivityScore,
			"degraded":            result.Degraded,
		})
	})

	mux.HandleFunc("GET /api/sessions/{id}/report", func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}

		sess, err := store.GetSession(id)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		if sess.ReportJSONURL == "" {
			writeJSONError(w, http.StatusNotFound, "report not available")
			return
		}

		reportPath := filepath.Join(cfg.ReportsDir, fmt.Sprintf("session_%d.json", id))
		f, err := os.Open(reportPath)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "report file not found")
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("stat report: %v", err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		http.ServeContent(w, r, filepath.Base(reportPath), info.ModTime(), f)
	})

	mux.HandleFunc("DELETE /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}

		analyzer.Cancel(id)

		if err := store.DeleteSession(id); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, sql.ErrNoRows) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("delete session: %v", err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

// statusForAnalysisError maps each pipeline failure kind onto the HTTP status
// the caller can act on: rejections are 409, bad input is 4xx, upstream
// transcription outages are 502, everything else is a server fault.
func statusForAnalysisError(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInProgress):
		return http.StatusConflict
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, audio.ErrCorruptAudio):
		return http.StatusUnprocessableEntity
	case errors.Is(err, transcribe.ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid session id")
		return 0, false
	}
	return id, true
}

func saveUpload(dir, filename string, src io.Reader) (string, error) {
	if dir == "" {
		dir = filepath.Join("data", "uploads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads directory: %w", err)
	}

	base := uploadNamePattern.ReplaceAllString(filepath.Base(filename), "_")
	if base == "" || base == "." {
		base = "upload.wav"
	}
	name := fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102T150405"), base)
	dst := filepath.Join(dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, src); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return dst, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
