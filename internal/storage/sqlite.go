// Package storage persists sessions, their analysis results, and the
// transcript utterances behind them in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/edusense/edusense/internal/metrics"
	"github.com/edusense/edusense/internal/transcribe"
)

// Session is one uploaded recording and, after analysis, its results. The
// metric fields are nil until the first successful analysis.
type Session struct {
	ID        int64     `json:"id"`
	AudioPath string    `json:"audio_path"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	DurationSec        *float64 `json:"duration_sec,omitempty"`
	InteractivityScore *float64 `json:"interactivity_score,omitempty"`
	TeachingSec        *float64 `json:"teaching_sec,omitempty"`
	InteractiveSec     *float64 `json:"interactive_sec,omitempty"`
	QnASec             *float64 `json:"qna_sec,omitempty"`
	TimeWastedSec      *float64 `json:"time_wasted_sec,omitempty"`

	ReportJSONURL string `json:"report_json_url,omitempty"`
	ReportPDFURL  string `json:"report_pdf_url,omitempty"`
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = filepath.Join("data", "edusense.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			audio_path TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL,
			duration_sec REAL,
			interactivity_score REAL,
			teaching_sec REAL,
			interactive_sec REAL,
			qna_sec REAL,
			time_wasted_sec REAL,
			report_json_url TEXT NOT NULL DEFAULT '',
			report_pdf_url TEXT NOT NULL DEFAULT ''
		);
	`); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS utterances (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			turn INTEGER NOT NULL,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			text TEXT NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);
	`); err != nil {
		return fmt.Errorf("create utterances table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_utterances_session_id ON utterances(session_id, start_time)"); err != nil {
		return fmt.Errorf("create utterances index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(audioPath string) (int64, error) {
	if strings.TrimSpace(audioPath) == "" {
		return 0, fmt.Errorf("audio path is required")
	}

	res, err := s.db.Exec(
		`INSERT INTO sessions(audio_path, status, created_at) VALUES(?, 'pending', ?)`,
		audioPath,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create session id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetSession(id int64) (Session, error) {
	row := s.db.QueryRow(sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (s *SQLiteStore) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(sessionColumns + ` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]Session, 0, 16)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions rows: %w", err)
	}

	return sessions, nil
}

func (s *SQLiteStore) UpdateStatus(id int64, status string) error {
	res, err := s.db.Exec(`UPDATE sessions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update status for session %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSession removes a session and, via the foreign key cascade, its
// utterances.
func (s *SQLiteStore) DeleteSession(id int64) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveAnalysis records a completed run: metrics, score, and report locations
// in one update. A later run overwrites all of it.
func (s *SQLiteStore) SaveAnalysis(id int64, m metrics.Metrics, interactivity float64, jsonURL, pdfURL string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET
			duration_sec = ?, interactivity_score = ?, teaching_sec = ?,
			interactive_sec = ?, qna_sec = ?, time_wasted_sec = ?,
			report_json_url = ?, report_pdf_url = ?
		 WHERE id = ?`,
		m.DurationSec,
		interactivity,
		m.TeachingSec,
		m.InteractiveSec,
		m.QnASec,
		m.TimeWastedSec,
		jsonURL,
		pdfURL,
		id,
	)
	if err != nil {
		return fmt.Errorf("save analysis for session %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save analysis rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReplaceUtterances swaps the stored transcript for a session atomically.
func (s *SQLiteStore) ReplaceUtterances(sessionID int64, utterances []transcribe.Utterance) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin utterance replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM utterances WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear utterances for session %d: %w", sessionID, err)
	}

	for _, u := range utterances {
		if _, err := tx.Exec(
			`INSERT INTO utterances(session_id, turn, start_time, end_time, text) VALUES(?, ?, ?, ?, ?)`,
			sessionID,
			u.Turn,
			u.Start,
			u.End,
			strings.TrimSpace(u.Text),
		); err != nil {
			return fmt.Errorf("insert utterance for session %d: %w", sessionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit utterance replace: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUtterances(sessionID int64) ([]transcribe.Utterance, error) {
	rows, err := s.db.Query(
		`SELECT turn, start_time, end_time, text
		 FROM utterances
		 WHERE session_id = ?
		 ORDER BY start_time ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query utterances for session %d: %w", sessionID, err)
	}
	defer func() { _ = rows.Close() }()

	utterances := make([]transcribe.Utterance, 0, 32)
	for rows.Next() {
		var u transcribe.Utterance
		if err := rows.Scan(&u.Turn, &u.Start, &u.End, &u.Text); err != nil {
			return nil, fmt.Errorf("scan utterance for session %d: %w", sessionID, err)
		}
		utterances = append(utterances, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate utterance rows for session %d: %w", sessionID, err)
	}

	return utterances, nil
}

const sessionColumns = `SELECT id, audio_path, status, created_at,
	duration_sec, interactivity_score, teaching_sec, interactive_sec,
	qna_sec, time_wasted_sec, report_json_url, report_pdf_url`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var createdAt string
	var duration, scoreVal, teaching, interactive, qna, wasted sql.NullFloat64

	if err := row.Scan(
		&sess.ID, &sess.AudioPath, &sess.Status, &createdAt,
		&duration, &scoreVal, &teaching, &interactive,
		&qna, &wasted, &sess.ReportJSONURL, &sess.ReportPDFURL,
	); err != nil {
		return Session{}, fmt.Errorf("scan session: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Session{}, fmt.Errorf("parse session %d created_at: %w", sess.ID, err)
	}
	sess.CreatedAt = parsed

	sess.DurationSec = nullableFloat(duration)
	sess.InteractivityScore = nullableFloat(scoreVal)
	sess.TeachingSec = nullableFloat(teaching)
	sess.InteractiveSec = nullableFloat(interactive)
	sess.QnASec = nullableFloat(qna)
	sess.TimeWastedSec = nullableFloat(wasted)

	return sess, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
