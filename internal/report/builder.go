package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Renderer turns a report into a PDF file. The PDF is a presentation-only
// projection; rendering failures degrade the artifact set, never the run.
type Renderer interface {
	RenderPDF(r Report, path string) error
}

// Artifacts are the storage locations of a persisted report.
type Artifacts struct {
	JSONPath string
	PDFPath  string
	JSONURL  string
	PDFURL   string
}

// Builder persists reports under a reports directory using stable per-session
// filenames, giving re-analysis overwrite semantics.
type Builder struct {
	dir      string
	urlBase  string
	renderer Renderer
}

// NewBuilder writes artifacts into dir and derives public URLs under urlBase
// (e.g. "/reports"). renderer may be nil to skip PDF output entirely.
func NewBuilder(dir, urlBase string, renderer Renderer) *Builder {
	if dir == "" {
		dir = filepath.Join("data", "reports")
	}
	if urlBase == "" {
		urlBase = "/reports"
	}
	return &Builder{dir: dir, urlBase: urlBase, renderer: renderer}
}

// Persist writes the JSON artifact (mandatory) and the PDF (best effort) and
// returns their locations. The JSON write is atomic: a concurrent download
// never sees a partial report.
func (b *Builder) Persist(r Report) (Artifacts, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create reports directory: %w", err)
	}

	name := fmt.Sprintf("session_%d", r.SessionID)
	jsonPath := filepath.Join(b.dir, name+".json")

	payload, err := r.Encode()
	if err != nil {
		return Artifacts{}, fmt.Errorf("encode report: %w", err)
	}

	tmp := jsonPath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return Artifacts{}, fmt.Errorf("write report json: %w", err)
	}
	if err := os.Rename(tmp, jsonPath); err != nil {
		return Artifacts{}, fmt.Errorf("finalize report json: %w", err)
	}

	artifacts := Artifacts{
		JSONPath: jsonPath,
		JSONURL:  b.urlBase + "/" + name + ".json",
	}

	if b.renderer != nil {
		pdfPath := filepath.Join(b.dir, name+".pdf")
		if err := b.renderer.RenderPDF(r, pdfPath); err != nil {
			slog.Warn("report: pdf rendering failed", "session_id", r.SessionID, "error", err)
		} else {
			artifacts.PDFPath = pdfPath
			artifacts.PDFURL = b.urlBase + "/" + name + ".pdf"
		}
	}

	return artifacts, nil
}
