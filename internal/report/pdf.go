package report

import (
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecRenderer renders the PDF by shelling out to an HTML-to-PDF converter,
// trying wkhtmltopdf first and weasyprint as fallback.
type ExecRenderer struct {
	run func(name string, args ...string) error
}

func NewExecRenderer() *ExecRenderer {
	return &ExecRenderer{run: func(name string, args ...string) error {
		return exec.Command(name, args...).Run()
	}}
}

func (r *ExecRenderer) RenderPDF(rep Report, path string) error {
	htmlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	if err := os.WriteFile(htmlPath, []byte(renderHTML(rep)), 0o644); err != nil {
		return fmt.Errorf("write report html: %w", err)
	}
	defer func() { _ = os.Remove(htmlPath) }()

	if err := r.run("wkhtmltopdf", "--quiet", htmlPath, path); err == nil {
		return nil
	}
	if err := r.run("weasyprint", htmlPath, path); err == nil {
		return nil
	}

	return fmt.Errorf("no usable pdf converter (tried wkhtmltopdf, weasyprint)")
}

func renderHTML(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<html><head><title>Session %d Report</title></head><body>", r.SessionID)
	fmt.Fprintf(&b, "<h1>Session %d</h1>", r.SessionID)
	fmt.Fprintf(&b, "<h2>Interactivity score: %.2f</h2>", r.Scores.InteractivityScore)

	b.WriteString("<table border=\"1\" cellpadding=\"4\">")
	rows := [][2]string{
		{"Duration", formatSeconds(r.Metrics.DurationSec)},
		{"Teaching", formatSeconds(r.Metrics.TeachingSec)},
		{"Q&amp;A", formatSeconds(r.Metrics.QnASec)},
		{"Interactive", formatSeconds(r.Metrics.InteractiveSec)},
		{"Time wasted", formatSeconds(r.Metrics.TimeWastedSec)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", row[0], row[1])
	}
	b.WriteString("</table>")

	if len(r.Topics) > 0 {
		b.WriteString("<h2>Topics</h2><ol>")
		for _, topic := range r.Topics {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(topic))
		}
		b.WriteString("</ol>")
		if r.TopicExplanations.English != "" {
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(r.TopicExplanations.English))
		}
		if r.TopicExplanations.Roman != "" {
			fmt.Fprintf(&b, "<p><i>%s</i></p>", html.EscapeString(r.TopicExplanations.Roman))
		}
	}

	if r.Summary.English != "" || r.Summary.Roman != "" {
		b.WriteString("<h2>Summary</h2>")
		if r.Summary.English != "" {
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(r.Summary.English))
		}
		if r.Summary.Roman != "" {
			fmt.Fprintf(&b, "<p><i>%s</i></p>", html.EscapeString(r.Summary.Roman))
		}
	}

	b.WriteString("</body></html>")
	return b.String()
}

func formatSeconds(sec float64) string {
	total := int(sec + 0.5)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
