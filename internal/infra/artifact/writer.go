package artifact

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/rs/zerolog"
)

const outcomeMeta = "feedharvest-outcome"

// PathFor names the snapshot file for a run, e.g. LatestPosts_target_10.html.
func PathFor(dir string, outcome model.Outcome, highest model.ItemIndex) string {
	if outcome == model.OutcomeEmpty {
		return filepath.Join(dir, "LatestPosts_empty.html")
	}
	return filepath.Join(dir, fmt.Sprintf("LatestPosts_%s_%d.html", outcome, highest))
}

func FullPagePath(dir string, outcome model.Outcome) string {
	return filepath.Join(dir, fmt.Sprintf("FullPage_%s.html", outcome))
}

// Writer 将采集结果写为HTML文件,相同输入总是产生相同的字节
type Writer struct {
	title string
	log   zerolog.Logger
}

func NewWriter(title string, log zerolog.Logger) *Writer {
	return &Writer{
		title: title,
		log:   log.With().Str("component", "artifact").Logger(),
	}
}

// WriteSnapshot writes the first limit containers in discovery order. A
// non-positive limit writes all of them.
func (w *Writer) WriteSnapshot(containers []model.Container, limit int, outcome model.Outcome, path string) error {
	if limit > 0 && len(containers) > limit {
		containers = containers[:limit]
	}
	var body bytes.Buffer
	for _, c := range containers {
		body.WriteString(c.HTML)
		body.WriteByte('\n')
	}
	if err := writeAtomic(path, w.document(outcome, body.Bytes())); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.log.Info().Str("path", path).Int("containers", len(containers)).Msg("snapshot written")
	return nil
}

// WriteEmpty writes the placeholder for a profile without activity.
func (w *Writer) WriteEmpty(path string) error {
	body := []byte("<p class=\"feedharvest-empty\">No recent activity.</p>\n")
	if err := writeAtomic(path, w.document(model.OutcomeEmpty, body)); err != nil {
		return fmt.Errorf("write empty placeholder: %w", err)
	}
	w.log.Info().Str("path", path).Msg("empty placeholder written")
	return nil
}

// WriteFullPage stores the rendered page verbatim.
func (w *Writer) WriteFullPage(page, path string) error {
	if err := writeAtomic(path, []byte(page)); err != nil {
		return fmt.Errorf("write full page: %w", err)
	}
	w.log.Info().Str("path", path).Int("bytes", len(page)).Msg("full page written")
	return nil
}

func (w *Writer) document(outcome model.Outcome, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<meta name=\"%s\" content=\"%s\">\n", outcomeMeta, html.EscapeString(string(outcome)))
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(w.title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".feedharvest-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
