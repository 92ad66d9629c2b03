package usecase

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/V4T54L/logmon/internal/adapter/export"
	"github.com/V4T54L/logmon/internal/adapter/metrics"
	"github.com/V4T54L/logmon/internal/adapter/pii"
	"github.com/V4T54L/logmon/internal/domain"
)

const filePerm = 0644

// ExportService serializes a filtered event list plus the session map into a
// single downloadable artifact.
type ExportService struct {
	redactor *pii.Redactor
	logger   *slog.Logger
	metrics  *metrics.MonitorMetrics
	now      func() time.Time
}

// NewExportService creates a new ExportService. redactor and m may be nil.
func NewExportService(redactor *pii.Redactor, logger *slog.Logger, m *metrics.MonitorMetrics) *ExportService {
	return &ExportService{
		redactor: redactor,
		logger:   logger.With("component", "export_service"),
		metrics:  m,
		now:      time.Now,
	}
}

// FileName builds "<prefix>-<YYYY-MM-DD>.<ext>" for the given export time.
func FileName(prefix string, at time.Time, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, at.Format("2006-01-02"), ext)
}

// Build assembles the artifact. Neither input slice is modified.
func (s *ExportService) Build(logs []domain.LogEvent, sessions []domain.Session) domain.Artifact {
	out := make([]domain.LogEvent, len(logs))
	copy(out, logs)
	if s.redactor.Enabled() {
		out = s.redactor.RedactAll(out)
	}

	sess := make([]domain.Session, len(sessions))
	copy(sess, sessions)

	return domain.Artifact{
		ExportTime: s.now().UTC(),
		TotalLogs:  len(out),
		Sessions:   sess,
		Logs:       out,
	}
}

// Export encodes the artifact in format and writes it to w. Nothing is
// written to w if encoding fails.
func (s *ExportService) Export(w io.Writer, format string, logs []domain.LogEvent, sessions []domain.Session) error {
	enc, err := export.NewEncoder(format)
	if err != nil {
		return err
	}

	data, err := s.encode(enc, s.Build(logs, sessions))
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		s.record(enc, "error")
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteFile writes the artifact into dir under FileName(prefix, ...) and
// returns the resulting path. The file is written to a temporary name first
// and renamed, so a failed export never leaves a truncated file behind.
func (s *ExportService) WriteFile(dir, prefix, format string, logs []domain.LogEvent, sessions []domain.Session) (string, error) {
	enc, err := export.NewEncoder(format)
	if err != nil {
		return "", err
	}

	artifact := s.Build(logs, sessions)
	data, err := s.encode(enc, artifact)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(prefix, artifact.ExportTime, enc.Extension()))

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return "", fmt.Errorf("failed to set export file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move export file into place: %w", err)
	}

	s.logger.Info("wrote export", "path", path, "format", enc.Extension(), "logs", artifact.TotalLogs)
	return path, nil
}

func (s *ExportService) encode(enc export.Encoder, artifact domain.Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := enc.Encode(artifact, &buf); err != nil {
		s.logger.Error("export serialization failed", "format", enc.Extension(), "error", err)
		s.record(enc, "error")
		return nil, err
	}
	s.record(enc, "ok")
	return buf.Bytes(), nil
}

func (s *ExportService) record(enc export.Encoder, result string) {
	if s.metrics != nil {
		s.metrics.ExportsTotal.WithLabelValues(enc.Extension(), result).Inc()
	}
}
