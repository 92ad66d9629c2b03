package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/V4T54L/logmon/internal/domain"
)

// JSONEncoder writes the artifact as one indented JSON document.
type JSONEncoder struct{}

func (e *JSONEncoder) Encode(artifact domain.Artifact, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		return fmt.Errorf("failed to encode json export: %w", err)
	}
	return nil
}

func (e *JSONEncoder) Extension() string   { return "json" }
func (e *JSONEncoder) ContentType() string { return "application/json" }

// JSONLEncoder writes a header line with the export summary followed by one
// event per line.
type JSONLEncoder struct{}

type jsonlHeader struct {
	ExportTime time.Time        `json:"exportTime"`
	TotalLogs  int              `json:"totalLogs"`
	Sessions   []domain.Session `json:"sessions"`
}

func (e *JSONLEncoder) Encode(artifact domain.Artifact, w io.Writer) error {
	enc := json.NewEncoder(w)
	header := jsonlHeader{
		ExportTime: artifact.ExportTime,
		TotalLogs:  artifact.TotalLogs,
		Sessions:   artifact.Sessions,
	}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("failed to encode jsonl header: %w", err)
	}
	for _, event := range artifact.Logs {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
		}
	}
	return nil
}

func (e *JSONLEncoder) Extension() string   { return "jsonl" }
func (e *JSONLEncoder) ContentType() string { return "application/x-ndjson" }
