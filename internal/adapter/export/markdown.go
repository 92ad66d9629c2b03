package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/V4T54L/logmon/internal/domain"
)

// MarkdownEncoder writes a human-readable report: a session table followed by
// the event list.
type MarkdownEncoder struct{}

func (e *MarkdownEncoder) Encode(artifact domain.Artifact, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# Log export %s\n\n", artifact.ExportTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "**Total logs:** %d  \n", artifact.TotalLogs)
	fmt.Fprintf(bw, "**Sessions:** %d\n\n", len(artifact.Sessions))

	if len(artifact.Sessions) > 0 {
		fmt.Fprintf(bw, "## Sessions\n\n")
		fmt.Fprintf(bw, "| Session | Status | Logs | Started | Question |\n")
		fmt.Fprintf(bw, "|---|---|---|---|---|\n")
		for _, s := range artifact.Sessions {
			fmt.Fprintf(bw, "| %s | %s | %d | %s | %s |\n",
				escapeCell(s.SessionID), s.Status, s.LogCount,
				s.StartTime.UTC().Format(time.RFC3339), escapeCell(s.Question))
		}
		fmt.Fprintf(bw, "\n")
	}

	fmt.Fprintf(bw, "## Logs\n\n")
	for _, event := range artifact.Logs {
		fmt.Fprintf(bw, "- `%s` **%s** [%s] %s",
			event.Timestamp.UTC().Format(time.RFC3339), event.Level, event.Module, event.Message)
		if event.Details != "" {
			fmt.Fprintf(bw, " (%s)", event.Details)
		}
		fmt.Fprintf(bw, " _session %s_\n", event.SessionID)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write markdown export: %w", err)
	}
	return nil
}

// escapeCell keeps table cells on one line and stops pipes from splitting them.
func escapeCell(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "|", "\\|")
}

func (e *MarkdownEncoder) Extension() string   { return "md" }
func (e *MarkdownEncoder) ContentType() string { return "text/markdown; charset=utf-8" }
