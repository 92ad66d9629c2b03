package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/V4T54L/logmon/internal/domain"
)

// ErrUnsupportedFormat is returned by NewEncoder for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Encoder serializes an export artifact in one format.
type Encoder interface {
	Encode(artifact domain.Artifact, w io.Writer) error
	Extension() string
	ContentType() string
}

// Formats lists the accepted format names.
var Formats = []string{"json", "jsonl", "yaml", "md"}

// NewEncoder creates an encoder based on format. An empty format means json.
func NewEncoder(format string) (Encoder, error) {
	switch format {
	case "", "json":
		return &JSONEncoder{}, nil
	case "jsonl", "ndjson":
		return &JSONLEncoder{}, nil
	case "yaml", "yml":
		return &YAMLEncoder{}, nil
	case "md", "markdown":
		return &MarkdownEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: json, jsonl, yaml, md)", ErrUnsupportedFormat, format)
	}
}
