package export

import (
	"fmt"
	"io"

	"github.com/V4T54L/logmon/internal/domain"
	"gopkg.in/yaml.v3"
)

// YAMLEncoder writes the artifact as a YAML document.
type YAMLEncoder struct{}

func (e *YAMLEncoder) Encode(artifact domain.Artifact, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(artifact); err != nil {
		return fmt.Errorf("failed to encode yaml export: %w", err)
	}
	return enc.Close()
}

func (e *YAMLEncoder) Extension() string   { return "yaml" }
func (e *YAMLEncoder) ContentType() string { return "application/yaml" }
