package datasource

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// decodeYAML reads a YAML mapping. An empty document yields no data.
func decodeYAML(r io.Reader) (map[string]any, error) {
	var root map[string]any
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return root, nil
}
