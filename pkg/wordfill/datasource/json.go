package datasource

import (
	"encoding/json"
	"fmt"
	"io"
)

// decodeJSON reads a JSON object. Numbers stay json.Number so integers keep
// their exact value.
func decodeJSON(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return root, nil
}
