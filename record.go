package cardgap

import (
	"bytes"
	"encoding/json"
)

// ModelRecord holds the raw section headers extracted from one model card.
// Its JSON form is a single-key object mapping the model ID to its headers:
//
//	{"org/model": ["## Overview", "## License"]}
type ModelRecord struct {
	ID      string
	Headers []string
}

// Validate returns an error if the record contains invalid fields.
func (r *ModelRecord) Validate() error {
	if r.ID == "" {
		return Errorf(EINVALID, "model record ID required")
	}
	return nil
}

// MarshalJSON encodes the record as {id: [headers...]}.
// A record without headers encodes as an empty array, never null.
func (r ModelRecord) MarshalJSON() ([]byte, error) {
	headers := r.Headers
	if headers == nil {
		headers = []string{}
	}
	return json.Marshal(map[string][]string{r.ID: headers})
}

// UnmarshalJSON decodes a single-key {id: [headers...]} object.
func (r *ModelRecord) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return Errorf(EINVALID, "model record must be an object")
	}

	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return Errorf(EINVALID, "model record must have exactly one key, got %d", len(m))
	}

	for id, headers := range m {
		r.ID = id
		r.Headers = headers
	}
	if r.Headers == nil {
		r.Headers = []string{}
	}
	return nil
}

// HasHeaders reports whether the record contains at least one header.
func (r *ModelRecord) HasHeaders() bool {
	return len(r.Headers) > 0
}
