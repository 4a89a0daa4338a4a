package presets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"ffcraft/internal/builder"
)

// ExportVersion tags the export document format.
const ExportVersion = 1

// ErrInvalidDocument is returned by Import when a document lacks required keys.
var ErrInvalidDocument = errors.New("invalid preset document")

// Document is the JSON exchange format for a single preset.
type Document struct {
	Version     int           `json:"version"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	State       builder.State `json:"state"`
}

// stateKeys are the structural keys an imported state must carry.
var stateKeys = []string{
	"inputs",
	"output",
	"video_codec",
	"audio_codec",
	"video_filters",
	"audio_filters",
	"stream_mappings",
	"global_options",
}

// Export writes a preset as an indented JSON document.
func (s *Store) Export(ctx context.Context, id string, w io.Writer) error {
	preset, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	doc := Document{
		Version:     ExportVersion,
		Name:        preset.Name,
		Description: preset.Description,
		State:       preset.State,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	return nil
}

// Import reads an exported document and saves it as a new preset.
func (s *Store) Import(ctx context.Context, r io.Reader) (*Preset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read preset document: %w", err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, doc.Name, doc.Description, doc.State)
}

// DecodeDocument parses an export document after checking its structure.
// Field values are not validated.
func DecodeDocument(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var missing []string
	if _, ok := raw["name"]; !ok {
		missing = append(missing, "name")
	}
	stateRaw, ok := raw["state"]
	if !ok {
		missing = append(missing, "state")
	} else {
		var state map[string]json.RawMessage
		if err := json.Unmarshal(stateRaw, &state); err != nil || state == nil {
			return Document{}, fmt.Errorf("%w: state must be an object", ErrInvalidDocument)
		}
		for _, key := range stateKeys {
			if _, ok := state[key]; !ok {
				missing = append(missing, "state."+key)
			}
		}
	}
	if len(missing) > 0 {
		return Document{}, fmt.Errorf("%w: missing %s", ErrInvalidDocument, strings.Join(missing, ", "))
	}

	var doc Document
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Version > ExportVersion {
		return Document{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidDocument, doc.Version)
	}
	return doc, nil
}
