package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ffcraft/internal/builder"
	"ffcraft/internal/capabilities"
	"ffcraft/internal/presets"
	"ffcraft/internal/validation"
)

// namedState pairs a state with a label for job names and output.
type namedState struct {
	Name  string
	State builder.State
}

// readState decodes a builder state from a file, or stdin when path is "-".
// Exported preset documents are accepted as well.
func readState(cmd *cobra.Command, path string) (builder.State, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return builder.State{}, fmt.Errorf("read state %s: %w", path, err)
	}
	return decodeState(data)
}

func decodeState(data []byte) (builder.State, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return builder.State{}, fmt.Errorf("decode state: %w", err)
	}
	if _, ok := keys["state"]; ok {
		if _, bare := keys["inputs"]; !bare {
			doc, err := presets.DecodeDocument(data)
			if err != nil {
				return builder.State{}, err
			}
			return doc.State, nil
		}
	}
	var state builder.State
	if err := json.Unmarshal(data, &state); err != nil {
		return builder.State{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

func stateName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// loadStates resolves positional state files and --preset IDs in order.
func (c *commandContext) loadStates(cmd *cobra.Command, paths, presetIDs []string) ([]namedState, error) {
	states := make([]namedState, 0, len(paths)+len(presetIDs))
	for _, path := range paths {
		state, err := readState(cmd, path)
		if err != nil {
			return nil, err
		}
		states = append(states, namedState{Name: stateName(path), State: state})
	}
	if len(presetIDs) > 0 {
		err := c.withPresets(func(store *presets.Store) error {
			for _, id := range presetIDs {
				preset, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				states = append(states, namedState{Name: preset.Name, State: preset.State})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(states) == 0 {
		return nil, errors.New("provide a state file (or -) or --preset")
	}
	return states, nil
}

// newValidator builds a validator, optionally consulting the installed ffmpeg.
func (c *commandContext) newValidator(ctx context.Context, withCaps bool) (*validation.Validator, error) {
	registry, err := c.hwRegistry()
	if err != nil {
		return nil, err
	}
	if !withCaps {
		return validation.New(registry), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	table, err := capabilities.Probe(ctx, cfg.FFmpeg.Binary, capabilities.ExecRunner)
	if err != nil {
		return nil, fmt.Errorf("probe ffmpeg capabilities: %w", err)
	}
	return validation.New(registry, validation.WithCapabilities(table)), nil
}

func issueRows(result validation.Result) [][]string {
	rows := make([][]string, 0, len(result.Errors)+len(result.Warnings))
	for _, issue := range result.Errors {
		rows = append(rows, []string{"error", issue.Field, issue.Message})
	}
	for _, issue := range result.Warnings {
		rows = append(rows, []string{"warning", issue.Field, issue.Message})
	}
	return rows
}
