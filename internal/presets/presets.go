package presets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ffcraft/internal/builder"
	"ffcraft/internal/logging"
)

// Preset is a saved encoding configuration.
type Preset struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	State       builder.State `json:"state"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

const presetColumns = `id, name, description, state_json, created_at, updated_at`

// Save stores a new preset under a fresh UUID.
func (s *Store) Save(ctx context.Context, name, description string, state builder.State) (*Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("preset name is required")
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}

	now := s.now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO presets (`+presetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, strings.TrimSpace(description), string(stateJSON), timestamp, timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert preset: %w", err)
	}

	s.logger.Info("preset saved",
		logging.String("preset_id", id),
		logging.String("name", name),
	)
	return s.Get(ctx, id)
}

// Get returns one preset or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Preset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+presetColumns+` FROM presets WHERE id = ?`, id)
	preset, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get preset: %w", err)
	}
	return preset, nil
}

// List returns all presets ordered by name.
func (s *Store) List(ctx context.Context) ([]*Preset, error) {
	return s.query(ctx, `SELECT `+presetColumns+` FROM presets ORDER BY name COLLATE NOCASE, created_at`)
}

// Search returns presets whose name or description contains query,
// case-insensitively. An empty query lists everything.
func (s *Store) Search(ctx context.Context, query string) ([]*Preset, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.query(ctx,
		`SELECT `+presetColumns+` FROM presets
         WHERE lower(name) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\'
         ORDER BY name COLLATE NOCASE, created_at`,
		pattern, pattern,
	)
}

// Update replaces the name, description and state of an existing preset.
func (s *Store) Update(ctx context.Context, id, name, description string, state builder.State) (*Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("preset name is required")
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE presets SET name = ?, description = ?, state_json = ?, updated_at = ? WHERE id = ?`,
		name, strings.TrimSpace(description), string(stateJSON), s.now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update preset: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return nil, err
	}
	s.logger.Info("preset updated", logging.String("preset_id", id))
	return s.Get(ctx, id)
}

// Delete removes a preset.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}
	s.logger.Info("preset deleted", logging.String("preset_id", id))
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Preset, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query presets: %w", err)
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		presets = append(presets, preset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presets: %w", err)
	}
	return presets, nil
}

func scanPreset(scanner interface{ Scan(dest ...any) error }) (*Preset, error) {
	var (
		preset     Preset
		stateJSON  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&preset.ID, &preset.Name, &preset.Description, &stateJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stateJSON), &preset.State); err != nil {
		return nil, fmt.Errorf("decode state for %s: %w", preset.ID, err)
	}
	var err error
	if preset.CreatedAt, err = time.Parse(time.RFC3339Nano, createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if preset.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedRaw); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &preset, nil
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
