package testsupport

import (
	"testing"

	"ffcraft/internal/config"
	"ffcraft/internal/presets"
)

// MustOpenPresets opens a presets.Store for tests and registers cleanup.
func MustOpenPresets(t testing.TB, cfg *config.Config) *presets.Store {
	t.Helper()

	store, err := presets.Open(cfg, nil)
	if err != nil {
		t.Fatalf("presets.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
