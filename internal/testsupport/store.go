package testsupport

import (
	"testing"

	"flacfixer/internal/config"
	"flacfixer/internal/ledger"
)

// MustOpenStore opens the history database for cfg and closes it when the
// test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
