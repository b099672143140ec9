package testsupport

import (
	"testing"

	"digidub/internal/cache"
	"digidub/internal/config"
)

// MustOpenStore opens the cache of cfg for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()

	store, err := cache.Open(cfg.Paths.CacheDir)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
