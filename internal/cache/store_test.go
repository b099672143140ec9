package cache_test

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"digidub/internal/cache"
	"digidub/internal/media"
)

func openStore(t *testing.T) (*cache.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := cache.Open(dir)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestFramesRoundTrip(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	key := cache.KeyFor("/videos/episode.mkv", 3)

	if _, ok, err := store.LoadFrames(ctx, key); err != nil || ok {
		t.Fatalf("expected miss on empty cache, ok=%v err=%v", ok, err)
	}

	frames := []media.FrameInfo{{PTS: 0, PHash: 0xffffffffffffffff}, {PTS: 1, PHash: 42}, {PTS: 2, PHash: 0}}
	if err := store.SaveFrames(ctx, key, frames); err != nil {
		t.Fatalf("SaveFrames: %v", err)
	}
	got, ok, err := store.LoadFrames(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(got), len(frames))
	}
	for i := range frames {
		if got[i] != frames[i] {
			t.Fatalf("frame %d = %+v, want %+v", i, got[i], frames[i])
		}
	}

	other := cache.KeyFor("/elsewhere/episode.mkv", 4)
	if _, ok, _ := store.LoadFrames(ctx, other); ok {
		t.Fatal("a different packet count must not hit")
	}
	moved := cache.KeyFor("/elsewhere/episode.mkv", 3)
	if _, ok, _ := store.LoadFrames(ctx, moved); !ok {
		t.Fatal("a moved file with the same name and packets should hit")
	}
}

func TestIntervalsKeepOpenEndAndEmptyResults(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	key := cache.Key{Name: "movie.mkv", Packets: 1000}
	params := "silencedetect=n=-35dB:d=0.4"

	windows := []media.Interval{{Start: 0, End: 1.25}, {Start: 30.5, End: math.Inf(1)}}
	if err := store.SaveIntervals(ctx, key, cache.KindSilences, params, windows); err != nil {
		t.Fatalf("SaveIntervals: %v", err)
	}
	got, ok, err := store.LoadIntervals(ctx, key, cache.KindSilences, params)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != windows[0] || got[1].Start != 30.5 || !math.IsInf(got[1].End, 1) {
		t.Fatalf("unexpected windows %+v", got)
	}

	if err := store.SaveIntervals(ctx, key, cache.KindBlackFrames, "blackdetect=d=0.4:pix_th=0.05", nil); err != nil {
		t.Fatalf("SaveIntervals: %v", err)
	}
	black, ok, err := store.LoadIntervals(ctx, key, cache.KindBlackFrames, "blackdetect=d=0.4:pix_th=0.05")
	if err != nil || !ok {
		t.Fatalf("expected hit for empty result, ok=%v err=%v", ok, err)
	}
	if black == nil || len(black) != 0 {
		t.Fatalf("empty result should load as an empty non-nil slice, got %#v", black)
	}
}

func TestParamsMismatchDropsEntry(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	key := cache.Key{Name: "movie.mkv", Packets: 1000}

	if err := store.SaveIntervals(ctx, key, cache.KindSilences, "silencedetect=n=-35dB:d=0.4", []media.Interval{{Start: 1, End: 2}}); err != nil {
		t.Fatalf("SaveIntervals: %v", err)
	}
	if _, ok, err := store.LoadIntervals(ctx, key, cache.KindSilences, "silencedetect=n=-40dB:d=0.4"); err != nil || ok {
		t.Fatalf("expected miss for other params, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := store.LoadIntervals(ctx, key, cache.KindSilences, "silencedetect=n=-35dB:d=0.4"); ok {
		t.Fatal("stale entry should have been removed")
	}
}

func TestSceneChangesRoundTrip(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	key := cache.Key{Name: "movie.mkv", Packets: 1000}
	changes := []media.SceneChange{{Time: 45.167, Score: 10.525}, {Time: 90, Score: 33}}

	if err := store.SaveSceneChanges(ctx, key, "scdet", changes); err != nil {
		t.Fatalf("SaveSceneChanges: %v", err)
	}
	got, ok, err := store.LoadSceneChanges(ctx, key, "scdet")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != changes[0] || got[1] != changes[1] {
		t.Fatalf("unexpected scene changes %+v", got)
	}
}

func TestListAndRemove(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	a := cache.Key{Name: "a.mkv", Packets: 10}
	b := cache.Key{Name: "b.mkv", Packets: 20}

	if err := store.SaveFrames(ctx, a, []media.FrameInfo{{PTS: 0}, {PTS: 1}}); err != nil {
		t.Fatalf("SaveFrames: %v", err)
	}
	if err := store.SaveIntervals(ctx, a, cache.KindSilences, "p", []media.Interval{{Start: 0, End: 1}, {Start: 2, End: 3}, {Start: 4, End: 5}}); err != nil {
		t.Fatalf("SaveIntervals: %v", err)
	}
	if err := store.SaveSceneChanges(ctx, b, "scdet", []media.SceneChange{{Time: 1, Score: 20}}); err != nil {
		t.Fatalf("SaveSceneChanges: %v", err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Key != a || entries[0].Kind != "frames" || entries[0].Items != 2 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Kind != string(cache.KindSilences) || entries[1].Items != 3 || entries[1].Params != "p" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if entries[2].Key != b || entries[2].CreatedAt.IsZero() {
		t.Fatalf("unexpected third entry %+v", entries[2])
	}

	removed, err := store.Remove(ctx, "a.mkv")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 rows removed, got %d", removed)
	}
	removed, err = store.Remove(ctx, "")
	if err != nil {
		t.Fatalf("Remove all: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 row removed, got %d", removed)
	}
}

func TestSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.Open(dir)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", filepath.Join(dir, cache.DBName))
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := cache.Open(dir); !errors.Is(err, cache.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if err := cache.Reset(dir); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	reopened, err := cache.Open(dir)
	if err != nil {
		t.Fatalf("open after reset: %v", err)
	}
	reopened.Close()
}

func TestLockExcludesSecondHolder(t *testing.T) {
	store, _ := openStore(t)
	key := cache.Key{Name: "movie.mkv", Packets: 7}

	lock, err := store.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, ok, err := store.TryLock(key); err != nil || ok {
		t.Fatalf("second lock should fail while held, ok=%v err=%v", ok, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := store.Lock(ctx, key); err == nil {
		t.Fatal("expected Lock to give up when the context expires")
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	second, ok, err := store.TryLock(key)
	if err != nil || !ok {
		t.Fatalf("lock should be free after unlock, ok=%v err=%v", ok, err)
	}
	second.Unlock()
}

func TestLockFileStaysInLockDirectory(t *testing.T) {
	store, dir := openStore(t)
	key := cache.Key{Name: "../../show: part 1?.mkv", Packets: 1200}

	lock, err := store.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer lock.Unlock()

	matches, err := filepath.Glob(filepath.Join(dir, "locks", "*.lock"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one lock file in the lock directory, got %v", matches)
	}
	if want := "_.._show_ part 1_.mkv.1200.lock"; filepath.Base(matches[0]) != want {
		t.Fatalf("lock file = %q, want %q", filepath.Base(matches[0]), want)
	}
}
