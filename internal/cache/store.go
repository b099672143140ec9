package cache

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"digidub/internal/media"
)

// DBName is the database file created inside the cache directory.
const DBName = "digidub.db"

// Kind names a cached detector result.
type Kind string

const (
	KindSilences     Kind = "silencedetect"
	KindBlackFrames  Kind = "blackdetect"
	KindSceneChanges Kind = "scdet"
)

// Key identifies one media file in the cache.
type Key struct {
	Name    string
	Packets int64
}

// KeyFor derives the cache key of the file at path.
func KeyFor(path string, packets int64) Key {
	return Key{Name: filepath.Base(path), Packets: packets}
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%d", k.Name, k.Packets)
}

// Entry describes one cached row for listings.
type Entry struct {
	Key       Key
	Kind      string
	Params    string
	Items     int
	CreatedAt time.Time
}

// Store manages the cache database.
type Store struct {
	db   *sql.DB
	dir  string
	path string
}

// Open initializes or connects to the cache database inside dir.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory is not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, dir: dir, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Reset deletes the database files in dir so the next Open starts fresh.
// The store for dir must be closed.
func Reset(dir string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		err := os.Remove(filepath.Join(dir, DBName+suffix))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove cache database: %w", err)
		}
	}
	return nil
}

// SaveFrames stores the frame hashes of key, replacing earlier ones.
func (s *Store) SaveFrames(ctx context.Context, key Key, frames []media.FrameInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO frames (name, packets, frame_count, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		key.Name, key.Packets, len(frames), encodeFrames(frames), now(),
	)
	if err != nil {
		return fmt.Errorf("save frames %s: %w", key, err)
	}
	return nil
}

// LoadFrames returns the cached frame hashes of key. The boolean is false
// on a miss.
func (s *Store) LoadFrames(ctx context.Context, key Key) ([]media.FrameInfo, bool, error) {
	var count int
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT frame_count, data FROM frames WHERE name = ? AND packets = ?`,
		key.Name, key.Packets,
	).Scan(&count, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load frames %s: %w", key, err)
	}
	frames, err := decodeFrames(data)
	if err != nil || len(frames) != count {
		// Corrupt rows are treated as a miss and dropped.
		_ = s.deleteFrames(ctx, key)
		return nil, false, nil
	}
	return frames, true, nil
}

func (s *Store) deleteFrames(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM frames WHERE name = ? AND packets = ?`, key.Name, key.Packets)
	return err
}

// SaveIntervals stores a silence or black-frame result produced with params.
func (s *Store) SaveIntervals(ctx context.Context, key Key, kind Kind, params string, windows []media.Interval) error {
	return s.saveDetection(ctx, key, kind, params, encodeIntervals(windows))
}

// LoadIntervals returns a cached silence or black-frame result. A result
// produced with other params is a miss and is removed.
func (s *Store) LoadIntervals(ctx context.Context, key Key, kind Kind, params string) ([]media.Interval, bool, error) {
	payload, ok, err := s.loadDetection(ctx, key, kind, params)
	if err != nil || !ok {
		return nil, false, err
	}
	windows, err := decodeIntervals(payload)
	if err != nil {
		_ = s.deleteDetection(ctx, key, kind)
		return nil, false, nil
	}
	return windows, true, nil
}

// SaveSceneChanges stores a scene-change result.
func (s *Store) SaveSceneChanges(ctx context.Context, key Key, params string, changes []media.SceneChange) error {
	return s.saveDetection(ctx, key, KindSceneChanges, params, encodeSceneChanges(changes))
}

// LoadSceneChanges returns a cached scene-change result.
func (s *Store) LoadSceneChanges(ctx context.Context, key Key, params string) ([]media.SceneChange, bool, error) {
	payload, ok, err := s.loadDetection(ctx, key, KindSceneChanges, params)
	if err != nil || !ok {
		return nil, false, err
	}
	changes, err := decodeSceneChanges(payload)
	if err != nil {
		_ = s.deleteDetection(ctx, key, KindSceneChanges)
		return nil, false, nil
	}
	return changes, true, nil
}

func (s *Store) saveDetection(ctx context.Context, key Key, kind Kind, params, payload string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO detections (name, packets, kind, params, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		key.Name, key.Packets, string(kind), params, payload, now(),
	)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", kind, key, err)
	}
	return nil
}

func (s *Store) loadDetection(ctx context.Context, key Key, kind Kind, params string) (string, bool, error) {
	var storedParams, payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT params, payload FROM detections WHERE name = ? AND packets = ? AND kind = ?`,
		key.Name, key.Packets, string(kind),
	).Scan(&storedParams, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load %s %s: %w", kind, key, err)
	}
	if storedParams != params {
		if err := s.deleteDetection(ctx, key, kind); err != nil {
			return "", false, fmt.Errorf("drop stale %s %s: %w", kind, key, err)
		}
		return "", false, nil
	}
	return payload, true, nil
}

func (s *Store) deleteDetection(ctx context.Context, key Key, kind Kind) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM detections WHERE name = ? AND packets = ? AND kind = ?`,
		key.Name, key.Packets, string(kind),
	)
	return err
}

// List returns every cached row ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, packets, 'frames', '', frame_count, created_at FROM frames
        UNION ALL
        SELECT name, packets, kind, params, length(payload) - length(replace(payload, char(10), '')), created_at FROM detections
        ORDER BY 1, 2, 3`)
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.Key.Name, &e.Key.Packets, &e.Kind, &e.Params, &e.Items, &created); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove deletes everything cached for the file named name. An empty name
// clears the whole cache. It returns the number of rows removed.
func (s *Store) Remove(ctx context.Context, name string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin remove tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, table := range []string{"frames", "detections"} {
		query := "DELETE FROM " + table
		var args []any
		if name != "" {
			query += " WHERE name = ?"
			args = append(args, name)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit remove: %w", err)
	}
	return total, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// encodeFrames packs (pts, hash) pairs as little-endian 16-byte records.
func encodeFrames(frames []media.FrameInfo) []byte {
	buf := make([]byte, 0, len(frames)*16)
	for _, f := range frames {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(f.PTS))
		buf = binary.LittleEndian.AppendUint64(buf, f.PHash)
	}
	return buf
}

func decodeFrames(data []byte) ([]media.FrameInfo, error) {
	if len(data)%16 != 0 {
		return nil, fmt.Errorf("frame blob length %d is not a multiple of 16", len(data))
	}
	frames := make([]media.FrameInfo, 0, len(data)/16)
	for off := 0; off < len(data); off += 16 {
		frames = append(frames, media.FrameInfo{
			PTS:   int64(binary.LittleEndian.Uint64(data[off:])),
			PHash: binary.LittleEndian.Uint64(data[off+8:]),
		})
	}
	return frames, nil
}
