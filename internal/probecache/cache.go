package probecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS probes (
	path      TEXT PRIMARY KEY,
	size      INTEGER NOT NULL,
	mtime_ns  INTEGER NOT NULL,
	payload   BLOB NOT NULL,
	cached_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_probes_cached_at ON probes(cached_at);
`

// Cache stores probe payloads keyed by file identity.
type Cache struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the cache database at path. An empty path
// returns a disabled cache.
func Open(path string) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return &Cache{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create probe cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
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
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init probe cache schema: %w", err)
	}
	return &Cache{db: db, path: path}, nil
}

// Enabled reports whether the cache is backed by a database.
func (c *Cache) Enabled() bool {
	return c != nil && c.db != nil
}

// Path returns the database location, or "" when disabled.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached payload for path when the file on disk still
// matches the recorded size and modification time.
func (c *Cache) Lookup(ctx context.Context, path string) ([]byte, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	key, size, mtime, err := identity(path)
	if err != nil {
		return nil, false, err
	}
	ctx = ensureContext(ctx)

	var (
		payload     []byte
		cachedSize  int64
		cachedMtime int64
	)
	err = retryOnBusy(ctx, func() error {
		row := c.db.QueryRowContext(ctx, `SELECT size, mtime_ns, payload FROM probes WHERE path = ?`, key)
		return row.Scan(&cachedSize, &cachedMtime, &payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup probe cache: %w", err)
	}
	if cachedSize != size || cachedMtime != mtime {
		return nil, false, nil
	}
	return payload, true, nil
}

// Store records payload for path, replacing any previous entry.
func (c *Cache) Store(ctx context.Context, path string, payload []byte) error {
	if !c.Enabled() {
		return nil
	}
	key, size, mtime, err := identity(path)
	if err != nil {
		return err
	}
	ctx = ensureContext(ctx)
	err = retryOnBusy(ctx, func() error {
		_, execErr := c.db.ExecContext(ctx,
			`INSERT INTO probes (path, size, mtime_ns, payload, cached_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime_ns = excluded.mtime_ns,
			 payload = excluded.payload, cached_at = excluded.cached_at`,
			key, size, mtime, payload, time.Now().Unix())
		return execErr
	})
	if err != nil {
		return fmt.Errorf("store probe cache: %w", err)
	}
	return nil
}

// Prune removes entries cached before the cutoff and entries whose files no
// longer exist. It returns the number of rows removed.
func (c *Cache) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	removed := 0

	cutoff := time.Now().Add(-olderThan).Unix()
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = c.db.ExecContext(ctx, `DELETE FROM probes WHERE cached_at < ?`, cutoff)
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune probe cache: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		removed += int(n)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT path FROM probes`)
	if err != nil {
		return removed, fmt.Errorf("scan probe cache: %w", err)
	}
	var missing []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			_ = rows.Close()
			return removed, fmt.Errorf("scan probe cache: %w", err)
		}
		if _, statErr := os.Stat(p); errors.Is(statErr, os.ErrNotExist) {
			missing = append(missing, p)
		}
	}
	_ = rows.Close()
	for _, p := range missing {
		if err := retryOnBusy(ctx, func() error {
			_, execErr := c.db.ExecContext(ctx, `DELETE FROM probes WHERE path = ?`, p)
			return execErr
		}); err != nil {
			return removed, fmt.Errorf("prune probe cache: %w", err)
		}
		removed++
	}
	return removed, nil
}

func identity(path string) (string, int64, int64, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", 0, 0, fmt.Errorf("resolve %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", 0, 0, fmt.Errorf("stat %q: %w", path, err)
	}
	return abs, info.Size(), info.ModTime().UnixNano(), nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
