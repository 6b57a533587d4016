package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/earnbuzz/earnbuzz/internal/config"
)

const (
	driverLibsql = "libsql"
	memoryPath   = ":memory:"
	authTokenKey = "authToken"
)

// Store holds the libsql connection backing wallets, ledgers, limiter state
// and the bank directory cache.
type Store struct {
	DB     *sql.DB
	driver string
	source dataSource
}

// dataSource is a resolved libsql connection target.
type dataSource struct {
	dsn string
	// embedded targets run in-process: a file or :memory:.
	embedded bool
}

func (d dataSource) memory() bool {
	return d.dsn == memoryPath
}

// Open connects to the database described by cfg. Embedded databases are
// limited to a single connection and switched to WAL.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" {
		driver = driverLibsql
	}
	if driver != driverLibsql {
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	source, err := resolveDataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverLibsql, source.dsn)
	if err != nil {
		return nil, fmt.Errorf("open libsql store: %w", err)
	}

	s := &Store{DB: db, driver: driver, source: source}
	if err := s.prepare(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) prepare(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping libsql store: %w", err)
	}
	if !s.source.embedded {
		return nil
	}

	// Each connection to :memory: is a separate database.
	s.DB.SetMaxOpenConns(1)
	if s.source.memory() {
		return nil
	}

	pragmas := []struct{ name, stmt string }{
		{"journal mode", "PRAGMA journal_mode=WAL"},
		{"busy timeout", "PRAGMA busy_timeout=5000"},
	}
	for _, p := range pragmas {
		var ignored any
		if err := s.DB.QueryRowContext(ctx, p.stmt).Scan(&ignored); err != nil {
			return fmt.Errorf("set libsql %s: %w", p.name, err)
		}
	}
	return nil
}

// Close releases the connection pool. It is safe on a nil store.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// CheckHealth pings the database.
func (s *Store) CheckHealth(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not open")
	}
	return s.DB.PingContext(ctx)
}

// Driver names the SQL driver in use.
func (s *Store) Driver() string {
	if s == nil {
		return ""
	}
	return s.driver
}

// Location describes the connection target for logs, with any auth token
// masked.
func (s *Store) Location() string {
	if s == nil {
		return ""
	}
	return redactDSN(s.source.dsn)
}

// resolveDataSource turns store settings into a libsql DSN. A URL wins over a
// path; bare paths become file: DSNs and get their parent directory created.
func resolveDataSource(cfg config.StoreConfig) (dataSource, error) {
	if raw := strings.TrimSpace(cfg.URL); raw != "" {
		dsn, err := withAuthToken(raw, strings.TrimSpace(cfg.AuthToken))
		return dataSource{dsn: dsn}, err
	}

	path := strings.TrimSpace(cfg.Path)
	switch {
	case path == "":
		return dataSource{}, errors.New("store path or url is required")
	case path == memoryPath:
		return dataSource{dsn: path, embedded: true}, nil
	case strings.HasPrefix(path, "libsql:"):
		return dataSource{dsn: path}, nil
	case strings.HasPrefix(path, "file:"):
		local, err := filePathOf(path)
		if err != nil {
			return dataSource{}, err
		}
		if err := makeParentDir(local); err != nil {
			return dataSource{}, err
		}
		return dataSource{dsn: path, embedded: true}, nil
	}

	if err := makeParentDir(path); err != nil {
		return dataSource{}, err
	}
	return dataSource{dsn: "file:" + filepath.Clean(path), embedded: true}, nil
}

// withAuthToken appends token as the authToken query parameter unless the URL
// already carries one.
func withAuthToken(raw, token string) (string, error) {
	if token == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}
	q := u.Query()
	if q.Get(authTokenKey) != "" {
		return raw, nil
	}
	q.Set(authTokenKey, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.RawQuery == "" {
		return dsn
	}
	q := u.Query()
	if q.Get(authTokenKey) == "" {
		return dsn
	}
	q.Set(authTokenKey, "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}

func filePathOf(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store path: %w", err)
	}
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	return strings.TrimPrefix(p, "//"), nil
}

func makeParentDir(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}
	// #nosec G301 -- shared data directory
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	return nil
}
