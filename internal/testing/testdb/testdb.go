package testdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/concordance/api/internal/database"
)

// Config locates the SurrealDB instance used by repository tests
type Config struct {
	Host     string `env:"TEST_DB_HOST" envDefault:"localhost"`
	Port     string `env:"TEST_DB_PORT" envDefault:"8000"`
	User     string `env:"TEST_DB_USER" envDefault:"root"`
	Password string `env:"TEST_DB_PASSWORD" envDefault:"root"`

	// Required turns an unreachable database into a test failure
	Required bool `env:"TEST_DB_REQUIRED"`

	// Migrations overrides the migrations directory lookup
	Migrations string `env:"TEST_DB_MIGRATIONS"`
}

// TestDB is a SurrealDB namespace holding the migrated schema, private to
// one test
type TestDB struct {
	DB        database.Database
	Namespace string

	t         *testing.T
	closeOnce sync.Once
}

var (
	schemaOnce sync.Once
	schema     []string
	schemaErr  error

	namespaceSeq atomic.Int64
)

// loadConfig reads the test database settings from the environment
func loadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse test db env: %w", err)
	}
	return cfg, nil
}

// migrationsDir walks up from the working directory to the module root and
// returns its migrations directory
func migrationsDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations"), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("module root not found above working directory")
		}
		dir = parent
	}
}

// loadSchema reads the numbered migrations once per test binary. The dev
// seed is not part of the schema.
func loadSchema(cfg Config) ([]string, error) {
	schemaOnce.Do(func() {
		dir, err := migrationsDir(cfg.Migrations)
		if err != nil {
			schemaErr = err
			return
		}
		files, err := filepath.Glob(filepath.Join(dir, "[0-9]*.surql"))
		if err != nil {
			schemaErr = err
			return
		}
		if len(files) == 0 {
			schemaErr = fmt.Errorf("no migrations in %s", dir)
			return
		}
		sort.Strings(files)
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				schemaErr = fmt.Errorf("reading %s: %w", filepath.Base(f), err)
				return
			}
			schema = append(schema, string(content))
		}
	})
	return schema, schemaErr
}

func namespaceFor(t *testing.T) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, t.Name())
	if len(name) > 40 {
		name = name[:40]
	}
	return fmt.Sprintf("t_%s_%d_%d", name, os.Getpid(), namespaceSeq.Add(1))
}

// New connects to SurrealDB, selects a fresh namespace and applies every
// migration. The namespace is removed when the test finishes.
func New(t *testing.T) *TestDB {
	t.Helper()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("testdb: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	namespace := namespaceFor(t)
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		Namespace: namespace,
		Database:  "test",
	})
	if err := db.Connect(ctx); err != nil {
		if cfg.Required {
			t.Fatalf("testdb: connect %s:%s: %v", cfg.Host, cfg.Port, err)
		}
		t.Skipf("testdb: SurrealDB not reachable at %s:%s: %v", cfg.Host, cfg.Port, err)
	}

	tdb := &TestDB{DB: db, Namespace: namespace, t: t}
	t.Cleanup(tdb.Close)

	migrations, err := loadSchema(cfg)
	if err != nil {
		t.Fatalf("testdb: %v", err)
	}
	for i, m := range migrations {
		if err := db.Execute(ctx, m, nil); err != nil {
			t.Fatalf("testdb: migration %d: %v", i+1, err)
		}
	}
	return tdb
}

// Close removes the namespace and disconnects. It is safe to call more than
// once.
func (tdb *TestDB) Close() {
	tdb.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tdb.DB.Execute(ctx, "REMOVE NAMESPACE "+tdb.Namespace, nil); err != nil {
			tdb.t.Logf("testdb: removing namespace %s: %v", tdb.Namespace, err)
		}
		tdb.DB.Close()
	})
}

// Ctx returns a context bounded by the test and a ten second timeout
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(tdb.t.Context(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}
