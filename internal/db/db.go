package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/xxxsen/postboard/internal/config"
	"github.com/xxxsen/postboard/internal/pkg/dbutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to a sql backend and returns the dialect the repos must speak.
func Open(cfg config.DatabaseConfig) (*sql.DB, string, error) {
	var dialect string
	switch cfg.Driver {
	case "sqlite":
		dialect = dbutil.DialectSQLite
	case "postgres":
		dialect = dbutil.DialectPostgres
	default:
		return nil, "", fmt.Errorf("unsupported sql driver: %s", cfg.Driver)
	}
	db, err := sql.Open(dialect, cfg.URI)
	if err != nil {
		return nil, "", err
	}
	if dialect == dbutil.DialectSQLite {
		// a single connection keeps ":memory:" databases shared and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, "", err
	}
	return db, dialect, nil
}

func ApplyMigrations(db *sql.DB) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	for _, file := range files {
		content, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return err
		}
		queries := strings.Split(string(content), ";")
		for _, q := range queries {
			q = strings.TrimSpace(q)
			if q == "" {
				continue
			}
			if _, err := db.Exec(q); err != nil {
				if strings.Contains(err.Error(), "already exists") {
					continue
				}
				return fmt.Errorf("execute query in %s: %w", file, err)
			}
		}
	}
	return nil
}
