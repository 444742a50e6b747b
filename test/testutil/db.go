package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/xxxsen/postboard/internal/config"
	"github.com/xxxsen/postboard/internal/db"
)

var dbSeq atomic.Int64

// OpenTestDB returns a migrated in-memory sqlite database private to the test.
func OpenTestDB(t *testing.T) (*sql.DB, string, func()) {
	t.Helper()
	uri := fmt.Sprintf("file:postboard_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	return open(t, config.DatabaseConfig{Driver: "sqlite", URI: uri})
}

// OpenPostgresDB connects to the database named by TEST_DB_HOST, skipping when unset.
func OpenPostgresDB(t *testing.T) (*sql.DB, string, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	dsn := fmt.Sprintf("host=%s port=5432 user=postboard password=postboard_pass dbname=postboard_test sslmode=disable", host)
	return open(t, config.DatabaseConfig{Driver: "postgres", URI: dsn})
}

func open(t *testing.T, cfg config.DatabaseConfig) (*sql.DB, string, func()) {
	t.Helper()
	conn, dialect, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if cfg.Driver == "postgres" {
		for _, table := range []string{"user_posts", "posts", "users"} {
			if _, err := conn.Exec("DELETE FROM " + table); err != nil {
				t.Fatalf("truncate %s: %v", table, err)
			}
		}
	}
	return conn, dialect, func() {
		_ = conn.Close()
	}
}
