// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"taxonomy/internal/database"
	"taxonomy/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "taxonomy")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "taxonomy")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanCategories removes test categories by slug. Deleting a category
// cascades to its descendants, translations, and relations, so cleaning
// the fixture roots is usually enough. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	}
}

// cleanOwner removes all relations for a test owner. Call in t.Cleanup().
func cleanOwner(t *testing.T, db *sql.DB, owner models.Owner) {
	t.Helper()
	db.Exec("DELETE FROM category_relations WHERE owner_type = $1 AND owner_id = $2", owner.Type, owner.ID)
}

// testOwner returns a unique owner identity for relation fixtures.
func testOwner(t *testing.T, db *sql.DB, ownerType string) models.Owner {
	t.Helper()
	owner := models.Owner{Type: ownerType, ID: uuid.NewString()}
	t.Cleanup(func() { cleanOwner(t, db, owner) })
	return owner
}

// createCategory inserts a category with an English translation, registering
// cleanup for it. parent may be nil for roots.
func createCategory(t *testing.T, db *sql.DB, s *CategoryStore, slug, name string, parent *uuid.UUID) *models.Category {
	t.Helper()
	c, err := s.Create(NewCategory{
		Slug:         slug,
		ParentID:     parent,
		Translations: map[string]Translation{"en": {Name: name}},
	})
	if err != nil {
		t.Fatalf("create category %q: %v", slug, err)
	}
	t.Cleanup(func() { cleanCategories(t, db, slug) })
	return c
}

// sfx returns a short unique suffix to isolate fixtures from concurrent
// test packages sharing the database.
func sfx() string {
	return uuid.NewString()[:8]
}
