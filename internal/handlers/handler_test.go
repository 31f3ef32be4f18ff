// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL is unavailable.
package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"taxonomy/internal/database"
	"taxonomy/internal/models"
	"taxonomy/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "taxonomy")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "taxonomy")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// testEnv is a fully wired handler test environment over a real database.
type testEnv struct {
	db     *sql.DB
	srv    *httptest.Server
	cats   *store.CategoryStore
	rels   *store.RelationStore
	client *http.Client
}

// newTestEnv opens the test database, runs migrations, and starts an HTTP
// server with the handler routes mounted. Skipped when the DB is absent.
// The route shapes mirror the service router; the router package itself is
// exercised by its own tests.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	cats := store.NewCategoryStore(db, "en")
	rels := store.NewRelationStore(db, "en")
	ch := NewCategories(cats)
	rh := NewRelations(rels)

	r := chi.NewRouter()
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", ch.List)
		r.Post("/", ch.Create)
		r.Get("/tree", ch.Tree)
		r.Get("/roots", ch.Roots)
		r.Get("/leaves", ch.Leaves)
		r.Get("/{id}", ch.Detail)
		r.Put("/{id}", ch.Update)
		r.Delete("/{id}", ch.Delete)
		r.Put("/{id}/parent", ch.Reparent)
		r.Get("/{id}/descendants", ch.Descendants)
		r.Get("/{id}/valid-parents", ch.ValidParents)
	})
	r.Route("/api/owners/{type}/{id}/categories", func(r chi.Router) {
		r.Get("/", rh.List)
		r.Post("/", rh.Add)
		r.Put("/", rh.Replace)
		r.Delete("/", rh.Clear)
		r.Delete("/{categoryID}", rh.Remove)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})

	return &testEnv{db: db, srv: srv, cats: cats, rels: rels, client: srv.Client()}
}

// do issues a JSON request against the test server and returns the response.
func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// decode reads the JSON response body into dst and closes the body.
func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// createCategory posts a category fixture and registers cleanup by slug.
func (e *testEnv) createCategory(t *testing.T, slug, name string, parent *uuid.UUID) models.Category {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/categories", store.NewCategory{
		Slug:         slug,
		ParentID:     parent,
		Translations: map[string]store.Translation{"en": {Name: name}},
	})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("create %q: status %d, body %s", slug, resp.StatusCode, body)
	}

	var c models.Category
	decode(t, resp, &c)
	t.Cleanup(func() {
		e.db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	})
	return c
}

// sfx returns a short unique suffix to isolate fixtures.
func sfx() string {
	return uuid.NewString()[:8]
}
