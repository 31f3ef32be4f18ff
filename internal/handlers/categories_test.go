// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"taxonomy/internal/models"
	"taxonomy/internal/store"
)

func TestCategoryCreateAndDetail(t *testing.T) {
	env := newTestEnv(t)

	slug := "h-create-" + sfx()
	created := env.createCategory(t, slug, "Created via API", nil)

	resp := env.do(t, http.MethodGet, "/api/categories/"+created.ID.String(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail status: got %d, want 200", resp.StatusCode)
	}
	var got models.Category
	decode(t, resp, &got)
	if got.Slug != slug {
		t.Errorf("slug: got %q, want %q", got.Slug, slug)
	}
	if len(got.Translations) != 1 {
		t.Errorf("translations: got %d, want 1", len(got.Translations))
	}
}

func TestCategoryDetailNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/categories/"+uuid.NewString(), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestCategoryCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	// A category without a name in any locale is rejected.
	resp := env.do(t, http.MethodPost, "/api/categories", store.NewCategory{
		Slug: "h-nameless-" + sfx(),
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("nameless create: got %d, want 422", resp.StatusCode)
	}

	// Duplicate slug is rejected the same way.
	slug := "h-dupe-" + sfx()
	env.createCategory(t, slug, "First", nil)
	resp = env.do(t, http.MethodPost, "/api/categories", store.NewCategory{
		Slug:         slug,
		Translations: map[string]store.Translation{"en": {Name: "Second"}},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("duplicate slug create: got %d, want 422", resp.StatusCode)
	}
}

func TestCategoryCreateMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/categories", map[string]any{
		"slug":       "x",
		"unexpected": true,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown field: got %d, want 400", resp.StatusCode)
	}
}

func TestCategoryListHierarchy(t *testing.T) {
	env := newTestEnv(t)

	suffix := sfx()
	root := env.createCategory(t, "h-root-"+suffix, "Root "+suffix, nil)
	child := env.createCategory(t, "h-child-"+suffix, "Child", &root.ID)

	resp := env.do(t, http.MethodGet, "/api/categories?locale=en", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: got %d, want 200", resp.StatusCode)
	}
	var items []models.Category
	decode(t, resp, &items)

	pos := map[uuid.UUID]int{}
	byID := map[uuid.UUID]models.Category{}
	for i, c := range items {
		pos[c.ID] = i
		byID[c.ID] = c
	}
	if _, ok := pos[root.ID]; !ok {
		t.Fatal("root missing from hierarchy list")
	}
	if pos[root.ID] >= pos[child.ID] {
		t.Error("parent listed after its child")
	}
	if byID[child.ID].Depth != byID[root.ID].Depth+1 {
		t.Errorf("child depth: got %d, want parent+1", byID[child.ID].Depth)
	}
	if byID[child.ID].Path == "" {
		t.Error("expected materialized path on hierarchy rows")
	}
}

func TestCategoryReparentCycleConflict(t *testing.T) {
	env := newTestEnv(t)

	suffix := sfx()
	root := env.createCategory(t, "h-cyc-root-"+suffix, "Root", nil)
	child := env.createCategory(t, "h-cyc-child-"+suffix, "Child", &root.ID)

	// Root under its own child → 409, tree untouched.
	resp := env.do(t, http.MethodPut, "/api/categories/"+root.ID.String()+"/parent",
		map[string]any{"parent_id": child.ID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("cycle reparent: got %d, want 409", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/api/categories/"+root.ID.String(), nil)
	var got models.Category
	decode(t, resp, &got)
	if got.ParentID != nil {
		t.Error("root gained a parent despite rejected reparent")
	}
}

func TestCategoryReparentOK(t *testing.T) {
	env := newTestEnv(t)

	suffix := sfx()
	root := env.createCategory(t, "h-rep-root-"+suffix, "Root", nil)
	node := env.createCategory(t, "h-rep-node-"+suffix, "Node", nil)

	resp := env.do(t, http.MethodPut, "/api/categories/"+node.ID.String()+"/parent",
		map[string]any{"parent_id": root.ID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("reparent: got %d, want 204", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/api/categories/"+node.ID.String(), nil)
	var got models.Category
	decode(t, resp, &got)
	if got.ParentID == nil || *got.ParentID != root.ID {
		t.Errorf("parent: got %v, want %s", got.ParentID, root.ID)
	}
}

func TestCategoryDescendantsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	suffix := sfx()
	root := env.createCategory(t, "h-desc-root-"+suffix, "Root", nil)
	child := env.createCategory(t, "h-desc-child-"+suffix, "Child", &root.ID)

	resp := env.do(t, http.MethodGet, "/api/categories/"+root.ID.String()+"/descendants", nil)
	var items []models.Category
	decode(t, resp, &items)
	if len(items) != 1 || items[0].ID != child.ID {
		t.Errorf("descendants: got %d items, want just the child", len(items))
	}

	resp = env.do(t, http.MethodGet, "/api/categories/"+root.ID.String()+"/descendants?include_self=true", nil)
	decode(t, resp, &items)
	if len(items) != 2 {
		t.Errorf("descendants include_self: got %d items, want 2", len(items))
	}
}

func TestCategorySubtreeReadsMissingID(t *testing.T) {
	env := newTestEnv(t)

	// Both subtree reads must 404 on a vanished category instead of
	// answering 200 with an empty list or the entire tree.
	ghost := uuid.NewString()
	for _, path := range []string{
		"/api/categories/" + ghost + "/descendants",
		"/api/categories/" + ghost + "/valid-parents",
	} {
		resp := env.do(t, http.MethodGet, path, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: got %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestCategoryValidParentsExcludesSubtree(t *testing.T) {
	env := newTestEnv(t)

	suffix := sfx()
	root := env.createCategory(t, "h-vp-root-"+suffix, "Root", nil)
	child := env.createCategory(t, "h-vp-child-"+suffix, "Child", &root.ID)
	grand := env.createCategory(t, "h-vp-grand-"+suffix, "Grandchild", &child.ID)

	resp := env.do(t, http.MethodGet, "/api/categories/"+child.ID.String()+"/valid-parents", nil)
	var items []models.Category
	decode(t, resp, &items)

	for _, c := range items {
		if c.ID == child.ID || c.ID == grand.ID {
			t.Errorf("subtree member %s offered as valid parent", c.Slug)
		}
	}
	found := false
	for _, c := range items {
		if c.ID == root.ID {
			found = true
		}
	}
	if !found {
		t.Error("current parent missing from valid parents")
	}
}

func TestCategoryUpdateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	suffix := sfx()
	c := env.createCategory(t, "h-upd-"+suffix, "Before", nil)

	resp := env.do(t, http.MethodPut, "/api/categories/"+c.ID.String(), map[string]any{
		"translations": map[string]any{
			"en": map[string]any{"name": "After"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("update: got %d, body %s", resp.StatusCode, body)
	}
	var got models.Category
	decode(t, resp, &got)
	if got.Name != "After" {
		t.Errorf("name after update: got %q, want %q", got.Name, "After")
	}
}

func TestCategoryDeleteEndpoint(t *testing.T) {
	env := newTestEnv(t)

	c := env.createCategory(t, "h-del-"+sfx(), "Doomed", nil)

	resp := env.do(t, http.MethodDelete, "/api/categories/"+c.ID.String(), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: got %d, want 204", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/api/categories/"+c.ID.String(), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("detail after delete: got %d, want 404", resp.StatusCode)
	}
}

func TestCategoryRootsAndLeavesEndpoints(t *testing.T) {
	env := newTestEnv(t)

	suffix := sfx()
	root := env.createCategory(t, "h-rl-root-"+suffix, "Root", nil)
	child := env.createCategory(t, "h-rl-child-"+suffix, "Child", &root.ID)

	resp := env.do(t, http.MethodGet, "/api/categories/roots", nil)
	var roots []models.Category
	decode(t, resp, &roots)
	foundRoot := false
	for _, c := range roots {
		if c.ID == root.ID {
			foundRoot = true
		}
		if c.ID == child.ID {
			t.Error("child returned by roots endpoint")
		}
	}
	if !foundRoot {
		t.Error("root missing from roots endpoint")
	}

	resp = env.do(t, http.MethodGet, "/api/categories/leaves", nil)
	var leaves []models.Category
	decode(t, resp, &leaves)
	foundChild := false
	for _, c := range leaves {
		if c.ID == child.ID {
			foundChild = true
		}
		if c.ID == root.ID {
			t.Error("parent returned by leaves endpoint")
		}
	}
	if !foundChild {
		t.Error("leaf missing from leaves endpoint")
	}
}
