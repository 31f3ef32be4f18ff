// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taxonomy/internal/store"
)

// Categories groups the category tree HTTP handlers.
type Categories struct {
	store *store.CategoryStore
}

// NewCategories creates the category handler group.
func NewCategories(s *store.CategoryStore) *Categories {
	return &Categories{store: s}
}

// pathID parses the {id} URL parameter. Returns false after writing a 400
// when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id: "+err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// exists answers a 404 (or a store error) when the category is not there.
// Subtree reads on a vanished id would otherwise return an empty 200, and a
// parent-selection feed would offer the whole tree.
func (h *Categories) exists(w http.ResponseWriter, id uuid.UUID) bool {
	c, err := h.store.FindByID(id)
	if err != nil {
		writeStoreError(w, err)
		return false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return false
	}
	return true
}

// List returns every category with its hierarchy path and depth, ordered so
// parents precede children. UI layers indent each row proportionally to its
// depth.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.WithHierarchy(r.URL.Query().Get("locale"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Tree returns the categories as a nested forest.
func (h *Categories) Tree(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Tree(r.URL.Query().Get("locale"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Roots returns the categories without a parent.
func (h *Categories) Roots(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Roots()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Leaves returns the categories without children.
func (h *Categories) Leaves(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Leaves()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create inserts a new category.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var in store.NewCategory
	if !decodeBody(w, r, &in) {
		return
	}
	if msg := validateSlug(in.Slug); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if msg := validateTranslations(in.Translations); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	created, err := h.store.Create(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Detail returns one category with its full translation set.
func (h *Categories) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.store.FindByID(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Update changes a category's slug and translations.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in store.UpdateCategory
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Slug != nil {
		if msg := validateSlug(*in.Slug); msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}
	if msg := validateTranslations(in.Translations); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	updated, err := h.store.Update(id, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a category. The delete cascades to descendants and their
// relations; that is the documented contract, not an error condition.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reparentRequest carries the target parent; null promotes to root.
type reparentRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// Reparent moves a category under a new parent. A target inside the
// category's own subtree is rejected with 409 and the tree is unchanged.
func (h *Categories) Reparent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in reparentRequest
	if !decodeBody(w, r, &in) {
		return
	}

	if err := h.store.Reparent(id, in.ParentID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Descendants returns the category's subtree. ?include_self=true includes
// the category itself.
func (h *Categories) Descendants(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !h.exists(w, id) {
		return
	}
	includeSelf := r.URL.Query().Get("include_self") == "true"

	items, err := h.store.DescendantsOf(id, includeSelf)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ValidParents returns the categories that may become the given category's
// parent without creating a cycle. Parent-selection widgets consume this.
func (h *Categories) ValidParents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !h.exists(w, id) {
		return
	}
	items, err := h.store.ValidParents(id, r.URL.Query().Get("locale"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
