// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taxonomy/internal/models"
	"taxonomy/internal/store"
)

// Relations groups the owner-association HTTP handlers. The owner identity
// comes straight from the URL; this service never checks that the entity
// behind it exists — that is the host application's registry's business.
type Relations struct {
	store *store.RelationStore
}

// NewRelations creates the relation handler group.
func NewRelations(s *store.RelationStore) *Relations {
	return &Relations{store: s}
}

// pathOwner builds the owner identity from the {type} and {id} URL params.
func pathOwner(r *http.Request) models.Owner {
	return models.Owner{
		Type: chi.URLParam(r, "type"),
		ID:   chi.URLParam(r, "id"),
	}
}

// categoryIDsRequest carries category references for bulk operations.
// For Replace the sequence order becomes the display order.
type categoryIDsRequest struct {
	CategoryIDs []uuid.UUID `json:"category_ids"`
}

// List returns the owner's categories ordered by sort_order, then name.
func (h *Relations) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListForOwner(pathOwner(r), r.URL.Query().Get("locale"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if items == nil {
		items = []models.Category{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Add relates categories to the owner, appending after the current order.
// Already-related categories are skipped.
func (h *Relations) Add(w http.ResponseWriter, r *http.Request) {
	var in categoryIDsRequest
	if !decodeBody(w, r, &in) {
		return
	}
	if len(in.CategoryIDs) > maxBatchSize {
		writeError(w, http.StatusUnprocessableEntity, "Too many categories in one request.")
		return
	}

	if err := h.store.Add(pathOwner(r), in.CategoryIDs...); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Replace rewrites the owner's category set from the submitted sequence,
// the save-form path: order in the request becomes sort_order from 0.
func (h *Relations) Replace(w http.ResponseWriter, r *http.Request) {
	var in categoryIDsRequest
	if !decodeBody(w, r, &in) {
		return
	}
	if len(in.CategoryIDs) > maxBatchSize {
		writeError(w, http.StatusUnprocessableEntity, "Too many categories in one request.")
		return
	}

	if err := h.store.Replace(pathOwner(r), in.CategoryIDs); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove unrelates one category from the owner. Removing a relation that
// does not exist is a no-op and still returns 204.
func (h *Relations) Remove(w http.ResponseWriter, r *http.Request) {
	catID, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}
	if err := h.store.Remove(pathOwner(r), catID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear unrelates every category from the owner.
func (h *Relations) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(pathOwner(r)); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
