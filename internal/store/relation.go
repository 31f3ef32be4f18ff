// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// relation.go implements the generic association between categories and
// arbitrary external entities. An owner is an opaque (type, id) pair; the
// store never checks that the referenced entity exists. The triple
// (category_id, owner_type, owner_id) is unique, sort_order values are
// meaningful only within one owner and may have gaps.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// RelationStore manages category-to-owner relations in the database.
type RelationStore struct {
	db            *sql.DB
	defaultLocale string
}

// NewRelationStore returns a new RelationStore.
func NewRelationStore(db *sql.DB, defaultLocale string) *RelationStore {
	return &RelationStore{db: db, defaultLocale: defaultLocale}
}

// mutableOwner rejects owners without a persisted identity. Mutations must
// never fabricate an identity for an unsaved entity.
func mutableOwner(owner models.Owner) error {
	if err := owner.Validate(); err != nil {
		return fmt.Errorf("%s: %w", err, ErrPrecondition)
	}
	return nil
}

// scanRelations drains rows selected with relationColumns.
func scanRelations(rows *sql.Rows) ([]models.CategoryRelation, error) {
	defer rows.Close()
	var rels []models.CategoryRelation
	for rows.Next() {
		var r models.CategoryRelation
		err := rows.Scan(&r.ID, &r.CategoryID, &r.OwnerType, &r.OwnerID, &r.SortOrder, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

const relationColumns = `id, category_id, owner_type, owner_id, sort_order, created_at`

// RelationsFor returns the owner's raw relation rows in sort order, without
// joining category data. Callers that only need category IDs and positions,
// such as form pre-population, read this instead of ListForOwner.
func (s *RelationStore) RelationsFor(owner models.Owner) ([]models.CategoryRelation, error) {
	if owner.Validate() != nil {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT `+relationColumns+` FROM category_relations
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY sort_order, id
	`, owner.Type, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("relations for %s: %w", owner, err)
	}
	rels, err := scanRelations(rows)
	if err != nil {
		return nil, fmt.Errorf("relations for %s: %w", owner, err)
	}
	return rels, nil
}

// ListForOwner returns the categories related to the owner, ordered by
// sort_order and then by display name. An owner without identity has
// nothing related to it, so the result is empty rather than an error.
func (s *RelationStore) ListForOwner(owner models.Owner, locale string) ([]models.Category, error) {
	if owner.Validate() != nil {
		return nil, nil
	}
	if locale == "" {
		locale = s.defaultLocale
	}
	rows, err := s.db.Query(`
		SELECT c.id, c.parent_id, c.slug, c.created_at, c.updated_at, `+localizedFields+`,
		       r.sort_order
		FROM category_relations r
		JOIN categories c ON c.id = r.category_id
		WHERE r.owner_type = $3 AND r.owner_id = $4
		ORDER BY r.sort_order, name
	`, locale, s.defaultLocale, owner.Type, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories for %s: %w", owner, err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		var sortOrder int
		err := rows.Scan(&c.ID, &c.ParentID, &c.Slug, &c.CreatedAt, &c.UpdatedAt, &c.Name, &c.Description, &sortOrder)
		if err != nil {
			return nil, fmt.Errorf("list categories for %s: scan: %w", owner, err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Add relates categories to the owner. Categories already related are
// skipped, duplicates in the input are deduplicated, and the new rows get
// consecutive sort_order values continuing after the owner's current
// maximum. A concurrent insert of the same relation surfaces as ErrConflict.
func (s *RelationStore) Add(owner models.Owner, categoryIDs ...uuid.UUID) error {
	if err := mutableOwner(owner); err != nil {
		return fmt.Errorf("add categories: %w", err)
	}
	if len(categoryIDs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("add categories for %s: begin tx: %w", owner, err)
	}
	defer tx.Rollback()

	// Lock the owner's existing rows so the max sort_order stays stable
	// for the duration of the append.
	rows, err := tx.Query(`
		SELECT `+relationColumns+` FROM category_relations
		WHERE owner_type = $1 AND owner_id = $2
		FOR UPDATE
	`, owner.Type, owner.ID)
	if err != nil {
		return fmt.Errorf("add categories for %s: lock relations: %w", owner, err)
	}
	rels, err := scanRelations(rows)
	if err != nil {
		return fmt.Errorf("add categories for %s: scan: %w", owner, err)
	}
	existing := make(map[uuid.UUID]bool, len(rels))
	next := 0
	for _, rel := range rels {
		existing[rel.CategoryID] = true
		if rel.SortOrder >= next {
			next = rel.SortOrder + 1
		}
	}

	for _, catID := range categoryIDs {
		if existing[catID] {
			continue
		}
		existing[catID] = true

		_, err := tx.Exec(`
			INSERT INTO category_relations (category_id, owner_type, owner_id, sort_order)
			VALUES ($1, $2, $3, $4)
		`, catID, owner.Type, owner.ID, next)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("add categories for %s: relation to %s created concurrently: %w", owner, catID, ErrConflict)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("add categories for %s: category %s not found: %w", owner, catID, ErrValidation)
			}
			return fmt.Errorf("add categories for %s: %w", owner, err)
		}
		next++
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("add categories for %s: %w", owner, ErrConflict)
		}
		return fmt.Errorf("add categories for %s: commit: %w", owner, err)
	}
	return nil
}

// Remove deletes the relations between the owner and the given categories.
// Removing a relation that does not exist is a no-op. Remaining sort_order
// values keep their gaps; nothing is renumbered.
func (s *RelationStore) Remove(owner models.Owner, categoryIDs ...uuid.UUID) error {
	if err := mutableOwner(owner); err != nil {
		return fmt.Errorf("remove categories: %w", err)
	}
	if len(categoryIDs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("remove categories for %s: begin tx: %w", owner, err)
	}
	defer tx.Rollback()

	for _, catID := range categoryIDs {
		_, err := tx.Exec(`
			DELETE FROM category_relations
			WHERE category_id = $1 AND owner_type = $2 AND owner_id = $3
		`, catID, owner.Type, owner.ID)
		if err != nil {
			return fmt.Errorf("remove categories for %s: %w", owner, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("remove categories for %s: commit: %w", owner, err)
	}
	return nil
}

// Clear deletes every relation the owner has.
func (s *RelationStore) Clear(owner models.Owner) error {
	if err := mutableOwner(owner); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	_, err := s.db.Exec(`
		DELETE FROM category_relations WHERE owner_type = $1 AND owner_id = $2
	`, owner.Type, owner.ID)
	if err != nil {
		return fmt.Errorf("clear categories for %s: %w", owner, err)
	}
	return nil
}

// Set establishes the exact target category set for the owner in one
// transaction, so concurrent readers never observe the owner with zero
// categories in between. Order follows the input sequence.
func (s *RelationStore) Set(owner models.Owner, categoryIDs []uuid.UUID) error {
	return s.replace(owner, categoryIDs, "set categories")
}

// Replace is the form-submit path: it drops the owner's relations and
// recreates them from the submitted sequence, sort_order = position
// starting at 0. Duplicates keep their first position.
func (s *RelationStore) Replace(owner models.Owner, categoryIDs []uuid.UUID) error {
	return s.replace(owner, categoryIDs, "replace categories")
}

func (s *RelationStore) replace(owner models.Owner, categoryIDs []uuid.UUID, op string) error {
	if err := mutableOwner(owner); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%s for %s: begin tx: %w", op, owner, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM category_relations WHERE owner_type = $1 AND owner_id = $2
	`, owner.Type, owner.ID)
	if err != nil {
		return fmt.Errorf("%s for %s: clear: %w", op, owner, err)
	}

	seen := make(map[uuid.UUID]bool, len(categoryIDs))
	order := 0
	for _, catID := range categoryIDs {
		if seen[catID] {
			continue
		}
		seen[catID] = true

		_, err := tx.Exec(`
			INSERT INTO category_relations (category_id, owner_type, owner_id, sort_order)
			VALUES ($1, $2, $3, $4)
		`, catID, owner.Type, owner.ID, order)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s for %s: %w", op, owner, ErrConflict)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%s for %s: category %s not found: %w", op, owner, catID, ErrValidation)
			}
			return fmt.Errorf("%s for %s: %w", op, owner, err)
		}
		order++
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s for %s: %w", op, owner, ErrConflict)
		}
		return fmt.Errorf("%s for %s: commit: %w", op, owner, err)
	}
	return nil
}

// CountForOwner returns how many categories the owner is related to.
func (s *RelationStore) CountForOwner(owner models.Owner) (int, error) {
	if owner.Validate() != nil {
		return 0, nil
	}
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM category_relations WHERE owner_type = $1 AND owner_id = $2
	`, owner.Type, owner.ID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count categories for %s: %w", owner, err)
	}
	return count, nil
}

// OwnerCategories is a thin accessor binding one owner to the store. Host
// entities construct it on demand instead of holding relation state
// themselves; it carries nothing beyond the store and the owner identity.
type OwnerCategories struct {
	store *RelationStore
	owner models.Owner
}

// Of returns an accessor for the given owner's categories.
func (s *RelationStore) Of(owner models.Owner) *OwnerCategories {
	return &OwnerCategories{store: s, owner: owner}
}

// List returns the owner's categories in display order.
func (oc *OwnerCategories) List(locale string) ([]models.Category, error) {
	return oc.store.ListForOwner(oc.owner, locale)
}

// Relations returns the owner's raw relation rows in sort order.
func (oc *OwnerCategories) Relations() ([]models.CategoryRelation, error) {
	return oc.store.RelationsFor(oc.owner)
}

// Add relates the given categories to the owner.
func (oc *OwnerCategories) Add(categoryIDs ...uuid.UUID) error {
	return oc.store.Add(oc.owner, categoryIDs...)
}

// Remove unrelates the given categories from the owner.
func (oc *OwnerCategories) Remove(categoryIDs ...uuid.UUID) error {
	return oc.store.Remove(oc.owner, categoryIDs...)
}

// Clear unrelates every category from the owner.
func (oc *OwnerCategories) Clear() error {
	return oc.store.Clear(oc.owner)
}

// Set establishes the exact category set for the owner.
func (oc *OwnerCategories) Set(categoryIDs []uuid.UUID) error {
	return oc.store.Set(oc.owner, categoryIDs)
}

// Replace rewrites the owner's categories from an ordered form submission.
func (oc *OwnerCategories) Replace(categoryIDs []uuid.UUID) error {
	return oc.store.Replace(oc.owner, categoryIDs)
}

// Count returns how many categories the owner has.
func (oc *OwnerCategories) Count() (int, error) {
	return oc.store.CountForOwner(oc.owner)
}
