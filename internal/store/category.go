// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"taxonomy/internal/models"
	"taxonomy/internal/slug"
)

// CategoryStore manages the category tree in the database. The tree is an
// adjacency list (parent_id pointers); descendant sets and hierarchy paths
// are materialized with recursive CTEs so every read is a single round trip
// regardless of tree depth.
type CategoryStore struct {
	db            *sql.DB
	defaultLocale string
}

// NewCategoryStore returns a new CategoryStore. defaultLocale is used to
// resolve display names when the caller does not request a locale, and as
// the second fallback when a requested locale has no translation.
func NewCategoryStore(db *sql.DB, defaultLocale string) *CategoryStore {
	return &CategoryStore{db: db, defaultLocale: defaultLocale}
}

const categoryColumns = `id, parent_id, slug, created_at, updated_at`

// localizedFields resolves name and description for one category with a
// three-step fallback: requested locale ($1), default locale ($2), then the
// lexicographically first available locale. A missing translation degrades
// the display, it never fails the query. Queries embedding this fragment
// must bind the requested locale as $1 and the default as $2.
const localizedFields = `
	COALESCE(
		(SELECT name FROM category_translations WHERE category_id = c.id AND locale = $1),
		(SELECT name FROM category_translations WHERE category_id = c.id AND locale = $2),
		(SELECT name FROM category_translations WHERE category_id = c.id ORDER BY locale LIMIT 1),
		''
	) AS name,
	COALESCE(
		(SELECT description FROM category_translations WHERE category_id = c.id AND locale = $1),
		(SELECT description FROM category_translations WHERE category_id = c.id AND locale = $2),
		(SELECT description FROM category_translations WHERE category_id = c.id ORDER BY locale LIMIT 1),
		''
	) AS description`

// Translation is the localizable input for one locale.
type Translation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewCategory is the input for Create.
type NewCategory struct {
	Slug         string                 `json:"slug"`
	ParentID     *uuid.UUID             `json:"parent_id"`
	Translations map[string]Translation `json:"translations"`
}

// UpdateCategory is the input for Update. Nil Slug keeps the current slug —
// a slug is never re-derived from the name after creation. Translations are
// upserted per locale; RemoveLocales are deleted.
type UpdateCategory struct {
	Slug          *string                `json:"slug"`
	Translations  map[string]Translation `json:"translations"`
	RemoveLocales []string               `json:"remove_locales"`
}

// displayName returns the creation-time display name using the same
// fallback order the queries use, preferring the store's default locale.
func (in NewCategory) displayName(defaultLocale string) string {
	if tr, ok := in.Translations[defaultLocale]; ok && tr.Name != "" {
		return tr.Name
	}
	locales := make([]string, 0, len(in.Translations))
	for loc := range in.Translations {
		locales = append(locales, loc)
	}
	sort.Strings(locales)
	for _, loc := range locales {
		if in.Translations[loc].Name != "" {
			return in.Translations[loc].Name
		}
	}
	return ""
}

// Create inserts a new category with its translations in one transaction.
// When no slug is given it is derived from the display name. A category
// needs at least one locale with a non-empty name.
func (s *CategoryStore) Create(in NewCategory) (*models.Category, error) {
	name := in.displayName(s.defaultLocale)
	if name == "" {
		return nil, fmt.Errorf("create category: name missing in every locale: %w", ErrValidation)
	}
	for loc, tr := range in.Translations {
		if tr.Name == "" {
			return nil, fmt.Errorf("create category: empty name for locale %q: %w", loc, ErrValidation)
		}
	}

	catSlug := in.Slug
	if catSlug == "" {
		catSlug = slug.Derive(name)
	}
	if !slug.Valid(catSlug) {
		return nil, fmt.Errorf("create category: invalid slug %q: %w", catSlug, ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create category: begin tx: %w", err)
	}
	defer tx.Rollback()

	if in.ParentID != nil {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, *in.ParentID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("create category: check parent: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("create category: parent %s not found: %w", *in.ParentID, ErrValidation)
		}
	}

	// Pre-check the slug so the common collision surfaces as a validation
	// error. The unique constraint still catches a concurrent insert.
	var taken bool
	if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1)`, catSlug).Scan(&taken); err != nil {
		return nil, fmt.Errorf("create category: check slug: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("create category: slug %q already exists: %w", catSlug, ErrValidation)
	}

	var c models.Category
	err = tx.QueryRow(`
		INSERT INTO categories (slug, parent_id)
		VALUES ($1, $2)
		RETURNING `+categoryColumns,
		catSlug, in.ParentID,
	).Scan(&c.ID, &c.ParentID, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create category: slug %q taken concurrently: %w", catSlug, ErrConflict)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	locales := make([]string, 0, len(in.Translations))
	for loc := range in.Translations {
		locales = append(locales, loc)
	}
	sort.Strings(locales)
	for _, loc := range locales {
		tr := in.Translations[loc]
		_, err := tx.Exec(`
			INSERT INTO category_translations (category_id, locale, name, description)
			VALUES ($1, $2, $3, $4)
		`, c.ID, loc, tr.Name, tr.Description)
		if err != nil {
			return nil, fmt.Errorf("create category: insert translation %q: %w", loc, err)
		}
		c.Translations = append(c.Translations, models.CategoryTranslation{
			CategoryID: c.ID, Locale: loc, Name: tr.Name, Description: tr.Description,
		})
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create category: slug %q taken concurrently: %w", catSlug, ErrConflict)
		}
		return nil, fmt.Errorf("create category: commit: %w", err)
	}

	c.Name = name
	if tr, ok := c.TranslationFor(s.defaultLocale); ok {
		c.Description = tr.Description
	}
	return &c, nil
}

// FindByID retrieves a category with its full translation set.
// Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return s.scanWithTranslations(row, fmt.Sprintf("find category by id %s", id))
}

// FindBySlug retrieves a category by its unique slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(catSlug string) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, catSlug)
	return s.scanWithTranslations(row, fmt.Sprintf("find category by slug %q", catSlug))
}

func (s *CategoryStore) scanWithTranslations(row *sql.Row, op string) (*models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.ParentID, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.Query(`
		SELECT category_id, locale, name, description
		FROM category_translations
		WHERE category_id = $1
		ORDER BY locale
	`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: load translations: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr models.CategoryTranslation
		if err := rows.Scan(&tr.CategoryID, &tr.Locale, &tr.Name, &tr.Description); err != nil {
			return nil, fmt.Errorf("%s: scan translation: %w", op, err)
		}
		c.Translations = append(c.Translations, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Resolve display fields against the default locale, degrading to any
	// available translation.
	if tr, ok := c.TranslationFor(s.defaultLocale); ok {
		c.Name, c.Description = tr.Name, tr.Description
	} else if len(c.Translations) > 0 {
		c.Name, c.Description = c.Translations[0].Name, c.Translations[0].Description
	}
	return &c, nil
}

// Update modifies a category's slug and translations. The slug is only
// changed when explicitly provided; it is never re-derived from a name.
func (s *CategoryStore) Update(id uuid.UUID, in UpdateCategory) (*models.Category, error) {
	for loc, tr := range in.Translations {
		if tr.Name == "" {
			return nil, fmt.Errorf("update category: empty name for locale %q: %w", loc, ErrValidation)
		}
	}
	if in.Slug != nil && !slug.Valid(*in.Slug) {
		return nil, fmt.Errorf("update category: invalid slug %q: %w", *in.Slug, ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update category: begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("update category: %s not found: %w", id, ErrValidation)
	}

	if in.Slug != nil {
		var taken bool
		err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`, *in.Slug, id).Scan(&taken)
		if err != nil {
			return nil, fmt.Errorf("update category: check slug: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("update category: slug %q already exists: %w", *in.Slug, ErrValidation)
		}
		if _, err := tx.Exec(`UPDATE categories SET slug = $1 WHERE id = $2`, *in.Slug, id); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("update category: slug %q taken concurrently: %w", *in.Slug, ErrConflict)
			}
			return nil, fmt.Errorf("update category: set slug: %w", err)
		}
	}

	locales := make([]string, 0, len(in.Translations))
	for loc := range in.Translations {
		locales = append(locales, loc)
	}
	sort.Strings(locales)
	for _, loc := range locales {
		tr := in.Translations[loc]
		_, err := tx.Exec(`
			INSERT INTO category_translations (category_id, locale, name, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (category_id, locale)
			DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
		`, id, loc, tr.Name, tr.Description)
		if err != nil {
			return nil, fmt.Errorf("update category: upsert translation %q: %w", loc, err)
		}
	}

	for _, loc := range in.RemoveLocales {
		if _, err := tx.Exec(`DELETE FROM category_translations WHERE category_id = $1 AND locale = $2`, id, loc); err != nil {
			return nil, fmt.Errorf("update category: remove translation %q: %w", loc, err)
		}
	}

	// The category must stay displayable in at least one locale.
	var remaining int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM category_translations WHERE category_id = $1 AND name <> ''`, id).Scan(&remaining); err != nil {
		return nil, fmt.Errorf("update category: count translations: %w", err)
	}
	if remaining == 0 {
		return nil, fmt.Errorf("update category: name missing in every locale: %w", ErrValidation)
	}

	if _, err := tx.Exec(`UPDATE categories SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update category: %w", ErrConflict)
		}
		return nil, fmt.Errorf("update category: commit: %w", err)
	}

	return s.FindByID(id)
}

// Delete removes a category. The database cascades the delete to every
// descendant category, their translations, and all relation rows referencing
// any of them. Callers wanting non-cascading semantics must check for
// children first.
func (s *CategoryStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// Reparent moves a category under a new parent (nil makes it a root).
// The whole subtree is row-locked while the cycle check runs, and the new
// parent row is locked before its ancestor chain is walked, so a concurrent
// reparent of another node cannot interleave to create a cycle neither
// transaction saw. On any failure the tree is left unchanged.
func (s *CategoryStore) Reparent(id uuid.UUID, newParent *uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("reparent category: begin tx: %w", err)
	}
	defer tx.Rollback()

	// Lock the category and its entire descendant set. FOR UPDATE cannot
	// appear inside a recursive term, so the CTE collects the IDs and the
	// outer select takes the locks.
	rows, err := tx.Query(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM categories WHERE id = $1
			UNION
			SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM categories WHERE id IN (SELECT id FROM subtree) FOR UPDATE
	`, id)
	if err != nil {
		return fmt.Errorf("reparent category: lock subtree: %w", err)
	}
	subtree := make(map[uuid.UUID]bool)
	for rows.Next() {
		var nodeID uuid.UUID
		if err := rows.Scan(&nodeID); err != nil {
			rows.Close()
			return fmt.Errorf("reparent category: scan subtree: %w", err)
		}
		subtree[nodeID] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("reparent category: %w", err)
	}
	rows.Close()

	if !subtree[id] {
		return fmt.Errorf("reparent category: %s not found: %w", id, ErrValidation)
	}

	if newParent != nil {
		if subtree[*newParent] {
			return fmt.Errorf("reparent category: %s is %s or one of its descendants: %w", *newParent, id, ErrCycle)
		}

		// Lock the new parent row. If a concurrent transaction is moving
		// the parent itself, this waits until that move has committed, so
		// the ancestor walk below reads its result instead of a stale
		// snapshot.
		var parentID uuid.UUID
		err := tx.QueryRow(`SELECT id FROM categories WHERE id = $1 FOR UPDATE`, *newParent).Scan(&parentID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reparent category: parent %s not found: %w", *newParent, ErrValidation)
		}
		if err != nil {
			return fmt.Errorf("reparent category: lock parent: %w", err)
		}

		// Walk the new parent's ancestor chain upward. The subtree check
		// above works on the snapshot taken when this transaction started;
		// a reparent committed since then only shows up here.
		var onPath bool
		err = tx.QueryRow(`
			WITH RECURSIVE ancestors AS (
				SELECT id, parent_id FROM categories WHERE id = $1
				UNION
				SELECT c.id, c.parent_id FROM categories c JOIN ancestors a ON c.id = a.parent_id
			)
			SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = $2)
		`, *newParent, id).Scan(&onPath)
		if err != nil {
			return fmt.Errorf("reparent category: check ancestors: %w", err)
		}
		if onPath {
			return fmt.Errorf("reparent category: %s is %s or one of its descendants: %w", *newParent, id, ErrCycle)
		}
	}

	if _, err := tx.Exec(`UPDATE categories SET parent_id = $1, updated_at = NOW() WHERE id = $2`, newParent, id); err != nil {
		return fmt.Errorf("reparent category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reparent category: commit: %w", err)
	}
	return nil
}

// DescendantsOf returns every category reachable downward from the given
// node, computed as one recursive query. UNION deduplicates, so the
// expansion stops at the same fixed point an in-process seed-and-expand
// loop would reach. With includeSelf=false the seed node is excluded.
func (s *CategoryStore) DescendantsOf(id uuid.UUID, includeSelf bool) ([]models.Category, error) {
	rows, err := s.db.Query(`
		WITH RECURSIVE subtree AS (
			SELECT id, parent_id, slug, created_at, updated_at
			FROM categories WHERE id = $1
			UNION
			SELECT c.id, c.parent_id, c.slug, c.created_at, c.updated_at
			FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id, parent_id, slug, created_at, updated_at
		FROM subtree
		WHERE $2 OR id <> $1
		ORDER BY slug
	`, id, includeSelf)
	if err != nil {
		return nil, fmt.Errorf("descendants of %s: %w", id, err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("descendants of %s: scan: %w", id, err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// WithHierarchy returns every category with its materialized path and depth,
// ordered byte-wise by path. A path is always a prefix of its descendants'
// paths, so this ordering lists every parent strictly before its children
// and keeps siblings contiguous. Roots use their locale-resolved name as
// path; deeper nodes append "/" + slug. One recursive query covers the
// whole forest.
func (s *CategoryStore) WithHierarchy(locale string) ([]models.Category, error) {
	if locale == "" {
		locale = s.defaultLocale
	}
	rows, err := s.db.Query(`
		WITH RECURSIVE localized AS (
			SELECT c.id, c.parent_id, c.slug, c.created_at, c.updated_at, `+localizedFields+`
			FROM categories c
		),
		tree AS (
			SELECT id, parent_id, slug, created_at, updated_at, name, description,
			       name AS path, 0 AS depth
			FROM localized
			WHERE parent_id IS NULL
			UNION ALL
			SELECT l.id, l.parent_id, l.slug, l.created_at, l.updated_at, l.name, l.description,
			       t.path || '/' || l.slug, t.depth + 1
			FROM localized l JOIN tree t ON l.parent_id = t.id
		)
		SELECT id, parent_id, slug, created_at, updated_at, name, description, path, depth
		FROM tree
		ORDER BY path COLLATE "C", id
	`, locale, s.defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("category hierarchy: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.ParentID, &c.Slug, &c.CreatedAt, &c.UpdatedAt,
			&c.Name, &c.Description, &c.Path, &c.Depth,
		)
		if err != nil {
			return nil, fmt.Errorf("category hierarchy: scan: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Tree returns the hierarchy as nested Children slices, for consumers that
// want the forest shape instead of the flat path-ordered list.
func (s *CategoryStore) Tree(locale string) ([]models.Category, error) {
	flat, err := s.WithHierarchy(locale)
	if err != nil {
		return nil, err
	}
	return buildTree(flat, nil), nil
}

// buildTree nests a path-ordered flat list. Parents precede their children
// in the input, so a single pass with an index by ID suffices.
func buildTree(flat []models.Category, parentID *uuid.UUID) []models.Category {
	var result []models.Category
	for _, c := range flat {
		if ptrEqual(c.ParentID, parentID) {
			c.Children = buildTree(flat, &c.ID)
			result = append(result, c)
		}
	}
	return result
}

// ptrEqual compares two *uuid.UUID for equality (both nil or same value).
func ptrEqual(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// ValidParents returns the hierarchy minus the given category and its
// descendants: the set a parent-selection widget may offer without letting
// the user create a cycle.
func (s *CategoryStore) ValidParents(id uuid.UUID, locale string) ([]models.Category, error) {
	all, err := s.WithHierarchy(locale)
	if err != nil {
		return nil, err
	}
	sub, err := s.DescendantsOf(id, true)
	if err != nil {
		return nil, err
	}
	excluded := make(map[uuid.UUID]bool, len(sub))
	for _, c := range sub {
		excluded[c.ID] = true
	}

	var items []models.Category
	for _, c := range all {
		if !excluded[c.ID] {
			items = append(items, c)
		}
	}
	return items, nil
}

// Roots returns all categories without a parent, named in the default locale.
func (s *CategoryStore) Roots() ([]models.Category, error) {
	return s.queryFlat(`
		SELECT c.id, c.parent_id, c.slug, c.created_at, c.updated_at, `+localizedFields+`
		FROM categories c
		WHERE c.parent_id IS NULL
		ORDER BY c.slug
	`, "roots")
}

// Leaves returns all categories that no other category points at.
func (s *CategoryStore) Leaves() ([]models.Category, error) {
	return s.queryFlat(`
		SELECT c.id, c.parent_id, c.slug, c.created_at, c.updated_at, `+localizedFields+`
		FROM categories c
		WHERE NOT EXISTS (SELECT 1 FROM categories ch WHERE ch.parent_id = c.id)
		ORDER BY c.slug
	`, "leaves")
}

func (s *CategoryStore) queryFlat(query, op string) ([]models.Category, error) {
	rows, err := s.db.Query(query, s.defaultLocale, s.defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(&c.ID, &c.ParentID, &c.Slug, &c.CreatedAt, &c.UpdatedAt, &c.Name, &c.Description)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// List returns all categories flat, ordered by display name, with the
// number of relation rows referencing each.
func (s *CategoryStore) List(locale string) ([]models.Category, error) {
	if locale == "" {
		locale = s.defaultLocale
	}
	rows, err := s.db.Query(`
		SELECT c.id, c.parent_id, c.slug, c.created_at, c.updated_at, `+localizedFields+`,
		       COUNT(r.id) AS relation_count
		FROM categories c
		LEFT JOIN category_relations r ON r.category_id = c.id
		GROUP BY c.id
		ORDER BY name, c.slug
	`, locale, s.defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.ParentID, &c.Slug, &c.CreatedAt, &c.UpdatedAt,
			&c.Name, &c.Description, &c.RelationCount,
		)
		if err != nil {
			return nil, fmt.Errorf("list categories: scan: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
