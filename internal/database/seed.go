package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// seedNode describes one category in the demo taxonomy.
type seedNode struct {
	slug        string
	parentSlug  string // "" for roots
	name        string
	description string
}

// demoTaxonomy is the development fixture: a small forest with enough depth
// to exercise hierarchy rendering and parent selection in a consuming UI.
var demoTaxonomy = []seedNode{
	{slug: "electronics", name: "Electronics", description: "Devices and gadgets"},
	{slug: "computers", parentSlug: "electronics", name: "Computers"},
	{slug: "laptops", parentSlug: "computers", name: "Laptops"},
	{slug: "phones", parentSlug: "electronics", name: "Phones"},
	{slug: "books", name: "Books", description: "Printed and digital books"},
	{slug: "fiction", parentSlug: "books", name: "Fiction"},
}

// Seed populates the database with a demo category tree for development.
// It is a no-op when any category already exists.
func Seed(db *sql.DB) error {
	// Check if any categories exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]string, len(demoTaxonomy))
	for _, node := range demoTaxonomy {
		var parentID *string
		if node.parentSlug != "" {
			id, ok := ids[node.parentSlug]
			if !ok {
				return fmt.Errorf("seed: parent %q not inserted before %q", node.parentSlug, node.slug)
			}
			parentID = &id
		}

		var id string
		err := tx.QueryRow(`
			INSERT INTO categories (slug, parent_id)
			VALUES ($1, $2)
			RETURNING id
		`, node.slug, parentID).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", node.slug, err)
		}
		ids[node.slug] = id

		_, err = tx.Exec(`
			INSERT INTO category_translations (category_id, locale, name, description)
			VALUES ($1, 'en', $2, $3)
		`, id, node.name, node.description)
		if err != nil {
			return fmt.Errorf("seed insert translation %q: %w", node.slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo taxonomy", "categories", len(demoTaxonomy))
	return nil
}
