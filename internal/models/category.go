// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the taxonomy tree. Categories form a forest via
// ParentID (nil = root) and can be attached to any external entity through
// CategoryRelation. Name and Description live in category_translations,
// one row per locale; the store resolves them for a requested locale.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Locale-resolved display fields populated by store methods.
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Full translation set, populated by point lookups.
	Translations []CategoryTranslation `json:"translations,omitempty"`

	// Virtual tree fields populated by hierarchy queries.
	// Path is the slash-joined chain from the root's name down through the
	// slugs ("Electronics/computers/laptops"); Depth is 0 for roots.
	Path     string     `json:"path,omitempty"`
	Depth    int        `json:"depth"`
	Children []Category `json:"children,omitempty"`

	// Number of relation rows referencing this category, populated by List.
	RelationCount int `json:"relation_count"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// CategoryTranslation holds the localizable fields of a Category for one
// locale. A category needs at least one translation with a non-empty name
// to be displayable.
type CategoryTranslation struct {
	CategoryID  uuid.UUID `json:"-"`
	Locale      string    `json:"locale"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// TranslationFor returns the translation for the given locale and whether
// one exists.
func (c *Category) TranslationFor(locale string) (CategoryTranslation, bool) {
	for _, tr := range c.Translations {
		if tr.Locale == locale {
			return tr, true
		}
	}
	return CategoryTranslation{}, false
}
