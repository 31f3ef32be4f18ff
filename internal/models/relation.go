// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Owner identifies the external entity a category is attached to: a type
// discriminator plus that type's primary key, both opaque to this service.
// The host application's entity registry decides what the values mean; the
// store only filters on them and never checks that the entity exists.
type Owner struct {
	Type string `json:"owner_type"`
	ID   string `json:"owner_id"`
}

// Validate returns an error when the owner has no usable identity, i.e.
// either part is empty. An entity that has not been persisted yet has no ID
// to relate categories to.
func (o Owner) Validate() error {
	if o.Type == "" {
		return fmt.Errorf("owner type is empty")
	}
	if o.ID == "" {
		return fmt.Errorf("owner %q has no persisted identity", o.Type)
	}
	return nil
}

// String renders the owner as "type:id" for logs and error messages.
func (o Owner) String() string {
	return o.Type + ":" + o.ID
}

// CategoryRelation links a Category to an Owner. The triple
// (category_id, owner_type, owner_id) is unique: a category attaches to a
// given entity at most once. SortOrder orders categories within one owner;
// values may have gaps and are never renumbered.
type CategoryRelation struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	OwnerType  string    `json:"owner_type"`
	OwnerID    string    `json:"owner_id"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

// Owner returns the relation's owner reference.
func (r *CategoryRelation) Owner() Owner {
	return Owner{Type: r.OwnerType, ID: r.OwnerID}
}
