// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// UncategorizedID is the fixed id of the sentinel category that receives
// questions orphaned by a category delete. It is created by the first
// migration and is always a root.
var UncategorizedID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Category is a node in the category forest. A nil ParentID makes it a root.
type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	ParentID    *uuid.UUID `json:"parent_id" db:"parent_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// Virtual fields populated by store and tree methods.
	Children      []*Category `json:"children,omitempty" db:"-"`
	Depth         int         `json:"depth" db:"-"`
	QuestionCount int         `json:"question_count" db:"question_count"`
}

// IsUncategorized reports whether c is the sentinel category.
func (c *Category) IsUncategorized() bool {
	return c.ID == UncategorizedID
}
