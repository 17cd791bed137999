// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Question is an approved entry in the catalog.
type Question struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Content     string     `json:"content" db:"content"`
	Options     StringList `json:"options" db:"options"`
	Answer      string     `json:"answer" db:"answer"`
	Explanation *string    `json:"explanation" db:"explanation"`
	CategoryID  uuid.UUID  `json:"category_id" db:"category_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	Tags []Tag `json:"tags" db:"-"`
}

// HasExplanation reports whether a non-empty explanation is stored.
func (q *Question) HasExplanation() bool {
	return q.Explanation != nil && strings.TrimSpace(*q.Explanation) != ""
}

// Tag is a free-form label attached to questions.
type Tag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DefaultTagColor is applied when a tag is created without a color.
const DefaultTagColor = "#667eea"

// StringList is an ordered list of strings persisted as a JSON array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Contains reports whether s is one of the list entries.
func (l StringList) Contains(s string) bool {
	return slices.Contains(l, s)
}
