// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PendingStatus is the lifecycle state of a pending question. Only pending
// records are stored; approving or rejecting removes the row.
type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusApproved PendingStatus = "approved"
	PendingStatusRejected PendingStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s PendingStatus) Valid() bool {
	switch s {
	case PendingStatusPending, PendingStatusApproved, PendingStatusRejected:
		return true
	}
	return false
}

// PendingQuestion is an AI-suggested question awaiting review.
type PendingQuestion struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	Content   string        `json:"content" db:"content"`
	Candidate Candidate     `json:"ai_generated_data" db:"candidate"`
	Status    PendingStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// Candidate is the question payload produced by the generator. CategoryID
// and CategoryName are hints used when the reviewer approves without
// choosing a category.
type Candidate struct {
	Content      string     `json:"content"`
	Options      StringList `json:"options"`
	Answer       string     `json:"answer"`
	Explanation  string     `json:"explanation,omitempty"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	CategoryName string     `json:"category_name,omitempty"`
}

// Value implements driver.Valuer.
func (c Candidate) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *Candidate) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan candidate: unsupported type %T", src)
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("scan candidate: %w", err)
	}
	return nil
}
