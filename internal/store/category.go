// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quizbank/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db sqlx.ExtContext
}

const categoryColumns = `id, name, description, parent_id, created_at, updated_at`

// List returns all categories in creation order, with question counts.
// Creation order is the sibling order of the tree view.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	err := sqlx.SelectContext(ctx, s.db, &items, `
		SELECT c.id, c.name, c.description, c.parent_id, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM questions q WHERE q.category_id = c.id) AS question_count
		FROM categories c
		ORDER BY c.created_at, c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	err := sqlx.GetContext(ctx, s.db, &c, s.db.Rebind(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return &c, nil
}

// FindByName returns the oldest category whose name matches name
// case-insensitively. Returns nil if none does.
func (s *CategoryStore) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := sqlx.GetContext(ctx, s.db, &c, s.db.Rebind(`
		SELECT `+categoryColumns+` FROM categories
		WHERE LOWER(name) = LOWER(?)
		ORDER BY created_at, id
		LIMIT 1`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return &c, nil
}

// Create inserts c, assigning its ID and timestamps.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	c.ID = uuid.New()
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO categories (id, name, description, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Description, c.ParentID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// UpdateDetails writes name and description of c. parent_id is not
// touched; it only changes through SetParent, under the tree lock.
func (s *CategoryStore) UpdateDetails(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE categories SET name = ?, description = ?, updated_at = ?
		WHERE id = ?`),
		c.Name, c.Description, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// SetParent moves category id under parentID (nil makes it a root).
func (s *CategoryStore) SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE categories SET parent_id = ?, updated_at = ? WHERE id = ?`),
		parentID, now(), id,
	)
	if err != nil {
		return fmt.Errorf("set category parent: %w", err)
	}
	return nil
}

// ReparentChildren moves every direct child of from under to (nil makes
// them roots) and returns how many were moved.
func (s *CategoryStore) ReparentChildren(ctx context.Context, from uuid.UUID, to *uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE categories SET parent_id = ?, updated_at = ? WHERE parent_id = ?`),
		to, now(), from,
	)
	if err != nil {
		return 0, fmt.Errorf("reparent children: %w", err)
	}
	return rowsAffected(res)
}

// Delete removes a category by ID and reports whether a row was deleted.
// Callers must move children and questions away first.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// Search returns categories whose name or description contains keyword,
// case-insensitively, in creation order.
func (s *CategoryStore) Search(ctx context.Context, keyword string) ([]models.Category, error) {
	pattern := likePattern(keyword)
	var items []models.Category
	err := sqlx.SelectContext(ctx, s.db, &items, s.db.Rebind(`
		SELECT `+categoryColumns+` FROM categories
		WHERE LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'
		ORDER BY created_at, id`), pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}
	return items, nil
}
