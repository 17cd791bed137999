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

// TagStore manages tags.
type TagStore struct {
	db sqlx.ExtContext
}

const tagColumns = `id, name, color, created_at`

// List returns all tags, newest first.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	var items []models.Tag
	if err := sqlx.SelectContext(ctx, s.db, &items, `SELECT `+tagColumns+` FROM tags ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return items, nil
}

// FindByID retrieves a tag by ID. Returns nil if not found.
func (s *TagStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var t models.Tag
	err := sqlx.GetContext(ctx, s.db, &t, s.db.Rebind(`SELECT `+tagColumns+` FROM tags WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return &t, nil
}

// FindByName retrieves a tag by exact name. Returns nil if not found.
func (s *TagStore) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	err := sqlx.GetContext(ctx, s.db, &t, s.db.Rebind(`SELECT `+tagColumns+` FROM tags WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by name: %w", err)
	}
	return &t, nil
}

// MissingIDs returns the ids in ids that have no tag row.
func (s *TagStore) MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id FROM tags WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("check tags: %w", err)
	}
	var found []uuid.UUID
	if err := sqlx.SelectContext(ctx, s.db, &found, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("check tags: %w", err)
	}

	have := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Create inserts t, assigning its ID and timestamp.
func (s *TagStore) Create(ctx context.Context, t *models.Tag) error {
	t.ID = uuid.New()
	t.CreatedAt = now()
	if t.Color == "" {
		t.Color = models.DefaultTagColor
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)`),
		t.ID, t.Name, t.Color, t.CreatedAt,
	); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// Delete removes a tag and its question links, reporting whether it existed.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM question_tags WHERE tag_id = ?`), id); err != nil {
		return false, fmt.Errorf("delete tag links: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tags WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// Search returns tags whose name contains keyword, case-insensitively.
func (s *TagStore) Search(ctx context.Context, keyword string) ([]models.Tag, error) {
	var items []models.Tag
	err := sqlx.SelectContext(ctx, s.db, &items, s.db.Rebind(`
		SELECT `+tagColumns+` FROM tags WHERE LOWER(name) LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC`), likePattern(keyword))
	if err != nil {
		return nil, fmt.Errorf("search tags: %w", err)
	}
	return items, nil
}
