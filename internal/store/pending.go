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

// PendingStore manages the moderation queue. Only pending rows are ever
// stored: consuming a record deletes it.
type PendingStore struct {
	db sqlx.ExtContext
}

const pendingColumns = `id, content, candidate, status, created_at, updated_at`

// List returns the queue oldest first.
func (s *PendingStore) List(ctx context.Context) ([]models.PendingQuestion, error) {
	var items []models.PendingQuestion
	err := sqlx.SelectContext(ctx, s.db, &items, s.db.Rebind(`
		SELECT `+pendingColumns+` FROM pending_questions
		WHERE status = ?
		ORDER BY created_at, id`), string(models.PendingStatusPending))
	if err != nil {
		return nil, fmt.Errorf("list pending questions: %w", err)
	}
	return items, nil
}

// FindByID retrieves a pending question. Returns nil if not found.
func (s *PendingStore) FindByID(ctx context.Context, id uuid.UUID) (*models.PendingQuestion, error) {
	var p models.PendingQuestion
	err := sqlx.GetContext(ctx, s.db, &p, s.db.Rebind(`
		SELECT `+pendingColumns+` FROM pending_questions WHERE id = ? AND status = ?`),
		id, string(models.PendingStatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending question: %w", err)
	}
	return &p, nil
}

// Create inserts p with status pending, assigning its ID and timestamps.
func (s *PendingStore) Create(ctx context.Context, p *models.PendingQuestion) error {
	p.ID = uuid.New()
	p.Status = models.PendingStatusPending
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO pending_questions (id, content, candidate, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		p.ID, p.Content, p.Candidate, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create pending question: %w", err)
	}
	return nil
}

// Consume deletes a pending record and reports whether this call removed
// it. Of two concurrent consumers exactly one sees true.
func (s *PendingStore) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM pending_questions WHERE id = ? AND status = ?`),
		id, string(models.PendingStatusPending))
	if err != nil {
		return false, fmt.Errorf("consume pending question: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}
