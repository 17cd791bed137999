// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quizbank/internal/models"
)

// QuestionStore manages questions and their tag links.
type QuestionStore struct {
	db sqlx.ExtContext
}

const questionColumns = `q.id, q.content, q.options, q.answer, q.explanation, q.category_id, q.created_at, q.updated_at`

// questionOrder is newest first with id as the tie-break, so pages stay
// stable when timestamps collide.
const questionOrder = ` ORDER BY q.created_at DESC, q.id DESC`

// QuestionFilter narrows List. Zero values mean "no constraint".
type QuestionFilter struct {
	CategoryIDs []uuid.UUID
	TagID       *uuid.UUID
	Keyword     string
	Limit       int
	Offset      int
}

// FindByID retrieves a question with its tags. Returns nil if not found.
func (s *QuestionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var q models.Question
	err := sqlx.GetContext(ctx, s.db, &q, s.db.Rebind(`SELECT `+questionColumns+` FROM questions q WHERE q.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find question by id: %w", err)
	}

	items := []models.Question{q}
	if err := s.loadTags(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Create inserts q, assigning its ID and timestamps, and links tagIDs.
func (s *QuestionStore) Create(ctx context.Context, q *models.Question, tagIDs []uuid.UUID) error {
	q.ID = uuid.New()
	q.CreatedAt = now()
	q.UpdatedAt = q.CreatedAt
	if q.Options == nil {
		q.Options = models.StringList{}
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO questions (id, content, options, answer, explanation, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		q.ID, q.Content, q.Options, q.Answer, q.Explanation, q.CategoryID, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}

	for _, tagID := range tagIDs {
		if err := s.AddTag(ctx, q.ID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// Update writes the content fields of q. category_id is left alone; it
// only changes through SetCategory so a stale read cannot write it back.
func (s *QuestionStore) Update(ctx context.Context, q *models.Question) error {
	q.UpdatedAt = now()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE questions SET content = ?, options = ?, answer = ?, explanation = ?, updated_at = ?
		WHERE id = ?`),
		q.Content, q.Options, q.Answer, q.Explanation, q.UpdatedAt, q.ID,
	)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

// SetCategory moves question id to categoryID.
func (s *QuestionStore) SetCategory(ctx context.Context, id, categoryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE questions SET category_id = ?, updated_at = ? WHERE id = ?`),
		categoryID, now(), id,
	)
	if err != nil {
		return fmt.Errorf("set question category: %w", err)
	}
	return nil
}

// SetExplanationIfEmpty stores text as the explanation unless one is
// already present, and reports whether the write happened.
func (s *QuestionStore) SetExplanationIfEmpty(ctx context.Context, id uuid.UUID, text string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE questions SET explanation = ?, updated_at = ?
		WHERE id = ? AND (explanation IS NULL OR TRIM(explanation) = '')`),
		text, now(), id,
	)
	if err != nil {
		return false, fmt.Errorf("set explanation: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// Delete removes a question and its tag links, reporting whether it existed.
func (s *QuestionStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM question_tags WHERE question_id = ?`), id); err != nil {
		return false, fmt.Errorf("delete question tags: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM questions WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete question: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// ReassignCategory moves every question in from to to and returns the count.
func (s *QuestionStore) ReassignCategory(ctx context.Context, from, to uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE questions SET category_id = ?, updated_at = ? WHERE category_id = ?`),
		to, now(), from,
	)
	if err != nil {
		return 0, fmt.Errorf("reassign questions: %w", err)
	}
	return rowsAffected(res)
}

// CountByCategory returns how many questions reference categoryID.
func (s *QuestionStore) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.db, &n, s.db.Rebind(`SELECT COUNT(*) FROM questions WHERE category_id = ?`), categoryID); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// List returns one page of questions matching f and the total match count.
func (s *QuestionStore) List(ctx context.Context, f QuestionFilter) ([]models.Question, int, error) {
	where, args := f.where()

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM questions q`+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, s.db, &total, s.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	query := `SELECT ` + questionColumns + ` FROM questions q` + where + questionOrder
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}

	var items []models.Question
	if err := sqlx.SelectContext(ctx, s.db, &items, s.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	if err := s.loadTags(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (f QuestionFilter) where() (string, []any) {
	var conds []string
	var args []any

	if len(f.CategoryIDs) > 0 {
		conds = append(conds, `q.category_id IN (?)`)
		args = append(args, f.CategoryIDs)
	}
	if f.TagID != nil {
		conds = append(conds, `EXISTS (SELECT 1 FROM question_tags qt WHERE qt.question_id = q.id AND qt.tag_id = ?)`)
		args = append(args, *f.TagID)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		p := likePattern(kw)
		conds = append(conds, `(LOWER(q.content) LIKE ? ESCAPE '\'
			OR LOWER(q.answer) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(q.explanation, '')) LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

// Search returns every question whose content or any tag name contains
// keyword, case-insensitively. The result is not paginated.
func (s *QuestionStore) Search(ctx context.Context, keyword string) ([]models.Question, error) {
	p := likePattern(keyword)
	var items []models.Question
	err := sqlx.SelectContext(ctx, s.db, &items, s.db.Rebind(`
		SELECT `+questionColumns+` FROM questions q
		WHERE LOWER(q.content) LIKE ? ESCAPE '\'
		   OR EXISTS (
		        SELECT 1 FROM question_tags qt JOIN tags t ON t.id = qt.tag_id
		        WHERE qt.question_id = q.id AND LOWER(t.name) LIKE ? ESCAPE '\'
		   )`+questionOrder), p, p)
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	if err := s.loadTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddTag links tagID to questionID. Linking twice is a no-op.
func (s *QuestionStore) AddTag(ctx context.Context, questionID, tagID uuid.UUID) error {
	var n int
	if err := sqlx.GetContext(ctx, s.db, &n, s.db.Rebind(`
		SELECT COUNT(*) FROM question_tags WHERE question_id = ? AND tag_id = ?`), questionID, tagID); err != nil {
		return fmt.Errorf("check question tag: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO question_tags (question_id, tag_id) VALUES (?, ?)`), questionID, tagID); err != nil {
		return fmt.Errorf("add question tag: %w", err)
	}
	return nil
}

// RemoveTag unlinks tagID from questionID and reports whether a link existed.
func (s *QuestionStore) RemoveTag(ctx context.Context, questionID, tagID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM question_tags WHERE question_id = ? AND tag_id = ?`), questionID, tagID)
	if err != nil {
		return false, fmt.Errorf("remove question tag: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// ClearTags removes every tag link of questionID.
func (s *QuestionStore) ClearTags(ctx context.Context, questionID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM question_tags WHERE question_id = ?`), questionID); err != nil {
		return fmt.Errorf("clear question tags: %w", err)
	}
	return nil
}

// loadTags fills Tags on every item with one query.
func (s *QuestionStore) loadTags(ctx context.Context, items []models.Question) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(items))
	pos := make(map[uuid.UUID]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		pos[items[i].ID] = i
		items[i].Tags = []models.Tag{}
	}

	query, args, err := sqlx.In(`
		SELECT qt.question_id, t.id, t.name, t.color, t.created_at
		FROM question_tags qt JOIN tags t ON t.id = qt.tag_id
		WHERE qt.question_id IN (?)
		ORDER BY t.name`, ids)
	if err != nil {
		return fmt.Errorf("load question tags: %w", err)
	}

	var rows []struct {
		QuestionID uuid.UUID `db:"question_id"`
		models.Tag
	}
	if err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("load question tags: %w", err)
	}
	for _, r := range rows {
		i := pos[r.QuestionID]
		items[i].Tags = append(items[i].Tags, r.Tag)
	}
	return nil
}
