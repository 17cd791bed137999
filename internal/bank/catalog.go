// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bank

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"quizbank/internal/apperror"
	"quizbank/internal/models"
	"quizbank/internal/store"
)

// MaxPageSize bounds List's limit.
const MaxPageSize = 100

// CatalogService manages approved questions.
type CatalogService struct {
	store      *store.Store
	categories *CategoryService
	gen        Generator
}

// CreateQuestionInput describes a new question. A zero CategoryID files
// the question under the uncategorized category.
type CreateQuestionInput struct {
	Content     string
	Options     []string
	Answer      string
	Explanation string
	CategoryID  uuid.UUID
	TagIDs      []uuid.UUID
}

// UpdateQuestionInput carries the fields to change; nil leaves a field as
// is. TagIDs, when set, replaces the whole tag set.
type UpdateQuestionInput struct {
	Content     *string
	Options     *[]string
	Answer      *string
	Explanation *string
	CategoryID  *uuid.UUID
	TagIDs      *[]uuid.UUID
}

// ListFilter scopes List. Page is 1-indexed.
type ListFilter struct {
	CategoryID      *uuid.UUID
	IncludeChildren bool
	TagID           *uuid.UUID
	Keyword         string
	Page            int
	Limit           int
}

// Page is one slice of a filtered question listing.
type Page struct {
	Items      []models.Question `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// Create validates and stores a question with its tags.
func (s *CatalogService) Create(ctx context.Context, in CreateQuestionInput) (*models.Question, error) {
	q := &models.Question{
		Content:    in.Content,
		Options:    models.StringList(in.Options),
		Answer:     in.Answer,
		CategoryID: in.CategoryID,
	}
	if e := strings.TrimSpace(in.Explanation); e != "" {
		q.Explanation = &e
	}
	if q.CategoryID == uuid.Nil {
		q.CategoryID = models.UncategorizedID
	}

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		return s.createInTx(ctx, tx, q, in.TagIDs)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("question created", "id", q.ID, "category_id", q.CategoryID)
	return q, nil
}

// createInTx validates q, checks its references and inserts it. Approval
// reuses it so intake-created questions obey the same rules.
func (s *CatalogService) createInTx(ctx context.Context, tx *store.Tx, q *models.Question, tagIDs []uuid.UUID) error {
	if err := normalizeQuestion(q); err != nil {
		return err
	}
	if err := checkRefs(ctx, tx, q.CategoryID, tagIDs); err != nil {
		return err
	}
	if err := tx.Questions().Create(ctx, q, nil); err != nil {
		if store.IsForeignKeyViolation(err) {
			return apperror.NotFound("category", q.CategoryID)
		}
		return err
	}
	if err := linkTags(ctx, tx, q.ID, tagIDs); err != nil {
		return err
	}
	tags, err := tagsByID(ctx, tx, tagIDs)
	if err != nil {
		return err
	}
	q.Tags = tags
	return nil
}

// Get returns one question with its tags.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q, err := s.store.Questions().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperror.NotFound("question", id)
	}
	return q, nil
}

// Update merges in onto the stored question and validates the result as a
// whole, so a lone answer change is still checked against the options.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, in UpdateQuestionInput) (*models.Question, error) {
	var out *models.Question
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		q, err := tx.Questions().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if q == nil {
			return apperror.NotFound("question", id)
		}

		if in.Content != nil {
			q.Content = *in.Content
		}
		if in.Options != nil {
			q.Options = models.StringList(*in.Options)
		}
		if in.Answer != nil {
			q.Answer = *in.Answer
		}
		if in.Explanation != nil {
			if e := strings.TrimSpace(*in.Explanation); e != "" {
				q.Explanation = &e
			} else {
				q.Explanation = nil
			}
		}
		if in.CategoryID != nil {
			q.CategoryID = *in.CategoryID
		}
		if err := normalizeQuestion(q); err != nil {
			return err
		}

		var tagIDs []uuid.UUID
		if in.TagIDs != nil {
			tagIDs = *in.TagIDs
		}
		if in.CategoryID != nil || in.TagIDs != nil {
			if err := checkRefs(ctx, tx, q.CategoryID, tagIDs); err != nil {
				return err
			}
		}

		if err := tx.Questions().Update(ctx, q); err != nil {
			return err
		}
		if in.CategoryID != nil {
			if err := tx.Questions().SetCategory(ctx, id, *in.CategoryID); err != nil {
				if store.IsForeignKeyViolation(err) {
					return apperror.NotFound("category", *in.CategoryID)
				}
				return err
			}
		}
		if in.TagIDs != nil {
			if err := tx.Questions().ClearTags(ctx, id); err != nil {
				return err
			}
			if err := linkTags(ctx, tx, id, tagIDs); err != nil {
				return err
			}
		}

		out, err = tx.Questions().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("question updated", "id", id)
	return out, nil
}

// Delete removes a question and its tag links.
func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	var ok bool
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		ok, err = tx.Questions().Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("question", id)
	}
	slog.Info("question deleted", "id", id)
	return nil
}

// List returns one page of questions, newest first.
func (s *CatalogService) List(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Page < 1 {
		return nil, apperror.Validation("page", "must be at least 1")
	}
	if f.Limit < 1 || f.Limit > MaxPageSize {
		return nil, apperror.Validation("limit", "must be between 1 and 100")
	}

	qf := store.QuestionFilter{
		TagID:   f.TagID,
		Keyword: strings.TrimSpace(f.Keyword),
		Limit:   f.Limit,
		Offset:  (f.Page - 1) * f.Limit,
	}

	if f.CategoryID != nil {
		if f.IncludeChildren {
			ids, err := s.categories.DescendantIDs(ctx, *f.CategoryID)
			if err != nil {
				return nil, err
			}
			qf.CategoryIDs = ids
		} else {
			if _, err := s.categories.Get(ctx, *f.CategoryID); err != nil {
				return nil, err
			}
			qf.CategoryIDs = []uuid.UUID{*f.CategoryID}
		}
	}
	if f.TagID != nil {
		t, err := s.store.Tags().FindByID(ctx, *f.TagID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, apperror.NotFound("tag", *f.TagID)
		}
	}

	items, total, err := s.store.Questions().List(ctx, qf)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Question{}
	}
	return &Page{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

// Search returns every question whose content or tag names contain
// keyword. The result is not paginated.
func (s *CatalogService) Search(ctx context.Context, keyword string) ([]models.Question, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return nil, apperror.Validation("keyword", "must not be empty")
	}
	items, err := s.store.Questions().Search(ctx, kw)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Question{}
	}
	return items, nil
}

// GenerateExplanation fills in a missing explanation from the generator.
// A question that already has one is returned untouched. The write only
// lands while the explanation is still empty, so a concurrent generation
// never overwrites another.
func (s *CatalogService) GenerateExplanation(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.HasExplanation() {
		return q, nil
	}

	text, err := s.gen.Explain(ctx, q)
	if err != nil {
		slog.Warn("explanation generation failed", "question_id", id, "error", err)
		return nil, adapterError("generate explanation", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Dependency("generate explanation", errEmptyExplanation)
	}

	wrote, err := s.store.Questions().SetExplanationIfEmpty(ctx, id, text)
	if err != nil {
		return nil, err
	}
	if !wrote {
		slog.Info("explanation already present, keeping stored text", "question_id", id)
	}
	return s.Get(ctx, id)
}

// AddTag links a tag to a question. Linking twice is a no-op.
func (s *CatalogService) AddTag(ctx context.Context, questionID, tagID uuid.UUID) (*models.Question, error) {
	if err := s.checkLink(ctx, questionID, tagID); err != nil {
		return nil, err
	}
	if err := s.store.Questions().AddTag(ctx, questionID, tagID); err != nil {
		if store.IsForeignKeyViolation(err) {
			// one side vanished after the check; report which
			if cerr := s.checkLink(ctx, questionID, tagID); cerr != nil {
				return nil, cerr
			}
		}
		return nil, err
	}
	return s.Get(ctx, questionID)
}

// RemoveTag unlinks a tag from a question. Removing an absent link is a
// no-op.
func (s *CatalogService) RemoveTag(ctx context.Context, questionID, tagID uuid.UUID) (*models.Question, error) {
	if err := s.checkLink(ctx, questionID, tagID); err != nil {
		return nil, err
	}
	if _, err := s.store.Questions().RemoveTag(ctx, questionID, tagID); err != nil {
		return nil, err
	}
	return s.Get(ctx, questionID)
}

func (s *CatalogService) checkLink(ctx context.Context, questionID, tagID uuid.UUID) error {
	if _, err := s.Get(ctx, questionID); err != nil {
		return err
	}
	t, err := s.store.Tags().FindByID(ctx, tagID)
	if err != nil {
		return err
	}
	if t == nil {
		return apperror.NotFound("tag", tagID)
	}
	return nil
}

// SearchResult groups a keyword's matches across the bank.
type SearchResult struct {
	Questions  []models.Question `json:"questions"`
	Categories []models.Category `json:"categories"`
	Tags       []models.Tag      `json:"tags"`
}

// SearchAll runs keyword against questions, categories and tags at once.
func (s *CatalogService) SearchAll(ctx context.Context, keyword string) (*SearchResult, error) {
	qs, err := s.Search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	kw := strings.TrimSpace(keyword)
	cats, err := s.store.Categories().Search(ctx, kw)
	if err != nil {
		return nil, err
	}
	tags, err := s.store.Tags().Search(ctx, kw)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []models.Category{}
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return &SearchResult{Questions: qs, Categories: cats, Tags: tags}, nil
}

// normalizeQuestion trims q in place and enforces the answer/option rules.
func normalizeQuestion(q *models.Question) error {
	q.Content = strings.TrimSpace(q.Content)
	q.Answer = strings.TrimSpace(q.Answer)
	if q.Content == "" {
		return apperror.Validation("content", "must not be empty")
	}
	if q.Answer == "" {
		return apperror.Validation("answer", "must not be empty")
	}

	opts := make(models.StringList, 0, len(q.Options))
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return apperror.Validation("options", "must not contain blank entries")
		}
		if seen[o] {
			return apperror.Validation("options", "must be distinct")
		}
		seen[o] = true
		opts = append(opts, o)
	}
	q.Options = opts

	if len(opts) > 0 && !opts.Contains(q.Answer) {
		return apperror.Validation("answer", "must be one of the options")
	}
	return nil
}

func checkRefs(ctx context.Context, tx *store.Tx, categoryID uuid.UUID, tagIDs []uuid.UUID) error {
	c, err := tx.Categories().FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperror.NotFound("category", categoryID)
	}
	missing, err := tx.Tags().MissingIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperror.NotFound("tag", missing[0])
	}
	return nil
}

// linkTags attaches tagIDs to a question, reporting a tag deleted since
// checkRefs as not found.
func linkTags(ctx context.Context, tx *store.Tx, questionID uuid.UUID, tagIDs []uuid.UUID) error {
	for _, tagID := range tagIDs {
		if err := tx.Questions().AddTag(ctx, questionID, tagID); err != nil {
			if store.IsForeignKeyViolation(err) {
				return apperror.NotFound("tag", tagID)
			}
			return err
		}
	}
	return nil
}

func tagsByID(ctx context.Context, tx *store.Tx, ids []uuid.UUID) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, err := tx.Tags().FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			tags = append(tags, *t)
		}
	}
	return tags, nil
}
