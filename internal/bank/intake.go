// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bank

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"quizbank/internal/apperror"
	"quizbank/internal/models"
	"quizbank/internal/store"
)

const (
	// maxContextQuestions caps the bank questions offered to the model.
	maxContextQuestions = 20
	// maxFallbackRelated caps keyword-ranked related questions.
	maxFallbackRelated = 5
	maxSearchTerms     = 5
	maxQuestionLength  = 2000
)

// IntakeService runs the ask, review and approve lifecycle.
type IntakeService struct {
	store   *store.Store
	catalog *CatalogService
	gen     Generator
}

// AskResult is the reply to a learner question. PendingID is set when the
// reply produced a question suggestion that now waits for review.
type AskResult struct {
	Answer    string            `json:"answer"`
	Related   []models.Question `json:"related_questions"`
	PendingID *uuid.UUID        `json:"pending_question_id,omitempty"`
}

// Ask answers a free-text question. Nothing is stored unless the
// generator's reply carries a well-formed suggested question.
func (s *IntakeService) Ask(ctx context.Context, text string) (*AskResult, error) {
	text, err := checkLength("question", text, true, maxQuestionLength)
	if err != nil {
		return nil, err
	}

	terms := searchTerms(text)
	pool, err := s.contextQuestions(ctx, terms)
	if err != nil {
		return nil, err
	}
	names, err := s.catalog.categories.Names(ctx)
	if err != nil {
		return nil, err
	}

	ans, err := s.gen.Ask(ctx, text, pool, names)
	if err != nil {
		slog.Warn("ask failed", "error", err)
		return nil, adapterError("ask", err)
	}

	res := &AskResult{Answer: ans.Text, Related: rankRelated(pool, ans.RelatedIDs, terms)}

	if c := ans.Suggestion; c != nil {
		if err := checkCandidate(c); err != nil {
			slog.Warn("dropping malformed suggestion", "error", err)
			return res, nil
		}
		p := &models.PendingQuestion{Content: text, Candidate: *c}
		err := s.store.WithTx(ctx, func(tx *store.Tx) error {
			return tx.Pending().Create(ctx, p)
		})
		if err != nil {
			return nil, err
		}
		slog.Info("pending question staged", "id", p.ID)
		res.PendingID = &p.ID
	}
	return res, nil
}

// contextQuestions gathers up to maxContextQuestions distinct catalog
// questions matching any of terms, in term order.
func (s *IntakeService) contextQuestions(ctx context.Context, terms []string) ([]models.Question, error) {
	var out []models.Question
	seen := make(map[uuid.UUID]bool)
	for _, term := range terms {
		if len(out) >= maxContextQuestions {
			break
		}
		found, err := s.store.Questions().Search(ctx, term)
		if err != nil {
			return nil, err
		}
		for _, q := range found {
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			out = append(out, q)
			if len(out) >= maxContextQuestions {
				break
			}
		}
	}
	return out, nil
}

// searchTerms splits text into words and keeps the longest few, lowercased.
// Single-rune words carry too little signal to search on.
func searchTerms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var terms []string
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return utf8.RuneCountInString(terms[i]) > utf8.RuneCountInString(terms[j])
	})
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}
	return terms
}

// rankRelated prefers the generator's ranking, restricted to questions
// that were offered. Without one it falls back to counting term hits.
func rankRelated(pool []models.Question, ranked []uuid.UUID, terms []string) []models.Question {
	byID := make(map[uuid.UUID]models.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}

	out := []models.Question{}
	for _, id := range ranked {
		if q, ok := byID[id]; ok {
			out = append(out, q)
			delete(byID, id)
		}
	}
	if len(out) > 0 {
		return out
	}

	type scored struct {
		q     models.Question
		score int
	}
	var hits []scored
	for _, q := range pool {
		content := strings.ToLower(q.Content)
		n := 0
		for _, t := range terms {
			if strings.Contains(content, t) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, scored{q, n})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	for i := 0; i < len(hits) && i < maxFallbackRelated; i++ {
		out = append(out, hits[i].q)
	}
	return out
}

// checkCandidate applies the question rules to a suggestion without
// touching the store.
func checkCandidate(c *models.Candidate) error {
	q := &models.Question{Content: c.Content, Options: c.Options, Answer: c.Answer}
	return normalizeQuestion(q)
}

// ListPending returns the review queue, oldest first. Resolved records are
// not retained, so asking for approved or rejected ones yields nothing.
func (s *IntakeService) ListPending(ctx context.Context, status string) ([]models.PendingQuestion, error) {
	st := models.PendingStatus(strings.TrimSpace(status))
	if st == "" {
		st = models.PendingStatusPending
	}
	if !st.Valid() {
		return nil, apperror.Validation("status", "must be pending, approved or rejected")
	}
	if st != models.PendingStatusPending {
		return []models.PendingQuestion{}, nil
	}

	items, err := s.store.Pending().List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.PendingQuestion{}
	}
	return items, nil
}

// GetPending returns one queued record.
func (s *IntakeService) GetPending(ctx context.Context, id uuid.UUID) (*models.PendingQuestion, error) {
	p, err := s.store.Pending().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NotFound("pending question", id)
	}
	return p, nil
}

// Approve turns a pending record into a question. The category is taken
// from categoryID when given, else from the suggestion's category id, else
// by matching the suggestion's category name. The question insert and the
// consumption of the record share one transaction, so a record is approved
// at most once and a failed approval leaves it pending.
func (s *IntakeService) Approve(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) (*models.Question, error) {
	var q *models.Question
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		p, err := tx.Pending().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NotFound("pending question", id)
		}

		catID, err := resolveCategory(ctx, tx, p.Candidate, categoryID)
		if err != nil {
			return err
		}

		q = &models.Question{
			Content:    p.Candidate.Content,
			Options:    p.Candidate.Options,
			Answer:     p.Candidate.Answer,
			CategoryID: catID,
		}
		if e := strings.TrimSpace(p.Candidate.Explanation); e != "" {
			q.Explanation = &e
		}
		if err := s.catalog.createInTx(ctx, tx, q, nil); err != nil {
			return err
		}

		ok, err := tx.Pending().Consume(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NotFound("pending question", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("pending question approved", "pending_id", id, "question_id", q.ID, "category_id", q.CategoryID)
	return q, nil
}

func resolveCategory(ctx context.Context, tx *store.Tx, c models.Candidate, explicit *uuid.UUID) (uuid.UUID, error) {
	cats := tx.Categories()
	if explicit != nil {
		found, err := cats.FindByID(ctx, *explicit)
		if err != nil {
			return uuid.Nil, err
		}
		if found == nil {
			return uuid.Nil, apperror.NotFound("category", *explicit)
		}
		return found.ID, nil
	}
	if c.CategoryID != nil {
		found, err := cats.FindByID(ctx, *c.CategoryID)
		if err != nil {
			return uuid.Nil, err
		}
		if found != nil {
			return found.ID, nil
		}
	}
	if name := strings.TrimSpace(c.CategoryName); name != "" {
		found, err := cats.FindByName(ctx, name)
		if err != nil {
			return uuid.Nil, err
		}
		if found != nil {
			return found.ID, nil
		}
	}
	return uuid.Nil, apperror.Validation("category_id", "no category given and none could be matched from the suggestion")
}

// Reject discards a pending record.
func (s *IntakeService) Reject(ctx context.Context, id uuid.UUID) error {
	ok, err := s.store.Pending().Consume(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("pending question", id)
	}
	slog.Info("pending question rejected", "id", id)
	return nil
}
