// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bank

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quizbank/internal/ai"
	"quizbank/internal/database"
	"quizbank/internal/models"
	"quizbank/internal/store"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Ask(ctx context.Context, question string, related []models.Question, categories []string) (*ai.Answer, error) {
	args := m.Called(ctx, question, related, categories)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.Answer), args.Error(1)
}

func (m *mockGenerator) Explain(ctx context.Context, q *models.Question) (string, error) {
	args := m.Called(ctx, q)
	return args.String(0), args.Error(1)
}

// newTestBank returns services over a migrated throwaway SQLite database.
func newTestBank(t *testing.T, gen Generator) (*Bank, *store.Store) {
	t.Helper()

	db, err := database.Connect(database.DriverSQLite, filepath.Join(t.TempDir(), "bank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	st := store.New(db)
	return New(st, gen), st
}

func mustCreateCategory(t *testing.T, b *Bank, name string, parent *uuid.UUID) *models.Category {
	t.Helper()
	c, err := b.Categories.Create(context.Background(), CreateCategoryInput{Name: name, ParentID: parent})
	require.NoError(t, err)
	return c
}

func mustCreateQuestion(t *testing.T, b *Bank, content string, categoryID uuid.UUID, tagIDs ...uuid.UUID) *models.Question {
	t.Helper()
	q, err := b.Catalog.Create(context.Background(), CreateQuestionInput{
		Content:    content,
		Options:    []string{"yes", "no"},
		Answer:     "yes",
		CategoryID: categoryID,
		TagIDs:     tagIDs,
	})
	require.NoError(t, err)
	return q
}

func ptr[T any](v T) *T { return &v }
