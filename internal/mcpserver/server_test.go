// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mcpserver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbank/internal/bank"
	"quizbank/internal/database"
	"quizbank/internal/models"
	"quizbank/internal/store"
)

func newTestServer(t *testing.T) (*Server, *bank.Bank) {
	t.Helper()

	db, err := database.Connect(database.DriverSQLite, filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	b := bank.New(store.New(db), nil)
	return New(b, "test"), b
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content should be text")
	return text.Text
}

func TestAddAndSearchQuestion(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleAddQuestion(ctx, call(map[string]any{
		"content": "Is 7 a prime number?",
		"answer":  "yes",
		"options": "yes\nno",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), "Question added with id")

	res, err = s.handleSearchQuestions(ctx, call(map[string]any{"keyword": "PRIME"}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "1 question(s)")
	assert.Contains(t, text, "Is 7 a prime number?")
	assert.Contains(t, text, "yes | no")
}

func TestAddQuestionErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing content", map[string]any{"answer": "x"}},
		{"answer not an option", map[string]any{"content": "q", "answer": "maybe", "options": "yes\nno"}},
		{"bad category id", map[string]any{"content": "q", "answer": "a", "category_id": "nope"}},
		{"unknown category", map[string]any{"content": "q", "answer": "a", "category_id": uuid.NewString()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleAddQuestion(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestGetCategoriesAndTags(t *testing.T) {
	s, b := newTestServer(t)
	ctx := context.Background()

	math, err := b.Categories.Create(ctx, bank.CreateCategoryInput{Name: "Math"})
	require.NoError(t, err)
	_, err = b.Categories.Create(ctx, bank.CreateCategoryInput{Name: "Algebra", ParentID: &math.ID})
	require.NoError(t, err)
	_, err = b.Tags.Create(ctx, "exam", "")
	require.NoError(t, err)

	res, err := s.handleGetCategories(ctx, call(nil))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "- Math")
	assert.Contains(t, text, "  - Algebra")

	res, err = s.handleGetTags(ctx, call(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "- exam")
}

func TestSearchRequiresKeyword(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleSearchQuestions(context.Background(), call(map[string]any{"keyword": "  "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAskWithoutProvider(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleAskQuestion(context.Background(), call(map[string]any{"question": "what is a derivative?"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestFormatQuestions(t *testing.T) {
	explanation := "because"
	tests := []struct {
		name      string
		questions []models.Question
		contains  []string
	}{
		{
			name:     "empty",
			contains: []string{"# Title", "No questions found."},
		},
		{
			name: "with tags",
			questions: []models.Question{{
				ID:          uuid.New(),
				Content:     "What is\n  2+2?",
				Answer:      "4",
				Explanation: &explanation,
				Tags:        []models.Tag{{Name: "arith"}, {Name: "easy"}},
			}},
			contains: []string{"1 question(s)", "What is 2+2?", "**Answer**: 4", "arith, easy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatQuestions(tt.questions, "Title")
			for _, expected := range tt.contains {
				assert.Contains(t, result, expected)
			}
		})
	}
}
