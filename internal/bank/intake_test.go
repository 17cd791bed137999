// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bank

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quizbank/internal/ai"
	"quizbank/internal/apperror"
	"quizbank/internal/models"
)

func suggestion(categoryName string) *models.Candidate {
	return &models.Candidate{
		Content:      "What is the derivative of x^2?",
		Options:      models.StringList{"x", "2x", "x^2"},
		Answer:       "2x",
		Explanation:  "Power rule.",
		CategoryName: categoryName,
	}
}

func TestIntakeService_AskApproveLifecycle(t *testing.T) {
	gen := new(mockGenerator)
	b, _ := newTestBank(t, gen)
	ctx := context.Background()

	calculus := mustCreateCategory(t, b, "Calculus", nil)
	gen.On("Ask", mock.Anything, "how do derivatives work", mock.Anything, mock.Anything).
		Return(&ai.Answer{Text: "They measure rates of change.", Suggestion: suggestion("calculus")}, nil).Once()

	res, err := b.Intake.Ask(ctx, "  how do derivatives work ")
	require.NoError(t, err)
	assert.Equal(t, "They measure rates of change.", res.Answer)
	require.NotNil(t, res.PendingID)

	pending, err := b.Intake.ListPending(ctx, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.PendingStatusPending, pending[0].Status)
	assert.Equal(t, "how do derivatives work", pending[0].Content)

	q, err := b.Intake.Approve(ctx, *res.PendingID, nil)
	require.NoError(t, err)
	assert.Equal(t, calculus.ID, q.CategoryID, "category name is matched case-insensitively")
	assert.Equal(t, "2x", q.Answer)
	require.NotNil(t, q.Explanation)

	pending, err = b.Intake.ListPending(ctx, "pending")
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = b.Intake.Approve(ctx, *res.PendingID, nil)
	assert.True(t, apperror.IsNotFound(err))

	stored, err := b.Catalog.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Content, stored.Content)
}

func TestIntakeService_Ask(t *testing.T) {
	t.Run("empty question", func(t *testing.T) {
		b, _ := newTestBank(t, new(mockGenerator))
		_, err := b.Intake.Ask(context.Background(), "   ")
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("generator failure stores nothing", func(t *testing.T) {
		gen := new(mockGenerator)
		b, _ := newTestBank(t, gen)
		ctx := context.Background()
		gen.On("Ask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("deadline exceeded"))

		_, err := b.Intake.Ask(ctx, "anything")
		assert.True(t, apperror.IsDependency(err))

		pending, err := b.Intake.ListPending(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("flagged question", func(t *testing.T) {
		gen := new(mockGenerator)
		b, _ := newTestBank(t, gen)
		gen.On("Ask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &ai.RejectedError{Categories: []string{"violence"}})

		_, err := b.Intake.Ask(context.Background(), "something bad")
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("malformed suggestion is dropped", func(t *testing.T) {
		gen := new(mockGenerator)
		b, _ := newTestBank(t, gen)
		ctx := context.Background()
		bad := suggestion("")
		bad.Answer = "3x"
		gen.On("Ask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&ai.Answer{Text: "answer", Suggestion: bad}, nil)

		res, err := b.Intake.Ask(ctx, "derivative of x squared")
		require.NoError(t, err)
		assert.Equal(t, "answer", res.Answer)
		assert.Nil(t, res.PendingID)

		pending, err := b.Intake.ListPending(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("context and related questions", func(t *testing.T) {
		gen := new(mockGenerator)
		b, _ := newTestBank(t, gen)
		ctx := context.Background()
		q1 := mustCreateQuestion(t, b, "Derivative of a constant", models.UncategorizedID)
		q2 := mustCreateQuestion(t, b, "Chain rule for derivative of composition", models.UncategorizedID)
		mustCreateQuestion(t, b, "Capital of France", models.UncategorizedID)

		var offered []models.Question
		var categories []string
		gen.On("Ask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				offered = args.Get(2).([]models.Question)
				categories = args.Get(3).([]string)
			}).
			Return(&ai.Answer{Text: "ok", RelatedIDs: []uuid.UUID{q1.ID, uuid.New()}}, nil).Once()

		res, err := b.Intake.Ask(ctx, "what is the derivative of composition")
		require.NoError(t, err)
		assert.Len(t, offered, 2)
		assert.Contains(t, categories, "Uncategorized")
		require.Len(t, res.Related, 1, "ids outside the offered set are ignored")
		assert.Equal(t, q1.ID, res.Related[0].ID)

		// Without a ranking from the generator, term overlap decides.
		gen.On("Ask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&ai.Answer{Text: "ok"}, nil).Once()
		res, err = b.Intake.Ask(ctx, "what is the derivative of composition")
		require.NoError(t, err)
		require.Len(t, res.Related, 2)
		assert.Equal(t, q2.ID, res.Related[0].ID)
	})
}

func TestIntakeService_ListPending(t *testing.T) {
	b, st := newTestBank(t, nil)
	ctx := context.Background()

	first := &models.PendingQuestion{Content: "first", Candidate: *suggestion("")}
	second := &models.PendingQuestion{Content: "second", Candidate: *suggestion("")}
	require.NoError(t, st.Pending().Create(ctx, first))
	require.NoError(t, st.Pending().Create(ctx, second))

	items, err := b.Intake.ListPending(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, "2x", items[0].Candidate.Answer)

	for _, status := range []string{"approved", "rejected"} {
		items, err := b.Intake.ListPending(ctx, status)
		require.NoError(t, err)
		assert.Empty(t, items)
	}

	_, err = b.Intake.ListPending(ctx, "archived")
	assert.True(t, apperror.IsValidation(err))

	got, err := b.Intake.GetPending(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Content)
	_, err = b.Intake.GetPending(ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestIntakeService_Approve(t *testing.T) {
	newPending := func(t *testing.T, b *Bank, c *models.Candidate) uuid.UUID {
		t.Helper()
		p := &models.PendingQuestion{Content: "asked", Candidate: *c}
		require.NoError(t, b.Intake.store.Pending().Create(context.Background(), p))
		return p.ID
	}

	t.Run("explicit category wins", func(t *testing.T) {
		b, _ := newTestBank(t, nil)
		ctx := context.Background()
		mustCreateCategory(t, b, "Calculus", nil)
		other := mustCreateCategory(t, b, "Other", nil)
		id := newPending(t, b, suggestion("Calculus"))

		q, err := b.Intake.Approve(ctx, id, &other.ID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, q.CategoryID)
	})

	t.Run("candidate category id", func(t *testing.T) {
		b, _ := newTestBank(t, nil)
		ctx := context.Background()
		cat := mustCreateCategory(t, b, "Algebra", nil)
		c := suggestion("")
		c.CategoryID = &cat.ID
		id := newPending(t, b, c)

		q, err := b.Intake.Approve(ctx, id, nil)
		require.NoError(t, err)
		assert.Equal(t, cat.ID, q.CategoryID)
	})

	t.Run("unresolvable category keeps record pending", func(t *testing.T) {
		b, _ := newTestBank(t, nil)
		ctx := context.Background()
		id := newPending(t, b, suggestion("Astrology"))

		_, err := b.Intake.Approve(ctx, id, nil)
		assert.True(t, apperror.IsValidation(err))

		_, err = b.Intake.Approve(ctx, id, ptr(uuid.New()))
		assert.True(t, apperror.IsNotFound(err))

		_, err = b.Intake.GetPending(ctx, id)
		assert.NoError(t, err)
	})

	t.Run("invalid candidate keeps record pending", func(t *testing.T) {
		b, _ := newTestBank(t, nil)
		ctx := context.Background()
		c := suggestion("")
		c.Answer = "nope"
		id := newPending(t, b, c)

		_, err := b.Intake.Approve(ctx, id, &models.UncategorizedID)
		assert.True(t, apperror.IsValidation(err))

		_, err = b.Intake.GetPending(ctx, id)
		assert.NoError(t, err)
		page, err := b.Catalog.List(ctx, ListFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
	})

	t.Run("concurrent approvals create one question", func(t *testing.T) {
		b, _ := newTestBank(t, nil)
		ctx := context.Background()
		id := newPending(t, b, suggestion(""))

		const workers = 4
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = b.Intake.Approve(ctx, id, &models.UncategorizedID)
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.True(t, apperror.IsNotFound(err), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, ok)

		page, err := b.Catalog.List(ctx, ListFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})
}

func TestIntakeService_Reject(t *testing.T) {
	b, st := newTestBank(t, nil)
	ctx := context.Background()

	p := &models.PendingQuestion{Content: "asked", Candidate: *suggestion("")}
	require.NoError(t, st.Pending().Create(ctx, p))

	require.NoError(t, b.Intake.Reject(ctx, p.ID))
	assert.True(t, apperror.IsNotFound(b.Intake.Reject(ctx, p.ID)))

	_, err := b.Intake.Approve(ctx, p.ID, &models.UncategorizedID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSearchTerms(t *testing.T) {
	got := searchTerms("What is the derivative, of x? What IS it")
	assert.Equal(t, []string{"derivative", "what", "the", "is", "of"}, got)

	assert.Empty(t, searchTerms("a ? b"))
}
