// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bank

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbank/internal/apperror"
	"quizbank/internal/models"
)

func TestCategoryService_Create_Validation(t *testing.T) {
	b, _ := newTestBank(t, nil)
	ctx := context.Background()

	_, err := b.Categories.Create(ctx, CreateCategoryInput{Name: "   "})
	assert.True(t, apperror.IsValidation(err))

	_, err = b.Categories.Create(ctx, CreateCategoryInput{Name: strings.Repeat("数", 101)})
	assert.True(t, apperror.IsValidation(err))

	_, err = b.Categories.Create(ctx, CreateCategoryInput{Name: "ok", Description: strings.Repeat("d", 501)})
	assert.True(t, apperror.IsValidation(err))

	_, err = b.Categories.Create(ctx, CreateCategoryInput{Name: "orphan", ParentID: ptr(uuid.New())})
	assert.True(t, apperror.IsNotFound(err))

	c, err := b.Categories.Create(ctx, CreateCategoryInput{Name: "  Math  "})
	require.NoError(t, err)
	assert.Equal(t, "Math", c.Name)
}

func TestCategoryService_Tree(t *testing.T) {
	b, _ := newTestBank(t, nil)
	ctx := context.Background()

	math := mustCreateCategory(t, b, "Math", nil)
	algebra := mustCreateCategory(t, b, "Algebra", &math.ID)
	geometry := mustCreateCategory(t, b, "Geometry", &math.ID)
	linear := mustCreateCategory(t, b, "Linear", &algebra.ID)
	physics := mustCreateCategory(t, b, "Physics", nil)
	mustCreateQuestion(t, b, "x?", algebra.ID)

	roots, err := b.Categories.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 3)
	assert.Equal(t, models.UncategorizedID, roots[0].ID)
	assert.Equal(t, math.ID, roots[1].ID)
	assert.Equal(t, physics.ID, roots[2].ID)

	require.Len(t, roots[1].Children, 2)
	assert.Equal(t, algebra.ID, roots[1].Children[0].ID)
	assert.Equal(t, geometry.ID, roots[1].Children[1].ID)
	assert.Equal(t, 1, roots[1].Children[0].QuestionCount)

	require.Len(t, roots[1].Children[0].Children, 1)
	deep := roots[1].Children[0].Children[0]
	assert.Equal(t, linear.ID, deep.ID)
	assert.Equal(t, 2, deep.Depth)
}

func TestCategoryService_PathAndDescendants(t *testing.T) {
	b, _ := newTestBank(t, nil)
	ctx := context.Background()

	math := mustCreateCategory(t, b, "Math", nil)
	algebra := mustCreateCategory(t, b, "Algebra", &math.ID)
	linear := mustCreateCategory(t, b, "Linear", &algebra.ID)
	mustCreateCategory(t, b, "Physics", nil)

	path, err := b.Categories.Path(ctx, linear.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, []string{"Math", "Algebra", "Linear"}, []string{path[0].Name, path[1].Name, path[2].Name})

	ids, err := b.Categories.DescendantIDs(ctx, math.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{math.ID, algebra.ID, linear.ID}, ids)
	assert.Equal(t, math.ID, ids[0])

	ids, err = b.Categories.DescendantIDs(ctx, linear.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{linear.ID}, ids)

	_, err = b.Categories.Path(ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
	_, err = b.Categories.DescendantIDs(ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestCategoryService_Update(t *testing.T) {
	b, _ := newTestBank(t, nil)
	ctx := context.Background()

	math := mustCreateCategory(t, b, "Math", nil)
	algebra := mustCreateCategory(t, b, "Algebra", &math.ID)
	linear := mustCreateCategory(t, b, "Linear", &algebra.ID)
	physics := mustCreateCategory(t, b, "Physics", nil)

	t.Run("rename keeps parent", func(t *testing.T) {
		c, err := b.Categories.Update(ctx, algebra.ID, UpdateCategoryInput{Name: ptr("Algebra I")})
		require.NoError(t, err)
		assert.Equal(t, "Algebra I", c.Name)
		require.NotNil(t, c.ParentID)
		assert.Equal(t, math.ID, *c.ParentID)
	})

	t.Run("self parent is a cycle", func(t *testing.T) {
		_, err := b.Categories.Update(ctx, math.ID, UpdateCategoryInput{ParentID: &math.ID})
		assert.True(t, apperror.IsCycle(err))
	})

	t.Run("descendant parent is a cycle", func(t *testing.T) {
		_, err := b.Categories.Update(ctx, math.ID, UpdateCategoryInput{ParentID: &linear.ID})
		assert.True(t, apperror.IsCycle(err))

		got, err := b.Categories.Get(ctx, math.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ParentID)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := b.Categories.Update(ctx, math.ID, UpdateCategoryInput{ParentID: ptr(uuid.New())})
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := b.Categories.Update(ctx, uuid.New(), UpdateCategoryInput{Name: ptr("x")})
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("move subtree", func(t *testing.T) {
		_, err := b.Categories.Update(ctx, algebra.ID, UpdateCategoryInput{ParentID: &physics.ID})
		require.NoError(t, err)

		path, err := b.Categories.Path(ctx, linear.ID)
		require.NoError(t, err)
		assert.Equal(t, physics.ID, path[0].ID)
	})

	t.Run("move to root", func(t *testing.T) {
		c, err := b.Categories.Update(ctx, algebra.ID, UpdateCategoryInput{MoveToRoot: true})
		require.NoError(t, err)
		assert.Nil(t, c.ParentID)
	})

	t.Run("sentinel stays a root but can be renamed", func(t *testing.T) {
		_, err := b.Categories.Update(ctx, models.UncategorizedID, UpdateCategoryInput{ParentID: &math.ID})
		assert.True(t, apperror.IsValidation(err))

		c, err := b.Categories.Update(ctx, models.UncategorizedID, UpdateCategoryInput{Name: ptr("Misc")})
		require.NoError(t, err)
		assert.Equal(t, "Misc", c.Name)
		assert.Nil(t, c.ParentID)
	})
}

func TestCategoryService_UpdateReturnsStoredParent(t *testing.T) {
	b, s := newTestBank(t, nil)
	ctx := context.Background()

	p := mustCreateCategory(t, b, "P", nil)
	c := mustCreateCategory(t, b, "C", &p.ID)

	// moved behind the service's back
	require.NoError(t, s.Categories().SetParent(ctx, c.ID, nil))

	got, err := b.Categories.Update(ctx, c.ID, UpdateCategoryInput{Name: ptr("C2")})
	require.NoError(t, err)
	assert.Equal(t, "C2", got.Name)
	assert.Nil(t, got.ParentID)

	got, err = b.Categories.Update(ctx, c.ID, UpdateCategoryInput{Name: ptr("C3"), ParentID: &p.ID})
	require.NoError(t, err)
	assert.Equal(t, "C3", got.Name)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, p.ID, *got.ParentID)
}

func TestCategoryService_Delete(t *testing.T) {
	b, _ := newTestBank(t, nil)
	ctx := context.Background()

	math := mustCreateCategory(t, b, "Math", nil)
	algebra := mustCreateCategory(t, b, "Algebra", &math.ID)
	linear := mustCreateCategory(t, b, "Linear", &algebra.ID)
	q := mustCreateQuestion(t, b, "2x=4?", algebra.ID)

	require.NoError(t, b.Categories.Delete(ctx, algebra.ID))

	got, err := b.Categories.Get(ctx, linear.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, math.ID, *got.ParentID)

	moved, err := b.Catalog.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UncategorizedID, moved.CategoryID)

	// Deleting a root promotes its children to roots.
	require.NoError(t, b.Categories.Delete(ctx, math.ID))
	got, err = b.Categories.Get(ctx, linear.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)

	assert.True(t, apperror.IsNotFound(b.Categories.Delete(ctx, algebra.ID)))
	assert.True(t, apperror.IsValidation(b.Categories.Delete(ctx, models.UncategorizedID)))
}

func TestCategoryService_Search(t *testing.T) {
	b, _ := newTestBank(t, nil)
	ctx := context.Background()

	_, err := b.Categories.Create(ctx, CreateCategoryInput{Name: "Mathematics", Description: "numbers"})
	require.NoError(t, err)
	mustCreateCategory(t, b, "Physics", nil)

	found, err := b.Categories.Search(ctx, "MATH")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Mathematics", found[0].Name)

	found, err = b.Categories.Search(ctx, "numb")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = b.Categories.Search(ctx, " ")
	assert.True(t, apperror.IsValidation(err))
}

func TestCategoryService_ConcurrentOpposingMoves(t *testing.T) {
	b, _ := newTestBank(t, nil)
	ctx := context.Background()

	a := mustCreateCategory(t, b, "A", nil)
	c := mustCreateCategory(t, b, "B", nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = b.Categories.Update(ctx, a.ID, UpdateCategoryInput{ParentID: &c.ID})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = b.Categories.Update(ctx, c.ID, UpdateCategoryInput{ParentID: &a.ID})
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsCycle(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	roots, err := b.Categories.Tree(ctx)
	require.NoError(t, err)
	// Sentinel plus whichever of A and B ended up on top.
	assert.Len(t, roots, 2)
}
