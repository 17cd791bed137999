// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bank

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"quizbank/internal/apperror"
	"quizbank/internal/models"
	"quizbank/internal/store"
	"quizbank/internal/tree"
)

const (
	maxCategoryName        = 100
	maxCategoryDescription = 500
)

// CategoryService maintains the category forest.
type CategoryService struct {
	store *store.Store
}

// CreateCategoryInput describes a new category. A nil ParentID makes a root.
type CreateCategoryInput struct {
	Name        string
	Description string
	ParentID    *uuid.UUID
}

// UpdateCategoryInput carries the fields to change; nil leaves a field as
// is. MoveToRoot detaches the category from its parent and wins over
// ParentID.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	ParentID    *uuid.UUID
	MoveToRoot  bool
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	name, err := checkLength("name", in.Name, true, maxCategoryName)
	if err != nil {
		return nil, err
	}
	desc, err := checkLength("description", in.Description, false, maxCategoryDescription)
	if err != nil {
		return nil, err
	}

	c := &models.Category{Name: name, Description: desc, ParentID: in.ParentID}
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if in.ParentID == nil {
			return tx.Categories().Create(ctx, c)
		}
		// The parent must still exist when the row lands.
		if err := tx.LockTree(ctx); err != nil {
			return err
		}
		parent, err := tx.Categories().FindByID(ctx, *in.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return apperror.NotFound("category", *in.ParentID)
		}
		return tx.Categories().Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("category created", "id", c.ID, "name", c.Name)
	return c, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NotFound("category", id)
	}
	return c, nil
}

// Update renames, redescribes or reparents a category. Reparenting is
// checked for cycles against the tree as it stands inside the transaction,
// under the tree lock, so two opposing moves cannot both pass.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, in UpdateCategoryInput) (*models.Category, error) {
	var out *models.Category
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		reparent := in.MoveToRoot || in.ParentID != nil
		if reparent {
			if err := tx.LockTree(ctx); err != nil {
				return err
			}
		}

		c, err := tx.Categories().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return apperror.NotFound("category", id)
		}

		if in.Name != nil {
			if c.Name, err = checkLength("name", *in.Name, true, maxCategoryName); err != nil {
				return err
			}
		}
		if in.Description != nil {
			if c.Description, err = checkLength("description", *in.Description, false, maxCategoryDescription); err != nil {
				return err
			}
		}

		if in.Name != nil || in.Description != nil {
			if err := tx.Categories().UpdateDetails(ctx, c); err != nil {
				return err
			}
		}

		switch {
		case in.MoveToRoot:
			if !c.IsUncategorized() {
				if err := tx.Categories().SetParent(ctx, id, nil); err != nil {
					return err
				}
			}
		case in.ParentID != nil:
			if c.IsUncategorized() {
				return apperror.Validation("parent_id", "the uncategorized category must stay a root")
			}
			if err := s.checkParent(ctx, tx, id, *in.ParentID); err != nil {
				return err
			}
			if err := tx.Categories().SetParent(ctx, id, in.ParentID); err != nil {
				return err
			}
		}

		// parent_id may have moved since c was read; return the row as stored.
		out, err = tx.Categories().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("category updated", "id", out.ID)
	return out, nil
}

func (s *CategoryService) checkParent(ctx context.Context, tx *store.Tx, id, parentID uuid.UUID) error {
	if parentID == id {
		return apperror.Cycle(id, parentID)
	}
	flat, err := tx.Categories().List(ctx)
	if err != nil {
		return err
	}
	idx := tree.NewIndex(flat)
	if _, ok := idx.Get(parentID); !ok {
		return apperror.NotFound("category", parentID)
	}
	if idx.WouldCycle(id, parentID) {
		return apperror.Cycle(id, parentID)
	}
	return nil
}

// Delete removes a category. Its children move up to its former parent and
// its questions move to the uncategorized category, all in one
// transaction.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if id == models.UncategorizedID {
		return apperror.Validation("id", "the uncategorized category cannot be deleted")
	}

	var moved, reassigned int64
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.LockTree(ctx); err != nil {
			return err
		}
		c, err := tx.Categories().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return apperror.NotFound("category", id)
		}

		if moved, err = tx.Categories().ReparentChildren(ctx, id, c.ParentID); err != nil {
			return err
		}
		if reassigned, err = tx.Questions().ReassignCategory(ctx, id, models.UncategorizedID); err != nil {
			return err
		}
		ok, err := tx.Categories().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NotFound("category", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("category deleted", "id", id, "children_moved", moved, "questions_reassigned", reassigned)
	return nil
}

// Tree returns the forest with children nested, siblings in creation order.
func (s *CategoryService) Tree(ctx context.Context) ([]*models.Category, error) {
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Build(), nil
}

// Path returns the breadcrumb from the root down to id.
func (s *CategoryService) Path(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	path, ok := idx.Path(id)
	if !ok {
		return nil, apperror.NotFound("category", id)
	}
	return path, nil
}

// DescendantIDs returns id and every category below it.
func (s *CategoryService) DescendantIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	ids := idx.Descendants(id)
	if ids == nil {
		return nil, apperror.NotFound("category", id)
	}
	return ids, nil
}

// Search matches keyword against names and descriptions.
func (s *CategoryService) Search(ctx context.Context, keyword string) ([]models.Category, error) {
	kw, err := checkLength("keyword", keyword, true, maxCategoryName)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Categories().Search(ctx, kw)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Category{}
	}
	return items, nil
}

// Names returns every category name in creation order.
func (s *CategoryService) Names(ctx context.Context) ([]string, error) {
	flat, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(flat))
	for i, c := range flat {
		names[i] = c.Name
	}
	return names, nil
}

func (s *CategoryService) index(ctx context.Context) (*tree.Index, error) {
	flat, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, err
	}
	return tree.NewIndex(flat), nil
}
