// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bank

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"quizbank/internal/apperror"
	"quizbank/internal/models"
	"quizbank/internal/store"
)

const maxTagName = 50

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// TagService manages the tag vocabulary.
type TagService struct {
	store *store.Store
}

// Create adds a tag. An empty color gets the default.
func (s *TagService) Create(ctx context.Context, name, color string) (*models.Tag, error) {
	name, err := checkLength("name", name, true, maxTagName)
	if err != nil {
		return nil, err
	}
	color = strings.TrimSpace(color)
	if color != "" && !colorPattern.MatchString(color) {
		return nil, apperror.Validation("color", "must look like #rrggbb")
	}

	t := &models.Tag{Name: name, Color: color}
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		existing, err := tx.Tags().FindByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Validation("name", "a tag with this name already exists")
		}
		return tx.Tags().Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("tag created", "id", t.ID, "name", t.Name)
	return t, nil
}

// Get returns one tag.
func (s *TagService) Get(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	t, err := s.store.Tags().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperror.NotFound("tag", id)
	}
	return t, nil
}

// List returns every tag, newest first.
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	items, err := s.store.Tags().List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Tag{}
	}
	return items, nil
}

// Delete removes a tag and unlinks it from every question.
func (s *TagService) Delete(ctx context.Context, id uuid.UUID) error {
	var ok bool
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		ok, err = tx.Tags().Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("tag", id)
	}
	slog.Info("tag deleted", "id", id)
	return nil
}

// Search matches keyword against tag names.
func (s *TagService) Search(ctx context.Context, keyword string) ([]models.Tag, error) {
	kw, err := checkLength("keyword", keyword, true, maxTagName)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Tags().Search(ctx, kw)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Tag{}
	}
	return items, nil
}
