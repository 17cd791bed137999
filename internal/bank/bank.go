// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package bank holds the question bank's operations: the category tree,
// the question catalog with its tags, and the intake queue that turns AI
// suggestions into questions after review. Services talk to storage through
// internal/store and to the model through a Generator; transport lives
// elsewhere.
package bank

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"quizbank/internal/ai"
	"quizbank/internal/apperror"
	"quizbank/internal/models"
	"quizbank/internal/store"
)

// Generator is the explanation generator boundary. *ai.Assistant
// implements it. Calls are slow and may fail; callers persist nothing
// unless a call returns a well-formed result.
type Generator interface {
	Ask(ctx context.Context, question string, related []models.Question, categories []string) (*ai.Answer, error)
	Explain(ctx context.Context, q *models.Question) (string, error)
}

// Bank wires the services over one store and generator.
type Bank struct {
	Categories *CategoryService
	Catalog    *CatalogService
	Tags       *TagService
	Intake     *IntakeService
}

// New builds every service. gen may be nil, in which case AI-backed
// operations fail with a dependency error.
func New(st *store.Store, gen Generator) *Bank {
	if gen == nil {
		gen = unavailableGenerator{}
	}
	cats := &CategoryService{store: st}
	catalog := &CatalogService{store: st, categories: cats, gen: gen}
	return &Bank{
		Categories: cats,
		Catalog:    catalog,
		Tags:       &TagService{store: st},
		Intake:     &IntakeService{store: st, catalog: catalog, gen: gen},
	}
}

var (
	errNoGenerator      = errors.New("no AI provider configured")
	errEmptyExplanation = errors.New("generator returned an empty explanation")
)

type unavailableGenerator struct{}

func (unavailableGenerator) Ask(context.Context, string, []models.Question, []string) (*ai.Answer, error) {
	return nil, errNoGenerator
}

func (unavailableGenerator) Explain(context.Context, *models.Question) (string, error) {
	return "", errNoGenerator
}

// adapterError maps a generator failure onto the error taxonomy. Flagged
// prompts are the caller's fault; everything else is the dependency's.
func adapterError(op string, err error) error {
	var rej *ai.RejectedError
	if errors.As(err, &rej) {
		return apperror.Validation("question", rej.Error())
	}
	return apperror.Dependency(op, err)
}

// checkLength trims s and rejects it when it is empty (if required) or
// longer than max runes.
func checkLength(field, s string, required bool, max int) (string, error) {
	s = strings.TrimSpace(s)
	if required && s == "" {
		return "", apperror.Validation(field, "must not be empty")
	}
	if utf8.RuneCountInString(s) > max {
		return "", apperror.Validation(field, "is too long")
	}
	return s, nil
}
