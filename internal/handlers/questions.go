// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"quizbank/internal/bank"
	"quizbank/internal/models"
)

// defaultPageSize applies when the client sends no limit.
const defaultPageSize = 20

type createQuestionRequest struct {
	Content     string      `json:"content" validate:"required,max=5000"`
	Options     []string    `json:"options" validate:"max=26,dive,max=500"`
	Answer      string      `json:"answer" validate:"required,max=2000"`
	Explanation string      `json:"explanation" validate:"max=10000"`
	CategoryID  *uuid.UUID  `json:"category_id"`
	TagIDs      []uuid.UUID `json:"tag_ids"`
}

type updateQuestionRequest struct {
	Content     *string      `json:"content" validate:"omitempty,max=5000"`
	Options     *[]string    `json:"options" validate:"omitempty,max=26,dive,max=500"`
	Answer      *string      `json:"answer" validate:"omitempty,max=2000"`
	Explanation *string      `json:"explanation" validate:"omitempty,max=10000"`
	CategoryID  *uuid.UUID   `json:"category_id"`
	TagIDs      *[]uuid.UUID `json:"tag_ids"`
}

// QuestionList serves the filtered, paginated listing.
func (h *Handler) QuestionList(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.bank.Catalog.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func listFilter(r *http.Request) (bank.ListFilter, error) {
	var f bank.ListFilter
	var err error
	if f.CategoryID, err = queryID(r, "category_id"); err != nil {
		return f, err
	}
	if f.TagID, err = queryID(r, "tag_id"); err != nil {
		return f, err
	}
	if f.IncludeChildren, err = queryBool(r, "include_children"); err != nil {
		return f, err
	}
	if f.Page, err = queryInt(r, "page", 1); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit", defaultPageSize); err != nil {
		return f, err
	}
	f.Keyword = r.URL.Query().Get("keyword")
	return f, nil
}

func (h *Handler) QuestionCreate(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	in := bank.CreateQuestionInput{
		Content:     req.Content,
		Options:     req.Options,
		Answer:      req.Answer,
		Explanation: req.Explanation,
		TagIDs:      req.TagIDs,
	}
	if req.CategoryID != nil {
		in.CategoryID = *req.CategoryID
	}

	q, err := h.bank.Catalog.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) QuestionGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.bank.Catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) QuestionUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateQuestionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	q, err := h.bank.Catalog.Update(r.Context(), id, bank.UpdateQuestionInput{
		Content:     req.Content,
		Options:     req.Options,
		Answer:      req.Answer,
		Explanation: req.Explanation,
		CategoryID:  req.CategoryID,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) QuestionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.bank.Catalog.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuestionSearch serves the unpaginated keyword search.
func (h *Handler) QuestionSearch(w http.ResponseWriter, r *http.Request) {
	items, err := h.bank.Catalog.Search(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// QuestionExplain fills in a missing explanation through the AI provider.
func (h *Handler) QuestionExplain(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.bank.Catalog.GenerateExplanation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) QuestionAddTag(w http.ResponseWriter, r *http.Request) {
	h.questionTag(w, r, h.bank.Catalog.AddTag)
}

func (h *Handler) QuestionRemoveTag(w http.ResponseWriter, r *http.Request) {
	h.questionTag(w, r, h.bank.Catalog.RemoveTag)
}

type tagLinkFunc func(ctx context.Context, questionID, tagID uuid.UUID) (*models.Question, error)

func (h *Handler) questionTag(w http.ResponseWriter, r *http.Request, op tagLinkFunc) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tagID, err := pathID(r, "tagID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := op(r.Context(), id, tagID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// SearchAll matches a keyword across questions, categories and tags.
func (h *Handler) SearchAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.bank.Catalog.SearchAll(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
