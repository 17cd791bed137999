// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// ModerationResult contains the outcome of a prompt safety check.
type ModerationResult struct {
	Safe       bool     // true if the prompt passes moderation
	Categories []string // list of flagged category names (empty when safe)
}

// Moderator checks user prompts for policy violations before sending
// them to AI generation endpoints.
type Moderator interface {
	// CheckSafety evaluates a text prompt and returns whether it is safe
	// to send to an AI provider. If not safe, Categories lists the reasons.
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

// httpModerator calls an OpenAI-compatible POST {baseURL}/moderations
// endpoint. OpenAI's is free; Mistral's has the same shape but reports no
// top-level "flagged" field.
type httpModerator struct {
	label   string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

// newOpenAIModerator creates a moderator that uses OpenAI's free moderation API.
func newOpenAIModerator(apiKey, baseURL string) *httpModerator {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &httpModerator{
		label:   "moderation",
		model:   "omni-moderation-latest",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// newMistralModerator creates a moderator using Mistral's moderation endpoint.
func newMistralModerator(apiKey, baseURL string) *httpModerator {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}
	return &httpModerator{
		label:   "mistral moderation",
		model:   "mistral-moderation-latest",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *httpModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	headers := map[string]string{"Authorization": "Bearer " + m.apiKey}

	var result modResponse
	if err := postJSON(ctx, m.client, m.label, m.baseURL+"/moderations", headers, modRequest{Model: m.model, Input: text}, &result); err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return &ModerationResult{Safe: true}, nil
	}

	r := result.Results[0]
	var flagged []string
	for cat, isFlagged := range r.Categories {
		if isFlagged {
			flagged = append(flagged, displayCategory(cat))
		}
	}
	sort.Strings(flagged)

	safe := len(flagged) == 0
	if r.Flagged != nil && !*r.Flagged {
		safe = true
		flagged = nil
	}
	return &ModerationResult{Safe: safe, Categories: flagged}, nil
}

// displayCategory converts "hate/threatening" to "hate (threatening)" and
// underscores to spaces.
func displayCategory(cat string) string {
	display := strings.ReplaceAll(cat, "/", " (")
	if strings.Contains(cat, "/") {
		display += ")"
	}
	return strings.ReplaceAll(display, "_", " ")
}

// fallbackModerator tries primary and switches to secondary for good once
// primary rejects its credentials (e.g. project-scoped OpenAI keys without
// moderation access). Other primary errors fall through to secondary for
// that call only.
type fallbackModerator struct {
	primary   Moderator
	secondary Moderator
	demoted   atomic.Bool
}

func newFallbackModerator(primary, secondary Moderator) *fallbackModerator {
	return &fallbackModerator{primary: primary, secondary: secondary}
}

func (f *fallbackModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	if !f.demoted.Load() {
		res, err := f.primary.CheckSafety(ctx, text)
		if err == nil {
			return res, nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.IsAuth() {
			slog.Warn("primary moderator rejected credentials, switching to fallback", "error", err)
			f.demoted.Store(true)
		} else {
			slog.Warn("primary moderator failed, trying fallback", "error", err)
		}
	}
	return f.secondary.CheckSafety(ctx, text)
}

// --- Request/Response types ---

type modRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type modResponse struct {
	Results []modResult `json:"results"`
}

type modResult struct {
	Flagged    *bool           `json:"flagged"`
	Categories map[string]bool `json:"categories"`
}
