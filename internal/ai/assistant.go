// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizbank/internal/models"
)

// ErrMalformedResponse is returned when a provider reply cannot be parsed
// into the expected shape. Nothing derived from such a reply is persisted.
var ErrMalformedResponse = errors.New("ai: malformed response")

// RejectedError is returned when prompt moderation flags the user's text.
type RejectedError struct {
	Categories []string
}

func (e *RejectedError) Error() string {
	return "prompt flagged for: " + strings.Join(e.Categories, ", ")
}

// Generator produces text from a system and a user prompt. *Registry
// implements it.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PromptChecker screens user text before generation. *Registry implements it.
type PromptChecker interface {
	CheckPrompt(ctx context.Context, prompt string) (*ModerationResult, error)
}

// Answer is the assistant's reply to a free-text question.
type Answer struct {
	Text       string
	RelatedIDs []uuid.UUID       // ranked, most relevant first
	Suggestion *models.Candidate // nil when nothing worth staging
}

// Assistant answers learner questions and writes explanations on top of a
// Generator. Every call is bounded by timeout.
type Assistant struct {
	gen     Generator
	checker PromptChecker // may be nil
	timeout time.Duration
}

// NewAssistant returns an Assistant. A zero timeout leaves calls bounded
// only by the caller's context and the provider's HTTP client.
func NewAssistant(gen Generator, checker PromptChecker, timeout time.Duration) *Assistant {
	return &Assistant{gen: gen, checker: checker, timeout: timeout}
}

const askSystemPrompt = `You are a tutor attached to a question bank.
Answer the learner's question clearly and concisely.
Reply with one JSON object and nothing else:
{
  "answer": string,
  "related_ids": [string],
  "suggested_question": null | {
    "content": string,
    "options": [string],
    "answer": string,
    "explanation": string,
    "category_name": string
  }
}
"related_ids" lists ids of the bank questions below that relate to the learner's question, most relevant first; use [] when none do.
Provide "suggested_question" only when the exchange would make a good practice question. When "options" is non-empty, "answer" must be exactly one of them. "category_name" should be one of the listed categories when one fits.`

const explainSystemPrompt = `You are a tutor attached to a question bank.
Explain step by step why the given answer to the question is correct, in the language of the question.
Reply with one JSON object and nothing else: {"explanation": string}`

// Ask answers question using related as context. related is a shortlist of
// bank questions the model may cite; categories are offered as hints for
// a suggested question.
func (a *Assistant) Ask(ctx context.Context, question string, related []models.Question, categories []string) (*Answer, error) {
	if err := a.screen(ctx, question); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Learner question:\n%s\n\n", question)
	b.WriteString("Bank questions:\n")
	if len(related) == 0 {
		b.WriteString("(none)\n")
	}
	for _, q := range related {
		fmt.Fprintf(&b, "- [%s] %s\n", q.ID, oneLine(q.Content))
	}
	if len(categories) > 0 {
		fmt.Fprintf(&b, "\nCategories: %s\n", strings.Join(categories, ", "))
	}

	raw, err := a.generate(ctx, askSystemPrompt, b.String())
	if err != nil {
		return nil, fmt.Errorf("ai ask: %w", err)
	}
	return parseAnswer(raw)
}

// Explain writes an explanation for q's answer.
func (a *Assistant) Explain(ctx context.Context, q *models.Question) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", q.Content)
	if len(q.Options) > 0 {
		b.WriteString("Options:\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "%c. %s\n", 'A'+i, opt)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Correct answer:\n%s\n", q.Answer)

	raw, err := a.generate(ctx, explainSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("ai explain: %w", err)
	}
	return parseExplanation(raw)
}

func (a *Assistant) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.gen.Generate(ctx, systemPrompt, userPrompt)
}

// screen runs moderation. A failing moderator lets the prompt through.
func (a *Assistant) screen(ctx context.Context, text string) error {
	if a.checker == nil {
		return nil
	}
	res, err := a.checker.CheckPrompt(ctx, text)
	if err != nil {
		slog.Warn("moderation check failed, allowing prompt", "error", err)
		return nil
	}
	if !res.Safe {
		slog.Warn("prompt flagged by moderation", "categories", strings.Join(res.Categories, ", "))
		return &RejectedError{Categories: res.Categories}
	}
	return nil
}

type askPayload struct {
	Answer     string   `json:"answer"`
	RelatedIDs []string `json:"related_ids"`
	Suggested  *struct {
		Content      string   `json:"content"`
		Options      []string `json:"options"`
		Answer       string   `json:"answer"`
		Explanation  string   `json:"explanation"`
		CategoryName string   `json:"category_name"`
	} `json:"suggested_question"`
}

func parseAnswer(raw string) (*Answer, error) {
	var p askPayload
	if err := decodeObject(raw, &p); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(p.Answer)
	if text == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrMalformedResponse)
	}

	ans := &Answer{Text: text}
	seen := make(map[uuid.UUID]bool)
	for _, s := range p.RelatedIDs {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ans.RelatedIDs = append(ans.RelatedIDs, id)
	}

	if s := p.Suggested; s != nil && strings.TrimSpace(s.Content) != "" {
		opts := make(models.StringList, 0, len(s.Options))
		for _, o := range s.Options {
			opts = append(opts, strings.TrimSpace(o))
		}
		ans.Suggestion = &models.Candidate{
			Content:      strings.TrimSpace(s.Content),
			Options:      opts,
			Answer:       strings.TrimSpace(s.Answer),
			Explanation:  strings.TrimSpace(s.Explanation),
			CategoryName: strings.TrimSpace(s.CategoryName),
		}
	}
	return ans, nil
}

func parseExplanation(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	var p struct {
		Explanation string `json:"explanation"`
	}
	var text string
	if err := decodeObject(trimmed, &p); err == nil {
		text = strings.TrimSpace(p.Explanation)
	} else if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "```") {
		return "", err
	} else {
		// Plain prose is a usable explanation even without the JSON wrapper.
		text = trimmed
	}

	if text == "" {
		return "", fmt.Errorf("%w: empty explanation", ErrMalformedResponse)
	}
	return text, nil
}

// decodeObject unmarshals the JSON object in raw into v. Models sometimes
// wrap the object in code fences or prose, so on failure the outermost
// {...} span is tried.
func decodeObject(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return fmt.Errorf("%w: no JSON object", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 200 {
		return string(r[:200]) + "…"
	}
	return s
}
