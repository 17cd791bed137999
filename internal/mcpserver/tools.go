// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"quizbank/internal/bank"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("search_questions",
		mcp.WithDescription("Search questions whose content or tag names contain a keyword"),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("Keyword to look for, case-insensitive"),
		),
	), s.handleSearchQuestions)

	s.mcp.AddTool(mcp.NewTool("get_categories",
		mcp.WithDescription("Get the category tree with question counts"),
	), s.handleGetCategories)

	s.mcp.AddTool(mcp.NewTool("get_tags",
		mcp.WithDescription("List every tag"),
	), s.handleGetTags)

	s.mcp.AddTool(mcp.NewTool("add_question",
		mcp.WithDescription("Add a question to the bank"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Question text"),
		),
		mcp.WithString("answer",
			mcp.Required(),
			mcp.Description("Correct answer; must equal one of the options when options are given"),
		),
		mcp.WithString("options",
			mcp.Description("Answer options separated by newlines"),
		),
		mcp.WithString("category_id",
			mcp.Description("Category id; uncategorized when omitted"),
		),
	), s.handleAddQuestion)

	s.mcp.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Ask the bank's tutor a question. Good exchanges are queued as suggested questions for review."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The learner's question"),
		),
	), s.handleAskQuestion)
}

func (s *Server) handleSearchQuestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword := strings.TrimSpace(request.GetString("keyword", ""))
	if keyword == "" {
		return mcp.NewToolResultError("keyword parameter required"), nil
	}

	questions, err := s.bank.Catalog.Search(ctx, keyword)
	if err != nil {
		return toolError("search questions", err), nil
	}
	return mcp.NewToolResultText(formatQuestions(questions, fmt.Sprintf("Search results for '%s'", keyword))), nil
}

func (s *Server) handleGetCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roots, err := s.bank.Categories.Tree(ctx)
	if err != nil {
		return toolError("get categories", err), nil
	}
	return mcp.NewToolResultText(formatTree(roots)), nil
}

func (s *Server) handleGetTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.bank.Tags.List(ctx)
	if err != nil {
		return toolError("get tags", err), nil
	}
	return mcp.NewToolResultText(formatTags(tags)), nil
}

func (s *Server) handleAddQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := bank.CreateQuestionInput{
		Content: request.GetString("content", ""),
		Answer:  request.GetString("answer", ""),
	}
	if raw := request.GetString("options", ""); strings.TrimSpace(raw) != "" {
		in.Options = strings.Split(raw, "\n")
	}
	if raw := strings.TrimSpace(request.GetString("category_id", "")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid category_id %q", raw)), nil
		}
		in.CategoryID = id
	}

	q, err := s.bank.Catalog.Create(ctx, in)
	if err != nil {
		return toolError("add question", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Question added with id %s", q.ID)), nil
}

func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.bank.Intake.Ask(ctx, request.GetString("question", ""))
	if err != nil {
		return toolError("ask question", err), nil
	}

	var b strings.Builder
	b.WriteString(res.Answer)
	if len(res.Related) > 0 {
		b.WriteString("\n\n")
		b.WriteString(formatQuestions(res.Related, "Related questions"))
	}
	if res.PendingID != nil {
		fmt.Fprintf(&b, "\n\nA suggested question was queued for review as %s.", *res.PendingID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// toolError reports err to the client as a tool failure. Protocol-level
// errors are reserved for transport problems.
func toolError(op string, err error) *mcp.CallToolResult {
	slog.Warn("mcp tool failed", "tool", op, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", op, err))
}
