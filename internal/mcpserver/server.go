// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mcpserver exposes the question bank to AI assistants over the
// Model Context Protocol. Tool results are markdown.
package mcpserver

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"quizbank/internal/bank"
	"quizbank/internal/models"
)

const serverName = "quizbank"

// Server wraps an MCP server whose tools call the bank.
type Server struct {
	bank *bank.Bank
	mcp  *server.MCPServer
}

// New builds the MCP server and registers its tools.
func New(b *bank.Bank, version string) *Server {
	s := &Server{bank: b}
	s.mcp = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying server, for ServeStdio or an HTTP transport.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// HTTPHandler returns the streamable HTTP transport for the server.
func (s *Server) HTTPHandler() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcp)
}

func formatQuestions(questions []models.Question, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(questions) == 0 {
		b.WriteString("No questions found.")
		return b.String()
	}
	fmt.Fprintf(&b, "%d question(s)\n", len(questions))

	for _, q := range questions {
		fmt.Fprintf(&b, "\n## %s\n", q.ID)
		fmt.Fprintf(&b, "- **Content**: %s\n", oneLine(q.Content, 200))
		if len(q.Options) > 0 {
			fmt.Fprintf(&b, "- **Options**: %s\n", strings.Join(q.Options, " | "))
		}
		fmt.Fprintf(&b, "- **Answer**: %s\n", q.Answer)
		if len(q.Tags) > 0 {
			names := make([]string, len(q.Tags))
			for i, t := range q.Tags {
				names[i] = t.Name
			}
			fmt.Fprintf(&b, "- **Tags**: %s\n", strings.Join(names, ", "))
		}
	}
	return b.String()
}

func formatTree(roots []*models.Category) string {
	var b strings.Builder
	b.WriteString("# Categories\n\n")
	if len(roots) == 0 {
		b.WriteString("No categories found.")
		return b.String()
	}

	var walk func(nodes []*models.Category)
	walk = func(nodes []*models.Category) {
		for _, c := range nodes {
			fmt.Fprintf(&b, "%s- %s (`%s`, %d question(s))\n", strings.Repeat("  ", c.Depth), c.Name, c.ID, c.QuestionCount)
			walk(c.Children)
		}
	}
	walk(roots)
	return b.String()
}

func formatTags(tags []models.Tag) string {
	if len(tags) == 0 {
		return "# Tags\n\nNo tags found."
	}

	var b strings.Builder
	b.WriteString("# Tags\n\n")
	for _, t := range tags {
		fmt.Fprintf(&b, "- %s (`%s`)\n", t.Name, t.ID)
	}
	return b.String()
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
