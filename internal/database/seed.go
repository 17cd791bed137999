package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// seedCategory and seedTag mirror the subject list and difficulty labels
// that ship with a fresh install.
type seedCategory struct {
	Name        string
	Description string
}

type seedTag struct {
	Name  string
	Color string
}

var defaultCategories = []seedCategory{
	{"数学", "数学相关题目"},
	{"语文", "语文相关题目"},
	{"英语", "英语相关题目"},
	{"物理", "物理相关题目"},
	{"化学", "化学相关题目"},
	{"历史", "历史相关题目"},
	{"地理", "地理相关题目"},
	{"生物", "生物相关题目"},
}

var defaultTags = []seedTag{
	{"易", "#10b981"},
	{"中", "#f59e0b"},
	{"难", "#ef4444"},
	{"重点", "#8b5cf6"},
	{"考点", "#3b82f6"},
	{"例题", "#06b6d4"},
	{"真题", "#ec4899"},
}

// Seed populates an empty database with the default subject categories and
// tags. It is a no-op when any category besides the uncategorized sentinel,
// or any tag, already exists.
func Seed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `
		SELECT (SELECT COUNT(*) FROM categories WHERE id <> '00000000-0000-0000-0000-000000000001')
		     + (SELECT COUNT(*) FROM tags)`); err != nil {
		return fmt.Errorf("seed check: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	// Spread creation times so sibling order follows the list order.
	now := time.Now().UTC()
	for i, c := range defaultCategories {
		ts := now.Add(time.Duration(i) * time.Millisecond)
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO categories (id, name, description, parent_id, created_at, updated_at)
			VALUES (?, ?, ?, NULL, ?, ?)`),
			uuid.New(), c.Name, c.Description, ts, ts,
		); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}

	for i, t := range defaultTags {
		ts := now.Add(time.Duration(i) * time.Millisecond)
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)`),
			uuid.New(), t.Name, t.Color, ts,
		); err != nil {
			return fmt.Errorf("seed tag %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default categories and tags",
		"categories", len(defaultCategories),
		"tags", len(defaultTags),
	)
	return nil
}
