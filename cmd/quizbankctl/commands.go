package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quizbank/internal/app"
	"quizbank/internal/config"
	"quizbank/internal/database"
	"quizbank/internal/mcpserver"
	"quizbank/internal/models"
)

var version = "dev"

// globals holds the persistent flags shared by every command.
type globals struct {
	dbPath string
	output string
	cfg    *config.Config
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "quizbankctl",
		Short:         "Administer a quizbank database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch g.output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("--output must be text, json or yaml, got %q", g.output)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if g.dbPath != "" {
				cfg.DBDriver = database.DriverSQLite
				cfg.SQLitePath = g.dbPath
			}
			g.cfg = cfg

			// Keep stdout for command output.
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel})))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path (overrides DB_DRIVER)")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "text", "output format: text, json or yaml")

	root.AddCommand(
		migrateCmd(g),
		seedCmd(g),
		treeCmd(g),
		pathCmd(g),
		pendingCmd(g),
		approveCmd(g),
		rejectCmd(g),
		askCmd(g),
		explainCmd(g),
		mcpCmd(g),
	)
	return root
}

func migrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(g.cfg.DBDriver, g.cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func seedCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default categories and tags in an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(g.cfg.DBDriver, g.cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			if err := database.Seed(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
			return nil
		},
	}
}

func treeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			roots, err := a.Bank.Categories.Tree(cmd.Context())
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), roots, func(w io.Writer) {
				var walk func(nodes []*models.Category)
				walk = func(nodes []*models.Category) {
					for _, c := range nodes {
						fmt.Fprintf(w, "%s%s  %s (%d)\n", strings.Repeat("  ", c.Depth), c.ID, c.Name, c.QuestionCount)
						walk(c.Children)
					}
				}
				walk(roots)
			})
		},
	}
}

func pathCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "path [category-id]",
		Short: "Print the ancestors of a category, root first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.Bank.Categories.Path(cmd.Context(), id)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), path, func(w io.Writer) {
				names := make([]string, len(path))
				for i, c := range path {
					names[i] = c.Name
				}
				fmt.Fprintln(w, strings.Join(names, " > "))
			})
		},
	}
}

func pendingCmd(g *globals) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List suggested questions awaiting review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Bank.Intake.ListPending(cmd.Context(), status)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), items, func(w io.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, "No pending questions.")
					return
				}
				for _, p := range items {
					fmt.Fprintf(w, "%s  %s\n", p.ID, truncate(p.Candidate.Content, 60))
				}
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, approved, rejected)")
	return cmd
}

func approveCmd(g *globals) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "approve [pending-id]",
		Short: "Turn a pending suggestion into a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var categoryID *uuid.UUID
			if category != "" {
				cid, err := parseID(category)
				if err != nil {
					return err
				}
				categoryID = &cid
			}

			a, err := app.Open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			q, err := a.Bank.Intake.Approve(cmd.Context(), id, categoryID)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), q, func(w io.Writer) {
				fmt.Fprintf(w, "Created question %s\n", q.ID)
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category id for the new question")
	return cmd
}

func rejectCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reject [pending-id]",
		Short: "Discard a pending suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Bank.Intake.Reject(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s\n", id)
			return nil
		},
	}
}

func askCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Bank.Intake.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintln(w, res.Answer)
				if len(res.Related) > 0 {
					fmt.Fprintln(w, "\nRelated:")
					for _, q := range res.Related {
						fmt.Fprintf(w, "  %s  %s\n", q.ID, truncate(q.Content, 60))
					}
				}
				if res.PendingID != nil {
					fmt.Fprintf(w, "\nSuggested question queued as %s\n", *res.PendingID)
				}
			})
		},
	}
}

func explainCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [question-id]",
		Short: "Generate an explanation for a question that has none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := app.Open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			q, err := a.Bank.Catalog.GenerateExplanation(cmd.Context(), id)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), q, func(w io.Writer) {
				if q.Explanation != nil {
					fmt.Fprintln(w, *q.Explanation)
				}
			})
		},
	}
}

func mcpCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the bank's MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return server.ServeStdio(mcpserver.New(a.Bank, version).MCP())
		},
	}
}

// print writes v as JSON or YAML, or calls text for the default format.
func (g *globals) print(w io.Writer, v any, text func(w io.Writer)) error {
	switch g.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round-trip through JSON so field names and UUIDs match the API.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}
