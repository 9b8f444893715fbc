package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/errors"
	"github.com/attachehq/attache/internal/extract"
	"github.com/attachehq/attache/internal/ops"
	"github.com/attachehq/attache/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, svc extract.Service) *cli.App {
	app := &cli.App{
		Name:    "attache",
		Usage:   "Personal note triage and analysis",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(db, cfg, svc),
			cardsCmd(db),
			cardCmd(db),
			searchCmd(db),
			statusCmd(db, cfg, "complete", "Mark a card completed", "completed"),
			statusCmd(db, cfg, "archive", "Archive a card", "archived"),
			refileCmd(db, cfg),
			envelopesCmd(db),
			envelopeCmd(db),
			contextCmd(db, cfg),
			thinkCmd(db, cfg),
			suggestionsCmd(db),
			verdictCmd(db, cfg, "accept", "Accept a suggestion", true),
			verdictCmd(db, cfg, "dismiss", "Dismiss a suggestion", false),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(db *sql.DB, cfg *config.Config, svc extract.Service) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Ingest a note as a card (argument or piped via stdin)",
		ArgsUsage: "[note]",
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" && stdinHasData() {
				piped, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				text = piped
			}
			if text == "" {
				return outputError(errors.NewInvalidRequest("note text is required"))
			}

			output, err := ops.Ingest(c.Context, db, cfg, svc, ops.IngestInput{Text: text})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// cardsCmd creates the cards command.
func cardsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "cards",
		Usage: "List cards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter by status: active|completed|archived"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by type: task|reminder|idea|note"},
			&cli.StringFlag{Name: "envelope", Aliases: []string{"e"}, Usage: "Filter by envelope ID"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListCards(c.Context, db, ops.ListCardsInput{
				Status:     c.String("status"),
				Type:       c.String("type"),
				EnvelopeID: c.String("envelope"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// cardCmd creates the card command.
func cardCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "card",
		Usage:     "Fetch a card by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.FetchCard(c.Context, db, ops.FetchCardInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search card descriptions and keywords",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			output, err := ops.SearchCards(c.Context, db, ops.SearchCardsInput{Query: query})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// statusCmd creates a card lifecycle command (complete, archive).
func statusCmd(db *sql.DB, cfg *config.Config, name, usage, status string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.SetCardStatus(c.Context, db, cfg, ops.SetCardStatusInput{
				ID:     c.Args().First(),
				Status: status,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// refileCmd creates the refile command.
func refileCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "refile",
		Usage:     "Move a card to another envelope (omit --envelope to detach)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "envelope", Aliases: []string{"e"}, Usage: "Destination envelope ID"},
		},
		Action: func(c *cli.Context) error {
			input := ops.RefileCardInput{ID: c.Args().First()}
			if env := c.String("envelope"); env != "" {
				input.EnvelopeID = &env
			}

			output, err := ops.RefileCard(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// envelopesCmd creates the envelopes command.
func envelopesCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "envelopes",
		Usage: "List envelopes with member statistics, or search them",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search names and keywords instead of listing"},
		},
		Action: func(c *cli.Context) error {
			if q := c.String("query"); q != "" {
				output, err := ops.SearchEnvelopes(c.Context, db, ops.SearchEnvelopesInput{Query: q})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			output, err := ops.ListEnvelopes(c.Context, db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// envelopeCmd creates the envelope command.
func envelopeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "envelope",
		Usage:     "Fetch an envelope by ID or name, with its cards",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Envelope name"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchEnvelopeInput{Name: c.String("name")}
			if c.NArg() > 0 {
				input.ID = c.Args().First()
			}

			output, err := ops.FetchEnvelope(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// contextCmd creates the context command.
func contextCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "context",
		Usage: "Show the current user context scores",
		Action: func(c *cli.Context) error {
			output, err := ops.ContextSummary(c.Context, db, cfg, time.Time{})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// thinkCmd creates the think command.
func thinkCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "think",
		Usage: "Run the analysis engine and record suggestions",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Usage: "Keep running on the configured interval"},
			&cli.IntFlag{Name: "every", Usage: "Interval in seconds for --watch (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			run := func() error {
				output, err := ops.Think(c.Context, db, cfg, ops.ThinkInput{})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			if !c.Bool("watch") {
				return run()
			}

			seconds := c.Int("every")
			if seconds <= 0 {
				seconds = cfg.AnalysisIntervalSeconds
			}
			if seconds <= 0 {
				return outputError(errors.NewInvalidRequest("--watch requires --every or analysis_interval_seconds in config"))
			}

			ticker := time.NewTicker(time.Duration(seconds) * time.Second)
			defer ticker.Stop()

			if err := run(); err != nil {
				return err
			}
			for {
				select {
				case <-c.Context.Done():
					return nil
				case <-ticker.C:
					if err := run(); err != nil {
						return err
					}
				}
			}
		},
	}
}

// suggestionsCmd creates the suggestions command.
func suggestionsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "suggestions",
		Usage: "List suggestions, or search their messages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Value: "pending", Usage: "Filter by status: pending|accepted|dismissed|all"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search messages instead of listing"},
		},
		Action: func(c *cli.Context) error {
			if q := c.String("query"); q != "" {
				output, err := ops.SearchSuggestions(c.Context, db, ops.SearchSuggestionsInput{Query: q})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			status := c.String("status")
			if status == "all" {
				status = ""
			}

			output, err := ops.ListSuggestions(c.Context, db, ops.ListSuggestionsInput{Status: status})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// verdictCmd creates a suggestion resolution command (accept, dismiss).
func verdictCmd(db *sql.DB, cfg *config.Config, name, usage string, accept bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.ResolveSuggestion(c.Context, db, cfg, ops.ResolveSuggestionInput{
				ID:     c.Args().First(),
				Accept: accept,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web interface",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8787, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if attErr, ok := err.(*errors.AttacheError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", attErr.Code, attErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
