package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/db"
	"github.com/attachehq/attache/internal/extract"
	"github.com/attachehq/attache/internal/ops"
	"github.com/urfave/cli/v2"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	cleanup := func() {
		database.Close()
	}
	return database, cleanup
}

// testApp builds a CLI app backed by the local heuristic extractor.
func testApp(database *sql.DB) *cli.App {
	return newCLIApp(database, config.DefaultConfig(), extract.NewHeuristic())
}

// runCapture runs the app with args and returns captured stdout.
func runCapture(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"attache"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

// TestCLIAdd tests the add command.
func TestCLIAdd(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	app := testApp(database)

	out, err := runCapture(t, app, "add", "Send quarterly report to John by Friday, urgent")
	if err != nil {
		t.Fatalf("add command failed: %v", err)
	}

	var output ops.IngestOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}

	if output.Card == nil || output.Card.ID == "" {
		t.Fatal("expected non-empty card ID")
	}
	if string(output.Card.Type) != "task" {
		t.Errorf("expected type=task, got %s", output.Card.Type)
	}
	if string(output.Card.Priority) != "urgent" {
		t.Errorf("expected priority=urgent, got %s", output.Card.Priority)
	}
}

// TestCLIAddEmpty tests that add rejects a missing note.
func TestCLIAddEmpty(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	app := testApp(database)

	_, err := runCapture(t, app, "add")
	if err == nil {
		t.Fatal("expected error for empty note")
	}
	if !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

// TestCLICards tests the cards and card commands.
func TestCLICards(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	ingested, err := ops.Ingest(context.Background(), database, cfg, extract.NewHeuristic(),
		ops.IngestInput{Text: "Fix the login form validation"})
	if err != nil {
		t.Fatalf("failed to ingest test card: %v", err)
	}

	app := testApp(database)

	t.Run("list", func(t *testing.T) {
		out, err := runCapture(t, app, "cards", "--status=active")
		if err != nil {
			t.Fatalf("cards command failed: %v", err)
		}

		var output ops.ListCardsOutput
		if err := json.Unmarshal([]byte(out), &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.Count != 1 {
			t.Errorf("expected 1 card, got %d", output.Count)
		}
	})

	t.Run("fetch by id", func(t *testing.T) {
		out, err := runCapture(t, app, "card", ingested.Card.ID)
		if err != nil {
			t.Fatalf("card command failed: %v", err)
		}

		var output ops.FetchCardOutput
		if err := json.Unmarshal([]byte(out), &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.Card.ID != ingested.Card.ID {
			t.Errorf("expected ID=%s, got %s", ingested.Card.ID, output.Card.ID)
		}
	})

	t.Run("invalid status filter", func(t *testing.T) {
		_, err := runCapture(t, app, "cards", "--status=bogus")
		if err == nil {
			t.Fatal("expected error for invalid status")
		}
		if !strings.Contains(err.Error(), "INVALID_REQUEST") {
			t.Errorf("expected INVALID_REQUEST, got %v", err)
		}
	})
}

// TestCLILifecycle tests complete and archive.
func TestCLILifecycle(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	ingested, err := ops.Ingest(context.Background(), database, cfg, extract.NewHeuristic(),
		ops.IngestInput{Text: "Water the plants"})
	if err != nil {
		t.Fatalf("failed to ingest test card: %v", err)
	}

	app := testApp(database)

	out, err := runCapture(t, app, "complete", ingested.Card.ID)
	if err != nil {
		t.Fatalf("complete command failed: %v", err)
	}
	var completed ops.SetCardStatusOutput
	if err := json.Unmarshal([]byte(out), &completed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if string(completed.Card.Status) != "completed" {
		t.Errorf("expected status=completed, got %s", completed.Card.Status)
	}

	out, err = runCapture(t, app, "archive", ingested.Card.ID)
	if err != nil {
		t.Fatalf("archive command failed: %v", err)
	}
	var archived ops.SetCardStatusOutput
	if err := json.Unmarshal([]byte(out), &archived); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if string(archived.Card.Status) != "archived" {
		t.Errorf("expected status=archived, got %s", archived.Card.Status)
	}
}

// TestCLISearch tests the search command.
func TestCLISearch(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	if _, err := ops.Ingest(context.Background(), database, cfg, extract.NewHeuristic(),
		ops.IngestInput{Text: "Review the budget spreadsheet"}); err != nil {
		t.Fatalf("failed to ingest test card: %v", err)
	}

	app := testApp(database)

	out, err := runCapture(t, app, "search", "budget")
	if err != nil {
		t.Fatalf("search command failed: %v", err)
	}

	var output ops.SearchCardsOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if output.Count != 1 {
		t.Errorf("expected 1 match, got %d", output.Count)
	}
}

// TestCLIEnvelopes tests the envelopes and envelope commands.
func TestCLIEnvelopes(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	if _, err := ops.Ingest(context.Background(), database, cfg, extract.NewHeuristic(),
		ops.IngestInput{Text: "Draft the announcement for the website redesign project"}); err != nil {
		t.Fatalf("failed to ingest test card: %v", err)
	}

	app := testApp(database)

	out, err := runCapture(t, app, "envelopes")
	if err != nil {
		t.Fatalf("envelopes command failed: %v", err)
	}

	var listed ops.ListEnvelopesOutput
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if listed.Count != 1 {
		t.Fatalf("expected 1 envelope, got %d", listed.Count)
	}

	out, err = runCapture(t, app, "envelope", "--name", "website redesign")
	if err != nil {
		t.Fatalf("envelope command failed: %v", err)
	}

	var fetched ops.FetchEnvelopeOutput
	if err := json.Unmarshal([]byte(out), &fetched); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if fetched.Stats.Total != 1 {
		t.Errorf("expected 1 member, got %d", fetched.Stats.Total)
	}

	out, err = runCapture(t, app, "envelopes", "-q", "redesign")
	if err != nil {
		t.Fatalf("envelopes -q failed: %v", err)
	}
	var searched ops.SearchEnvelopesOutput
	if err := json.Unmarshal([]byte(out), &searched); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if searched.Count != 1 {
		t.Errorf("expected 1 search hit, got %d", searched.Count)
	}
}

// TestCLIThinkAndSuggestions tests think, suggestions, and dismiss.
func TestCLIThinkAndSuggestions(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	if _, err := ops.Ingest(context.Background(), database, cfg, extract.NewHeuristic(),
		ops.IngestInput{Text: "Submit the expense report, due tomorrow"}); err != nil {
		t.Fatalf("failed to ingest test card: %v", err)
	}

	app := testApp(database)

	out, err := runCapture(t, app, "think")
	if err != nil {
		t.Fatalf("think command failed: %v", err)
	}

	var thought ops.ThinkOutput
	if err := json.Unmarshal([]byte(out), &thought); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if thought.Count == 0 {
		t.Fatal("expected at least one suggestion for a due-soon card")
	}

	out, err = runCapture(t, app, "suggestions")
	if err != nil {
		t.Fatalf("suggestions command failed: %v", err)
	}
	var pending ops.ListSuggestionsOutput
	if err := json.Unmarshal([]byte(out), &pending); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if pending.Count != thought.Count {
		t.Errorf("expected %d pending, got %d", thought.Count, pending.Count)
	}

	out, err = runCapture(t, app, "suggestions", "-q", "expense")
	if err != nil {
		t.Fatalf("suggestions -q failed: %v", err)
	}
	var found ops.SearchSuggestionsOutput
	if err := json.Unmarshal([]byte(out), &found); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if found.Count == 0 {
		t.Error("expected the due-soon suggestion to match by message")
	}

	out, err = runCapture(t, app, "dismiss", thought.Suggestions[0].ID)
	if err != nil {
		t.Fatalf("dismiss command failed: %v", err)
	}
	var resolved ops.ResolveSuggestionOutput
	if err := json.Unmarshal([]byte(out), &resolved); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if string(resolved.Suggestion.Status) != "dismissed" {
		t.Errorf("expected status=dismissed, got %s", resolved.Suggestion.Status)
	}
}

// TestCLIContext tests the context command.
func TestCLIContext(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	if _, err := ops.Ingest(context.Background(), database, cfg, extract.NewHeuristic(),
		ops.IngestInput{Text: "Review the budget with @sarah"}); err != nil {
		t.Fatalf("failed to ingest test card: %v", err)
	}

	app := testApp(database)

	out, err := runCapture(t, app, "context")
	if err != nil {
		t.Fatalf("context command failed: %v", err)
	}

	var output ops.ContextSummaryOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	found := false
	for _, entry := range output.KeyPeople {
		if entry.Name == "sarah" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected sarah in key people, got %+v", output.KeyPeople)
	}
}

// TestIsCLIMode tests command/server mode selection.
func TestIsCLIMode(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"no args", []string{"attache"}, false},
		{"known command", []string{"attache", "cards"}, true},
		{"help flag", []string{"attache", "--help"}, true},
		{"unknown command", []string{"attache", "bogus"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			if got := isCLIMode(); got != tt.want {
				t.Errorf("isCLIMode() = %v, want %v", got, tt.want)
			}
		})
	}
}
