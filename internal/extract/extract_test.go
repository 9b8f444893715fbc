package extract

import (
	"testing"
	"time"
)

func TestFinalizeDefaults(t *testing.T) {
	r := Finalize(&Result{}, "  raw note text  ", mondayNow)

	if r.Type != "note" {
		t.Errorf("Type = %q, want note", r.Type)
	}
	if r.Priority != "medium" {
		t.Errorf("Priority = %q, want medium", r.Priority)
	}
	if r.Description != "raw note text" {
		t.Errorf("Description = %q, want raw note text", r.Description)
	}
}

func TestFinalizeUnknownEnumsCollapse(t *testing.T) {
	r := Finalize(&Result{Type: "epic", Priority: "blocker"}, "note", mondayNow)
	if r.Type != "note" {
		t.Errorf("unknown type = %q, want note", r.Type)
	}
	if r.Priority != "medium" {
		t.Errorf("unknown priority = %q, want medium", r.Priority)
	}
}

func TestFinalizeKeywordsAndHints(t *testing.T) {
	r := Finalize(&Result{
		Keywords:     []string{"Budget", "budget", "  report ", ""},
		ContextHints: []string{"Atlas Migration", "atlas migration", " "},
	}, "note", mondayNow)

	if len(r.Keywords) != 2 || r.Keywords[0] != "budget" || r.Keywords[1] != "report" {
		t.Errorf("Keywords = %v, want [budget report]", r.Keywords)
	}
	if len(r.ContextHints) != 1 || r.ContextHints[0] != "Atlas Migration" {
		t.Errorf("ContextHints = %v, want [Atlas Migration]", r.ContextHints)
	}
}

func TestFinalizeResolvesDueText(t *testing.T) {
	r := Finalize(&Result{DueText: "tomorrow"}, "note", mondayNow)
	if r.DueAt == nil {
		t.Fatal("expected DueAt from DueText")
	}
	want := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	if !r.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", r.DueAt, want)
	}

	// A resolved DueAt wins over DueText.
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r = Finalize(&Result{DueAt: &fixed, DueText: "tomorrow"}, "note", mondayNow)
	if !r.DueAt.Equal(fixed) {
		t.Errorf("DueAt = %v, want %v", r.DueAt, fixed)
	}
}

func TestForBackend(t *testing.T) {
	if _, ok := ForBackend("openai", "sk-test", "gpt-4o-mini", time.Second).(*OpenAI); !ok {
		t.Error("openai with key should select the OpenAI backend")
	}
	if _, ok := ForBackend("openai", "", "gpt-4o-mini", time.Second).(*Heuristic); !ok {
		t.Error("openai without key should fall back to the rule-based backend")
	}
	if _, ok := ForBackend("heuristic", "sk-test", "", time.Second).(*Heuristic); !ok {
		t.Error("heuristic should select the rule-based backend")
	}
}
