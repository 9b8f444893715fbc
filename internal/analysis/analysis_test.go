package analysis

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/attachehq/attache/internal/card"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func testCard(id string, mutate func(*card.Card)) card.Card {
	c := card.Card{
		ID:          id,
		Type:        card.TypeTask,
		Description: "card " + id,
		Priority:    card.PriorityMedium,
		Status:      card.StatusActive,
		CreatedAt:   testNow.Add(-24 * time.Hour).Unix(),
		UpdatedAt:   testNow.Add(-24 * time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func kinds(suggestions []card.Suggestion) map[card.Kind]int {
	m := make(map[card.Kind]int)
	for _, s := range suggestions {
		m[s.Kind]++
	}
	return m
}

func TestNextStepsDueSoon(t *testing.T) {
	s := Snapshot{
		Now: testNow,
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Description = "file taxes"
				c.DueAt = ptr(testNow.Add(-2 * time.Hour).Unix())
			}),
			testCard("01B", func(c *card.Card) {
				c.Description = "prep demo"
				c.DueAt = ptr(testNow.Add(24 * time.Hour).Unix())
			}),
			testCard("01C", func(c *card.Card) {
				c.DueAt = ptr(testNow.Add(30 * 24 * time.Hour).Unix())
			}),
			testCard("01D", func(c *card.Card) {
				c.Status = card.StatusCompleted
				c.DueAt = ptr(testNow.Add(-2 * time.Hour).Unix())
			}),
		},
	}

	// Only the imminent card; the overdue one is the conflict strategy's.
	got := NextSteps(s)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	if got[0].CardIDs[0] != "01B" {
		t.Errorf("wrong card referenced: %+v", got)
	}
	if !strings.Contains(got[0].Message, "due") {
		t.Errorf("message = %q", got[0].Message)
	}
}

func TestConflictsFlagOverdueCards(t *testing.T) {
	s := Snapshot{
		Now: testNow,
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Description = "file taxes"
				c.DueAt = ptr(testNow.Add(-3 * time.Hour).Unix())
			}),
			testCard("01B", func(c *card.Card) {
				c.Status = card.StatusCompleted
				c.DueAt = ptr(testNow.Add(-3 * time.Hour).Unix())
			}),
		},
	}

	got := Conflicts(s, 24*time.Hour)
	if len(got) != 1 {
		t.Fatalf("got %d conflicts, want 1: %+v", len(got), got)
	}
	if got[0].Kind != card.KindConflict {
		t.Errorf("Kind = %q, want conflict", got[0].Kind)
	}
	if !strings.Contains(got[0].Message, "overdue") {
		t.Errorf("message = %q", got[0].Message)
	}
	if got[0].CardIDs[0] != "01A" {
		t.Errorf("CardIDs = %v", got[0].CardIDs)
	}

	// The overdue card must not surface as a next step.
	if steps := NextSteps(s); len(steps) != 0 {
		t.Errorf("overdue card leaked into next steps: %+v", steps)
	}
}

func TestNextStepsFollowUp(t *testing.T) {
	envID := "E1"
	s := Snapshot{
		Now:       testNow,
		LastRunAt: testNow.Add(-24 * time.Hour),
		Envelopes: []card.Envelope{{ID: envID, Name: "Website Redesign"}},
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Description = "draft homepage copy"
				c.Keywords = []string{"homepage", "copy"}
				c.Status = card.StatusCompleted
				c.EnvelopeID = &envID
				c.UpdatedAt = testNow.Add(-1 * time.Hour).Unix()
			}),
			testCard("01B", func(c *card.Card) {
				c.Description = "review homepage copy"
				c.Keywords = []string{"homepage", "review"}
				c.EnvelopeID = &envID
			}),
			testCard("01C", func(c *card.Card) {
				c.Description = "book venue for offsite"
				c.Keywords = []string{"venue", "offsite"}
				c.EnvelopeID = &envID
				c.Priority = card.PriorityUrgent
			}),
		},
	}

	got := NextSteps(s)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	msg := got[0].Message
	if !strings.Contains(msg, "draft homepage copy") || !strings.Contains(msg, "review homepage copy") {
		t.Errorf("follow-up should name the completed card and the related next one: %q", msg)
	}
	if got[0].EnvelopeIDs[0] != envID {
		t.Errorf("EnvelopeIDs = %v", got[0].EnvelopeIDs)
	}
}

func TestNextStepsFollowUpRequiresSharedKeyword(t *testing.T) {
	envID := "E1"
	s := Snapshot{
		Now:       testNow,
		LastRunAt: testNow.Add(-24 * time.Hour),
		Envelopes: []card.Envelope{{ID: envID, Name: "Ops"}},
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Description = "file taxes"
				c.Keywords = []string{"taxes"}
				c.Status = card.StatusCompleted
				c.EnvelopeID = &envID
				c.UpdatedAt = testNow.Add(-1 * time.Hour).Unix()
			}),
			testCard("01B", func(c *card.Card) {
				c.Description = "water the garden"
				c.Keywords = []string{"garden"}
				c.EnvelopeID = &envID
			}),
		},
	}

	if got := NextSteps(s); len(got) != 0 {
		t.Errorf("unrelated sibling should not be proposed: %+v", got)
	}
}

func TestNextStepsFollowUpIgnoresOldCompletions(t *testing.T) {
	envID := "E1"
	s := Snapshot{
		Now:       testNow,
		LastRunAt: testNow.Add(-1 * time.Hour),
		Envelopes: []card.Envelope{{ID: envID, Name: "Ops"}},
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Status = card.StatusCompleted
				c.EnvelopeID = &envID
				c.UpdatedAt = testNow.Add(-48 * time.Hour).Unix()
			}),
			testCard("01B", func(c *card.Card) { c.EnvelopeID = &envID }),
		},
	}
	if got := NextSteps(s); len(got) != 0 {
		t.Errorf("completions before the last run should not resurface: %+v", got)
	}
}

func TestConflictsSameAssigneeSameDay(t *testing.T) {
	due := testNow.Add(26 * time.Hour)
	s := Snapshot{
		Now: testNow,
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Description = "quarterly report"
				c.Assignee = ptr("John")
				c.DueAt = ptr(due.Unix())
			}),
			testCard("01B", func(c *card.Card) {
				c.Description = "board deck"
				c.Assignee = ptr("john")
				c.DueAt = ptr(due.Add(3 * time.Hour).Unix())
			}),
			testCard("01C", func(c *card.Card) {
				c.Assignee = ptr("Sarah")
				c.DueAt = ptr(due.Unix())
			}),
		},
	}

	got := Conflicts(s, 24*time.Hour)
	if len(got) != 1 {
		t.Fatalf("got %d conflicts, want 1: %+v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "John") {
		t.Errorf("conflict should name the shared assignee: %q", got[0].Message)
	}
	if len(got[0].CardIDs) != 2 {
		t.Errorf("CardIDs = %v", got[0].CardIDs)
	}
}

func TestConflictsDifferentDaysDoNotConflict(t *testing.T) {
	s := Snapshot{
		Now: testNow,
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Assignee = ptr("John")
				c.DueAt = ptr(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC).Unix())
			}),
			testCard("01B", func(c *card.Card) {
				c.Assignee = ptr("John")
				c.DueAt = ptr(time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC).Unix())
			}),
		},
	}
	if got := Conflicts(s, 24*time.Hour); len(got) != 0 {
		t.Errorf("cards days apart should not conflict: %+v", got)
	}
}

func TestConflictsSameEnvelope(t *testing.T) {
	envID := "E1"
	due := testNow.Add(26 * time.Hour)
	s := Snapshot{
		Now: testNow,
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.EnvelopeID = &envID
				c.DueAt = ptr(due.Unix())
			}),
			testCard("01B", func(c *card.Card) {
				c.EnvelopeID = &envID
				c.DueAt = ptr(due.Add(time.Hour).Unix())
			}),
		},
	}
	got := Conflicts(s, 24*time.Hour)
	if len(got) != 1 {
		t.Fatalf("got %d conflicts, want 1: %+v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "same envelope") {
		t.Errorf("message = %q", got[0].Message)
	}
}

func TestReorganizationsClustersUnassigned(t *testing.T) {
	s := Snapshot{
		Now: testNow,
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) { c.Keywords = []string{"kitchen", "renovation", "quote"} }),
			testCard("01B", func(c *card.Card) { c.Keywords = []string{"kitchen", "renovation", "tiles"} }),
			testCard("01C", func(c *card.Card) { c.Keywords = []string{"taxes"} }),
		},
	}

	got := Reorganizations(s)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	if len(got[0].CardIDs) != 2 {
		t.Errorf("CardIDs = %v, want the two kitchen cards", got[0].CardIDs)
	}
	if !strings.Contains(got[0].Message, "kitchen") {
		t.Errorf("message = %q", got[0].Message)
	}
}

func TestReorganizationsFlagsDrift(t *testing.T) {
	homeID, betterID := "E1", "E2"
	s := Snapshot{
		Now: testNow,
		Envelopes: []card.Envelope{
			{ID: homeID, Name: "Gardening", Keywords: []string{"garden", "plants"}},
			{ID: betterID, Name: "Home Office", Keywords: []string{"desk", "monitor", "chair"}},
		},
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Description = "order a standing desk and monitor arm"
				c.Keywords = []string{"desk", "monitor"}
				c.EnvelopeID = &homeID
			}),
		},
	}

	got := Reorganizations(s)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "Home Office") {
		t.Errorf("drift suggestion should name the better envelope: %q", got[0].Message)
	}
	if len(got[0].EnvelopeIDs) != 2 {
		t.Errorf("EnvelopeIDs = %v", got[0].EnvelopeIDs)
	}
}

func TestReorganizationsKeepsMatchingMembers(t *testing.T) {
	envID := "E1"
	s := Snapshot{
		Now:       testNow,
		Envelopes: []card.Envelope{{ID: envID, Name: "Gardening", Keywords: []string{"garden", "plants"}}},
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Keywords = []string{"plants", "watering"}
				c.EnvelopeID = &envID
			}),
		},
	}
	if got := Reorganizations(s); len(got) != 0 {
		t.Errorf("matching members should not be flagged: %+v", got)
	}
}

func TestPatternsStalledEnvelope(t *testing.T) {
	envID := "E1"
	s := Snapshot{
		Now:       testNow,
		Envelopes: []card.Envelope{{ID: envID, Name: "Side Project"}},
	}
	for i := 0; i < 5; i++ {
		s.Cards = append(s.Cards, testCard(fmt.Sprintf("01%d", i), func(c *card.Card) {
			c.EnvelopeID = &envID
		}))
	}

	got := Patterns(s, Params{CompletionRateAlert: 0.3, UrgentCountAlert: 3})
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "stalling") {
		t.Errorf("message = %q", got[0].Message)
	}
}

func TestPatternsSmallEnvelopesIgnored(t *testing.T) {
	envID := "E1"
	s := Snapshot{
		Now:       testNow,
		Envelopes: []card.Envelope{{ID: envID, Name: "Tiny"}},
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) { c.EnvelopeID = &envID }),
			testCard("01B", func(c *card.Card) { c.EnvelopeID = &envID }),
		},
	}
	if got := Patterns(s, Params{CompletionRateAlert: 0.3}); len(got) != 0 {
		t.Errorf("two-card envelopes should not be rated: %+v", got)
	}
}

func TestPatternsUrgentOverload(t *testing.T) {
	var cards []card.Card
	for i := 0; i < 3; i++ {
		cards = append(cards, testCard(fmt.Sprintf("01%d", i), func(c *card.Card) {
			c.Priority = card.PriorityUrgent
		}))
	}
	s := Snapshot{Now: testNow, Cards: cards}

	// Exactly at the threshold still alerts.
	got := Patterns(s, Params{UrgentCountAlert: 3})
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	if !strings.Contains(got[0].Message, "3 urgent") {
		t.Errorf("message = %q", got[0].Message)
	}

	// Completing one drops below the threshold.
	s.Cards[0].Status = card.StatusCompleted
	if got := Patterns(s, Params{UrgentCountAlert: 3}); len(got) != 0 {
		t.Errorf("below threshold should not alert: %+v", got)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	envID := "E1"
	s := Snapshot{
		Now:       testNow,
		Envelopes: []card.Envelope{{ID: envID, Name: "Launch", Keywords: []string{"launch"}}},
		Cards: []card.Card{
			testCard("01A", func(c *card.Card) {
				c.Assignee = ptr("John")
				c.Priority = card.PriorityUrgent
				c.DueAt = ptr(testNow.Add(4 * time.Hour).Unix())
			}),
			testCard("01B", func(c *card.Card) {
				c.Assignee = ptr("John")
				c.Priority = card.PriorityUrgent
				c.DueAt = ptr(testNow.Add(5 * time.Hour).Unix())
			}),
			testCard("01C", func(c *card.Card) { c.Priority = card.PriorityUrgent }),
		},
	}
	p := Params{ConflictWindow: 24 * time.Hour, CompletionRateAlert: 0.3, UrgentCountAlert: 3}

	first := Run(s, p)
	second := Run(s, p)
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Message != second[i].Message || first[i].Kind != second[i].Kind {
			t.Errorf("run %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}

	got := kinds(first)
	if got[card.KindNextStep] == 0 || got[card.KindConflict] == 0 || got[card.KindPattern] == 0 {
		t.Errorf("expected next_step, conflict and pattern suggestions, got %v", got)
	}
}
