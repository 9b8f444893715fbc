package card

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		expected Type
	}{
		{"task", TypeTask},
		{"reminder", TypeReminder},
		{"idea", TypeIdea},
		{"note", TypeNote},
		{"", TypeNote},
		{"meeting", TypeNote},
	}

	for _, tt := range tests {
		if got := ParseType(tt.input); got != tt.expected {
			t.Errorf("ParseType(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected Priority
	}{
		{"urgent", PriorityUrgent},
		{"high", PriorityHigh},
		{"medium", PriorityMedium},
		{"low", PriorityLow},
		{"", PriorityMedium},
		{"critical", PriorityMedium},
	}

	for _, tt := range tests {
		if got := ParsePriority(tt.input); got != tt.expected {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	if PriorityUrgent.Rank() >= PriorityHigh.Rank() {
		t.Error("urgent should rank before high")
	}
	if PriorityHigh.Rank() >= PriorityMedium.Rank() {
		t.Error("high should rank before medium")
	}
	if PriorityMedium.Rank() >= PriorityLow.Rank() {
		t.Error("medium should rank before low")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"active", "completed", "archived"} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "deleted", "done"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if got := ParseCategory("project"); got != CategoryProject {
		t.Errorf("ParseCategory(project) = %q", got)
	}
	if got := ParseCategory("club"); got != CategoryTheme {
		t.Errorf("ParseCategory(club) = %q, want theme", got)
	}
}

func TestEnvelopeMatchScore(t *testing.T) {
	env := &Envelope{Keywords: []string{"budget", "Q3", "report"}}

	if got := env.MatchScore([]string{"q3", "Budget", "deck"}); got != 2 {
		t.Errorf("MatchScore() = %d, want 2", got)
	}
	if got := env.MatchScore([]string{"deck"}); got != 0 {
		t.Errorf("MatchScore() = %d, want 0", got)
	}
	if got := env.MatchScore(nil); got != 0 {
		t.Errorf("MatchScore(nil) = %d, want 0", got)
	}
}

func TestInEnvelope(t *testing.T) {
	id := "01ENV"
	c := &Card{EnvelopeID: &id}

	if !c.InEnvelope("01ENV") {
		t.Error("expected card to be in its envelope")
	}
	if c.InEnvelope("01OTHER") {
		t.Error("expected card not to be in another envelope")
	}
	if (&Card{}).InEnvelope("01ENV") {
		t.Error("unfiled card should not match any envelope")
	}
}
