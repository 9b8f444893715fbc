package card

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func TestBump(t *testing.T) {
	m := map[string]float64{}

	Bump(m, "Website Redesign")
	if m["website redesign"] != 1 {
		t.Errorf("score = %f, want 1", m["website redesign"])
	}

	Bump(m, "website redesign")
	if m["website redesign"] != 2 {
		t.Errorf("score = %f, want 2", m["website redesign"])
	}

	Bump(m, "  ")
	if len(m) != 1 {
		t.Errorf("blank name should not create an entry, got %v", m)
	}
}

func TestBump_CapsAtTen(t *testing.T) {
	m := map[string]float64{"launch": 9.5}
	Bump(m, "launch")
	if m["launch"] != 10 {
		t.Errorf("score = %f, want capped at 10", m["launch"])
	}
}

func TestDecay(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	u := NewUserContext()
	u.ActiveProjects["launch"] = 4
	u.Themes["budget"] = 0.06
	u.UpdatedAt = now.AddDate(0, 0, -10).Unix()

	u.Decay(now, 0.95, 0.05)

	want := 4 * math.Pow(0.95, 10)
	if math.Abs(u.ActiveProjects["launch"]-want) > 1e-9 {
		t.Errorf("launch score = %f, want %f", u.ActiveProjects["launch"], want)
	}
	// 0.06 * 0.95^10 ≈ 0.036, below the floor
	if _, ok := u.Themes["budget"]; ok {
		t.Errorf("budget should have decayed below the floor, got %v", u.Themes)
	}
}

func TestDecay_NoElapsedTime(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	u := NewUserContext()
	u.KeyPeople["sarah"] = 3
	u.UpdatedAt = now.Unix()

	u.Decay(now, 0.95, 0.05)
	if u.KeyPeople["sarah"] != 3 {
		t.Errorf("score = %f, want unchanged", u.KeyPeople["sarah"])
	}
}

func TestDecay_FreshContext(t *testing.T) {
	u := NewUserContext()
	u.KeyPeople["sarah"] = 3

	// UpdatedAt zero means never refined; nothing should decay.
	u.Decay(time.Now(), 0.95, 0.05)
	if u.KeyPeople["sarah"] != 3 {
		t.Errorf("score = %f, want unchanged", u.KeyPeople["sarah"])
	}
}

func TestTrim(t *testing.T) {
	u := NewUserContext()
	u.ActiveProjects["launch"] = 5
	u.KeyPeople["sarah"] = 3
	u.Themes["budget"] = 1
	u.Themes["hiring"] = 2

	u.Trim(2)

	if len(u.ActiveProjects)+len(u.KeyPeople)+len(u.Themes) != 2 {
		t.Fatalf("expected 2 entries after trim, got %+v", u)
	}
	if u.ActiveProjects["launch"] != 5 || u.KeyPeople["sarah"] != 3 {
		t.Errorf("trim dropped the wrong entries: %+v", u)
	}
}

func TestTop(t *testing.T) {
	m := map[string]float64{"beta": 2, "alpha": 2, "gamma": 5, "delta": 1}

	got := Top(m, 3)
	want := []string{"gamma", "alpha", "beta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Top() = %v, want %v", got, want)
	}
}
