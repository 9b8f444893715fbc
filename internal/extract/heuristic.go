package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Heuristic is the deterministic extraction backend. It classifies notes
// with keyword and pattern rules, needs no network, and is the default
// backend when no API key is configured.
type Heuristic struct{}

// NewHeuristic returns the rule-based extraction backend.
func NewHeuristic() *Heuristic { return &Heuristic{} }

var (
	taskVerbs = []string{
		"call", "email", "send", "write", "create", "build", "finish",
		"complete", "do", "make", "schedule", "book", "buy", "order",
		"prepare", "review", "check", "update",
	}
	reminderMarkers = []string{
		"remind", "remember", "don't forget", "dont forget", "pick up",
		"bring", "take", "grab",
	}
	ideaMarkers = []string{
		"idea", "concept", "thought", "what if", "we should", "consider",
		"brainstorm",
	}

	urgentMarkers = []string{
		"urgent", "asap", "immediately", "emergency", "critical",
		"right now", "right away", "crucial",
	}
	highMarkers = []string{
		"important", "priority", "must", "need to", "deadline", "due",
		"required", "essential",
	}
	lowMarkers = []string{
		"maybe", "someday", "eventually", "when possible", "if time",
		"optional", "consider",
	}

	dateMarkers = []string{
		"today", "tomorrow", "yesterday", "next week", "next month",
		"monday", "tuesday", "wednesday", "thursday", "friday",
		"saturday", "sunday",
	}

	mentionRegex   = regexp.MustCompile(`@(\w+)`)
	directiveRegex = regexp.MustCompile(`\b(?i:ask|tell|contact|call|email|message)\s+([A-Z][a-z]+)\b`)
	assignedRegex  = regexp.MustCompile(`(?i)\bassigned to\s+(\w+)`)
	toNameRegex    = regexp.MustCompile(`\bto\s+([A-Z][a-z]+)\b`)

	projectRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bfor (?:the )?([\w][\w -]{1,40}?) (?:project|launch|release|initiative)\b`),
		regexp.MustCompile(`(?i)\bproject ([\w][\w-]{1,40})\b`),
		regexp.MustCompile(`(?i)\bre: ([\w][\w -]{1,40})$`),
	}

	inUnitsMarker = regexp.MustCompile(`\bin \d+ (?:hour|day|week|month)s?\b`)
	isoDateMarker = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

// stopwords excluded from keyword extraction.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "have": true, "will": true, "you": true,
	"your": true, "about": true, "are": true, "was": true, "were": true,
	"been": true, "they": true, "them": true, "their": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "how": true,
	"all": true, "each": true, "she": true, "him": true, "her": true,
	"his": true, "its": true, "our": true, "out": true, "get": true,
	"got": true, "has": true, "had": true, "but": true, "not": true,
	"can": true, "could": true, "should": true, "would": true, "into": true,
	"over": true, "then": true, "than": true, "too": true, "very": true,
	"just": true, "also": true, "need": true, "needs": true, "some": true,
	"there": true, "here": true, "more": true, "most": true, "other": true,
	"such": true, "only": true, "own": true, "same": true, "dont": true,
	"don't": true, "did": true, "does": true, "doing": true, "because": true,
	"before": true, "after": true, "while": true, "during": true,
	"today": true, "tomorrow": true, "yesterday": true, "next": true,
	"week": true, "month": true, "monday": true, "tuesday": true,
	"wednesday": true, "thursday": true, "friday": true, "saturday": true,
	"sunday": true, "remind": true, "remember": true, "please": true,
}

// Extract classifies a note with deterministic rules. It never fails.
func (h *Heuristic) Extract(_ context.Context, text string, hints Hints, now time.Time) (*Result, error) {
	lower := strings.ToLower(text)

	r := &Result{
		Type:         classifyType(lower),
		Description:  strings.TrimSpace(text),
		Priority:     classifyPriority(lower),
		Keywords:     extractKeywords(lower),
		Assignee:     extractAssignee(text),
		ContextHints: extractProjects(text, hints),
	}
	if phrase := datePhrase(lower); phrase != "" {
		r.DueAt = ResolveDate(phrase, now)
	}
	return r, nil
}

func classifyType(lower string) string {
	for _, m := range reminderMarkers {
		if strings.Contains(lower, m) {
			return "reminder"
		}
	}
	for _, m := range ideaMarkers {
		if strings.Contains(lower, m) {
			return "idea"
		}
	}
	words := strings.Fields(lower)
	if len(words) > 0 {
		first := strings.Trim(words[0], ".,!?:;")
		for _, v := range taskVerbs {
			if first == v {
				return "task"
			}
		}
	}
	for _, v := range taskVerbs {
		if strings.Contains(lower, "to "+v+" ") || strings.HasSuffix(lower, "to "+v) {
			return "task"
		}
	}
	return "note"
}

func classifyPriority(lower string) string {
	for _, m := range urgentMarkers {
		if strings.Contains(lower, m) {
			return "urgent"
		}
	}
	for _, m := range highMarkers {
		if strings.Contains(lower, m) {
			return "high"
		}
	}
	for _, m := range lowMarkers {
		if strings.Contains(lower, m) {
			return "low"
		}
	}
	return "medium"
}

// extractKeywords returns up to ten content words ordered by frequency,
// ties broken by first appearance.
func extractKeywords(lower string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, lower)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, w := range strings.Fields(cleaned) {
		if len(w) <= 2 || stopwords[w] {
			continue
		}
		if _, ok := counts[w]; !ok {
			firstSeen[w] = i
		}
		counts[w]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})

	if len(words) > 10 {
		words = words[:10]
	}
	return words
}

func extractAssignee(text string) string {
	if m := mentionRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := assignedRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := directiveRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := toNameRegex.FindStringSubmatch(text); m != nil {
		if !notNames[strings.ToLower(m[1])] {
			return m[1]
		}
	}
	return ""
}

// notNames excludes capitalized date and place-holder words from the
// "to Name" assignee heuristic.
var notNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true, "january": true,
	"february": true, "march": true, "april": true, "may": true,
	"june": true, "july": true, "august": true, "september": true,
	"october": true, "november": true, "december": true, "today": true,
	"tomorrow": true, "everyone": true, "anyone": true, "someone": true,
}

// extractProjects pulls candidate envelope names from project phrases and
// known context hints mentioned in the note.
func extractProjects(text string, hints Hints) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}

	for _, re := range projectRegexes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}

	lower := strings.ToLower(text)
	for _, known := range hints.Projects {
		if known != "" && strings.Contains(lower, strings.ToLower(known)) {
			add(known)
		}
	}
	for _, known := range hints.Themes {
		if known != "" && strings.Contains(lower, strings.ToLower(known)) {
			add(known)
		}
	}
	return out
}

// datePhrase returns the note text when it contains a date expression
// ResolveDate understands, otherwise empty.
func datePhrase(lower string) string {
	for _, m := range dateMarkers {
		if containsWord(lower, m) {
			return lower
		}
	}
	if inUnitsMarker.MatchString(lower) || isoDateMarker.MatchString(lower) {
		return lower
	}
	return ""
}
