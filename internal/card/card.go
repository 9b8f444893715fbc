package card

// Type classifies what kind of intent a card captures.
type Type string

const (
	TypeTask     Type = "task"
	TypeReminder Type = "reminder"
	TypeIdea     Type = "idea"
	TypeNote     Type = "note"
)

// ParseType maps a string to a Type, defaulting to note for anything
// outside the closed enumeration.
func ParseType(s string) Type {
	switch Type(s) {
	case TypeTask, TypeReminder, TypeIdea, TypeNote:
		return Type(s)
	}
	return TypeNote
}

// Priority is the urgency level of a card.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority maps a string to a Priority, defaulting to medium for
// anything outside the closed enumeration.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(s)
	}
	return PriorityMedium
}

// Rank orders priorities for sorting: urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 2
}

// Status is the lifecycle state of a card. Cards are never hard-deleted,
// only archived.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// ValidStatus reports whether s is a member of the status enumeration.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Card is a single structured unit of captured intent.
type Card struct {
	// ID is a ULID that uniquely identifies this card
	ID string `json:"id"`

	// Type is one of task, reminder, idea, note
	Type Type `json:"type"`

	// Description is the cleaned-up text of the note
	Description string `json:"description"`

	// DueAt is the resolved due timestamp, Unix seconds (nullable)
	DueAt *int64 `json:"due_at,omitempty"`

	// Assignee is the person or team the card is assigned to (nullable)
	Assignee *string `json:"assignee,omitempty"`

	// Priority is one of low, medium, high, urgent
	Priority Priority `json:"priority"`

	// Keywords is the ordered, deduplicated keyword set (stored as JSON)
	Keywords []string `json:"keywords"`

	// Status is one of active, completed, archived
	Status Status `json:"status"`

	// EnvelopeID references the envelope this card belongs to (nullable)
	EnvelopeID *string `json:"envelope_id,omitempty"`

	// RawInput is the original note text as entered by the user
	RawInput string `json:"raw_input"`

	// CreatedAt is the Unix timestamp when the card was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the card was last updated
	UpdatedAt int64 `json:"updated_at"`
}

// InEnvelope reports whether the card is attached to the given envelope.
func (c *Card) InEnvelope(envelopeID string) bool {
	return c.EnvelopeID != nil && *c.EnvelopeID == envelopeID
}
