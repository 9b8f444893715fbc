package card

// Kind classifies what a suggestion proposes.
type Kind string

const (
	KindNextStep       Kind = "next_step"
	KindConflict       Kind = "conflict"
	KindReorganization Kind = "reorganization"
	KindPattern        Kind = "pattern"
)

// ValidKind reports whether s is a member of the kind enumeration.
func ValidKind(s string) bool {
	switch Kind(s) {
	case KindNextStep, KindConflict, KindReorganization, KindPattern:
		return true
	}
	return false
}

// SuggestionStatus is the acknowledgment state of a suggestion.
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionDismissed SuggestionStatus = "dismissed"
	SuggestionAccepted  SuggestionStatus = "accepted"
)

// ValidSuggestionStatus reports whether s is a member of the suggestion
// status enumeration.
func ValidSuggestionStatus(s string) bool {
	switch SuggestionStatus(s) {
	case SuggestionPending, SuggestionDismissed, SuggestionAccepted:
		return true
	}
	return false
}

// Suggestion is an output of the analysis engine. The engine produces
// suggestions without ID/CreatedAt/Status; those are assigned when the
// caller persists them.
type Suggestion struct {
	// ID is a ULID, assigned at save time
	ID string `json:"id"`

	// Kind is one of next_step, conflict, reorganization, pattern
	Kind Kind `json:"kind"`

	// Message is the human-readable recommendation
	Message string `json:"message"`

	// CardIDs references the cards this suggestion is about
	CardIDs []string `json:"card_ids,omitempty"`

	// EnvelopeIDs references the envelopes this suggestion is about
	EnvelopeIDs []string `json:"envelope_ids,omitempty"`

	// Status is one of pending, dismissed, accepted
	Status SuggestionStatus `json:"status"`

	// CreatedAt is the Unix timestamp, assigned at save time
	CreatedAt int64 `json:"created_at"`
}
