package card

// Category classifies what an envelope represents.
type Category string

const (
	CategoryProject Category = "project"
	CategoryCompany Category = "company"
	CategoryPerson  Category = "person"
	CategoryTheme   Category = "theme"
)

// ParseCategory maps a string to a Category, defaulting to theme for
// anything outside the closed enumeration.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryProject, CategoryCompany, CategoryPerson, CategoryTheme:
		return Category(s)
	}
	return CategoryTheme
}

// Envelope is a named grouping of related cards. Membership is a weak
// back-reference: cards carry the envelope id, and member ids are
// resolved through the card store rather than embedded here.
type Envelope struct {
	// ID is a ULID that uniquely identifies this envelope
	ID string `json:"id"`

	// Name is the display name as first seen
	Name string `json:"name"`

	// NameNorm is the normalized name used for matching (unique)
	NameNorm string `json:"name_norm"`

	// Category is one of project, company, person, theme
	Category Category `json:"category"`

	// Keywords is the envelope's own keyword set, grown as cards attach
	Keywords []string `json:"keywords"`

	// CreatedAt is the Unix timestamp when the envelope was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last attach/detach
	UpdatedAt int64 `json:"updated_at"`
}

// MatchScore returns the size of the intersection between the envelope's
// normalized keyword set and the given normalized keywords.
func (e *Envelope) MatchScore(keywords []string) int {
	have := make(map[string]bool, len(e.Keywords))
	for _, kw := range NormalizeKeywords(e.Keywords) {
		have[kw] = true
	}
	score := 0
	for _, kw := range NormalizeKeywords(keywords) {
		if have[kw] {
			score++
		}
	}
	return score
}
