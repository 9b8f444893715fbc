package web

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/ops"
)

// Handlers contains HTTP route handlers for the dashboard.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleCards handles GET /cards, listing or searching cards.
func (h *Handlers) HandleCards(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	cardType := r.URL.Query().Get("type")
	query := r.URL.Query().Get("q")

	var cards []card.Card
	if query != "" {
		result, err := ops.SearchCards(r.Context(), h.db, ops.SearchCardsInput{Query: query})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		cards = result.Cards
	} else {
		result, err := ops.ListCards(r.Context(), h.db, ops.ListCardsInput{Status: status, Type: cardType})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		cards = result.Cards
	}

	names, err := h.envelopeNames(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, cardView(c, names))
	}

	h.renderer.renderPage(w, "cards", CardsPageData{
		PageData: PageData{
			Title:   "Cards",
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Cards:  views,
		Status: status,
		Type:   cardType,
		Query:  query,
	})
}

// HandleCardDetail handles GET /cards/{id}.
func (h *Handlers) HandleCardDetail(w http.ResponseWriter, r *http.Request) {
	result, err := ops.FetchCard(r.Context(), h.db, ops.FetchCardInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	view := cardView(*result.Card, nil)
	if result.Envelope != nil {
		view.EnvelopeName = result.Envelope.Name
	}

	h.renderer.renderPage(w, "card", CardDetailPageData{
		PageData: PageData{
			Title:   "Card",
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Card:        view,
		RawRendered: renderMarkdown(result.Card.RawInput),
	})
}

// HandleCardStatus handles POST /cards/{id}/status (complete or archive).
func (h *Handlers) HandleCardStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status := r.FormValue("status")

	if _, err := ops.SetCardStatus(r.Context(), h.db, h.cfg, ops.SetCardStatusInput{ID: id, Status: status}); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/cards/"+id, http.StatusSeeOther)
}

// HandleEnvelopes handles GET /envelopes.
func (h *Handlers) HandleEnvelopes(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListEnvelopes(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "envelopes", EnvelopesPageData{
		PageData: PageData{
			Title:   "Envelopes",
			Version: h.renderer.version,
			Nav:     "envelopes",
		},
		Envelopes: result.Envelopes,
	})
}

// HandleEnvelopeDetail handles GET /envelopes/{id}.
func (h *Handlers) HandleEnvelopeDetail(w http.ResponseWriter, r *http.Request) {
	result, err := ops.FetchEnvelope(r.Context(), h.db, ops.FetchEnvelopeInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	views := make([]CardView, 0, len(result.Cards))
	for _, c := range result.Cards {
		v := cardView(c, nil)
		v.EnvelopeName = result.Envelope.Name
		views = append(views, v)
	}

	h.renderer.renderPage(w, "envelope", EnvelopeDetailPageData{
		PageData: PageData{
			Title:   result.Envelope.Name,
			Version: h.renderer.version,
			Nav:     "envelopes",
		},
		Envelope: *result,
		Cards:    views,
	})
}

// HandleSuggestions handles GET /suggestions.
func (h *Handlers) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	all, err := ops.ListSuggestions(r.Context(), h.db, ops.ListSuggestionsInput{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := SuggestionsPageData{
		PageData: PageData{
			Title:   "Suggestions",
			Version: h.renderer.version,
			Nav:     "suggestions",
		},
	}
	for _, s := range all.Suggestions {
		if s.Status == card.SuggestionPending {
			data.Pending = append(data.Pending, s)
		} else {
			data.Resolved = append(data.Resolved, s)
		}
	}

	h.renderer.renderPage(w, "suggestions", data)
}

// HandleSuggestionResolve handles POST /suggestions/{id}/resolve.
func (h *Handlers) HandleSuggestionResolve(w http.ResponseWriter, r *http.Request) {
	input := ops.ResolveSuggestionInput{
		ID:     r.PathValue("id"),
		Accept: r.FormValue("verdict") == "accept",
	}
	if _, err := ops.ResolveSuggestion(r.Context(), h.db, h.cfg, input); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/suggestions", http.StatusSeeOther)
}

// HandleThink handles POST /think, then redirects to the suggestions page.
func (h *Handlers) HandleThink(w http.ResponseWriter, r *http.Request) {
	if _, err := ops.Think(r.Context(), h.db, h.cfg, ops.ThinkInput{}); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/suggestions", http.StatusSeeOther)
}

// HandleContext handles GET /context.
func (h *Handlers) HandleContext(w http.ResponseWriter, r *http.Request) {
	summary, err := ops.ContextSummary(r.Context(), h.db, h.cfg, time.Time{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "context", ContextPageData{
		PageData: PageData{
			Title:   "Context",
			Version: h.renderer.version,
			Nav:     "context",
		},
		Summary: summary,
	})
}

// envelopeNames resolves envelope IDs to display names for list views.
func (h *Handlers) envelopeNames(r *http.Request) (map[string]string, error) {
	result, err := ops.ListEnvelopes(r.Context(), h.db)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(result.Envelopes))
	for _, e := range result.Envelopes {
		names[e.Envelope.ID] = e.Envelope.Name
	}
	return names, nil
}

func cardView(c card.Card, envelopeNames map[string]string) CardView {
	v := CardView{
		ID:          c.ID,
		Type:        string(c.Type),
		Description: c.Description,
		Priority:    string(c.Priority),
		Status:      string(c.Status),
		DueAt:       c.DueAt,
		Assignee:    c.Assignee,
		Keywords:    c.Keywords,
		EnvelopeID:  c.EnvelopeID,
		CreatedAt:   c.CreatedAt,
	}
	if c.EnvelopeID != nil && envelopeNames != nil {
		v.EnvelopeName = envelopeNames[*c.EnvelopeID]
	}
	return v
}
