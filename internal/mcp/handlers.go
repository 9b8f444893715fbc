package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/errors"
	"github.com/attachehq/attache/internal/extract"
	"github.com/attachehq/attache/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	svc extract.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, svc extract.Service) *Handlers {
	return &Handlers{db: db, cfg: cfg, svc: svc}
}

// Request types for each tool

// IngestRequest represents the arguments for note_ingest.
type IngestRequest struct {
	Text string `json:"text"`
}

// CardIDRequest represents the arguments for tools addressing one card.
type CardIDRequest struct {
	ID string `json:"id"`
}

// CardListRequest represents the arguments for card_list.
type CardListRequest struct {
	Status     string `json:"status,omitempty"`
	Type       string `json:"type,omitempty"`
	EnvelopeID string `json:"envelope_id,omitempty"`
}

// CardSearchRequest represents the arguments for card_search.
type CardSearchRequest struct {
	Query string `json:"query"`
}

// CardRefileRequest represents the arguments for card_refile.
type CardRefileRequest struct {
	ID         string  `json:"id"`
	EnvelopeID *string `json:"envelope_id,omitempty"`
}

// EnvelopeFetchRequest represents the arguments for envelope_fetch.
type EnvelopeFetchRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// EnvelopeSearchRequest represents the arguments for envelope_search.
type EnvelopeSearchRequest struct {
	Query string `json:"query"`
}

// SuggestionSearchRequest represents the arguments for suggestion_search.
type SuggestionSearchRequest struct {
	Query string `json:"query"`
}

// SuggestionListRequest represents the arguments for suggestion_list.
type SuggestionListRequest struct {
	Status string `json:"status,omitempty"`
}

// SuggestionResolveRequest represents the arguments for suggestion_resolve.
type SuggestionResolveRequest struct {
	ID     string `json:"id"`
	Accept bool   `json:"accept,omitempty"`
}

// HandleIngest handles the note_ingest tool.
func (h *Handlers) HandleIngest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IngestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Ingest(ctx, h.db, h.cfg, h.svc, ops.IngestInput{Text: input.Text})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardFetch handles the card_fetch tool.
func (h *Handlers) HandleCardFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FetchCard(ctx, h.db, ops.FetchCardInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardList handles the card_list tool.
func (h *Handlers) HandleCardList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListCards(ctx, h.db, ops.ListCardsInput{
		Status:     input.Status,
		Type:       input.Type,
		EnvelopeID: input.EnvelopeID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardSearch handles the card_search tool.
func (h *Handlers) HandleCardSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SearchCards(ctx, h.db, ops.SearchCardsInput{Query: input.Query})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardComplete handles the card_complete tool.
func (h *Handlers) HandleCardComplete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.setStatus(ctx, req, "completed")
}

// HandleCardArchive handles the card_archive tool.
func (h *Handlers) HandleCardArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.setStatus(ctx, req, "archived")
}

func (h *Handlers) setStatus(ctx context.Context, req mcp.CallToolRequest, status string) (*mcp.CallToolResult, error) {
	input, err := decode[CardIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SetCardStatus(ctx, h.db, h.cfg, ops.SetCardStatusInput{ID: input.ID, Status: status})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardRefile handles the card_refile tool.
func (h *Handlers) HandleCardRefile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardRefileRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RefileCard(ctx, h.db, h.cfg, ops.RefileCardInput{ID: input.ID, EnvelopeID: input.EnvelopeID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleEnvelopeList handles the envelope_list tool.
func (h *Handlers) HandleEnvelopeList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListEnvelopes(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleEnvelopeFetch handles the envelope_fetch tool.
func (h *Handlers) HandleEnvelopeFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EnvelopeFetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FetchEnvelope(ctx, h.db, ops.FetchEnvelopeInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleEnvelopeSearch handles the envelope_search tool.
func (h *Handlers) HandleEnvelopeSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EnvelopeSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SearchEnvelopes(ctx, h.db, ops.SearchEnvelopesInput{Query: input.Query})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleContextSummary handles the context_summary tool.
func (h *Handlers) HandleContextSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ContextSummary(ctx, h.db, h.cfg, time.Time{})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleThink handles the think_run tool.
func (h *Handlers) HandleThink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Think(ctx, h.db, h.cfg, ops.ThinkInput{})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSuggestionList handles the suggestion_list tool.
func (h *Handlers) HandleSuggestionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SuggestionListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListSuggestions(ctx, h.db, ops.ListSuggestionsInput{Status: input.Status})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSuggestionSearch handles the suggestion_search tool.
func (h *Handlers) HandleSuggestionSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SuggestionSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SearchSuggestions(ctx, h.db, ops.SearchSuggestionsInput{Query: input.Query})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSuggestionResolve handles the suggestion_resolve tool.
func (h *Handlers) HandleSuggestionResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SuggestionResolveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ResolveSuggestion(ctx, h.db, h.cfg, ops.ResolveSuggestionInput{ID: input.ID, Accept: input.Accept})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if aErr, ok := err.(*errors.AttacheError); ok {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
			"status":  aErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
