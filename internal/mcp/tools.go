package mcp

import "github.com/mark3labs/mcp-go/mcp"

var ingestToolDef = mcp.NewTool("note_ingest",
	mcp.WithDescription("Capture a raw note. The note is classified into a typed card, filed into an envelope, and folded into the user context."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The raw note text")),
)

var cardFetchToolDef = mcp.NewTool("card_fetch",
	mcp.WithDescription("Fetch a single card by id, including its envelope when filed."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ULID")),
)

var cardListToolDef = mcp.NewTool("card_list",
	mcp.WithDescription("List cards, oldest first, optionally filtered."),
	mcp.WithString("status", mcp.Description("Filter by status: active, completed, archived"),
		mcp.Enum("active", "completed", "archived")),
	mcp.WithString("type", mcp.Description("Filter by type: task, reminder, idea, note"),
		mcp.Enum("task", "reminder", "idea", "note")),
	mcp.WithString("envelope_id", mcp.Description("Filter by envelope ULID")),
)

var cardSearchToolDef = mcp.NewTool("card_search",
	mcp.WithDescription("Search card descriptions and keywords (case-insensitive substring)."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
)

var cardCompleteToolDef = mcp.NewTool("card_complete",
	mcp.WithDescription("Mark a card completed."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ULID")),
)

var cardArchiveToolDef = mcp.NewTool("card_archive",
	mcp.WithDescription("Archive a card. Archived cards stay fetchable; nothing is ever hard-deleted."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ULID")),
)

var cardRefileToolDef = mcp.NewTool("card_refile",
	mcp.WithDescription("Move a card to another envelope, or detach it when no envelope is given."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ULID")),
	mcp.WithString("envelope_id", mcp.Description("Destination envelope ULID; omit to detach")),
)

var envelopeListToolDef = mcp.NewTool("envelope_list",
	mcp.WithDescription("List all envelopes with membership stats."),
)

var envelopeFetchToolDef = mcp.NewTool("envelope_fetch",
	mcp.WithDescription("Fetch an envelope by id or name, with its member cards and stats."),
	mcp.WithString("id", mcp.Description("Envelope ULID")),
	mcp.WithString("name", mcp.Description("Envelope name (case-insensitive)")),
)

var envelopeSearchToolDef = mcp.NewTool("envelope_search",
	mcp.WithDescription("Search envelope names and keywords (case-insensitive substring)."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
)

var contextSummaryToolDef = mcp.NewTool("context_summary",
	mcp.WithDescription("Summarize the user context: active projects, key people, and themes with decayed relevance scores."),
)

var thinkToolDef = mcp.NewTool("think_run",
	mcp.WithDescription("Run the analysis engine over all cards and envelopes, producing pending suggestions."),
)

var suggestionListToolDef = mcp.NewTool("suggestion_list",
	mcp.WithDescription("List suggestions, oldest first, optionally filtered by status."),
	mcp.WithString("status", mcp.Description("Filter by status: pending, dismissed, accepted"),
		mcp.Enum("pending", "dismissed", "accepted")),
)

var suggestionSearchToolDef = mcp.NewTool("suggestion_search",
	mcp.WithDescription("Search suggestion messages (case-insensitive substring)."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
)

var suggestionResolveToolDef = mcp.NewTool("suggestion_resolve",
	mcp.WithDescription("Accept or dismiss a suggestion."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Suggestion ULID")),
	mcp.WithBoolean("accept", mcp.Description("True to accept, false to dismiss (default)")),
)
