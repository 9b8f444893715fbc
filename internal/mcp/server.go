package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/extract"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"note_ingest": {
		def:     ingestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleIngest },
	},
	"card_fetch": {
		def:     cardFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardFetch },
	},
	"card_list": {
		def:     cardListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardList },
	},
	"card_search": {
		def:     cardSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardSearch },
	},
	"card_complete": {
		def:     cardCompleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardComplete },
	},
	"card_archive": {
		def:     cardArchiveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardArchive },
	},
	"card_refile": {
		def:     cardRefileToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardRefile },
	},
	"envelope_list": {
		def:     envelopeListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEnvelopeList },
	},
	"envelope_fetch": {
		def:     envelopeFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEnvelopeFetch },
	},
	"envelope_search": {
		def:     envelopeSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEnvelopeSearch },
	},
	"context_summary": {
		def:     contextSummaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextSummary },
	},
	"think_run": {
		def:     thinkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThink },
	},
	"suggestion_list": {
		def:     suggestionListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuggestionList },
	},
	"suggestion_search": {
		def:     suggestionSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuggestionSearch },
	},
	"suggestion_resolve": {
		def:     suggestionResolveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuggestionResolve },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Attache tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, svc extract.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"attache",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, svc)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, svc extract.Service, version string) error {
	s := NewServer(db, cfg, svc, version)
	return server.ServeStdio(s)
}
