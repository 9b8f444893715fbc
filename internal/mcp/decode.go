package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode maps a tool call's raw argument map onto one of the typed
// request structs. Unknown fields are ignored; a type mismatch (a
// number where card_refile expects an id, say) surfaces as an error
// rather than a panic.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var parsed T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return parsed, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return parsed, fmt.Errorf("decode arguments: %w", err)
	}
	return parsed, nil
}
