// Package tools provides the MCP tool handlers over the persistent store.
//
// Each tool follows the same pattern:
// - A struct with dependencies (store.Store, continuity.Engine) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Results are JSON payloads so the calling assistant can parse them without
// scraping prose. Tools that record work prepend the catch-up snapshot when
// their call was the first touch of the project in this process.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/store"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringListArg extracts a string-array argument. Missing, malformed, or
// non-string elements are dropped.
func stringListArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// argPresent reports whether an argument was supplied at all, so partial
// updates can distinguish "clear this list" from "leave it alone".
func argPresent(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// optString returns a pointer to the argument value when it was supplied.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// jsonResult marshals a payload into a text tool result.
func jsonResult(payload any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errResult renders a storage error as a tool-error result.
func errResult(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

// withCatchUp wraps a payload with the catch-up snapshot when one was
// produced. Nil snapshot means the project was already caught up this
// process and the payload passes through unwrapped.
func withCatchUp(snap *continuity.Snapshot, payload any) any {
	if snap == nil {
		return payload
	}
	return map[string]any{
		"catch_up": snap,
		"result":   payload,
	}
}

// resolveTaskRefs maps task references (ids or short display ids) to
// canonical ids, failing on the first one that does not resolve.
func resolveTaskRefs(s *store.Store, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := s.ResolveTask(ref)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", ref, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
