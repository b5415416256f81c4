package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/openbench/swe-eval-orchestrator/internal/issuefilter"
)

// searchIssuesTool is the tool whose results get censored during evaluation
const searchIssuesTool = "search_issues"

// evalModeTools is the tool surface exposed to agents under evaluation
var evalModeTools = map[string]bool{
	"search_issues":       true,
	"search_repositories": true,
	"search_code":         true,
}

// ToolCaller is the part of Client that FilteringClient wraps
type ToolCaller interface {
	CallTool(name string, arguments map[string]interface{}) (*ToolResult, error)
}

// FilteringClient wraps a ToolCaller and removes the issue belonging to the
// task under evaluation from search_issues results. Each client carries its
// own task context, so concurrent workers cannot leak tasks into each other.
type FilteringClient struct {
	inner ToolCaller
	task  *issuefilter.Task
}

// NewFilteringClient creates a filtering wrapper scoped to the given task.
// A nil task disables filtering and passes every call through.
func NewFilteringClient(inner ToolCaller, task *issuefilter.Task) *FilteringClient {
	return &FilteringClient{inner: inner, task: task}
}

// CallTool forwards the call and censors search_issues results
func (c *FilteringClient) CallTool(name string, arguments map[string]interface{}) (*ToolResult, error) {
	result, err := c.inner.CallTool(name, arguments)
	if err != nil || result == nil || name != searchIssuesTool || c.task == nil {
		return result, err
	}

	filtered := &ToolResult{
		Content: make([]ToolContent, 0, len(result.Content)),
		IsError: result.IsError,
	}
	for _, content := range result.Content {
		if content.Type == "text" {
			content.Text = filterSearchPayload(content.Text, c.task)
		}
		filtered.Content = append(filtered.Content, content)
	}
	return filtered, nil
}

// filterSearchPayload rewrites a search_issues JSON payload, dropping exact
// task matches from "items" and adjusting "total_count". Payloads that do
// not look like search results pass through untouched.
func filterSearchPayload(text string, task *issuefilter.Task) string {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return text
	}

	rawItems, ok := payload["items"].([]interface{})
	if !ok {
		return text
	}

	kept := make([]interface{}, 0, len(rawItems))
	blocked := 0
	for _, raw := range rawItems {
		if shouldBlockRaw(raw, task) {
			blocked++
			continue
		}
		kept = append(kept, raw)
	}

	payload["items"] = kept
	payload["total_count"] = len(kept)
	if blocked > 0 {
		payload["filter_note"] = fmt.Sprintf("Filtered %d task issue(s) for evaluation purposes", blocked)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return text
	}
	return string(out)
}

// shouldBlockRaw decodes just enough of a search result item to apply the
// filter predicate. Items that cannot be decoded are kept.
func shouldBlockRaw(raw interface{}, task *issuefilter.Task) bool {
	data, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	var issue issuefilter.Issue
	if err := json.Unmarshal(data, &issue); err != nil {
		return false
	}
	return issuefilter.ShouldBlock(issue, task)
}

// RestrictToolsForEval reduces an MCP tool list to the search tools allowed
// during evaluation and documents the filtering on search_issues
func RestrictToolsForEval(tools []Tool) []Tool {
	restricted := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		if !evalModeTools[tool.Name] {
			continue
		}
		if tool.Name == searchIssuesTool && tool.Description != "" {
			tool.Description += " (Note: current benchmark task issues are filtered out for evaluation purposes)"
		}
		restricted = append(restricted, tool)
	}
	return restricted
}
