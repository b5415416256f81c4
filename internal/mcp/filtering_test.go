package mcp

import (
	"encoding/json"
	"testing"

	"github.com/openbench/swe-eval-orchestrator/internal/issuefilter"
)

type fakeCaller struct {
	lastTool string
	result   *ToolResult
}

func (f *fakeCaller) CallTool(name string, arguments map[string]interface{}) (*ToolResult, error) {
	f.lastTool = name
	return f.result, nil
}

func searchResult(t *testing.T, totalCount int, items ...map[string]interface{}) *ToolResult {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"total_count": totalCount,
		"items":       items,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &ToolResult{Content: []ToolContent{{Type: "text", Text: string(payload)}}}
}

func item(repo string, number int) map[string]interface{} {
	return map[string]interface{}{
		"number":     number,
		"repository": map[string]interface{}{"full_name": repo},
		"title":      "some issue",
	}
}

func decodePayload(t *testing.T, result *ToolResult) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(result.Content[0].Text), &payload); err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestFilteringClient_BlocksTaskIssue(t *testing.T) {
	task, err := issuefilter.NewTask("django__django-11099")
	if err != nil {
		t.Fatal(err)
	}

	inner := &fakeCaller{result: searchResult(t, 3,
		item("django/django", 5),
		item("django/django", 11099),
		item("pallets/flask", 7),
	)}
	client := NewFilteringClient(inner, task)

	result, err := client.CallTool("search_issues", map[string]interface{}{"q": "bug"})
	if err != nil {
		t.Fatal(err)
	}

	payload := decodePayload(t, result)
	items := payload["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if payload["total_count"].(float64) != 2 {
		t.Errorf("total_count = %v, want 2", payload["total_count"])
	}
	if payload["filter_note"] == nil {
		t.Error("filter_note should be present when issues were blocked")
	}

	// Order preserved
	first := items[0].(map[string]interface{})
	second := items[1].(map[string]interface{})
	if first["number"].(float64) != 5 || second["number"].(float64) != 7 {
		t.Errorf("order not preserved: %v", items)
	}
}

func TestFilteringClient_NoMatches(t *testing.T) {
	task, err := issuefilter.NewTask("django__django-11099")
	if err != nil {
		t.Fatal(err)
	}

	inner := &fakeCaller{result: searchResult(t, 1, item("django/django", 5))}
	client := NewFilteringClient(inner, task)

	result, err := client.CallTool("search_issues", nil)
	if err != nil {
		t.Fatal(err)
	}

	payload := decodePayload(t, result)
	if payload["filter_note"] != nil {
		t.Error("filter_note should be absent when nothing was blocked")
	}
	if len(payload["items"].([]interface{})) != 1 {
		t.Error("non-matching issue should survive")
	}
}

func TestFilteringClient_OtherToolsPassThrough(t *testing.T) {
	task, err := issuefilter.NewTask("django__django-11099")
	if err != nil {
		t.Fatal(err)
	}

	original := &ToolResult{Content: []ToolContent{{Type: "text", Text: "not json"}}}
	inner := &fakeCaller{result: original}
	client := NewFilteringClient(inner, task)

	result, err := client.CallTool("search_repositories", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result != original {
		t.Error("non-search_issues calls should pass through untouched")
	}
	if inner.lastTool != "search_repositories" {
		t.Errorf("forwarded tool = %q", inner.lastTool)
	}
}

func TestFilteringClient_NilTask(t *testing.T) {
	original := searchResult(t, 1, item("django/django", 11099))
	inner := &fakeCaller{result: original}
	client := NewFilteringClient(inner, nil)

	result, err := client.CallTool("search_issues", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result != original {
		t.Error("nil task should disable filtering")
	}
}

func TestFilteringClient_NonJSONPayload(t *testing.T) {
	task, err := issuefilter.NewTask("django__django-11099")
	if err != nil {
		t.Fatal(err)
	}

	inner := &fakeCaller{result: &ToolResult{Content: []ToolContent{{Type: "text", Text: "plain text"}}}}
	client := NewFilteringClient(inner, task)

	result, err := client.CallTool("search_issues", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Content[0].Text != "plain text" {
		t.Errorf("unparseable payload should pass through, got %q", result.Content[0].Text)
	}
}

func TestRestrictToolsForEval(t *testing.T) {
	tools := []Tool{
		{Name: "search_issues", Description: "Search GitHub issues"},
		{Name: "search_repositories", Description: "Search repos"},
		{Name: "search_code", Description: "Search code"},
		{Name: "create_issue", Description: "Create an issue"},
		{Name: "merge_pull_request"},
	}

	restricted := RestrictToolsForEval(tools)

	if len(restricted) != 3 {
		t.Fatalf("len = %d, want 3", len(restricted))
	}
	for _, tool := range restricted {
		if tool.Name == "create_issue" || tool.Name == "merge_pull_request" {
			t.Errorf("tool %s should be excluded", tool.Name)
		}
	}
	if restricted[0].Name != "search_issues" {
		t.Errorf("first tool = %q", restricted[0].Name)
	}
	if restricted[0].Description == "Search GitHub issues" {
		t.Error("search_issues description should gain a filtering note")
	}
}
