// Package issuefilter suppresses GitHub issue search results that match the
// benchmark instance currently under evaluation, so an agent cannot look up
// the answer to its own task.
package issuefilter

import (
	"strings"

	"github.com/openbench/swe-eval-orchestrator/internal/domain"
)

// Task is the evaluation context a filter operates against. It is passed
// explicitly into every call; there is no process-wide current task, so
// concurrent workers each scope their own Task.
type Task struct {
	InstanceID  domain.InstanceID
	Repo        string
	IssueNumber int
}

// NewTask derives a filter Task from an instance identifier string.
// A malformed identifier is an error; the caller should skip filtering for
// that entry rather than abort the evaluation.
func NewTask(instanceID string) (*Task, error) {
	id, err := domain.ParseInstanceID(instanceID)
	if err != nil {
		return nil, err
	}
	return &Task{
		InstanceID:  id,
		Repo:        id.RepoFullName(),
		IssueNumber: id.IssueNumber,
	}, nil
}

// Issue is the subset of a GitHub issue search result the filter inspects
type Issue struct {
	Number        int    `json:"number"`
	RepositoryURL string `json:"repository_url,omitempty"`
	Repository    struct {
		FullName string `json:"full_name,omitempty"`
	} `json:"repository,omitempty"`
	Title string `json:"title,omitempty"`
}

// RepoFullName resolves the issue's "owner/repo" name, preferring the
// embedded repository object and falling back to the API repository URL
func (i Issue) RepoFullName() string {
	if i.Repository.FullName != "" {
		return i.Repository.FullName
	}
	if i.RepositoryURL == "" {
		return ""
	}
	// e.g. https://api.github.com/repos/django/django
	parts := strings.Split(strings.TrimRight(i.RepositoryURL, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

// ShouldBlock reports whether the issue exactly matches the task under
// evaluation. The repository comparison is case-sensitive and the issue
// number must match exactly; a nil task blocks nothing.
func ShouldBlock(issue Issue, task *Task) bool {
	if task == nil {
		return false
	}
	return issue.RepoFullName() == task.Repo && issue.Number == task.IssueNumber
}

// Filter removes exact task matches from a search result list, preserving
// the relative order of everything else. It returns the surviving issues
// and the number blocked.
func Filter(issues []Issue, task *Task) ([]Issue, int) {
	if len(issues) == 0 || task == nil {
		return issues, 0
	}

	kept := make([]Issue, 0, len(issues))
	blocked := 0
	for _, issue := range issues {
		if ShouldBlock(issue, task) {
			blocked++
			continue
		}
		kept = append(kept, issue)
	}
	return kept, blocked
}
