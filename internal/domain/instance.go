package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var instanceIDRegex = regexp.MustCompile(`^([^_]+)__([^-]+)-(\d+)$`)

// ErrMalformedInstanceID is returned when an instance identifier does not
// follow the {org}__{repo}-{number} format.
var ErrMalformedInstanceID = errors.New("malformed instance id")

// InstanceID identifies one benchmark case as org, repo and issue number.
// The canonical string form is "{org}__{repo}-{number}", e.g.
// "django__django-11099".
type InstanceID struct {
	Org         string
	Repo        string
	IssueNumber int
}

// ParseInstanceID parses a string like "django__django-11099" into an InstanceID
func ParseInstanceID(s string) (InstanceID, error) {
	matches := instanceIDRegex.FindStringSubmatch(s)
	if matches == nil {
		return InstanceID{}, fmt.Errorf("%w: %q (expected org__repo-number)", ErrMalformedInstanceID, s)
	}
	num, _ := strconv.Atoi(matches[3]) // regex guarantees digits
	return InstanceID{Org: matches[1], Repo: matches[2], IssueNumber: num}, nil
}

// RepoFullName returns the GitHub-style "org/repo" name
func (id InstanceID) RepoFullName() string {
	return id.Org + "/" + id.Repo
}

// String returns the canonical string representation
func (id InstanceID) String() string {
	return fmt.Sprintf("%s__%s-%d", id.Org, id.Repo, id.IssueNumber)
}
