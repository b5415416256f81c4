package domain

import (
	"errors"
	"testing"
)

func TestParseInstanceID(t *testing.T) {
	tests := []struct {
		input     string
		wantRepo  string
		wantIssue int
		wantErr   bool
	}{
		{"django__django-11099", "django/django", 11099, false},
		{"astropy__astropy-12907", "astropy/astropy", 12907, false},
		{"scikit-learn__scikit", "", 0, true},
		{"malformed-token", "", 0, true},
		{"org__repo-", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := ParseInstanceID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseInstanceID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if err != nil {
				if !errors.Is(err, ErrMalformedInstanceID) {
					t.Errorf("error should wrap ErrMalformedInstanceID, got %v", err)
				}
				return
			}
			if id.RepoFullName() != tt.wantRepo {
				t.Errorf("RepoFullName() = %q, want %q", id.RepoFullName(), tt.wantRepo)
			}
			if id.IssueNumber != tt.wantIssue {
				t.Errorf("IssueNumber = %d, want %d", id.IssueNumber, tt.wantIssue)
			}
		})
	}
}

func TestInstanceID_String(t *testing.T) {
	id := InstanceID{Org: "django", Repo: "django", IssueNumber: 11099}
	if got := id.String(); got != "django__django-11099" {
		t.Errorf("String() = %q, want %q", got, "django__django-11099")
	}
}

func TestInstanceID_RoundTrip(t *testing.T) {
	id, err := ParseInstanceID("pytest-dev__pytest-5692")
	if err != nil {
		t.Fatal(err)
	}
	if got := id.String(); got != "pytest-dev__pytest-5692" {
		t.Errorf("round trip = %q", got)
	}
}
