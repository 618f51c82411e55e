package search

import "testing"

func TestSanitizeResultsForClient(t *testing.T) {
	results := []Result{
		{Type: ResultPost, ID: "p1", VisibleToClient: true},
		{Type: ResultPost, ID: "p2", VisibleToClient: false},
		{Type: ResultComment, ID: "c1", Scope: "client", VisibleToClient: true},
		{Type: ResultComment, ID: "c2", Scope: "team", VisibleToClient: true},
		{Type: ResultComment, ID: "c3", Scope: "client", VisibleToClient: false},
	}

	got := sanitizeResults(results, true)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "p1" || got[1].ID != "c1" {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestSanitizeResultsForTeam(t *testing.T) {
	results := []Result{
		{Type: ResultPost, ID: "p1", VisibleToClient: false},
		{Type: ResultComment, ID: "c1", Scope: "team", VisibleToClient: false},
	}

	got := sanitizeResults(results, false)
	if len(got) != 2 {
		t.Fatalf("team viewers should see all results, got %d", len(got))
	}
}

func TestNonNil(t *testing.T) {
	if nonNil(nil) == nil {
		t.Error("expected empty slice, got nil")
	}
	in := []Result{{ID: "a"}}
	if out := nonNil(in); len(out) != 1 {
		t.Errorf("expected passthrough, got %v", out)
	}
}
