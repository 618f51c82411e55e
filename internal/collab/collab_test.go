package collab

import (
	"errors"
	"testing"
	"time"

	"cadence/api/internal/rbac"
	"cadence/api/internal/store"
)

func sampleComments(base time.Time) []store.Comment {
	return []store.Comment{
		{ID: "c-1", Scope: ScopeTeam, Body: "internal note", CreatedAt: base},
		{ID: "c-2", Scope: ScopeClient, Body: "looks good?", CreatedAt: base.Add(time.Minute)},
		{ID: "c-3", Scope: ScopeTeam, Body: "fix the caption", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "c-4", Scope: ScopeClient, Body: "new headline attached", CreatedAt: base.Add(3 * time.Minute)},
	}
}

func TestFilterCommentsTeamSeesEverythingNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	member := rbac.Actor{ID: "tm-1", Role: rbac.RoleMember, Active: true}

	got := FilterComments(member, false, sampleComments(base))
	if len(got) != 4 {
		t.Fatalf("team viewer got %d comments, want 4", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("comments out of order at %d: %s after %s", i, got[i].ID, got[i-1].ID)
		}
	}
	if got[0].ID != "c-4" {
		t.Fatalf("newest comment first, got %s", got[0].ID)
	}
}

func TestFilterCommentsClientScopeAndVisibility(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	client := rbac.Actor{ID: "tm-2", Role: rbac.RoleClient, ClientID: "cl-1", Active: true}

	visible := FilterComments(client, true, sampleComments(base))
	if len(visible) != 2 {
		t.Fatalf("client viewer got %d comments, want 2", len(visible))
	}
	for _, comment := range visible {
		if comment.Scope != ScopeClient {
			t.Fatalf("client viewer received %s-scoped comment %s", comment.Scope, comment.ID)
		}
	}
	if visible[0].ID != "c-4" || visible[1].ID != "c-2" {
		t.Fatalf("unexpected order: %s, %s", visible[0].ID, visible[1].ID)
	}

	// Visibility is the outer gate: a hidden post yields nothing even for
	// client-scoped comments.
	hidden := FilterComments(client, false, sampleComments(base))
	if len(hidden) != 0 {
		t.Fatalf("hidden post leaked %d comments to client", len(hidden))
	}
}

func TestFilterCommentsReEnumerable(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	comments := sampleComments(base)
	member := rbac.Actor{ID: "tm-1", Role: rbac.RoleMember, Active: true}

	first := FilterComments(member, true, comments)
	second := FilterComments(member, true, comments)
	if len(first) != len(second) {
		t.Fatalf("repeat call returned %d comments, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("repeat call diverged at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestCheckComment(t *testing.T) {
	client := rbac.Actor{ID: "tm-2", Role: rbac.RoleClient, ClientID: "cl-1", Active: true}
	member := rbac.Actor{ID: "tm-1", Role: rbac.RoleMember, Active: true}

	if err := CheckComment(client, true, ScopeClient); err != nil {
		t.Fatalf("client comment on visible post: %v", err)
	}
	if err := CheckComment(client, true, ScopeTeam); !errors.Is(err, rbac.ErrRoleForbidden) {
		t.Fatalf("client team-scoped comment: expected ErrRoleForbidden, got %v", err)
	}
	if err := CheckComment(client, false, ScopeClient); !errors.Is(err, ErrNotVisible) {
		t.Fatalf("client comment on hidden post: expected ErrNotVisible, got %v", err)
	}
	if err := CheckComment(member, false, ScopeTeam); err != nil {
		t.Fatalf("member team comment on hidden post: %v", err)
	}
	if err := CheckComment(member, true, "public"); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("bad scope: expected ErrInvalidScope, got %v", err)
	}
}

func TestCheckApproval(t *testing.T) {
	client := rbac.Actor{ID: "tm-2", Role: rbac.RoleClient, ClientID: "cl-1", Active: true}
	manager := rbac.Actor{ID: "tm-3", Role: rbac.RoleManager, Active: true}
	member := rbac.Actor{ID: "tm-1", Role: rbac.RoleMember, Active: true}

	if err := CheckApproval(client, true, DecisionApproved); err != nil {
		t.Fatalf("client approval while awaiting: %v", err)
	}
	if err := CheckApproval(client, false, DecisionApproved); !errors.Is(err, ErrNotAwaiting) {
		t.Fatalf("client approval while not awaiting: expected ErrNotAwaiting, got %v", err)
	}
	if err := CheckApproval(manager, false, DecisionChangesRequested); err != nil {
		t.Fatalf("manager approval: %v", err)
	}
	if err := CheckApproval(member, true, DecisionApproved); !errors.Is(err, rbac.ErrRoleForbidden) {
		t.Fatalf("member approval: expected ErrRoleForbidden, got %v", err)
	}
	if err := CheckApproval(manager, true, "maybe"); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("bad decision: expected ErrInvalidDecision, got %v", err)
	}
}

func TestFilterApprovalsHiddenFromClientUntilVisible(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	approvals := []store.Approval{
		{ID: 1, Decision: DecisionChangesRequested, CreatedAt: base},
		{ID: 2, Decision: DecisionApproved, CreatedAt: base.Add(time.Hour)},
	}
	client := rbac.Actor{ID: "tm-2", Role: rbac.RoleClient, ClientID: "cl-1", Active: true}

	if got := FilterApprovals(client, false, approvals); len(got) != 0 {
		t.Fatalf("hidden post leaked %d approvals", len(got))
	}
	got := FilterApprovals(client, true, approvals)
	if len(got) != 2 || got[0].ID != 2 {
		t.Fatalf("unexpected approvals for visible post: %+v", got)
	}
}
