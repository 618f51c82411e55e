package lifecycle

import (
	"errors"
	"testing"

	"cadence/api/internal/rbac"
)

func TestFlagsForTable(t *testing.T) {
	cases := []struct {
		status Status
		want   Flags
	}{
		{StatusDraft, Flags{VisibleToClient: false, AwaitingClientApproval: false, Locked: false}},
		{StatusClientReview, Flags{VisibleToClient: true, AwaitingClientApproval: true, Locked: false}},
		{StatusApproved, Flags{VisibleToClient: true, AwaitingClientApproval: false, Locked: false}},
		{StatusScheduled, Flags{VisibleToClient: true, AwaitingClientApproval: false, Locked: true}},
		{StatusPosted, Flags{VisibleToClient: true, AwaitingClientApproval: false, Locked: true}},
	}
	for _, tc := range cases {
		got, err := FlagsFor(tc.status)
		if err != nil {
			t.Fatalf("FlagsFor(%s): unexpected error %v", tc.status, err)
		}
		if got != tc.want {
			t.Fatalf("FlagsFor(%s) = %+v, want %+v", tc.status, got, tc.want)
		}
	}
}

func TestFlagsForUnknownStatus(t *testing.T) {
	if _, err := FlagsFor(Status("archived")); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestPlanMemberEdges(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusDraft, StatusClientReview},
		{StatusClientReview, StatusDraft},
	}
	for _, edge := range allowed {
		if _, err := Plan(rbac.RoleMember, edge.from, edge.to); err != nil {
			t.Fatalf("member %s -> %s: unexpected error %v", edge.from, edge.to, err)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusDraft, StatusScheduled},
		{StatusDraft, StatusApproved},
		{StatusClientReview, StatusApproved},
		{StatusApproved, StatusScheduled},
		{StatusScheduled, StatusPosted},
		{StatusScheduled, StatusApproved},
	}
	for _, edge := range denied {
		if _, err := Plan(rbac.RoleMember, edge.from, edge.to); !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("member %s -> %s: expected ErrIllegalTransition, got %v", edge.from, edge.to, err)
		}
	}
}

func TestPlanManagerOverrideEdges(t *testing.T) {
	nonPosted := []Status{StatusDraft, StatusClientReview, StatusApproved, StatusScheduled}
	for _, from := range nonPosted {
		for _, to := range nonPosted {
			if from == to {
				continue
			}
			tr, err := Plan(rbac.RoleManager, from, to)
			if err != nil {
				t.Fatalf("manager %s -> %s: unexpected error %v", from, to, err)
			}
			want, _ := FlagsFor(to)
			if tr.Flags != want {
				t.Fatalf("manager %s -> %s: flags %+v, want %+v", from, to, tr.Flags, want)
			}
		}
	}
}

func TestPlanPostedEdges(t *testing.T) {
	// Into posted only from scheduled, and only for privileged roles.
	if _, err := Plan(rbac.RoleAdmin, StatusScheduled, StatusPosted); err != nil {
		t.Fatalf("admin scheduled -> posted: unexpected error %v", err)
	}
	for _, from := range []Status{StatusDraft, StatusClientReview, StatusApproved} {
		if _, err := Plan(rbac.RoleAdmin, from, StatusPosted); !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("admin %s -> posted: expected ErrIllegalTransition, got %v", from, err)
		}
	}
	// Nothing leaves posted, even for admins.
	for _, to := range []Status{StatusDraft, StatusClientReview, StatusApproved, StatusScheduled} {
		if _, err := Plan(rbac.RoleAdmin, StatusPosted, to); !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("admin posted -> %s: expected ErrIllegalTransition, got %v", to, err)
		}
	}
}

func TestPlanClientHasNoEdges(t *testing.T) {
	if _, err := Plan(rbac.RoleClient, StatusDraft, StatusClientReview); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestPlanNoOp(t *testing.T) {
	tr, err := Plan(rbac.RoleMember, StatusClientReview, StatusClientReview)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !tr.NoOp {
		t.Fatal("same-status transition must be a no-op")
	}
	want, _ := FlagsFor(StatusClientReview)
	if tr.Flags != want {
		t.Fatalf("no-op flags %+v, want %+v", tr.Flags, want)
	}
}

func TestPlanUnknownStatus(t *testing.T) {
	if _, err := Plan(rbac.RoleAdmin, Status("nope"), StatusDraft); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if _, err := Plan(rbac.RoleAdmin, StatusDraft, Status("nope")); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

// Any sequence of legal transitions must keep the flag table invariant.
func TestFlagInvariantAfterLegalSequences(t *testing.T) {
	roles := []rbac.Role{rbac.RoleAdmin, rbac.RoleManager, rbac.RoleMember}

	type state struct {
		status Status
		flags  Flags
	}
	current := state{status: StatusDraft}
	current.flags, _ = FlagsFor(StatusDraft)

	// Exhaustive walk: from every reachable state try every (role, target)
	// pair and verify the committed flags always match the table.
	seen := map[Status]bool{}
	queue := []state{current}
	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]
		if seen[st.status] {
			continue
		}
		seen[st.status] = true

		want, _ := FlagsFor(st.status)
		if st.flags != want {
			t.Fatalf("state %s carries flags %+v, want %+v", st.status, st.flags, want)
		}
		for _, role := range roles {
			for _, target := range Statuses() {
				tr, err := Plan(role, st.status, target)
				if err != nil {
					continue
				}
				queue = append(queue, state{status: tr.To, flags: tr.Flags})
			}
		}
	}
	for _, status := range Statuses() {
		if !seen[status] {
			t.Fatalf("status %s unreachable from draft via legal edges", status)
		}
	}
}

func TestDraftReviewRoundTripRestoresDraftFlags(t *testing.T) {
	up, err := Plan(rbac.RoleMember, StatusDraft, StatusClientReview)
	if err != nil {
		t.Fatalf("draft -> client_review: %v", err)
	}
	if !up.Flags.VisibleToClient || !up.Flags.AwaitingClientApproval {
		t.Fatalf("client_review flags %+v", up.Flags)
	}
	down, err := Plan(rbac.RoleMember, up.To, StatusDraft)
	if err != nil {
		t.Fatalf("client_review -> draft: %v", err)
	}
	fresh, _ := FlagsFor(StatusDraft)
	if down.Flags != fresh {
		t.Fatalf("round trip flags %+v, want fresh draft flags %+v", down.Flags, fresh)
	}
}
