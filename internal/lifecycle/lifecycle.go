// Package lifecycle owns the post status machine: which transitions are
// legal for which role, and the derived flags each status entails. All
// functions are pure; persistence and authorization live elsewhere.
package lifecycle

import (
	"errors"

	"cadence/api/internal/rbac"
)

type Status string

const (
	StatusDraft        Status = "draft"
	StatusClientReview Status = "client_review"
	StatusApproved     Status = "approved"
	StatusScheduled    Status = "scheduled"
	StatusPosted       Status = "posted"
)

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrIllegalTransition = errors.New("illegal transition")
)

// Flags are the derived lifecycle fields. They are a function of status
// alone; the same table drives per-transition entry effects and the bulk
// recomputation so the two paths cannot disagree.
type Flags struct {
	VisibleToClient        bool
	AwaitingClientApproval bool
	Locked                 bool
}

func Valid(status Status) bool {
	switch status {
	case StatusDraft, StatusClientReview, StatusApproved, StatusScheduled, StatusPosted:
		return true
	default:
		return false
	}
}

// Statuses returns every status in forward order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusClientReview, StatusApproved, StatusScheduled, StatusPosted}
}

// FlagsFor returns the entry-effect flags for a status.
//
//	draft:          hidden, not awaiting, unlocked
//	client_review:  visible, awaiting,    unlocked
//	approved:       visible, not awaiting, unlocked
//	scheduled:      visible, not awaiting, locked
//	posted:         visible, not awaiting, locked
func FlagsFor(status Status) (Flags, error) {
	switch status {
	case StatusDraft:
		return Flags{}, nil
	case StatusClientReview:
		return Flags{VisibleToClient: true, AwaitingClientApproval: true}, nil
	case StatusApproved:
		return Flags{VisibleToClient: true}, nil
	case StatusScheduled, StatusPosted:
		return Flags{VisibleToClient: true, Locked: true}, nil
	default:
		return Flags{}, ErrUnknownStatus
	}
}

// Transition is a validated status change plus the flags to persist with it.
type Transition struct {
	From  Status
	To    Status
	Flags Flags
	NoOp  bool
}

// Plan validates the requested transition for the acting role and returns
// the entry effects to commit atomically with the status. A target equal to
// the current status is a successful no-op, not an error.
//
// Edges: members may only move draft -> client_review and back. Admins and
// managers additionally hold the forward edges into approved, scheduled and
// posted, plus override edges between any two non-posted statuses. Nothing
// ever leaves posted.
func Plan(role rbac.Role, from, to Status) (Transition, error) {
	if !Valid(from) || !Valid(to) {
		return Transition{}, ErrUnknownStatus
	}
	if from == to {
		flags, _ := FlagsFor(from)
		return Transition{From: from, To: to, Flags: flags, NoOp: true}, nil
	}
	if !edgeAllowed(role, from, to) {
		return Transition{}, ErrIllegalTransition
	}
	flags, _ := FlagsFor(to)
	return Transition{From: from, To: to, Flags: flags}, nil
}

func edgeAllowed(role rbac.Role, from, to Status) bool {
	if from == StatusPosted {
		return false
	}
	switch role {
	case rbac.RoleAdmin, rbac.RoleManager:
		if to == StatusPosted {
			return from == StatusScheduled
		}
		return true
	case rbac.RoleMember:
		return (from == StatusDraft && to == StatusClientReview) ||
			(from == StatusClientReview && to == StatusDraft)
	default:
		return false
	}
}
