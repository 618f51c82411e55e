// Package collab partitions comments and approvals into internal and
// client-facing scopes and decides what a given viewer may read or write.
// Like the access guard it is pure; callers fetch and persist rows.
package collab

import (
	"errors"
	"sort"

	"cadence/api/internal/rbac"
	"cadence/api/internal/store"
)

const (
	ScopeTeam   = "team"
	ScopeClient = "client"
)

const (
	DecisionApproved         = "approved"
	DecisionChangesRequested = "changes_requested"
)

var (
	ErrInvalidScope    = errors.New("invalid comment scope")
	ErrInvalidDecision = errors.New("invalid approval decision")
	ErrNotVisible      = errors.New("post is not visible to the client")
	ErrNotAwaiting     = errors.New("post is not awaiting client approval")
)

func ValidScope(scope string) bool {
	return scope == ScopeTeam || scope == ScopeClient
}

func ValidDecision(decision string) bool {
	return decision == DecisionApproved || decision == DecisionChangesRequested
}

// FilterComments returns the comments the viewer may read, newest first.
// For client viewers the post's visibility gate comes before scope: a
// hidden post yields nothing no matter what is stored. Team roles see every
// scope. The result is a fresh slice on every call.
func FilterComments(viewer rbac.Actor, visibleToClient bool, comments []store.Comment) []store.Comment {
	out := make([]store.Comment, 0, len(comments))
	if viewer.Role == rbac.RoleClient {
		if !visibleToClient {
			return out
		}
		for _, comment := range comments {
			if comment.Scope == ScopeClient {
				out = append(out, comment)
			}
		}
	} else {
		out = append(out, comments...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// CheckComment decides whether the actor may write a comment with the
// requested scope. Clients may only write client-scoped comments, and only
// while the post is visible to them.
func CheckComment(actor rbac.Actor, visibleToClient bool, scope string) error {
	if !ValidScope(scope) {
		return ErrInvalidScope
	}
	if actor.Role == rbac.RoleClient {
		if scope != ScopeClient {
			return rbac.ErrRoleForbidden
		}
		if !visibleToClient {
			return ErrNotVisible
		}
	}
	return nil
}

// CheckApproval decides whether the actor may record an approval. Only
// clients and admins/managers hold the capability; a client additionally
// needs the post to be awaiting their approval. Recording never changes the
// post status; that stays a separate, explicit transition.
func CheckApproval(actor rbac.Actor, awaitingClientApproval bool, decision string) error {
	if !ValidDecision(decision) {
		return ErrInvalidDecision
	}
	if !rbac.Can(actor.Role, rbac.ActionApprove) {
		return rbac.ErrRoleForbidden
	}
	if actor.Role == rbac.RoleClient && !awaitingClientApproval {
		return ErrNotAwaiting
	}
	return nil
}

// FilterApprovals hides the approval trail from clients while the post is
// hidden; team roles always see it.
func FilterApprovals(viewer rbac.Actor, visibleToClient bool, approvals []store.Approval) []store.Approval {
	out := make([]store.Approval, 0, len(approvals))
	if viewer.Role == rbac.RoleClient && !visibleToClient {
		return out
	}
	out = append(out, approvals...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
