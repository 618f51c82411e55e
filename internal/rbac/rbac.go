// Package rbac holds the closed role enumeration, the capability table,
// and the access guard evaluated before any post mutation.
package rbac

import "errors"

type Role string
type Action string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
	RoleClient  Role = "client"
)

const (
	ActionView          Action = "view"
	ActionEditDate      Action = "edit_date"
	ActionEditContent   Action = "edit_content"
	ActionChangeStatus  Action = "change_status"
	ActionCommentTeam   Action = "comment_team"
	ActionCommentClient Action = "comment_client"
	ActionApprove       Action = "approve"
)

// Denial reasons returned by Authorize. Callers map these onto API error
// codes so a rejected action is never reported as a generic failure.
var (
	ErrInactiveAccount   = errors.New("account is inactive")
	ErrCrossTenantAccess = errors.New("post belongs to another client")
	ErrRoleForbidden     = errors.New("role does not permit this action")
	ErrPostLocked        = errors.New("post is locked")
)

// Actor is the resolved identity of the requester: role, optional client
// scope, and whether the team-member record is still active. It is re-read
// from storage on every request, never cached.
type Actor struct {
	ID       string
	Name     string
	Role     Role
	ClientID string
	Active   bool
}

// Post carries the two post fields the guard decides on.
type Post struct {
	ClientID string
	Locked   bool
}

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin, RoleManager:
		return true
	case RoleMember:
		return action != ActionApprove
	case RoleClient:
		return action == ActionView || action == ActionCommentClient || action == ActionApprove
	default:
		return false
	}
}

func Valid(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleMember, RoleClient:
		return true
	default:
		return false
	}
}

// Privileged reports whether the role bypasses the post lock.
func Privileged(role Role) bool {
	return role == RoleAdmin || role == RoleManager
}

// Mutating reports whether the action writes post state.
func Mutating(action Action) bool {
	return action != ActionView
}

// Authorize is the pure access decision for an action against a post.
// Rules are evaluated in order: inactive account, client tenant scope,
// client capability, role capability, lock. It performs no I/O; the caller
// applies the mutation itself once authorized. Edge legality for
// ActionChangeStatus is decided separately by the lifecycle package.
func Authorize(actor Actor, post Post, action Action) error {
	if !actor.Active {
		return ErrInactiveAccount
	}
	if actor.Role == RoleClient {
		if actor.ClientID == "" || actor.ClientID != post.ClientID {
			return ErrCrossTenantAccess
		}
		if !Can(RoleClient, action) {
			return ErrRoleForbidden
		}
		return nil
	}
	if !Can(actor.Role, action) {
		return ErrRoleForbidden
	}
	if post.Locked && Mutating(action) && !Privileged(actor.Role) {
		return ErrPostLocked
	}
	return nil
}
