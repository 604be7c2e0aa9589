// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

/*
Package authz is the access control evaluator: it maps a verified identity
and a requested action to an allow/deny decision.

Architecture:

  - Pure: Evaluation is a function of (role, action, ownership match) only.
    No I/O, no hidden state — fully unit-testable in isolation.
  - Closed: The rule table enumerates every allowed triple. Anything not
    enumerated is denied (fail-closed), including unknown roles.
  - Reviewable: Adding a role or action class is a one-table change.
*/
package authz

import (
	"github.com/corvidlabs/corvid/internal/platform/apperr"
	"github.com/corvidlabs/corvid/internal/platform/sec"
)

// Action is the closed set of action classes a request can ask for.
type Action string

const (
	// ActionRead covers all read access to a resource.
	ActionRead Action = "read"

	// ActionWrite covers create, update, and delete of a resource.
	ActionWrite Action = "write"

	// ActionAdmin covers system administration (user management, role
	// changes). Admin actions have no ownership concept.
	ActionAdmin Action = "admin"
)

// rule is one (role, action, ownership-class) cell of the permission matrix.
type rule struct {
	role  sec.Role
	act   Action
	owned bool
}

// allowed is the complete permission matrix.
//
//	role   | read-own write-own read-any write-any admin
//	-------+---------------------------------------------
//	admin  |   yes      yes       yes      yes      yes
//	staff  |   yes      yes       yes      no       no
//	viewer |   yes      no        no       no       no
//
// "owned" rules apply when the requester is the resource owner. Actions
// without an owner concept are evaluated with owned=false ("any" class).
var allowed = map[rule]struct{}{
	{sec.RoleAdmin, ActionRead, true}:   {},
	{sec.RoleAdmin, ActionWrite, true}:  {},
	{sec.RoleAdmin, ActionRead, false}:  {},
	{sec.RoleAdmin, ActionWrite, false}: {},
	{sec.RoleAdmin, ActionAdmin, false}: {},
	{sec.RoleStaff, ActionRead, true}:   {},
	{sec.RoleStaff, ActionWrite, true}:  {},
	{sec.RoleStaff, ActionRead, false}:  {},
	{sec.RoleViewer, ActionRead, true}:  {},
}

// Authorize decides whether a role may perform an action class.
//
// # Parameters
//   - role: The verified role of the requester.
//   - action: The requested action class.
//   - owned: Whether the requester owns the target resource. Pass false for
//     actions without an owner concept.
//
// # Returns
//   - nil when the triple is explicitly allowed.
//   - apperr.Forbidden for every other triple (default deny).
func Authorize(role sec.Role, action Action, owned bool) error {
	// A permission on the "any" class implies the same permission on "own":
	// an admin writing their own record is still a write-any holder. The
	// table above lists both cells explicitly, so a single lookup suffices.
	if _, ok := allowed[rule{role, action, owned}]; ok {
		return nil
	}
	return apperr.Forbidden("Insufficient permissions")
}

// CanAny reports whether the role holds the action at any ownership
// level, owned or not. Services use it as a cheap entry gate before
// resolving the concrete target (e.g. may this role list records at all),
// with the per-record ownership check following via [Authorize].
func CanAny(role sec.Role, action Action) bool {
	_, own := allowed[rule{role, action, true}]
	_, any := allowed[rule{role, action, false}]
	return own || any
}
