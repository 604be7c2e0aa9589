// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corvidlabs/corvid/internal/platform/authz"
	"github.com/corvidlabs/corvid/internal/platform/sec"
)

/*
TestAuthorize_Matrix exercises every cell of the role/action/ownership
grid, including the denied cells.
*/
func TestAuthorize_Matrix(t *testing.T) {
	tests := []struct {
		name    string
		role    sec.Role
		action  authz.Action
		owned   bool
		allowed bool
	}{
		{"admin_read_own", sec.RoleAdmin, authz.ActionRead, true, true},
		{"admin_read_any", sec.RoleAdmin, authz.ActionRead, false, true},
		{"admin_write_own", sec.RoleAdmin, authz.ActionWrite, true, true},
		{"admin_write_any", sec.RoleAdmin, authz.ActionWrite, false, true},
		{"admin_admin", sec.RoleAdmin, authz.ActionAdmin, false, true},

		{"staff_read_own", sec.RoleStaff, authz.ActionRead, true, true},
		{"staff_read_any", sec.RoleStaff, authz.ActionRead, false, true},
		{"staff_write_own", sec.RoleStaff, authz.ActionWrite, true, true},
		{"staff_write_any", sec.RoleStaff, authz.ActionWrite, false, false},
		{"staff_admin", sec.RoleStaff, authz.ActionAdmin, false, false},

		{"viewer_read_own", sec.RoleViewer, authz.ActionRead, true, true},
		{"viewer_read_any", sec.RoleViewer, authz.ActionRead, false, false},
		{"viewer_write_own", sec.RoleViewer, authz.ActionWrite, true, false},
		{"viewer_write_any", sec.RoleViewer, authz.ActionWrite, false, false},
		{"viewer_admin", sec.RoleViewer, authz.ActionAdmin, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.Authorize(tt.role, tt.action, tt.owned)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

/*
TestAuthorize_DefaultDeny verifies that unknown roles and actions are
denied, never granted by accident.
*/
func TestAuthorize_DefaultDeny(t *testing.T) {
	assert.Error(t, authz.Authorize(sec.Role(""), authz.ActionRead, true))
	assert.Error(t, authz.Authorize(sec.Role("superuser"), authz.ActionRead, true))
	assert.Error(t, authz.Authorize(sec.RoleAdmin, authz.Action("export"), true))
}

/*
TestCanAny reports whether a role holds an action for at least one scope.
*/
func TestCanAny(t *testing.T) {
	assert.True(t, authz.CanAny(sec.RoleViewer, authz.ActionRead))
	assert.False(t, authz.CanAny(sec.RoleViewer, authz.ActionWrite))
	assert.True(t, authz.CanAny(sec.RoleStaff, authz.ActionWrite))
	assert.False(t, authz.CanAny(sec.RoleStaff, authz.ActionAdmin))
	assert.True(t, authz.CanAny(sec.RoleAdmin, authz.ActionAdmin))
}
