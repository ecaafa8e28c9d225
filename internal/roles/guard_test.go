package roles

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuswatch/campuswatch/internal/shared"
)

func TestRoleOrdering(t *testing.T) {
	ordered := []Role{RoleStudent, RoleStaff, RoleSupervisor, RoleAdmin, RoleSuperAdmin}
	for i, lower := range ordered {
		require.True(t, lower.Valid())
		require.Equal(t, i, lower.Rank())
		for _, higher := range ordered[i+1:] {
			require.True(t, lower.Below(higher))
			require.True(t, higher.AtLeast(lower))
			require.False(t, lower.AtLeast(higher))
		}
	}
	require.False(t, Role("JANITOR").Valid())
	require.Equal(t, -1, Role("JANITOR").Rank())
}

func TestEnsureAssignee(t *testing.T) {
	require.NoError(t, EnsureAssignee(RoleStaff))
	require.NoError(t, EnsureAssignee(RoleSuperAdmin))

	err := EnsureAssignee(RoleStudent)
	var forbidden *shared.ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	require.Equal(t, ActionAssignReport, forbidden.Action)
	require.Equal(t, string(RoleStaff), forbidden.Required)
}

func TestEnsureAssign(t *testing.T) {
	require.NoError(t, EnsureAssign(RoleSupervisor, 1, 2))
	require.NoError(t, EnsureAssign(RoleStaff, 7, 7), "staff may pick up a report for themselves")
	require.Error(t, EnsureAssign(RoleStaff, 7, 8))
	require.Error(t, EnsureAssign(RoleStudent, 7, 7))
}

func TestEnsureResolve(t *testing.T) {
	require.NoError(t, EnsureResolve(RoleStaff, true))
	require.NoError(t, EnsureResolve(RoleSupervisor, false))
	require.Error(t, EnsureResolve(RoleStaff, false))
	require.Error(t, EnsureResolve(RoleStudent, true))
}

func TestEnsurePromoteRankRules(t *testing.T) {
	// Staff cannot promote at all.
	err := EnsurePromote(RoleStaff, 1, RoleStaff, 2, RoleSupervisor)
	var forbidden *shared.ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	require.Equal(t, string(RoleAdmin), forbidden.Required)

	// Admin promotes up to their own rank but never above it.
	require.NoError(t, EnsurePromote(RoleAdmin, 1, RoleStaff, 2, RoleSupervisor))
	require.NoError(t, EnsurePromote(RoleAdmin, 1, RoleStaff, 2, RoleAdmin))
	require.Error(t, EnsurePromote(RoleAdmin, 1, RoleStaff, 2, RoleSuperAdmin))

	// Admin cannot touch a peer or a superadmin.
	require.Error(t, EnsurePromote(RoleAdmin, 1, RoleAdmin, 2, RoleSupervisor))
	require.Error(t, EnsurePromote(RoleAdmin, 1, RoleSuperAdmin, 2, RoleSupervisor))

	// Superadmin can mint admins and fellow superadmins.
	require.NoError(t, EnsurePromote(RoleSuperAdmin, 1, RoleSupervisor, 2, RoleAdmin))
	require.NoError(t, EnsurePromote(RoleSuperAdmin, 1, RoleAdmin, 2, RoleSuperAdmin))

	// Never yourself.
	require.Error(t, EnsurePromote(RoleSuperAdmin, 1, RoleSupervisor, 1, RoleAdmin))
}

func TestStaffTiersMatchAssigneeGuard(t *testing.T) {
	for _, tier := range StaffTiers() {
		require.NoError(t, EnsureAssignee(tier), "every staff tier can hold assignments")
	}
	require.Len(t, StaffTiers(), len(ranks)-1, "only students are excluded")
	require.NotContains(t, StaffTierNames(), string(RoleStudent))
}

func TestEnsureProvision(t *testing.T) {
	require.NoError(t, EnsureProvision(RoleAdmin, RoleStaff))
	require.NoError(t, EnsureProvision(RoleAdmin, RoleAdmin))
	require.NoError(t, EnsureProvision(RoleSuperAdmin, RoleSuperAdmin))
	require.Error(t, EnsureProvision(RoleAdmin, RoleSuperAdmin))
	require.Error(t, EnsureProvision(RoleSupervisor, RoleStaff))
	require.Error(t, EnsureProvision("", RoleStaff), "anonymous callers cannot provision staff")
}

func TestEnsureDeleteAccount(t *testing.T) {
	require.NoError(t, EnsureDeleteAccount(RoleAdmin, 1, 2))
	require.Error(t, EnsureDeleteAccount(RoleAdmin, 1, 1), "self-deletion is never allowed")
	require.Error(t, EnsureDeleteAccount(RoleSupervisor, 1, 2))
}
