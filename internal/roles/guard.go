package roles

import "github.com/campuswatch/campuswatch/internal/shared"

// Guarded actions. Denials carry the action name and the minimum role that
// would have been accepted, and must be surfaced to the caller without retry.
const (
	ActionAssignReport  = "report.assign"
	ActionUnassign      = "report.unassign"
	ActionRecordAction  = "assignment.record_action"
	ActionResolveReport = "report.resolve"
	ActionRejectReport  = "report.reject"
	ActionPromote       = "account.promote"
	ActionProvision     = "account.provision"
	ActionDemote        = "account.demote"
	ActionDeleteAccount = "account.delete"
	ActionViewWorkload  = "workload.view"
)

func forbidden(action string, required Role) error {
	return &shared.ForbiddenError{Action: action, Required: string(required)}
}

// EnsureAssignee verifies the target account can hold an assignment.
func EnsureAssignee(target Role) error {
	if target.AtLeast(RoleStaff) {
		return nil
	}
	return forbidden(ActionAssignReport, RoleStaff)
}

// EnsureAssign verifies the actor may create or supersede an assignment for
// staffID. Supervisors and above may assign anyone; staff may only pick up a
// report for themselves.
func EnsureAssign(actor Role, actorID, staffID int64) error {
	if actor.AtLeast(RoleSupervisor) {
		return nil
	}
	if actor.AtLeast(RoleStaff) && actorID == staffID {
		return nil
	}
	return forbidden(ActionAssignReport, RoleSupervisor)
}

// EnsureUnassign mirrors EnsureAssign for releasing an assignment.
func EnsureUnassign(actor Role, actorID, holderID int64) error {
	if actor.AtLeast(RoleSupervisor) {
		return nil
	}
	if actor.AtLeast(RoleStaff) && actorID == holderID {
		return nil
	}
	return forbidden(ActionUnassign, RoleSupervisor)
}

// EnsureRecordAction verifies only the assignment holder updates its
// action/feedback text.
func EnsureRecordAction(actor Role, actorID, holderID int64) error {
	if actor.AtLeast(RoleStaff) && actorID == holderID {
		return nil
	}
	return forbidden(ActionRecordAction, RoleStaff)
}

// EnsureResolve verifies the actor is the report's current assignee or ranks
// supervisor-or-above.
func EnsureResolve(actor Role, isAssignee bool) error {
	if isAssignee && actor.AtLeast(RoleStaff) {
		return nil
	}
	if actor.AtLeast(RoleSupervisor) {
		return nil
	}
	return forbidden(ActionResolveReport, RoleSupervisor)
}

// EnsureAdminReject verifies administrative dismissal of a pending report.
func EnsureAdminReject(actor Role) error {
	if actor.AtLeast(RoleAdmin) {
		return nil
	}
	return forbidden(ActionRejectReport, RoleAdmin)
}

// EnsurePromote verifies a role change. Admin-or-above only; the target's
// current rank must sit strictly below the actor's, while the new rank may
// reach as high as the actor's own (a superadmin may mint superadmins, an
// admin may not).
func EnsurePromote(actor Role, actorID int64, target Role, targetID int64, newRole Role) error {
	if !actor.AtLeast(RoleAdmin) {
		return forbidden(ActionPromote, RoleAdmin)
	}
	if actorID == targetID {
		return forbidden(ActionPromote, RoleSuperAdmin)
	}
	if !newRole.Valid() || !actor.AtLeast(newRole) || !target.Below(actor) {
		return forbidden(ActionPromote, RoleSuperAdmin)
	}
	return nil
}

// EnsureProvision verifies direct creation of an account above STUDENT.
// Admin-or-above only, and never a rank above the actor's own.
func EnsureProvision(actor Role, newRole Role) error {
	if !actor.AtLeast(RoleAdmin) {
		return forbidden(ActionProvision, RoleAdmin)
	}
	if !newRole.Valid() || !actor.AtLeast(newRole) {
		return forbidden(ActionProvision, RoleSuperAdmin)
	}
	return nil
}

// EnsureDemote applies the same rank rules as EnsurePromote.
func EnsureDemote(actor Role, actorID int64, target Role, targetID int64, newRole Role) error {
	if !actor.AtLeast(RoleAdmin) {
		return forbidden(ActionDemote, RoleAdmin)
	}
	if actorID == targetID {
		return forbidden(ActionDemote, RoleSuperAdmin)
	}
	if !newRole.Valid() || !target.Below(actor) {
		return forbidden(ActionDemote, RoleSuperAdmin)
	}
	return nil
}

// EnsureDeleteAccount verifies account removal; self-deletion is never allowed.
func EnsureDeleteAccount(actor Role, actorID, targetID int64) error {
	if !actor.AtLeast(RoleAdmin) {
		return forbidden(ActionDeleteAccount, RoleAdmin)
	}
	if actorID == targetID {
		return forbidden(ActionDeleteAccount, RoleSuperAdmin)
	}
	return nil
}

// EnsureViewWorkload verifies workload access. Staff may read their own
// snapshot; supervisors and above may read anyone's.
func EnsureViewWorkload(actor Role, actorID, staffID int64) error {
	if actor.AtLeast(RoleSupervisor) {
		return nil
	}
	if actor.AtLeast(RoleStaff) && actorID == staffID {
		return nil
	}
	return forbidden(ActionViewWorkload, RoleSupervisor)
}
