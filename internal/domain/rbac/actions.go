package rbac

import (
	"slices"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
)

// Action is a named capability inside a console area.
type Action string

const (
	ActionApproveDeposit        Action = "deposit:approve"
	ActionApproveWithdrawal     Action = "withdrawal:approve"
	ActionEditPosition          Action = "position:edit"
	ActionManagePaymentSettings Action = "payment-settings:manage"
	ActionAssignTrader          Action = "trader:assign"
	ActionManageAdminUsers      Action = "admin-user:manage"
)

// roleActions maps each role to the actions it may perform.
// Retention agents work the dashboard only and hold no write actions.
var roleActions = map[domainauth.Role][]Action{
	domainauth.RoleSuperAdmin: {
		ActionApproveDeposit,
		ActionApproveWithdrawal,
		ActionEditPosition,
		ActionManagePaymentSettings,
		ActionAssignTrader,
		ActionManageAdminUsers,
	},
	domainauth.RoleManager: {
		ActionApproveDeposit,
		ActionApproveWithdrawal,
		ActionEditPosition,
		ActionManagePaymentSettings,
		ActionAssignTrader,
	},
}

// CanPerform reports whether role may perform action.
func CanPerform(role domainauth.Role, action Action) bool {
	return slices.Contains(roleActions[role], action)
}

// ActionsFor returns a copy of role's actions; nil for roles without any.
func ActionsFor(role domainauth.Role) []Action {
	return slices.Clone(roleActions[role])
}

// CanManageOperator reports whether actor may edit or remove an operator holding target.
// Nobody edits a super-admin from the console.
func CanManageOperator(actor, target domainauth.Role) bool {
	if !CanPerform(actor, ActionManageAdminUsers) {
		return false
	}
	return target != domainauth.RoleSuperAdmin
}
