//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"

// AdminUser is a staff operator account listed on the administration page.
type AdminUser struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      domainauth.Role `json:"role"`
	Active    bool            `json:"active"`
	CreatedAt string          `json:"created_at"`
	// AssignedTraders are the trader user ids this operator looks after.
	AssignedTraders []int64 `json:"assigned_traders,omitempty"`
}

// AdminUserInput creates or updates an operator. An empty Password on update
// keeps the current one.
type AdminUserInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password,omitempty"`
	Role     domainauth.Role `json:"role"`
	Active   bool            `json:"active"`
}
