package httpx

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/siamkarim/2mro-admin/internal/authctx"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/domain/model"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
	apperrors "github.com/siamkarim/2mro-admin/internal/errors"
	"github.com/siamkarim/2mro-admin/internal/http/validation"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

// operatorRow is one admin user as the administration table shows it.
type operatorRow struct {
	model.AdminUser
	CanManage bool
	CanAssign bool
}

// accessMatrix is the role × route table with its column headers.
type accessMatrix struct {
	Routes []rbac.RouteDescriptor
	Rows   []rbac.MatrixRow
}

// assignableRoles are the roles an operator form may grant. Super-admins are
// never created from the console.
//
//nolint:gochecknoglobals // read-only option list
var assignableRoles = []domainauth.Role{domainauth.RoleManager, domainauth.RoleRetention, domainauth.RoleUser}

// Administration serves GET /administration: console operators and the access matrix.
func (h *UIHandlers) Administration(w http.ResponseWriter, r *http.Request) {
	reg := h.registry()
	matrix := accessMatrix{Routes: reg.Routes(), Rows: reg.Matrix()}
	actor := authctx.RoleFromContext(r.Context())

	var operators panel[[]operatorRow]
	users, err := h.API.AdminUsers(r.Context(), h.store(w, r))
	if err := h.panelOutcome(r, err, &operators.Error); err != nil {
		h.pageFailure(w, r, err)
		return
	}
	operators.Data = operatorRows(actor, users)

	data := h.pageData(r, PageMeta{Title: "administration.title", CurrentPage: PageAdministration}).
		With("Matrix", matrix).
		With("Operators", operators).
		With("AssignableRoles", assignableRoles).
		With("Actions", rbac.ActionsFor(actor)).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

func operatorRows(actor domainauth.Role, users []model.AdminUser) []operatorRow {
	rows := make([]operatorRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, operatorRow{
			AdminUser: u,
			CanManage: rbac.CanManageOperator(actor, u.Role),
			CanAssign: rbac.CanPerform(actor, rbac.ActionAssignTrader) && takesTraders(u.Role),
		})
	}
	return rows
}

// takesTraders reports whether operators of role look after trader accounts.
func takesTraders(role domainauth.Role) bool {
	return role == domainauth.RoleManager || role == domainauth.RoleRetention
}

func roleNames(roles []domainauth.Role) []string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return names
}

// operatorFromForm reads the operator form. A password is required when creating.
func operatorFromForm(r *http.Request, creating bool) (model.AdminUserInput, *validation.FieldValidator) {
	in := model.AdminUserInput{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Role:     domainauth.Role(strings.ToUpper(strings.TrimSpace(r.PostFormValue("role")))),
		Active:   creating || r.PostFormValue("active") != "",
	}
	password := validation.Optional("Password", 128)
	if creating {
		password = validation.Required("Password", 128)
	}
	fv := validation.New().
		Validate("name", in.Name, validation.Required("Name", 120)).
		Validate("email", in.Email, validation.Required("Email", 254), validation.Email("Email")).
		Validate("password", in.Password, password).
		Validate("role", string(in.Role), validation.OneOf("Role", roleNames(assignableRoles)))
	return in, fv
}

func (h *UIHandlers) renderOperatorErrors(w http.ResponseWriter, r *http.Request, id int64, in model.AdminUserInput, fv *validation.FieldValidator) {
	in.Password = ""
	RenderError(ErrorOpts{
		W: w, R: r,
		FieldErrors: fv.Errors(),
		Renderer: func(w http.ResponseWriter, _ *http.Request, data map[string]any) {
			h.renderFragment(w, "operator-form", data)
		},
		Data: h.pageData(r, PageMeta{CurrentPage: PageAdministration}).
			With("Operator", operatorForm{ID: id, AdminUserInput: in}).
			With("AssignableRoles", assignableRoles),
	})
}

// operatorForm is the data behind the operator-form partial.
type operatorForm struct {
	ID int64
	model.AdminUserInput
}

// findOperator looks id up in the operator list; the API has no single-operator read.
func (h *UIHandlers) findOperator(ctx context.Context, store ports.TokenStore, id int64) (model.AdminUser, error) {
	users, err := h.API.AdminUsers(ctx, store)
	if err != nil {
		return model.AdminUser{}, err
	}
	i := slices.IndexFunc(users, func(u model.AdminUser) bool { return u.ID == id })
	if i < 0 {
		return model.AdminUser{}, apperrors.NotFound("Admin user not found")
	}
	return users[i], nil
}

// CreateOperator serves POST /administration/users.
func (h *UIHandlers) CreateOperator(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in, fv := operatorFromForm(r, true)
	if !fv.Valid() {
		h.renderOperatorErrors(w, r, 0, in, fv)
		return
	}
	if !rbac.CanManageOperator(authctx.RoleFromContext(r.Context()), in.Role) {
		deny(w, r, http.HandlerFunc(h.NoAccess))
		return
	}
	if err := h.API.CreateAdminUser(r.Context(), h.store(w, r), in); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.logger().InfoContext(r.Context(), "admin user created", "role", in.Role)
	h.actionDone(w, r, "operators-updated")
}

// UpdateOperator serves POST /administration/users/{id}. Both the operator's
// current role and the requested one must be manageable by the actor.
func (h *UIHandlers) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in, fv := operatorFromForm(r, false)
	if !fv.Valid() {
		h.renderOperatorErrors(w, r, id, in, fv)
		return
	}

	store := h.store(w, r)
	target, err := h.findOperator(r.Context(), store, id)
	if err != nil {
		h.actionFailure(w, r, err)
		return
	}
	actor := authctx.RoleFromContext(r.Context())
	if !rbac.CanManageOperator(actor, target.Role) || !rbac.CanManageOperator(actor, in.Role) {
		deny(w, r, http.HandlerFunc(h.NoAccess))
		return
	}
	if err := h.API.UpdateAdminUser(r.Context(), store, id, in); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.logger().InfoContext(r.Context(), "admin user updated", "admin_user_id", id, "role", in.Role)
	h.actionDone(w, r, "operators-updated")
}

// DeleteOperator serves POST /administration/users/{id}/delete.
func (h *UIHandlers) DeleteOperator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	if p, err := authctx.FromContext(r.Context()); err == nil && p.Identity().UserID == strconv.FormatInt(id, 10) {
		h.rejectAction(w, r, apperrors.Validation(h.t(r, "administration.cannotRemoveSelf")))
		return
	}

	store := h.store(w, r)
	target, err := h.findOperator(r.Context(), store, id)
	if err != nil {
		h.actionFailure(w, r, err)
		return
	}
	if !rbac.CanManageOperator(authctx.RoleFromContext(r.Context()), target.Role) {
		deny(w, r, http.HandlerFunc(h.NoAccess))
		return
	}
	if err := h.API.DeleteAdminUser(r.Context(), store, id); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.logger().InfoContext(r.Context(), "admin user deleted", "admin_user_id", id)
	h.actionDone(w, r, "operators-updated")
}

// AssignTraders serves POST /administration/users/{id}/traders. The form's
// trader_ids field replaces the operator's assignment; empty clears it.
func (h *UIHandlers) AssignTraders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	traderIDs, err := parseTraderIDs(r.PostForm["trader_ids"])
	if err != nil {
		h.rejectAction(w, r, apperrors.ValidationField("trader_ids", h.t(r, "administration.assignHint")))
		return
	}

	store := h.store(w, r)
	target, err := h.findOperator(r.Context(), store, id)
	if err != nil {
		h.actionFailure(w, r, err)
		return
	}
	if !takesTraders(target.Role) {
		h.rejectAction(w, r, apperrors.Validation(h.t(r, "administration.assignOnlyStaff")))
		return
	}
	if err := h.API.AssignTraders(r.Context(), store, id, traderIDs); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.logger().InfoContext(r.Context(), "traders assigned", "admin_user_id", id, "count", len(traderIDs))
	h.actionDone(w, r, "operators-updated")
}

// parseTraderIDs accepts ids separated by commas or whitespace, across one or
// more form values. Duplicates are dropped.
func parseTraderIDs(values []string) ([]int64, error) {
	ids := []int64{}
	for _, v := range values {
		fields := strings.FieldsFunc(v, func(c rune) bool { return c == ',' || c == ' ' || c == '\n' || c == '\t' || c == '\r' })
		for _, f := range fields {
			id, err := strconv.ParseInt(f, 10, 64)
			if err != nil || id <= 0 {
				return nil, strconv.ErrSyntax
			}
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}
