// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corvidlabs/corvid/internal/platform/middleware"
	requestutil "github.com/corvidlabs/corvid/internal/platform/request"
	"github.com/corvidlabs/corvid/internal/platform/respond"
	"github.com/corvidlabs/corvid/internal/platform/sec"
	"github.com/corvidlabs/corvid/internal/platform/validate"
	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements identity and session HTTP endpoints.
//
// # Scope
//
// Everything related to credentials and account lifecycle lands here:
// login, credential rotation, revocation, and administrative user
// management. The handler is strictly transport; all policy lives in
// [Service].
type Handler struct {
	identityService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{identityService: service}
}

// AuthRoutes returns a [chi.Router] for the session lifecycle.
//
// # Endpoints
//   - POST /login           : Authenticates and returns a signed token.
//   - POST /change-password : Rotates the caller's credential.
//   - POST /revoke          : Invalidates all of the caller's tokens.
func (handler *Handler) AuthRoutes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/login", handler.login)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/change-password", handler.changePassword)
		r.Post("/revoke", handler.revoke)
	})

	return router
}

// UserRoutes returns a [chi.Router] for account administration.
//
// All endpoints except /me are admin-actions class.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/me", handler.me)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/", handler.create)
		r.Get("/", handler.list)
		r.Get("/{id}", handler.get)
		r.Put("/{id}/role", handler.updateRole)
		r.Put("/{id}/disabled", handler.setDisabled)
		r.Delete("/{id}", handler.remove)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type setDisabledRequest struct {
	Disabled bool `json:"disabled"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}

/*
Login authenticates a credential pair and returns a session token.

POST /api/v1/auth/login

Response:
  - 200: loginResponse: Signed token plus expiry
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 401: ErrUnauthorized: Generic denial for every credential failure
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.identityService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		User:        result.User,
	})
}

/*
ChangePassword rotates the caller's credential and revokes old tokens.

POST /api/v1/auth/change-password

Response:
  - 204: Credential rotated; all previous tokens are invalid
  - 401: ErrUnauthorized: Current password mismatch
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.identityService.ChangePassword(
		request.Context(), claims.UserID, input.CurrentPassword, input.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Revoke invalidates every outstanding token for the caller.

POST /api/v1/auth/revoke

Response:
  - 204: All previously issued tokens are now rejected
*/
func (handler *Handler) revoke(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.identityService.RevokeAll(request.Context(), claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Me returns the authenticated caller's own account.

GET /api/v1/users/me
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.identityService.Get(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
Create enrolls a new account.

POST /api/v1/users

Response:
  - 201: User: Created account (hash never serialized)
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Required(FieldRole, input.Role).
		OneOf(FieldRole, input.Role,
			string(sec.RoleAdmin), string(sec.RoleStaff), string(sec.RoleViewer))

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.identityService.Create(request.Context(), CreateInput{
		Email:    input.Email,
		Password: input.Password,
		Role:     sec.Role(input.Role),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
List returns a page of accounts.

GET /api/v1/users?page=N&limit=M
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.identityService.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get returns a single account by ID.

GET /api/v1/users/{id}
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	validator := &validate.Validator{}
	if validator.UUID("id", id); validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	user, err := handler.identityService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateRole changes an account's role. Outstanding tokens are revoked.

PUT /api/v1/users/{id}/role
*/
func (handler *Handler) updateRole(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var input updateRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.UUID("id", id).
		Required(FieldRole, input.Role).
		OneOf(FieldRole, input.Role,
			string(sec.RoleAdmin), string(sec.RoleStaff), string(sec.RoleViewer))

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.identityService.UpdateRole(request.Context(), id, sec.Role(input.Role)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
SetDisabled enables or disables an account. Disabling locks the account
out immediately by revoking outstanding tokens.

PUT /api/v1/users/{id}/disabled
*/
func (handler *Handler) setDisabled(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var input setDisabledRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if validator.UUID("id", id); validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	if err := handler.identityService.SetDisabled(request.Context(), id, input.Disabled); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Remove permanently deletes an account.

DELETE /api/v1/users/{id}
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	validator := &validate.Validator{}
	if validator.UUID("id", id); validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	if err := handler.identityService.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
