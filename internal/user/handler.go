package user

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-user-api/internal/httputil"
	"github.com/redmonkez12/go-user-api/internal/logging"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// Handler contains HTTP handlers for the user endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateUserRequest represents the user creation request body
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password" validate:"required"`
}

// UpdateUserRequest represents a partial update; omitted fields are left untouched
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UsersListResponse represents a page of users
type UsersListResponse struct {
	Message string  `json:"message"`
	Users   []*User `json:"users"`
	Total   int     `json:"total"`
}

// Routes mounts the user endpoints; the caller decides the prefix.
// createMiddlewares wrap only user creation (e.g. rate limiting).
func (h *Handler) Routes(r chi.Router, createMiddlewares ...func(http.Handler) http.Handler) {
	r.With(createMiddlewares...).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/email/{email}", h.GetByEmail)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// Create handles user creation
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "New user"
// @Success      201 {object} User
// @Failure      400 {object} httputil.ErrorResponse "Email already registered"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /users/ [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CreateUserRequest
	if err := httputil.DecodeAndValidate(w, r, &req); err != nil {
		logger.Warn("invalid create user request", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	u, err := h.service.Create(r.Context(), req.Email, *req.Password)
	if err != nil {
		h.respondServiceError(w, logger, err, "create user")
		return
	}

	logger.Info("user created", "user_id", u.ID)
	httputil.RespondJSON(w, u, http.StatusCreated)
}

// List handles paginated listing
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        skip  query int false "Number of users to skip" minimum(0) default(0)
// @Param        limit query int false "Maximum number of users to return" minimum(1) maximum(1000) default(100)
// @Success      200 {object} UsersListResponse
// @Failure      422 {object} httputil.ErrorResponse
// @Router       /users/ [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var fieldErrs []httputil.FieldError
	skip, ferr := httputil.IntQuery(r, "skip", 0, 0, -1)
	if ferr != nil {
		fieldErrs = append(fieldErrs, *ferr)
	}
	limit, ferr := httputil.IntQuery(r, "limit", defaultPageSize, 1, maxPageSize)
	if ferr != nil {
		fieldErrs = append(fieldErrs, *ferr)
	}
	if len(fieldErrs) > 0 {
		httputil.RespondValidationError(w, fieldErrs)
		return
	}

	users, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		h.respondServiceError(w, logger, err, "list users")
		return
	}

	total, err := h.service.Count(r.Context())
	if err != nil {
		h.respondServiceError(w, logger, err, "count users")
		return
	}

	httputil.RespondJSON(w, UsersListResponse{
		Message: fmt.Sprintf("Retrieved %d users", len(users)),
		Users:   users,
		Total:   total,
	}, http.StatusOK)
}

// GetByID handles lookup by id
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} User
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ferr := httputil.Int64Param(r, "id")
	if ferr != nil {
		httputil.RespondValidationError(w, []httputil.FieldError{*ferr})
		return
	}

	u, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, logger, err, "get user")
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// GetByEmail handles lookup by email
// @Summary      Get a user by email
// @Tags         users
// @Produce      json
// @Param        email path string true "Email address"
// @Success      200 {object} User
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /users/email/{email} [get]
func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		httputil.RespondValidationError(w, []httputil.FieldError{{Field: "email", Message: "invalid path encoding"}})
		return
	}

	u, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		h.respondServiceError(w, logger, err, "get user by email")
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// Update handles partial updates
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path int               true "User ID"
// @Param        request body UpdateUserRequest true "Fields to change"
// @Success      200 {object} User
// @Failure      400 {object} httputil.ErrorResponse "Email already registered by another user"
// @Failure      404 {object} httputil.ErrorResponse
// @Failure      422 {object} httputil.ErrorResponse
// @Router       /users/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ferr := httputil.Int64Param(r, "id")
	if ferr != nil {
		httputil.RespondValidationError(w, []httputil.FieldError{*ferr})
		return
	}

	var req UpdateUserRequest
	if err := httputil.DecodeAndValidate(w, r, &req); err != nil {
		logger.Warn("invalid update user request", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	u, err := h.service.Update(r.Context(), id, Update{
		Email:    req.Email,
		Password: req.Password,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.respondServiceError(w, logger, err, "update user")
		return
	}

	logger.Info("user updated", "user_id", u.ID)
	httputil.RespondJSON(w, u, http.StatusOK)
}

// Delete handles hard deletion
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} httputil.MessageResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /users/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ferr := httputil.Int64Param(r, "id")
	if ferr != nil {
		httputil.RespondValidationError(w, []httputil.FieldError{*ferr})
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, logger, err, "delete user")
		return
	}

	logger.Info("user deleted", "user_id", id)
	httputil.RespondJSON(w, httputil.MessageResponse{Message: "User deleted successfully"}, http.StatusOK)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error, action string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
	case errors.Is(err, ErrDuplicateEmail):
		logger.Warn(action+" failed: email already registered")
		httputil.RespondErrorWithCode(w, "Email already registered", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
	default:
		logger.Error(action+" failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to "+action, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
