package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-user-api/internal/httputil"
	"github.com/redmonkez12/go-user-api/internal/logging"
	"github.com/redmonkez12/go-user-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	users          Users
	tokens         TokenService
	accessDuration time.Duration
}

func NewHandler(users Users, tokens TokenService, accessDuration time.Duration) *Handler {
	return &Handler{
		users:          users,
		tokens:         tokens,
		accessDuration: accessDuration,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Message     string `json:"message"`
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Routes mounts the auth endpoints. loginMiddlewares wrap only the login route.
func (h *Handler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler, loginMiddlewares ...func(http.Handler) http.Handler) {
	r.With(loginMiddlewares...).Post("/login", h.Login)
	r.With(requireAuth).Get("/me", h.Me)
}

// Login handles user login
// @Summary      User login
// @Description  Check credentials and issue a bearer access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.ErrorResponse "Inactive user"
// @Failure      401 {object} httputil.ErrorResponse "Incorrect email or password"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := httputil.DecodeAndValidate(w, r, &req); err != nil {
		logger.Warn("invalid login request", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	u, err := h.users.Authenticate(r.Context(), req.Email, *req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.RespondErrorWithCode(w, "Incorrect email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if !u.IsActive {
		logger.Warn("login failed: inactive user", "user_id", u.ID)
		httputil.RespondErrorWithCode(w, "Inactive user", httputil.CodeInactiveUser, http.StatusBadRequest)
		return
	}

	token, err := h.tokens.CreateToken(u.ID, u.Email, h.accessDuration)
	if err != nil {
		logger.Error("login failed: token creation", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", u.ID)

	httputil.RespondJSON(w, LoginResponse{
		Message:     "Login successful",
		UserID:      u.ID,
		Email:       u.Email,
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.accessDuration / time.Second),
	}, http.StatusOK)
}

// Me returns the user the access token was issued to
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.User
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load current user", "user_id", userID, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}
