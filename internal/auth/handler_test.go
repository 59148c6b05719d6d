package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-user-api/internal/httputil"
	"github.com/redmonkez12/go-user-api/internal/user"
)

type fakeUsers struct {
	byEmail   map[string]*user.User
	passwords map[string]string
	err       error
}

func newFakeUsers(users ...*user.User) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]*user.User{}, passwords: map[string]string{}}
	for _, u := range users {
		f.byEmail[u.Email] = u
		f.passwords[u.Email] = "pw"
	}
	return f
}

func (f *fakeUsers) Authenticate(_ context.Context, email, password string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok || f.passwords[email] != password {
		return nil, user.ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func newAuthRouter(t *testing.T, users Users) (chi.Router, *PasetoService) {
	t.Helper()
	tokens, err := NewPasetoService(testKey)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		NewHandler(users, tokens, 30*time.Minute).Routes(r, NewMiddleware(tokens).RequireAuth)
	})
	return r, tokens
}

func login(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	r, tokens := newAuthRouter(t, newFakeUsers(&user.User{ID: 3, Email: "a@x.com", IsActive: true}))

	rec := login(r, `{"email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, int64(3), resp.UserID)
	assert.Equal(t, "a@x.com", resp.Email)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(1800), resp.ExpiresIn)

	claims, err := tokens.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
}

func TestLogin_Failures(t *testing.T) {
	users := newFakeUsers(
		&user.User{ID: 1, Email: "active@x.com", IsActive: true},
		&user.User{ID: 2, Email: "inactive@x.com", IsActive: false},
	)
	r, _ := newAuthRouter(t, users)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"wrong password", `{"email":"active@x.com","password":"nope"}`, http.StatusUnauthorized, httputil.CodeInvalidCredentials},
		{"unknown email", `{"email":"ghost@x.com","password":"pw"}`, http.StatusUnauthorized, httputil.CodeInvalidCredentials},
		{"inactive user", `{"email":"inactive@x.com","password":"pw"}`, http.StatusBadRequest, httputil.CodeInactiveUser},
		{"inactive user wrong password", `{"email":"inactive@x.com","password":"nope"}`, http.StatusUnauthorized, httputil.CodeInvalidCredentials},
		{"invalid email", `{"email":"nope","password":"pw"}`, http.StatusUnprocessableEntity, httputil.CodeValidationFailed},
		{"missing password", `{"email":"active@x.com"}`, http.StatusUnprocessableEntity, httputil.CodeValidationFailed},
		{"malformed body", `{`, http.StatusUnprocessableEntity, httputil.CodeInvalidRequestBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := login(r, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestLogin_StoreError(t *testing.T) {
	users := newFakeUsers()
	users.err = errors.New("db down")
	r, _ := newAuthRouter(t, users)

	rec := login(r, `{"email":"a@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMe(t *testing.T) {
	r, tokens := newAuthRouter(t, newFakeUsers(&user.User{ID: 5, Email: "me@x.com", IsActive: true}))

	get := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, get("").Code)

	token, err := tokens.CreateToken(5, "me@x.com", time.Minute)
	require.NoError(t, err)
	rec := get(token)
	require.Equal(t, http.StatusOK, rec.Code)
	var u user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "me@x.com", u.Email)

	gone, err := tokens.CreateToken(77, "gone@x.com", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get(gone).Code)
}
