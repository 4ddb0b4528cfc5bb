package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AnshRaj112/leadcrm-backend/internal/middleware"
	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/AnshRaj112/leadcrm-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// UserResponse wraps a user, with the session token when one was issued.
type UserResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// UserHandler serves the /users routes.
type UserHandler struct {
	users    *services.UserService
	sessions *services.SessionManager
}

func NewUserHandler(users *services.UserService, sessions *services.SessionManager) *UserHandler {
	return &UserHandler{users: users, sessions: sessions}
}

// Signup handles POST /users, sent when a lead finishes the pre-signup form.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupInput
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.users.CreateUser(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, UserResponse{User: user})
}

// CompleteSignup handles PATCH /users/{id}. The lead becomes a regular user
// and is logged in.
func (h *UserHandler) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.users.CompleteSignup(ctx, chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.sessions.IssueToken(ctx, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, UserResponse{User: user, Token: token})
}

// Login handles POST /users/login. Every failure is an empty 400.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeEmpty(w, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.users.FindByCredentials(ctx, req.CPF, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.sessions.IssueToken(ctx, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, UserResponse{User: user, Token: token})
}

// Logout ends the session of the token used for this request.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.sessions.RevokeToken(ctx, user, middleware.TokenFromContext(r.Context())); err != nil {
		internalError(w, r, err)
		return
	}
	writeEmpty(w, http.StatusOK)
}

// LogoutAll ends every session of the caller.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.sessions.RevokeAllTokens(ctx, user); err != nil {
		internalError(w, r, err)
		return
	}
	writeEmpty(w, http.StatusOK)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, r, http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, _ := middleware.UserFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	updated, err := h.users.UpdateProfile(ctx, user, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

// DeleteMe removes the caller's account and returns it.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	deleted, err := h.users.DeleteUser(ctx, user.ID.Hex())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deleted)
}

// CheckCPF handles GET /users/check-cpf?cpf=<cpf>.
func (h *UserHandler) CheckCPF(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	status, err := h.users.CheckCPF(ctx, r.URL.Query().Get("cpf"))
	if err != nil {
		slog.ErrorContext(r.Context(), "check cpf failed", "error", err)
		writeEmpty(w, http.StatusBadRequest)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// internalError answers 500 for routes where the only expected failure is the store.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeEmpty(w, http.StatusInternalServerError)
}
