package account

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gymtrack/gymtrack/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the account lifecycle.
type Handler struct {
	logger    *slog.Logger
	manager   *Manager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, manager *Manager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		manager:   manager,
		validator: validator.New(),
	}
}

// MountAuthRoutes registers session routes on the provided router.
func (h *Handler) MountAuthRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/signup", h.handleSignup)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

// MountUserRoutes registers admin user-management routes.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Get("/", h.handleListUsers)
	r.Post("/{id}/status", h.handleUpdateStatus)
}

type credentialsForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type statusForm struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

type userView struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Status  Status `json:"status"`
	IsAdmin bool   `json:"isAdmin"`
}

func viewOf(u User) userView {
	return userView{ID: u.ID, Email: u.Email, Status: u.Status, IsAdmin: u.IsAdmin}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form credentialsForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if !h.manager.Login(r.Context(), form.Email, form.Password) {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}
	u, _ := h.manager.CurrentUser()
	httpx.JSON(w, http.StatusOK, viewOf(u))
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var form credentialsForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if !h.manager.Signup(r.Context(), form.Email, form.Password) {
		httpx.Problem(w, http.StatusConflict, "Duplicate", "email already exists")
		return
	}
	u, _ := h.manager.CurrentUser()
	httpx.JSON(w, http.StatusCreated, viewOf(u))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.manager.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	if h.manager.IsLoading() {
		httpx.Problem(w, http.StatusServiceUnavailable, "Not Ready", "account state still loading")
		return
	}
	u, ok := h.manager.CurrentUser()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":    viewOf(u),
		"isAdmin": u.IsAdmin,
	})
}

// handleListUsers returns every account except the acting admin's own
// record, so the caller can offer per-user status actions without
// excluding itself.
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireAdmin(w)
	if !ok {
		return
	}
	views := make([]userView, 0, len(snap.AllUsers))
	for _, u := range snap.AllUsers {
		if u.ID == snap.CurrentUser.ID {
			continue
		}
		views = append(views, viewOf(u))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w); !ok {
		return
	}
	var form statusForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.manager.UpdateStatus(r.Context(), chi.URLParam(r, "id"), Status(form.Status))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireAdmin(w http.ResponseWriter) (Snapshot, bool) {
	snap := h.manager.Snapshot()
	if snap.IsLoading {
		httpx.Problem(w, http.StatusServiceUnavailable, "Not Ready", "account state still loading")
		return snap, false
	}
	if snap.CurrentUser == nil || !snap.IsAdmin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin access required")
		return snap, false
	}
	return snap, true
}
