package workouts

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gymtrack/gymtrack/internal/account"
	"github.com/gymtrack/gymtrack/internal/platform/httpx"
)

// Handler wires HTTP endpoints for workout logging. Every route requires
// an approved (or admin) active session.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	manager   *account.Manager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, manager *account.Manager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		manager:   manager,
		validator: validator.New(),
	}
}

// MountRoutes registers workout routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/recent", h.handleRecent)
	r.Post("/", h.handleCreate)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type logForm struct {
	Date  time.Time `json:"date" validate:"required"`
	Name  string    `json:"workoutName" validate:"required,max=120"`
	Type  string    `json:"type" validate:"required"`
	Sets  int       `json:"sets" validate:"required,min=1,max=10"`
	Reps  int       `json:"reps" validate:"required,min=1,max=50"`
	Notes string    `json:"notes" validate:"max=500"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireApproved(w)
	if !ok {
		return
	}
	logs := h.service.ListByUser(r.Context(), user.ID)
	if logs == nil {
		logs = []WorkoutLog{}
	}
	httpx.JSON(w, http.StatusOK, logs)
}

// handleRecent serves the dashboard's short history view.
func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireApproved(w)
	if !ok {
		return
	}
	n := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			n = parsed
		}
	}
	logs := h.service.Recent(r.Context(), user.ID, n)
	if logs == nil {
		logs = []WorkoutLog{}
	}
	httpx.JSON(w, http.StatusOK, logs)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireApproved(w)
	if !ok {
		return
	}
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), CreateInput{
		UserID: user.ID,
		Date:   form.Date,
		Name:   form.Name,
		Type:   WorkoutType(form.Type),
		Sets:   form.Sets,
		Reps:   form.Reps,
		Notes:  form.Notes,
	})
	if err != nil {
		h.logger.Error("create workout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireApproved(w)
	if !ok {
		return
	}
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	updated := WorkoutLog{
		ID:     chi.URLParam(r, "id"),
		UserID: user.ID,
		Date:   form.Date,
		Name:   form.Name,
		Type:   WorkoutType(form.Type),
		Sets:   form.Sets,
		Reps:   form.Reps,
		Notes:  form.Notes,
	}
	if err := h.service.Update(r.Context(), updated); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireApproved(w)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (logForm, bool) {
	var form logForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return form, false
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return form, false
	}
	if !WorkoutType(form.Type).Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown workout type")
		return form, false
	}
	return form, true
}

func (h *Handler) requireApproved(w http.ResponseWriter) (account.User, bool) {
	if h.manager.IsLoading() {
		httpx.Problem(w, http.StatusServiceUnavailable, "Not Ready", "account state still loading")
		return account.User{}, false
	}
	user, ok := h.manager.CurrentUser()
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return account.User{}, false
	}
	if user.Status != account.StatusApproved && !user.IsAdmin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "account pending approval")
		return account.User{}, false
	}
	return user, true
}
