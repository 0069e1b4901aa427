package analytics

import (
	"encoding/csv"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gymtrack/gymtrack/internal/account"
	"github.com/gymtrack/gymtrack/internal/platform/httpx"
)

// Handler wires HTTP endpoints for workout analytics.
type Handler struct {
	logger  *slog.Logger
	service *Service
	manager *account.Manager
	printer *message.Printer
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, manager *account.Manager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		service: service,
		manager: manager,
		printer: message.NewPrinter(language.English),
	}
}

// MountRoutes registers analytics routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Get("/export.csv", h.handleExportCSV)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireApproved(w)
	if !ok {
		return
	}
	summary, err := h.service.GetSummary(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("build analytics summary", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireApproved(w)
	if !ok {
		return
	}
	summary, err := h.service.GetSummary(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("build analytics summary", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="workout-analytics.csv"`)

	cw := csv.NewWriter(w)
	write := func(record ...string) {
		if err := cw.Write(record); err != nil {
			h.logger.Warn("write csv record", slog.Any("error", err))
		}
	}
	write("section", "label", "value")
	write("total", "workouts", h.printer.Sprintf("%d", summary.TotalWorkouts))
	for _, p := range summary.TypeDistribution {
		write("type_distribution", p.Name, h.printer.Sprintf("%d", p.Value))
	}
	for _, p := range summary.WeeklyVolume {
		write("weekly_volume", p.Name, h.printer.Sprintf("%d", p.Value))
	}
	for _, p := range summary.MonthlyFrequency {
		write("monthly_frequency", p.Name, h.printer.Sprintf("%d", p.Value))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("flush csv", slog.Any("error", err))
	}
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
