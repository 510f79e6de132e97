package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/attendance-engine/pkg/services"
)

// DashboardHandler exposes the dashboard statistics endpoints.
type DashboardHandler struct {
	dashboard services.DashboardService
	logger    *zap.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dashboard services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger.Named("dashboard_handler"),
	}
}

// RegisterRoutes registers the dashboard routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboard/stats", h.Stats)
	mux.HandleFunc("GET /api/dashboard/activities", h.Activities)
	mux.HandleFunc("GET /api/dashboard/streams/stats", h.StreamStats)
	mux.HandleFunc("GET /api/dashboard/attendance/stats", h.AttendanceStats)
	mux.HandleFunc("GET /api/dashboard/summary", h.Summary)
	mux.HandleFunc("GET /api/dashboard/health", h.Health)
}

// Stats handles GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		h.fail(w, "dashboard stats", err)
		return
	}

	h.ok(w, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

// Activities handles GET /api/dashboard/activities.
func (h *DashboardHandler) Activities(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	activities, err := h.dashboard.Activities(r.Context(), limit)
	if err != nil {
		h.fail(w, "activities", err)
		return
	}

	h.ok(w, map[string]any{
		"success":    true,
		"activities": activities,
		"count":      len(activities),
	})
}

// StreamStats handles GET /api/dashboard/streams/stats.
func (h *DashboardHandler) StreamStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.StreamStats(r.Context())
	if err != nil {
		h.fail(w, "stream stats", err)
		return
	}

	h.ok(w, map[string]any{
		"success":      true,
		"streamStats":  stats,
		"totalStreams": len(stats),
	})
}

// AttendanceStats handles GET /api/dashboard/attendance/stats.
func (h *DashboardHandler) AttendanceStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	stats, err := h.dashboard.AttendanceStats(r.Context(), query.Get("startDate"), query.Get("endDate"))
	if err != nil {
		h.fail(w, "attendance stats", err)
		return
	}

	h.ok(w, map[string]any{
		"success":         true,
		"attendanceStats": stats,
	})
}

// Summary handles GET /api/dashboard/summary.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Summary(r.Context())
	if err != nil {
		h.fail(w, "summary", err)
		return
	}

	h.ok(w, map[string]any{
		"success":   true,
		"summary":   summary,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health handles GET /api/dashboard/health.
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	database := "Connected"
	if err := h.dashboard.Ping(r.Context()); err != nil {
		database = "Disconnected"
	}

	h.ok(w, map[string]any{
		"success":   true,
		"message":   "Dashboard API is running",
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *DashboardHandler) ok(w http.ResponseWriter, payload map[string]any) {
	if err := WriteJSON(w, http.StatusOK, payload); err != nil {
		h.logger.Error("failed to encode dashboard response", zap.Error(err))
	}
}

func (h *DashboardHandler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error("dashboard request failed", zap.String("op", op), zap.Error(err))
	if err := ErrorResponse(w, http.StatusInternalServerError, err.Error()); err != nil {
		h.logger.Error("failed to encode error response", zap.Error(err))
	}
}
