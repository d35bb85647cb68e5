package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ita004/analytics-engine/pkg/analytics"
	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/httputil"
	"github.com/ita004/analytics-engine/pkg/middleware"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// AnalyticsHandlers answers aggregation queries
type AnalyticsHandlers struct {
	service *analytics.Service
	logger  *observability.Logger
	debug   bool
}

// NewAnalyticsHandlers creates the analytics query handlers
func NewAnalyticsHandlers(service *analytics.Service, logger *observability.Logger, debug bool) *AnalyticsHandlers {
	return &AnalyticsHandlers{service: service, logger: logger, debug: debug}
}

// RegisterRoutes registers the analytics query routes
func (h *AnalyticsHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/summary", h.eventSummary).Methods("POST")
	router.HandleFunc("/user", h.userStats).Methods("POST")
	router.HandleFunc("/dashboard", h.dashboard).Methods("GET")
}

// summaryRequest is the event-summary query body. Dates are whole days,
// inclusive on both ends.
type summaryRequest struct {
	Event     string `json:"event"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	AppID     string `json:"app_id,omitempty"`
}

// userStatsRequest is the user-statistics query body
type userStatsRequest struct {
	UserID string `json:"userId"`
	AppID  string `json:"app_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// parseDay parses a whole-day boundary. The end of a day extends to the
// last instant before the next one.
func parseDay(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// eventSummary handles POST /api/analytics/summary
func (h *AnalyticsHandlers) eventSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	start, err := parseDay(req.StartDate, false)
	if err != nil {
		httputil.WriteAppError(w, apperr.Validation("startDate must be YYYY-MM-DD", map[string]string{"startDate": "invalid"}), h.debug)
		return
	}
	end, err := parseDay(req.EndDate, true)
	if err != nil {
		httputil.WriteAppError(w, apperr.Validation("endDate must be YYYY-MM-DD", map[string]string{"endDate": "invalid"}), h.debug)
		return
	}

	accountID := middleware.ScopedAccountID(r.Context())
	summary, cached, err := h.service.Summary(r.Context(), accountID, storage.SummaryFilter{
		Event:        req.Event,
		Start:        start,
		End:          end,
		CredentialID: req.AppID,
	})
	if err != nil {
		httputil.WriteAppError(w, err, h.debug)
		return
	}

	httputil.WriteCachedData(w, summary, cached)
}

// userStats handles POST /api/analytics/user
func (h *AnalyticsHandlers) userStats(w http.ResponseWriter, r *http.Request) {
	var req userStatsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	accountID := middleware.ScopedAccountID(r.Context())
	stats, cached, err := h.service.UserStats(r.Context(), accountID, storage.UserFilter{
		UserID:       req.UserID,
		CredentialID: req.AppID,
		RecentLimit:  req.Limit,
	})
	if err != nil {
		httputil.WriteAppError(w, err, h.debug)
		return
	}

	httputil.WriteCachedData(w, stats, cached)
}

// dashboard handles GET /api/analytics/dashboard
func (h *AnalyticsHandlers) dashboard(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.ScopedAccountID(r.Context())
	dash, cached, err := h.service.Dashboard(r.Context(), accountID)
	if err != nil {
		httputil.WriteAppError(w, err, h.debug)
		return
	}

	httputil.WriteCachedData(w, dash, cached)
}
