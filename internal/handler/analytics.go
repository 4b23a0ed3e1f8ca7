package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/klimaneustart/dialogue-server/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GET /api/v1/analytics
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analyticsService.Compute(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to compute analytics")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
