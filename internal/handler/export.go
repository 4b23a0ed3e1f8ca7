package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/klimaneustart/dialogue-server/internal/export"
	"github.com/klimaneustart/dialogue-server/internal/service"
)

type ExportHandler struct {
	convService      *service.ConversationService
	analyticsService *service.AnalyticsService
}

func NewExportHandler(convService *service.ConversationService, analyticsService *service.AnalyticsService) *ExportHandler {
	return &ExportHandler{convService: convService, analyticsService: analyticsService}
}

// GET /api/v1/export/conversations.xlsx
func (h *ExportHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.convService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list conversations for export")
		writeError(w, err)
		return
	}

	summary, err := h.analyticsService.Compute(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to compute analytics for export")
		writeError(w, err)
		return
	}

	data, err := export.ConversationsWorkbook(convs, summary)
	if err != nil {
		log.Error().Err(err).Msg("failed to render export workbook")
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("conversations-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
