package handler

import (
	"context"
	"net/http"

	"github.com/blurosiere/clinica/internal/middleware"
	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/report"
)

// ReportServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	Summarize(ctx context.Context, psychologistID string) (*report.Summary, error)
}

// ReportHandler はダッシュボード集計のHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// Summary は認証済み心理士の集計レポートを返す。
// GET /api/reports
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
		return
	}

	summary, err := h.service.Summarize(r.Context(), userID)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
