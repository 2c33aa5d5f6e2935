package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blurosiere/clinica/internal/metrics"
	"github.com/blurosiere/clinica/internal/middleware"
	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/request"
)

// RequestServiceInterface は相談申込ハンドラーが必要とするサービスインターフェース。
type RequestServiceInterface interface {
	Create(ctx context.Context, in request.CreateInput) (*model.Request, error)
	List(ctx context.Context, psychologistID string) ([]model.Request, error)
	UpdateStatus(ctx context.Context, id string, status model.RequestStatus, notes string) (*model.Request, error)
}

// RequestHandler は相談申込のHTTPハンドラー。申込の作成は未認証でも可能。
type RequestHandler struct {
	service   RequestServiceInterface
	collector metrics.MetricsCollector
}

// NewRequestHandler はRequestHandlerを生成する。collectorはnilでもよい。
func NewRequestHandler(service RequestServiceInterface, collector metrics.MetricsCollector) *RequestHandler {
	return &RequestHandler{service: service, collector: collector}
}

// updateRequestStatusRequest はステータス更新リクエストのボディ。
type updateRequestStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Create は新規相談申込を処理する。公開エンドポイントで、レート制限が掛かる。
// POST /api/requests
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List は相談申込の一覧を返す。?all=true で全心理士分を取得できる。
// GET /api/requests
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
		return
	}

	psychologistID := userID
	if r.URL.Query().Get("all") == "true" {
		psychologistID = ""
	}

	requests, err := h.service.List(r.Context(), psychologistID)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// UpdateStatus は申込の受理・却下を処理する。受理時には患者が作成される。
// PUT /api/requests/{id}/status
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRequestStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, model.RequestStatus(req.Status), req.Notes)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordRequestResolved(string(updated.Status))
	}
	writeJSON(w, http.StatusOK, updated)
}
