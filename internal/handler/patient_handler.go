package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blurosiere/clinica/internal/middleware"
	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/patient"
)

// PatientServiceInterface は患者ハンドラーが必要とするサービスインターフェース。
type PatientServiceInterface interface {
	List(ctx context.Context, psychologistID string) ([]patient.View, error)
	Create(ctx context.Context, in patient.CreateInput) (*model.Patient, error)
	UpdateStatus(ctx context.Context, id string, status model.PatientStatus) (*model.Patient, error)
	AddNote(ctx context.Context, id, text string) (*model.Patient, error)
}

// PatientHandler は患者管理のHTTPハンドラー。心理士のみがアクセスできる。
type PatientHandler struct {
	service PatientServiceInterface
}

// NewPatientHandler はPatientHandlerを生成する。
func NewPatientHandler(service PatientServiceInterface) *PatientHandler {
	return &PatientHandler{service: service}
}

// updatePatientStatusRequest はステータス更新リクエストのボディ。
type updatePatientStatusRequest struct {
	Status string `json:"status"`
}

// addPatientNoteRequest はカルテメモ追記リクエストのボディ。
type addPatientNoteRequest struct {
	Text string `json:"text"`
}

// List は担当患者の一覧を返す。各患者には完了済みセッション数が付く。
// GET /api/patients
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
		return
	}

	patients, err := h.service.List(r.Context(), userID)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// Create は患者登録を処理する。担当心理士は認証済みユーザーとなる。
// POST /api/patients
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
		return
	}

	var req patient.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}
	req.PsychologistID = userID

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateStatus は患者のステータス変更を処理する。
// PATCH /api/patients/{id}/status
func (h *PatientHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updatePatientStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, model.PatientStatus(req.Status))
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// AddNote は患者カルテへのメモ追記を処理する。
// POST /api/patients/{id}/notes
func (h *PatientHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req addPatientNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}

	updated, err := h.service.AddNote(r.Context(), id, req.Text)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, updated)
}
