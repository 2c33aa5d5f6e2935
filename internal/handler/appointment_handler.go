package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blurosiere/clinica/internal/appointment"
	"github.com/blurosiere/clinica/internal/metrics"
	"github.com/blurosiere/clinica/internal/middleware"
	"github.com/blurosiere/clinica/internal/model"
)

// AppointmentServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type AppointmentServiceInterface interface {
	List(ctx context.Context, userID string, userType model.UserType) ([]model.Appointment, error)
	ListByEmail(ctx context.Context, email string) ([]model.Appointment, error)
	Get(ctx context.Context, id string) (*model.Appointment, error)
	Create(ctx context.Context, in appointment.CreateInput) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error)
	Cancel(ctx context.Context, id string) (*model.Appointment, error)
	UpdateNotes(ctx context.Context, id, notes, fullReport string) (*model.Appointment, error)
	AvailableSlots(ctx context.Context, psychologistID, date string) ([]string, error)
}

// AppointmentHandler はセッション予約のHTTPハンドラー。
type AppointmentHandler struct {
	service   AppointmentServiceInterface
	collector metrics.MetricsCollector
}

// NewAppointmentHandler はAppointmentHandlerを生成する。collectorはnilでもよい。
func NewAppointmentHandler(service AppointmentServiceInterface, collector metrics.MetricsCollector) *AppointmentHandler {
	return &AppointmentHandler{
		service:   service,
		collector: collector,
	}
}

// updateAppointmentStatusRequest はステータス更新リクエストのボディ。
type updateAppointmentStatusRequest struct {
	Status string `json:"status"`
}

// updateAppointmentNotesRequest はセッション記録更新リクエストのボディ。
type updateAppointmentNotesRequest struct {
	Notes      string `json:"notes"`
	FullReport string `json:"fullReport"`
}

// List は予約一覧を返す。emailクエリがある場合はメールアドレスで検索し、
// ない場合は認証済みユーザーの種別に応じた一覧を返す。
// GET /api/appointments
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if email := r.URL.Query().Get("email"); email != "" {
		appointments, err := h.service.ListByEmail(r.Context(), email)
		if err != nil {
			middleware.HandleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointments)
		return
	}

	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
		return
	}
	userType, err := middleware.UserTypeFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
		return
	}

	appointments, err := h.service.List(r.Context(), userID, userType)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

// Get は予約の詳細を返す。
// GET /api/appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	appointment, err := h.service.Get(r.Context(), id)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointment)
}

// Create は予約作成を処理する。担当心理士は認証済みユーザーとなる。
// POST /api/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
		return
	}

	var req appointment.CreateInput
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

	if h.collector != nil {
		h.collector.RecordAppointmentCreated()
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateStatus は予約のステータス遷移を処理する。
// PATCH /api/appointments/{id}/status
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateAppointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, model.AppointmentStatus(req.Status))
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}

	h.recordTransition(string(updated.Status))
	writeJSON(w, http.StatusOK, updated)
}

// UpdateNotes はセッションメモと詳細レポートを保存する。
// PUT /api/appointments/{id}/notes
func (h *AppointmentHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateAppointmentNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("invalid JSON body"))
		return
	}

	updated, err := h.service.UpdateNotes(r.Context(), id, req.Notes, req.FullReport)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Cancel は予約をキャンセルする。レコードは削除されず、ステータスのみ変わる。
// DELETE /api/appointments/{id}
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	updated, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}

	h.recordTransition(string(updated.Status))
	writeJSON(w, http.StatusOK, updated)
}

// AvailableSlots は指定日の空き枠を返す。
// psychologistIdクエリが省略された場合は認証済みユーザーの枠を返す。
// GET /api/appointments/slots?date=YYYY-MM-DD&psychologistId=
func (h *AppointmentHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		middleware.WriteErrorResponse(w, model.NewValidationError("date is required"))
		return
	}

	psychologistID := r.URL.Query().Get("psychologistId")
	if psychologistID == "" {
		userID, err := middleware.UserIDFromContext(r.Context())
		if err != nil {
			middleware.WriteErrorResponse(w, model.NewInvalidCredentialsError())
			return
		}
		psychologistID = userID
	}

	slots, err := h.service.AvailableSlots(r.Context(), psychologistID, date)
	if err != nil {
		middleware.HandleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *AppointmentHandler) recordTransition(to string) {
	if h.collector != nil {
		h.collector.RecordAppointmentTransition(to)
	}
}
