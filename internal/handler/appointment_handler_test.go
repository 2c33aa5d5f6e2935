package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/blurosiere/clinica/internal/appointment"
	"github.com/blurosiere/clinica/internal/middleware"
	"github.com/blurosiere/clinica/internal/model"
)

type mockAppointmentService struct {
	listFn           func(ctx context.Context, userID string, userType model.UserType) ([]model.Appointment, error)
	listByEmailFn    func(ctx context.Context, email string) ([]model.Appointment, error)
	getFn            func(ctx context.Context, id string) (*model.Appointment, error)
	createFn         func(ctx context.Context, in appointment.CreateInput) (*model.Appointment, error)
	updateStatusFn   func(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error)
	cancelFn         func(ctx context.Context, id string) (*model.Appointment, error)
	updateNotesFn    func(ctx context.Context, id, notes, fullReport string) (*model.Appointment, error)
	availableSlotsFn func(ctx context.Context, psychologistID, date string) ([]string, error)
}

func (m *mockAppointmentService) List(ctx context.Context, userID string, userType model.UserType) ([]model.Appointment, error) {
	return m.listFn(ctx, userID, userType)
}

func (m *mockAppointmentService) ListByEmail(ctx context.Context, email string) ([]model.Appointment, error) {
	return m.listByEmailFn(ctx, email)
}

func (m *mockAppointmentService) Get(ctx context.Context, id string) (*model.Appointment, error) {
	return m.getFn(ctx, id)
}

func (m *mockAppointmentService) Create(ctx context.Context, in appointment.CreateInput) (*model.Appointment, error) {
	return m.createFn(ctx, in)
}

func (m *mockAppointmentService) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	return m.updateStatusFn(ctx, id, status)
}

func (m *mockAppointmentService) Cancel(ctx context.Context, id string) (*model.Appointment, error) {
	return m.cancelFn(ctx, id)
}

func (m *mockAppointmentService) UpdateNotes(ctx context.Context, id, notes, fullReport string) (*model.Appointment, error) {
	return m.updateNotesFn(ctx, id, notes, fullReport)
}

func (m *mockAppointmentService) AvailableSlots(ctx context.Context, psychologistID, date string) ([]string, error) {
	return m.availableSlotsFn(ctx, psychologistID, date)
}

func authedRequest(method, target string, body string, userID string, userType model.UserType) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUser(req.Context(), userID, userType))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAppointmentHandler_List_AsPsychologist(t *testing.T) {
	service := &mockAppointmentService{
		listFn: func(ctx context.Context, userID string, userType model.UserType) ([]model.Appointment, error) {
			if userID != "2" || userType != model.UserTypePsychologist {
				t.Errorf("unexpected identity: %s / %s", userID, userType)
			}
			return []model.Appointment{{ID: "a1"}, {ID: "a2"}}, nil
		},
	}
	handler := NewAppointmentHandler(service, nil)

	req := authedRequest(http.MethodGet, "/api/appointments", "", "2", model.UserTypePsychologist)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var appointments []model.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&appointments); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(appointments) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appointments))
	}
}

func TestAppointmentHandler_List_ByEmail(t *testing.T) {
	service := &mockAppointmentService{
		listByEmailFn: func(ctx context.Context, email string) ([]model.Appointment, error) {
			if email != "maria.santos@email.com" {
				t.Errorf("expected email query to reach service, got %s", email)
			}
			return []model.Appointment{{ID: "a1"}}, nil
		},
	}
	handler := NewAppointmentHandler(service, nil)

	req := authedRequest(http.MethodGet, "/api/appointments?email=maria.santos@email.com", "", "5", model.UserTypePatient)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestAppointmentHandler_List_NoUser_Returns401(t *testing.T) {
	handler := NewAppointmentHandler(&mockAppointmentService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAppointmentHandler_Get_NotFound(t *testing.T) {
	service := &mockAppointmentService{
		getFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return nil, model.NewNotFoundError("予約", id)
		},
	}
	handler := NewAppointmentHandler(service, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/appointments/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestAppointmentHandler_Create_SetsPsychologistFromContext(t *testing.T) {
	collector := &fakeCollector{}
	service := &mockAppointmentService{
		createFn: func(ctx context.Context, in appointment.CreateInput) (*model.Appointment, error) {
			if in.PsychologistID != "2" {
				t.Errorf("expected psychologistID from context, got %s", in.PsychologistID)
			}
			if in.PatientID != "p1" || in.Date != "2026-09-10" || in.Time != "14:00" {
				t.Errorf("unexpected input: %+v", in)
			}
			return &model.Appointment{ID: "a9", Status: model.AppointmentStatusScheduled}, nil
		},
	}
	handler := NewAppointmentHandler(service, collector)

	body := `{"patientId":"p1","date":"2026-09-10","time":"14:00","description":"Sessão inicial"}`
	req := authedRequest(http.MethodPost, "/api/appointments", body, "2", model.UserTypePsychologist)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if collector.appointmentsCreated != 1 {
		t.Errorf("expected 1 created appointment recorded, got %d", collector.appointmentsCreated)
	}
}

func TestAppointmentHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	service := &mockAppointmentService{
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
			return nil, model.NewInvalidTransitionError("completed", string(status))
		},
	}
	handler := NewAppointmentHandler(service, nil)

	req := withURLParam(
		authedRequest(http.MethodPatch, "/api/appointments/a1/status", `{"status":"started"}`, "2", model.UserTypePsychologist),
		"id", "a1",
	)
	rec := httptest.NewRecorder()

	handler.UpdateStatus(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestAppointmentHandler_UpdateStatus_RecordsTransition(t *testing.T) {
	collector := &fakeCollector{}
	service := &mockAppointmentService{
		updateStatusFn: func(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
			return &model.Appointment{ID: id, Status: status}, nil
		},
	}
	handler := NewAppointmentHandler(service, collector)

	req := withURLParam(
		authedRequest(http.MethodPatch, "/api/appointments/a1/status", `{"status":"completed"}`, "2", model.UserTypePsychologist),
		"id", "a1",
	)
	rec := httptest.NewRecorder()

	handler.UpdateStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(collector.transitions) != 1 || collector.transitions[0] != "completed" {
		t.Errorf("expected completed transition recorded, got %v", collector.transitions)
	}
}

func TestAppointmentHandler_Cancel_ReturnsUpdatedRecord(t *testing.T) {
	service := &mockAppointmentService{
		cancelFn: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, Status: model.AppointmentStatusCanceled}, nil
		},
	}
	handler := NewAppointmentHandler(service, nil)

	req := withURLParam(
		authedRequest(http.MethodDelete, "/api/appointments/a1", "", "2", model.UserTypePsychologist),
		"id", "a1",
	)
	rec := httptest.NewRecorder()

	handler.Cancel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var updated model.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Status != model.AppointmentStatusCanceled {
		t.Errorf("expected canceled status, got %s", updated.Status)
	}
}

func TestAppointmentHandler_UpdateNotes(t *testing.T) {
	service := &mockAppointmentService{
		updateNotesFn: func(ctx context.Context, id, notes, fullReport string) (*model.Appointment, error) {
			if notes != "resumo" || fullReport != "relatório completo" {
				t.Errorf("unexpected notes: %q / %q", notes, fullReport)
			}
			return &model.Appointment{ID: id, Notes: notes, FullReport: fullReport}, nil
		},
	}
	handler := NewAppointmentHandler(service, nil)

	body := `{"notes":"resumo","fullReport":"relatório completo"}`
	req := withURLParam(
		authedRequest(http.MethodPut, "/api/appointments/a1/notes", body, "2", model.UserTypePsychologist),
		"id", "a1",
	)
	rec := httptest.NewRecorder()

	handler.UpdateNotes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestAppointmentHandler_AvailableSlots_RequiresDate(t *testing.T) {
	handler := NewAppointmentHandler(&mockAppointmentService{}, nil)

	req := authedRequest(http.MethodGet, "/api/appointments/slots", "", "2", model.UserTypePsychologist)
	rec := httptest.NewRecorder()

	handler.AvailableSlots(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestAppointmentHandler_AvailableSlots_DefaultsToContextUser(t *testing.T) {
	service := &mockAppointmentService{
		availableSlotsFn: func(ctx context.Context, psychologistID, date string) ([]string, error) {
			if psychologistID != "2" {
				t.Errorf("expected psychologistID from context, got %s", psychologistID)
			}
			if date != "2026-09-10" {
				t.Errorf("unexpected date: %s", date)
			}
			return []string{"09:00", "10:00"}, nil
		},
	}
	handler := NewAppointmentHandler(service, nil)

	req := authedRequest(http.MethodGet, "/api/appointments/slots?date=2026-09-10", "", "2", model.UserTypePsychologist)
	rec := httptest.NewRecorder()

	handler.AvailableSlots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var slots []string
	if err := json.NewDecoder(rec.Body).Decode(&slots); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
}
