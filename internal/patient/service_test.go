package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/security"
)

// --- モック ---

type mockPatientRepo struct {
	listByPsychologistFn func(ctx context.Context, psychologistID string) ([]model.Patient, error)
	createFn             func(ctx context.Context, patient *model.Patient) error
	updateStatusFn       func(ctx context.Context, id string, status model.PatientStatus) (*model.Patient, error)
	appendNoteFn         func(ctx context.Context, id string, note model.PatientNote) (*model.Patient, error)
}

func (m *mockPatientRepo) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	return nil, nil
}
func (m *mockPatientRepo) FindByEmailAndPsychologist(ctx context.Context, email, psychologistID string) (*model.Patient, error) {
	return nil, nil
}
func (m *mockPatientRepo) ListByPsychologist(ctx context.Context, psychologistID string) ([]model.Patient, error) {
	if m.listByPsychologistFn != nil {
		return m.listByPsychologistFn(ctx, psychologistID)
	}
	return nil, nil
}
func (m *mockPatientRepo) ListByEmail(ctx context.Context, email string) ([]model.Patient, error) {
	return nil, nil
}
func (m *mockPatientRepo) Create(ctx context.Context, patient *model.Patient) error {
	if m.createFn != nil {
		return m.createFn(ctx, patient)
	}
	return nil
}
func (m *mockPatientRepo) UpdateStatus(ctx context.Context, id string, status model.PatientStatus) (*model.Patient, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil, nil
}
func (m *mockPatientRepo) AppendNote(ctx context.Context, id string, note model.PatientNote) (*model.Patient, error) {
	if m.appendNoteFn != nil {
		return m.appendNoteFn(ctx, id, note)
	}
	return nil, nil
}

type mockAppointmentRepo struct {
	listByPsychologistFn func(ctx context.Context, psychologistID string) ([]model.Appointment, error)
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	return nil, nil
}
func (m *mockAppointmentRepo) ListByPsychologist(ctx context.Context, psychologistID string) ([]model.Appointment, error) {
	if m.listByPsychologistFn != nil {
		return m.listByPsychologistFn(ctx, psychologistID)
	}
	return nil, nil
}
func (m *mockAppointmentRepo) ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return nil, nil
}
func (m *mockAppointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	return nil
}
func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	return nil, nil
}
func (m *mockAppointmentRepo) UpdateNotes(ctx context.Context, id, notes, fullReport string) (*model.Appointment, error) {
	return nil, nil
}

func newTestService(patients *mockPatientRepo, appointments *mockAppointmentRepo) *Service {
	return NewService(patients, appointments, security.NewNoteSanitizer())
}

// --- テスト ---

// TestService_List は患者一覧に完了セッション数が導出されることを検証する。
func TestService_List(t *testing.T) {
	patients := &mockPatientRepo{
		listByPsychologistFn: func(ctx context.Context, psychologistID string) ([]model.Patient, error) {
			return []model.Patient{
				{ID: "20", Name: "Maria", PsychologistID: psychologistID},
				{ID: "6", Name: "João", PsychologistID: psychologistID},
			}, nil
		},
	}
	appointments := &mockAppointmentRepo{
		listByPsychologistFn: func(ctx context.Context, psychologistID string) ([]model.Appointment, error) {
			return []model.Appointment{
				{ID: "1", PatientID: "20", Status: model.AppointmentStatusCompleted},
				{ID: "2", PatientID: "20", Status: model.AppointmentStatusCompleted},
				{ID: "3", PatientID: "20", Status: model.AppointmentStatusScheduled},
				{ID: "4", PatientID: "6", Status: model.AppointmentStatusCanceled},
			}, nil
		},
	}
	svc := newTestService(patients, appointments)

	views, err := svc.List(context.Background(), "2")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("List = %d items, want 2", len(views))
	}
	if views[0].TotalSessions != 2 {
		t.Errorf("Maria totalSessions = %d, want 2 (completed only)", views[0].TotalSessions)
	}
	if views[1].TotalSessions != 0 {
		t.Errorf("João totalSessions = %d, want 0", views[1].TotalSessions)
	}
}

// TestService_Create は患者作成時の年齢導出と検証を検証する。
func TestService_Create(t *testing.T) {
	var created *model.Patient
	patients := &mockPatientRepo{
		createFn: func(ctx context.Context, patient *model.Patient) error {
			patient.ID = "30"
			created = patient
			return nil
		},
	}
	svc := newTestService(patients, &mockAppointmentRepo{})
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) }

	patient, err := svc.Create(context.Background(), CreateInput{
		Name:           "  Maria Silva  ",
		Email:          "maria@email.com",
		BirthDate:      "1985-03-10",
		PsychologistID: "2",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if patient.ID != "30" {
		t.Errorf("ID = %q, want 30", patient.ID)
	}
	if created.Name != "Maria Silva" {
		t.Errorf("name = %q, want trimmed", created.Name)
	}
	if created.Age != 41 {
		t.Errorf("derived age = %d, want 41", created.Age)
	}
	if created.PsychologistID != "2" {
		t.Errorf("psychologistId = %q, want 2", created.PsychologistID)
	}
}

// TestService_CreateValidation は入力検証を検証する。
func TestService_CreateValidation(t *testing.T) {
	svc := newTestService(&mockPatientRepo{}, &mockAppointmentRepo{})

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing name", CreateInput{Email: "a@b.com", PsychologistID: "2"}},
		{"missing email", CreateInput{Name: "A", PsychologistID: "2"}},
		{"bad status", CreateInput{Name: "A", Email: "a@b.com", Status: "archived", PsychologistID: "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
				t.Errorf("Create = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

// TestService_CreateDuplicate は重複エラーの伝播を検証する。
func TestService_CreateDuplicate(t *testing.T) {
	patients := &mockPatientRepo{
		createFn: func(ctx context.Context, patient *model.Patient) error {
			return model.NewDuplicatePatientError(patient.Email)
		},
	}
	svc := newTestService(patients, &mockAppointmentRepo{})

	_, err := svc.Create(context.Background(), CreateInput{
		Name:           "A",
		Email:          "dup@email.com",
		PsychologistID: "2",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicatePatient {
		t.Errorf("Create = %v, want DUPLICATE_PATIENT", err)
	}
}

// TestService_UpdateStatus はステータス変更とエラーケースを検証する。
func TestService_UpdateStatus(t *testing.T) {
	patients := &mockPatientRepo{
		updateStatusFn: func(ctx context.Context, id string, status model.PatientStatus) (*model.Patient, error) {
			if id != "20" {
				return nil, nil
			}
			return &model.Patient{ID: id, Status: status}, nil
		},
	}
	svc := newTestService(patients, &mockAppointmentRepo{})

	updated, err := svc.UpdateStatus(context.Background(), "20", model.PatientStatusInTreatment)
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updated.Status != model.PatientStatusInTreatment {
		t.Errorf("status = %s, want in_treatment", updated.Status)
	}

	var apiErr *model.APIError

	_, err = svc.UpdateStatus(context.Background(), "20", "archived")
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("UpdateStatus(bad status) = %v, want INVALID_REQUEST", err)
	}

	_, err = svc.UpdateStatus(context.Background(), "missing", model.PatientStatusActive)
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("UpdateStatus(missing) = %v, want NOT_FOUND", err)
	}
}

// TestService_AddNote はメモ追記時のサニタイズを検証する。
func TestService_AddNote(t *testing.T) {
	var appended model.PatientNote
	patients := &mockPatientRepo{
		appendNoteFn: func(ctx context.Context, id string, note model.PatientNote) (*model.Patient, error) {
			appended = note
			return &model.Patient{ID: id, Notes: []model.PatientNote{note}}, nil
		},
	}
	svc := newTestService(patients, &mockAppointmentRepo{})

	_, err := svc.AddNote(context.Background(), "20", `<p>evolução positiva</p><script>x()</script>`)
	if err != nil {
		t.Fatalf("AddNote returned error: %v", err)
	}
	if appended.Text != "<p>evolução positiva</p>" {
		t.Errorf("sanitized text = %q", appended.Text)
	}

	// サニタイズ後に空になる本文は拒否される
	_, err = svc.AddNote(context.Background(), "20", "<script>x()</script>")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("AddNote(script only) = %v, want INVALID_REQUEST", err)
	}
}
