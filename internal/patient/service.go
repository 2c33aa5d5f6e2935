// Package patient は患者管理のドメインロジックを提供する。
package patient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/repository"
	"github.com/blurosiere/clinica/internal/security"
)

// Service は患者管理のサービス層。
type Service struct {
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	sanitizer    security.NoteSanitizerService
	now          func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	sanitizer security.NoteSanitizerService,
) *Service {
	return &Service{
		patients:     patients,
		appointments: appointments,
		sanitizer:    sanitizer,
		now:          time.Now,
	}
}

// View は一覧応答用の患者表現。
// TotalSessions は保存される値ではなく、予約コレクションから都度導出する。
type View struct {
	model.Patient
	TotalSessions int `json:"totalSessions"`
}

// List は担当心理士の患者一覧を返す。
// 各患者のTotalSessionsには完了済みセッション数を載せる。
func (s *Service) List(ctx context.Context, psychologistID string) ([]View, error) {
	patients, err := s.patients.ListByPsychologist(ctx, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("患者一覧の取得に失敗しました: %w", err)
	}
	appointments, err := s.appointments.ListByPsychologist(ctx, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}

	completed := make(map[string]int)
	for _, a := range appointments {
		if a.Status == model.AppointmentStatusCompleted {
			completed[a.PatientID]++
		}
	}

	views := make([]View, 0, len(patients))
	for _, p := range patients {
		views = append(views, View{
			Patient:       p,
			TotalSessions: completed[p.ID],
		})
	}
	return views, nil
}

// CreateInput は患者作成の入力。
type CreateInput struct {
	Name           string              `json:"name"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone"`
	BirthDate      string              `json:"birthDate"`
	Status         model.PatientStatus `json:"status"`
	PsychologistID string              `json:"-"` // 認証済みユーザーから設定する
}

func (in CreateInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return model.NewValidationError("name is required")
	case strings.TrimSpace(in.Email) == "":
		return model.NewValidationError("email is required")
	case in.Status != "" && !in.Status.Valid():
		return model.NewValidationError("status must be active, inactive or in_treatment")
	}
	return nil
}

// Create は担当心理士の下に患者を登録する。年齢は生年月日から導出する。
// 同一心理士の下の同じメールアドレスはDUPLICATE_PATIENTで拒否される。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Patient, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	patient := &model.Patient{
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		Phone:          in.Phone,
		BirthDate:      in.BirthDate,
		Age:            model.CalculateAge(in.BirthDate, s.now()),
		Status:         in.Status,
		PsychologistID: in.PsychologistID,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}

	slog.Info("patient created",
		slog.String("patient_id", patient.ID),
		slog.String("psychologist_id", patient.PsychologistID),
	)
	return patient, nil
}

// UpdateStatus は患者のステータスを変更する。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.PatientStatus) (*model.Patient, error) {
	if !status.Valid() {
		return nil, model.NewValidationError("status must be active, inactive or in_treatment")
	}

	updated, err := s.patients.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("患者ステータスの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("patient", id)
	}
	return updated, nil
}

// AddNote は患者カルテへメモを追記する。本文は保存前にサニタイズされる。
func (s *Service) AddNote(ctx context.Context, id, text string) (*model.Patient, error) {
	clean := s.sanitizer.Sanitize(text)
	if clean == "" {
		return nil, model.NewValidationError("note text is required")
	}

	updated, err := s.patients.AppendNote(ctx, id, model.PatientNote{
		Text:      clean,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("カルテメモの追記に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("patient", id)
	}

	slog.Info("patient note added", slog.String("patient_id", id))
	return updated, nil
}
