// Package appointment はセッション予約のドメインロジックを提供する。
package appointment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/repository"
	"github.com/blurosiere/clinica/internal/security"
)

// slotGrid は1日の予約可能枠。昼休みの12時台・13時台は除く。
var slotGrid = []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}

// Service はセッション予約のサービス層。
// ステータス遷移の妥当性検証はここで行い、リポジトリは保存に徹する。
type Service struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	sanitizer    security.NoteSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	sanitizer security.NoteSanitizerService,
) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		sanitizer:    sanitizer,
	}
}

// List は利用者種別に応じた予約一覧を返す。
// 心理士は担当予約、患者は自身の予約を参照する。
func (s *Service) List(ctx context.Context, userID string, userType model.UserType) ([]model.Appointment, error) {
	var (
		appointments []model.Appointment
		err          error
	)
	if userType == model.UserTypePsychologist {
		appointments, err = s.appointments.ListByPsychologist(ctx, userID)
	} else {
		appointments, err = s.appointments.ListByPatient(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	return appointments, nil
}

// ListByEmail はメールアドレスに紐づく患者の予約一覧を返す。
// 同じメールアドレスが複数の心理士の下に登録されている場合は全件をまとめる。
func (s *Service) ListByEmail(ctx context.Context, email string) ([]model.Appointment, error) {
	patients, err := s.patients.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("患者の検索に失敗しました: %w", err)
	}

	out := make([]model.Appointment, 0)
	for _, p := range patients {
		appointments, err := s.appointments.ListByPatient(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
		}
		out = append(out, appointments...)
	}
	return out, nil
}

// Get は指定IDの予約を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Appointment, error) {
	appointment, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if appointment == nil {
		return nil, model.NewNotFoundError("appointment", id)
	}
	return appointment, nil
}

// CreateInput は予約作成の入力。
type CreateInput struct {
	PatientID      string `json:"patientId"`
	Date           string `json:"date"` // YYYY-MM-DD
	Time           string `json:"time"` // HH:MM
	Description    string `json:"description"`
	Duration       int    `json:"duration"`
	PsychologistID string `json:"-"` // 認証済みユーザーから設定する
}

func (in CreateInput) validate() error {
	switch {
	case in.PatientID == "":
		return model.NewValidationError("patientId is required")
	case in.Date == "":
		return model.NewValidationError("date is required")
	case in.Time == "":
		return model.NewValidationError("time is required")
	case in.Duration < 0:
		return model.NewValidationError("duration must be positive")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return model.NewValidationError("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", in.Time); err != nil {
		return model.NewValidationError("time must be HH:MM")
	}
	return nil
}

// Create は新しい予約を登録する。ステータスはscheduledで初期化され、
// 時間未指定の場合のセッション時間は50分となる。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Appointment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	duration := in.Duration
	if duration == 0 {
		duration = 50
	}
	appointment := &model.Appointment{
		PatientID:      in.PatientID,
		PsychologistID: in.PsychologistID,
		Date:           in.Date,
		Time:           in.Time,
		Description:    in.Description,
		Duration:       duration,
		Status:         model.AppointmentStatusScheduled,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, err
	}

	slog.Info("appointment created",
		slog.String("appointment_id", appointment.ID),
		slog.String("psychologist_id", appointment.PsychologistID),
		slog.String("date", appointment.Date),
		slog.String("time", appointment.Time),
	)
	return appointment, nil
}

// UpdateStatus は予約のステータスを遷移させる。
// 遷移表にない組み合わせはINVALID_TRANSITIONで拒否され、他のフィールドは変更されない。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, model.NewValidationError("unknown appointment status")
	}

	current, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if current == nil {
		return nil, model.NewNotFoundError("appointment", id)
	}
	if !current.Status.CanTransition(status) {
		// 終端状態への変更要求は古い画面からの操作を示唆するので記録する
		if current.Status.Terminal() {
			slog.Warn("status change attempted on terminal appointment",
				slog.String("appointment_id", id),
				slog.String("status", string(current.Status)),
			)
		}
		return nil, model.NewInvalidTransitionError(string(current.Status), string(status))
	}

	updated, err := s.appointments.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("予約ステータスの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("appointment", id)
	}

	slog.Info("appointment status updated",
		slog.String("appointment_id", id),
		slog.String("from", string(current.Status)),
		slog.String("to", string(status)),
	)
	return updated, nil
}

// Cancel は予約をキャンセルする。レコードは削除せず、ステータスのみを書き換える。
func (s *Service) Cancel(ctx context.Context, id string) (*model.Appointment, error) {
	return s.UpdateStatus(ctx, id, model.AppointmentStatusCanceled)
}

// UpdateNotes はセッションメモと詳細レポートを保存する。
// いずれも保存前にサニタイズされる。
func (s *Service) UpdateNotes(ctx context.Context, id, notes, fullReport string) (*model.Appointment, error) {
	updated, err := s.appointments.UpdateNotes(ctx, id, s.sanitizer.Sanitize(notes), s.sanitizer.Sanitize(fullReport))
	if err != nil {
		return nil, fmt.Errorf("セッション記録の更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("appointment", id)
	}
	return updated, nil
}

// AvailableSlots は指定日の空き枠を返す。
// 固定グリッドから、その日のscheduledの予約が入っている時刻を除く。
// 開始済み・完了済みの予約は枠を塞がない（その枠のセッションは既に消化されている）。
func (s *Service) AvailableSlots(ctx context.Context, psychologistID, date string) ([]string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, model.NewValidationError("date must be YYYY-MM-DD")
	}

	appointments, err := s.appointments.ListByPsychologist(ctx, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}

	occupied := make(map[string]bool)
	for _, a := range appointments {
		if a.Date == date && a.Status == model.AppointmentStatusScheduled {
			occupied[a.Time] = true
		}
	}

	slots := make([]string, 0, len(slotGrid))
	for _, slot := range slotGrid {
		if !occupied[slot] {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}
