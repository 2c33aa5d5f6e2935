package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/storage"
)

// KVAppointmentRepo はキーバリューストアを使用したセッション予約リポジトリ。
// 予約レコードは削除されない。キャンセルはステータス書き込みで表現する。
type KVAppointmentRepo struct {
	mu     sync.Mutex
	store  storage.Store
	ids    IDGenerator
	delays Delays
	now    func() time.Time
}

// NewKVAppointmentRepo はKVAppointmentRepoを生成する。
func NewKVAppointmentRepo(store storage.Store, opts Options) *KVAppointmentRepo {
	opts = opts.withDefaults()
	return &KVAppointmentRepo{
		store:  store,
		ids:    opts.IDs,
		delays: opts.Delays,
		now:    opts.Now,
	}
}

func (r *KVAppointmentRepo) load(ctx context.Context) []model.Appointment {
	raw, ok, err := r.store.Get(ctx, storage.KeyAppointments)
	if err != nil || !ok {
		return nil
	}
	var appointments []model.Appointment
	if err := json.Unmarshal(raw, &appointments); err != nil {
		return nil
	}
	return appointments
}

func (r *KVAppointmentRepo) save(ctx context.Context, appointments []model.Appointment) error {
	raw, err := json.Marshal(appointments)
	if err != nil {
		return fmt.Errorf("failed to encode appointments collection: %w", err)
	}
	if err := r.store.Set(ctx, storage.KeyAppointments, raw); err != nil {
		return fmt.Errorf("failed to persist appointments collection: %w", err)
	}
	return nil
}

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *KVAppointmentRepo) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	for _, a := range r.load(ctx) {
		if a.ID == id {
			appointment := a
			return &appointment, nil
		}
	}
	return nil, nil
}

// ListByPsychologist は担当心理士の予約一覧を返す。
func (r *KVAppointmentRepo) ListByPsychologist(ctx context.Context, psychologistID string) ([]model.Appointment, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	var out []model.Appointment
	for _, a := range r.load(ctx) {
		if a.PsychologistID == psychologistID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListByPatient は患者の予約一覧を返す。
func (r *KVAppointmentRepo) ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	var out []model.Appointment
	for _, a := range r.load(ctx) {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Create は予約を作成する。ステータス未設定の場合はscheduledで初期化する。
func (r *KVAppointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	if err := r.delays.waitWrite(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appointments := r.load(ctx)

	if appointment.ID == "" {
		appointment.ID = r.ids.NewID()
	}
	if appointment.Status == "" {
		appointment.Status = model.AppointmentStatusScheduled
	}
	now := r.now()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now

	appointments = append(appointments, *appointment)
	return r.save(ctx, appointments)
}

// UpdateStatus は予約のステータスを更新して更新後の予約を返す。
func (r *KVAppointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	if err := r.delays.waitWrite(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appointments := r.load(ctx)
	for i := range appointments {
		if appointments[i].ID == id {
			appointments[i].Status = status
			appointments[i].UpdatedAt = r.now()
			if err := r.save(ctx, appointments); err != nil {
				return nil, err
			}
			appointment := appointments[i]
			return &appointment, nil
		}
	}
	return nil, nil
}

// UpdateNotes は予約のセッションメモと詳細レポートのみを更新して更新後の予約を返す。
func (r *KVAppointmentRepo) UpdateNotes(ctx context.Context, id, notes, fullReport string) (*model.Appointment, error) {
	if err := r.delays.waitWrite(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appointments := r.load(ctx)
	for i := range appointments {
		if appointments[i].ID == id {
			appointments[i].Notes = notes
			appointments[i].FullReport = fullReport
			appointments[i].UpdatedAt = r.now()
			if err := r.save(ctx, appointments); err != nil {
				return nil, err
			}
			appointment := appointments[i]
			return &appointment, nil
		}
	}
	return nil, nil
}
