package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blurosiere/clinica/internal/model"
	"github.com/blurosiere/clinica/internal/storage"
)

// KVPatientRepo はキーバリューストアを使用した患者リポジトリ。
type KVPatientRepo struct {
	mu     sync.Mutex
	store  storage.Store
	ids    IDGenerator
	delays Delays
	now    func() time.Time
}

// NewKVPatientRepo はKVPatientRepoを生成する。
func NewKVPatientRepo(store storage.Store, opts Options) *KVPatientRepo {
	opts = opts.withDefaults()
	return &KVPatientRepo{
		store:  store,
		ids:    opts.IDs,
		delays: opts.Delays,
		now:    opts.Now,
	}
}

func (r *KVPatientRepo) load(ctx context.Context) []model.Patient {
	raw, ok, err := r.store.Get(ctx, storage.KeyPatients)
	if err != nil || !ok {
		return nil
	}
	var patients []model.Patient
	if err := json.Unmarshal(raw, &patients); err != nil {
		return nil
	}
	return patients
}

func (r *KVPatientRepo) save(ctx context.Context, patients []model.Patient) error {
	raw, err := json.Marshal(patients)
	if err != nil {
		return fmt.Errorf("failed to encode patients collection: %w", err)
	}
	if err := r.store.Set(ctx, storage.KeyPatients, raw); err != nil {
		return fmt.Errorf("failed to persist patients collection: %w", err)
	}
	return nil
}

// FindByID は指定IDの患者を取得する。見つからない場合はnilを返す。
func (r *KVPatientRepo) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	for _, p := range r.load(ctx) {
		if p.ID == id {
			patient := p
			return &patient, nil
		}
	}
	return nil, nil
}

// FindByEmailAndPsychologist はメールアドレスと担当心理士の組で患者を検索する。
func (r *KVPatientRepo) FindByEmailAndPsychologist(ctx context.Context, email, psychologistID string) (*model.Patient, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	for _, p := range r.load(ctx) {
		if strings.EqualFold(p.Email, email) && p.PsychologistID == psychologistID {
			patient := p
			return &patient, nil
		}
	}
	return nil, nil
}

// ListByPsychologist は担当心理士の患者一覧を返す。
func (r *KVPatientRepo) ListByPsychologist(ctx context.Context, psychologistID string) ([]model.Patient, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	var out []model.Patient
	for _, p := range r.load(ctx) {
		if p.PsychologistID == psychologistID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListByEmail はメールアドレスに一致する患者一覧を返す。大文字小文字は区別しない。
func (r *KVPatientRepo) ListByEmail(ctx context.Context, email string) ([]model.Patient, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	var out []model.Patient
	for _, p := range r.load(ctx) {
		if strings.EqualFold(p.Email, email) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create は患者を作成する。
// 同一担当心理士の下の同じメールアドレスはDUPLICATE_PATIENTで拒否し、
// その場合コレクションへの書き込みは一切行わない。
func (r *KVPatientRepo) Create(ctx context.Context, patient *model.Patient) error {
	if err := r.delays.waitWrite(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	patients := r.load(ctx)
	for _, p := range patients {
		if strings.EqualFold(p.Email, patient.Email) && p.PsychologistID == patient.PsychologistID {
			return model.NewDuplicatePatientError(patient.Email)
		}
	}

	if patient.ID == "" {
		patient.ID = r.ids.NewID()
	}
	if patient.Status == "" {
		patient.Status = model.PatientStatusActive
	}
	now := r.now()
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = now
	}
	patient.UpdatedAt = now

	patients = append(patients, *patient)
	return r.save(ctx, patients)
}

// UpdateStatus は患者のステータスを更新して更新後の患者を返す。
func (r *KVPatientRepo) UpdateStatus(ctx context.Context, id string, status model.PatientStatus) (*model.Patient, error) {
	if err := r.delays.waitWrite(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	patients := r.load(ctx)
	for i := range patients {
		if patients[i].ID == id {
			patients[i].Status = status
			patients[i].UpdatedAt = r.now()
			if err := r.save(ctx, patients); err != nil {
				return nil, err
			}
			patient := patients[i]
			return &patient, nil
		}
	}
	return nil, nil
}

// AppendNote は患者カルテへメモを追記して更新後の患者を返す。
func (r *KVPatientRepo) AppendNote(ctx context.Context, id string, note model.PatientNote) (*model.Patient, error) {
	if err := r.delays.waitWrite(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	patients := r.load(ctx)
	for i := range patients {
		if patients[i].ID == id {
			if note.ID == "" {
				note.ID = r.ids.NewID()
			}
			if note.CreatedAt.IsZero() {
				note.CreatedAt = r.now()
			}
			patients[i].Notes = append(patients[i].Notes, note)
			patients[i].UpdatedAt = r.now()
			if err := r.save(ctx, patients); err != nil {
				return nil, err
			}
			patient := patients[i]
			return &patient, nil
		}
	}
	return nil, nil
}
