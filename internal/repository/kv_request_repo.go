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

// KVRequestRepo はキーバリューストアを使用したセッション依頼リポジトリ。
type KVRequestRepo struct {
	mu     sync.Mutex
	store  storage.Store
	ids    IDGenerator
	delays Delays
	now    func() time.Time
}

// NewKVRequestRepo はKVRequestRepoを生成する。
func NewKVRequestRepo(store storage.Store, opts Options) *KVRequestRepo {
	opts = opts.withDefaults()
	return &KVRequestRepo{
		store:  store,
		ids:    opts.IDs,
		delays: opts.Delays,
		now:    opts.Now,
	}
}

func (r *KVRequestRepo) load(ctx context.Context) []model.Request {
	raw, ok, err := r.store.Get(ctx, storage.KeyRequests)
	if err != nil || !ok {
		return nil
	}
	var requests []model.Request
	if err := json.Unmarshal(raw, &requests); err != nil {
		return nil
	}
	return requests
}

func (r *KVRequestRepo) save(ctx context.Context, requests []model.Request) error {
	raw, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("failed to encode requests collection: %w", err)
	}
	if err := r.store.Set(ctx, storage.KeyRequests, raw); err != nil {
		return fmt.Errorf("failed to persist requests collection: %w", err)
	}
	return nil
}

// FindByID は指定IDの依頼を取得する。見つからない場合はnilを返す。
func (r *KVRequestRepo) FindByID(ctx context.Context, id string) (*model.Request, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	for _, req := range r.load(ctx) {
		if req.ID == id {
			request := req
			return &request, nil
		}
	}
	return nil, nil
}

// List は依頼一覧を返す。preferredPsychologistが空の場合は全件を返す。
func (r *KVRequestRepo) List(ctx context.Context, preferredPsychologist string) ([]model.Request, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	var out []model.Request
	for _, req := range r.load(ctx) {
		if preferredPsychologist == "" || req.PreferredPsychologist == preferredPsychologist {
			out = append(out, req)
		}
	}
	return out, nil
}

// Create は依頼を作成する。ステータス未設定の場合はpendingで初期化する。
// 同じメールアドレスから同じ心理士への保留中依頼が既に存在する場合は
// DUPLICATE_REQUESTで拒否し、コレクションを変更しない。
func (r *KVRequestRepo) Create(ctx context.Context, request *model.Request) error {
	if err := r.delays.waitWrite(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	requests := r.load(ctx)
	for _, req := range requests {
		if strings.EqualFold(req.PatientEmail, request.PatientEmail) &&
			req.PreferredPsychologist == request.PreferredPsychologist &&
			req.Status == model.RequestStatusPending {
			return model.NewDuplicateRequestError()
		}
	}

	if request.ID == "" {
		request.ID = r.ids.NewID()
	}
	if request.Status == "" {
		request.Status = model.RequestStatusPending
	}
	now := r.now()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	requests = append(requests, *request)
	return r.save(ctx, requests)
}

// UpdateStatus は依頼のステータスと対応メモを更新して更新後の依頼を返す。
func (r *KVRequestRepo) UpdateStatus(ctx context.Context, id string, status model.RequestStatus, notes string) (*model.Request, error) {
	if err := r.delays.waitWrite(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	requests := r.load(ctx)
	for i := range requests {
		if requests[i].ID == id {
			requests[i].Status = status
			requests[i].Notes = notes
			requests[i].UpdatedAt = r.now()
			if err := r.save(ctx, requests); err != nil {
				return nil, err
			}
			request := requests[i]
			return &request, nil
		}
	}
	return nil, nil
}
