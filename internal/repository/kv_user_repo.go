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

// KVUserRepo はキーバリューストアを使用したユーザーリポジトリ。
// コレクション全体のスナップショットを読み書きし、
// 変更操作は単一のミューテックスで直列化する（単一書き込み所有者方式）。
type KVUserRepo struct {
	mu     sync.Mutex
	store  storage.Store
	ids    IDGenerator
	delays Delays
	now    func() time.Time
}

// NewKVUserRepo はKVUserRepoを生成する。
func NewKVUserRepo(store storage.Store, opts Options) *KVUserRepo {
	opts = opts.withDefaults()
	return &KVUserRepo{
		store:  store,
		ids:    opts.IDs,
		delays: opts.Delays,
		now:    opts.Now,
	}
}

// load はユーザーコレクションのスナップショットを読み込む。
// キー不在・パース失敗は空コレクションとして扱う（フォールバック）。
func (r *KVUserRepo) load(ctx context.Context) []model.User {
	raw, ok, err := r.store.Get(ctx, storage.KeyUsers)
	if err != nil || !ok {
		return nil
	}
	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil
	}
	return users
}

func (r *KVUserRepo) save(ctx context.Context, users []model.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode users collection: %w", err)
	}
	if err := r.store.Set(ctx, storage.KeyUsers, raw); err != nil {
		return fmt.Errorf("failed to persist users collection: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *KVUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	for _, u := range r.load(ctx) {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *KVUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	for _, u := range r.load(ctx) {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// ListPsychologists は心理士ユーザーの一覧を返す。
func (r *KVUserRepo) ListPsychologists(ctx context.Context) ([]model.User, error) {
	if err := r.delays.waitRead(ctx); err != nil {
		return nil, err
	}
	var out []model.User
	for _, u := range r.load(ctx) {
		if u.Type == model.UserTypePsychologist {
			out = append(out, u)
		}
	}
	return out, nil
}

// Create はユーザーを作成する。メールアドレスの重複はDUPLICATE_USERで拒否する。
func (r *KVUserRepo) Create(ctx context.Context, user *model.User) error {
	if err := r.delays.waitWrite(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.load(ctx)
	for _, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.NewDuplicateUserError(user.Email)
		}
	}

	if user.ID == "" {
		user.ID = r.ids.NewID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}

	users = append(users, *user)
	return r.save(ctx, users)
}
