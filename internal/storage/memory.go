package storage

import (
	"context"
	"sync"
)

// MemoryStore はメモリ上のキーバリューストア。
// テストで隔離されたストアを注入するために使用する。プロセス終了で消える。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get は指定キーの値を返す。
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	// 呼び出し側での変更から内部状態を守るためコピーを返す
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set は指定キーへ値を書き込む。
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}
