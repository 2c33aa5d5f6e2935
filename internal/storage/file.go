package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore はディスク上の単一JSONドキュメントに全キーを保持するストア。
// ブラウザのローカルストレージに相当する永続化先で、Setごとに
// ドキュメント全体を一時ファイル経由でアトミックに書き換える。
// 部分書き込みは発生しない（書き換えが完了するか、元のまま残るかのどちらか）。
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// OpenFileStore は指定パスのストアファイルを開く。
// ファイルが存在しない場合は空のストアとして初期化する。
// ファイルのパースに失敗した場合はエラーを返す（黙って空にはしない）。
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
	}
	return s, nil
}

// Path はストアファイルのパスを返す。バックアップジョブが参照する。
func (s *FileStore) Path() string {
	return s.path
}

// Get は指定キーの値を返す。
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set は指定キーへ値を書き込み、ドキュメント全体をディスクへ反映する。
// ディスクへの反映に失敗した場合はメモリ上の値も元に戻し、
// 書き換えが完了するか元のまま残るかのどちらかに保つ。
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.data[key]

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = json.RawMessage(v)

	if err := s.flushLocked(); err != nil {
		if existed {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// flushLocked はストア全体をアトミックにディスクへ書き出す。
// 呼び出し側がmuを保持していること。
func (s *FileStore) flushLocked() error {
	doc, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
