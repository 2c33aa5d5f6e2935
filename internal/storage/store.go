// Package storage はローカルのキーバリューストアへの永続化を提供する。
//
// コレクション全体のスナップショットをJSONエンコードして既知のキー配下に
// 読み書きする。リポジトリ層はストアへ直接アクセスせず、本パッケージの
// Storeインターフェースを経由する。
package storage

import "context"

// 永続化されるコレクションの既知キー。
const (
	KeyUsers        = "blurosiere_users"
	KeyPatients     = "blurosiere_patients"
	KeyAppointments = "blurosiere_appointments"
	KeyRequests     = "blurosiere_requests"
)

// Store は文字列キーのバイト列ストアを抽象化する。
// 実装はMemoryStore（テスト・一時実行用）とFileStore（ローカルファイル）。
type Store interface {
	// Get は指定キーの値を返す。キーが存在しない場合は ok=false を返す。
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set は指定キーへ値を書き込む。既存値は無条件に上書きされる。
	Set(ctx context.Context, key string, value []byte) error
}
