package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator は新規レコードの識別子採番を抽象化する。
// 実運用はUUIDv4、テストでは決定的なシーケンスを注入する。
type IDGenerator interface {
	// NewID は新しい識別子を返す。
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

// NewUUIDGenerator はUUIDv4ベースのIDGeneratorを返す。
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

// SequenceIDGenerator は連番ベースの決定的なIDGenerator。テスト用。
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceIDGenerator は指定プレフィックスの連番ジェネレーターを生成する。
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

// NewID は prefix-1, prefix-2, ... の形式で識別子を返す。
func (g *SequenceIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}

// Delays は疑似バックエンドの往復遅延を表す。
// モックモードでは読み取り500ms・書き込み1000msを既定とし、
// テストではゼロ値（遅延なし）を使用する。
type Delays struct {
	Read  time.Duration
	Write time.Duration
}

// DefaultDelays はモックモードの既定遅延を返す。
func DefaultDelays() Delays {
	return Delays{
		Read:  500 * time.Millisecond,
		Write: 1000 * time.Millisecond,
	}
}

// waitRead は読み取り遅延をシミュレートする。コンテキスト打ち切りに追従する。
func (d Delays) waitRead(ctx context.Context) error {
	return wait(ctx, d.Read)
}

// waitWrite は書き込み遅延をシミュレートする。コンテキスト打ち切りに追従する。
func (d Delays) waitWrite(ctx context.Context) error {
	return wait(ctx, d.Write)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options はKVリポジトリの共通設定。ゼロ値で妥当なデフォルトが使われる。
type Options struct {
	IDs    IDGenerator      // nilの場合はUUIDv4
	Delays Delays           // ゼロ値は遅延なし
	Now    func() time.Time // nilの場合はtime.Now
}

func (o Options) withDefaults() Options {
	if o.IDs == nil {
		o.IDs = NewUUIDGenerator()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
