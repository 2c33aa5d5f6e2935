// Package snapshot はストアファイルの定期バックアップジョブを提供する。
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/blurosiere/clinica/internal/metrics"
)

const backupPrefix = "clinica-"

// Job はストアファイルをバックアップディレクトリへコピーするジョブ。
// バックアップは世代管理され、保持数を超えた古い世代は削除される。
type Job struct {
	sourcePath string
	backupDir  string
	retention  int
	collector  metrics.MetricsCollector
	logger     *slog.Logger
	now        func() time.Time
}

// NewJob はバックアップジョブを生成する。collectorはnilでもよい。
func NewJob(sourcePath, backupDir string, retention int, collector metrics.MetricsCollector, logger *slog.Logger) *Job {
	return &Job{
		sourcePath: sourcePath,
		backupDir:  backupDir,
		retention:  retention,
		collector:  collector,
		logger:     logger,
		now:        time.Now,
	}
}

// Run はバックアップを1回実行する。
// ストアファイル全体をタイムスタンプ付きのファイル名でコピーし、
// 保持数を超えた古い世代を削除する。
func (j *Job) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := j.backup()
	j.record(err == nil)
	if err != nil {
		j.logger.Error("snapshot backup failed", slog.String("error", err.Error()))
		return err
	}

	if err := j.prune(); err != nil {
		j.logger.Warn("backup pruning failed", slog.String("error", err.Error()))
	}
	return nil
}

// Start はcronスケジュールに従ってバックアップを定期実行する。
// ctxがキャンセルされるまでブロックする。
func (j *Job) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := j.Run(context.Background()); err != nil {
			j.logger.Error("scheduled backup failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}

	c.Start()
	j.logger.Info("backup scheduler started",
		slog.String("schedule", schedule),
		slog.String("backup_dir", j.backupDir),
	)

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

func (j *Job) backup() error {
	data, err := os.ReadFile(j.sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	if err := os.MkdirAll(j.backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	// タイムスタンプ形式は辞書順＝時系列順になるので、世代管理はファイル名ソートで足りる
	name := fmt.Sprintf("%s%s.json", backupPrefix, j.now().Format("20060102-150405"))
	dest := filepath.Join(j.backupDir, name)

	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	j.logger.Info("snapshot backup written",
		slog.String("path", dest),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// prune は保持数を超えた古いバックアップ世代を削除する。
func (j *Job) prune() error {
	if j.retention <= 0 {
		return nil
	}

	entries, err := os.ReadDir(j.backupDir)
	if err != nil {
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), ".json") {
			backups = append(backups, e.Name())
		}
	}
	if len(backups) <= j.retention {
		return nil
	}

	sort.Strings(backups)
	for _, name := range backups[:len(backups)-j.retention] {
		if err := os.Remove(filepath.Join(j.backupDir, name)); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", name, err)
		}
		j.logger.Info("old backup removed", slog.String("name", name))
	}
	return nil
}

func (j *Job) record(success bool) {
	if j.collector != nil {
		j.collector.RecordSnapshotBackup(success)
	}
}
