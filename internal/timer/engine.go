// Package timer はトレーニングDayのセッション状態（開始・取消・完了）を管理する。
//
// 状態はDay行のstarted_atで表す。started_atが設定されていれば実行中、
// そうでなければ待機中（未開始または完了済み）である。
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mpfit/internal/metrics"
	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/repository"
)

// Engine はセッションの状態遷移を実行する。
type Engine struct {
	days    repository.DayRepository
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// Option はEngineの設定を変更する。
type Option func(*Engine)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMetrics はメトリクス収集先を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine はEngineを生成する。
func NewEngine(days repository.DayRepository, opts ...Option) *Engine {
	e := &Engine{
		days:    days,
		metrics: metrics.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start はセッションを開始する。
// Day内の全ワークアウトは未完了に戻る。
func (e *Engine) Start(ctx context.Context, dayID, userID int64) (*model.Day, error) {
	day, err := e.days.Start(ctx, dayID, userID, e.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("start day %d: %w", dayID, err)
	}
	if day == nil {
		return nil, model.ErrNotFound
	}

	e.metrics.RecordSessionStarted()
	slog.Info("session started",
		slog.Int64("user_id", userID),
		slog.Int64("day_id", dayID),
	)
	return day, nil
}

// Cancel はタイマーのみを取り消す。完了フラグは変更しない。
func (e *Engine) Cancel(ctx context.Context, dayID, userID int64) (*model.Day, error) {
	day, err := e.days.CancelStart(ctx, dayID, userID)
	if err != nil {
		return nil, fmt.Errorf("cancel day %d: %w", dayID, err)
	}
	if day == nil {
		return nil, model.ErrNotFound
	}

	e.metrics.RecordSessionCancelled()
	slog.Info("session cancelled",
		slog.Int64("user_id", userID),
		slog.Int64("day_id", dayID),
	)
	return day, nil
}

// Complete はセッションを完了する。
// 実行中であれば経過秒数を記録し、Day内の全ワークアウトを完了にする。
// タイマーなしで完了した場合、既存の経過秒数は変更しない。
func (e *Engine) Complete(ctx context.Context, dayID, userID int64) (*model.Day, error) {
	// 完了前の状態を見て、今回の完了でタイマーが止まったかを判定する
	before, err := e.days.FindByIDForUser(ctx, dayID, userID)
	if err != nil {
		return nil, fmt.Errorf("find day %d: %w", dayID, err)
	}
	if before == nil {
		return nil, model.ErrNotFound
	}

	day, err := e.days.Complete(ctx, dayID, userID, e.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("complete day %d: %w", dayID, err)
	}
	if day == nil {
		return nil, model.ErrNotFound
	}

	var elapsed time.Duration
	if before.Running() && day.DurationSeconds != nil {
		elapsed = time.Duration(*day.DurationSeconds) * time.Second
	}
	e.metrics.RecordSessionCompleted(elapsed)

	attrs := []any{
		slog.Int64("user_id", userID),
		slog.Int64("day_id", dayID),
	}
	if day.DurationSeconds != nil {
		attrs = append(attrs, slog.Int("duration_seconds", *day.DurationSeconds))
	}
	slog.Info("session completed", attrs...)
	return day, nil
}

// Elapsed は実行中のDayの経過時間を返す。実行中でなければ0を返す。
func Elapsed(day *model.Day, now time.Time) time.Duration {
	if !day.Running() {
		return 0
	}
	d := now.Sub(*day.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}
