// Package share はDayの共有コード発行と、共有コードからの複製を提供する。
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hitoshi/mpfit/internal/metrics"
	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/repository"
)

// DefaultMaxAttempts は共有コード発行の既定の試行回数。
const DefaultMaxAttempts = 6

// TemplateWorkout は共有テンプレートとして公開されるワークアウトの形。
// ログ、現在の重量、完了状態は含まない。
type TemplateWorkout struct {
	Name        string
	PlannedSets int
	PlannedReps int
}

// Template は共有コードから参照できるDayの内容。
type Template struct {
	Code      string
	Name      string
	Subtitle  string
	OwnerName string
	Workouts  []TemplateWorkout
}

// Engine は共有コードの発行・取消・複製を行う。
type Engine struct {
	users       repository.UserRepository
	days        repository.DayRepository
	workouts    repository.WorkoutRepository
	metrics     metrics.MetricsCollector
	digit       func() int
	maxAttempts int
}

// Option はEngineの設定を変更する。
type Option func(*Engine)

// WithDigitSource は共有コード末尾の数字（1〜9）の生成元を差し替える。
func WithDigitSource(digit func() int) Option {
	return func(e *Engine) {
		e.digit = digit
	}
}

// WithMaxAttempts は一意制約衝突時の試行回数を設定する。1未満は既定値を使う。
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxAttempts = n
		}
	}
}

// WithMetrics はメトリクス収集先を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine はEngineを生成する。
func NewEngine(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		users:       store.Users(),
		days:        store.Days(),
		workouts:    store.Workouts(),
		metrics:     metrics.Nop{},
		digit:       func() int { return rand.IntN(9) + 1 },
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Share はDayに共有コードを設定して返す。
// 既存のコードがあれば新しいコードに置き換える。
// コードが他のDayと衝突した場合は再生成し、maxAttempts回で諦めてErrShareCodeExhaustedを返す。
func (e *Engine) Share(ctx context.Context, dayID, userID int64) (string, error) {
	day, err := e.days.FindByIDForUser(ctx, dayID, userID)
	if err != nil {
		return "", fmt.Errorf("find day %d: %w", dayID, err)
	}
	if day == nil {
		return "", model.ErrNotFound
	}

	owner, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("find user %d: %w", userID, err)
	}

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		code := GenerateCode(day, owner.DisplayName(), e.digit())

		updated, err := e.days.SetShareCode(ctx, day.ID, &code, userID)
		if errors.Is(err, model.ErrShareCodeTaken) {
			e.metrics.RecordShareCodeCollision()
			continue
		}
		if err != nil {
			return "", fmt.Errorf("set share code for day %d: %w", dayID, err)
		}
		if updated == nil {
			// 発行中に削除された
			return "", model.ErrNotFound
		}

		e.metrics.RecordShareCodeIssued(attempt)
		slog.Info("share code issued",
			slog.Int64("user_id", userID),
			slog.Int64("day_id", dayID),
			slog.String("share_code", code),
			slog.Int("attempts", attempt),
		)
		return code, nil
	}

	e.metrics.RecordShareCodeExhausted()
	slog.Error("share code generation exhausted",
		slog.Int64("user_id", userID),
		slog.Int64("day_id", dayID),
		slog.Int("attempts", e.maxAttempts),
	)
	return "", model.ErrShareCodeExhausted
}

// Revoke は共有コードを取り消す。Dayが見つからなければfalseを返す。
func (e *Engine) Revoke(ctx context.Context, dayID, userID int64) (bool, error) {
	day, err := e.days.SetShareCode(ctx, dayID, nil, userID)
	if err != nil {
		return false, fmt.Errorf("revoke share code for day %d: %w", dayID, err)
	}
	return day != nil, nil
}

// Preview は共有コードが指すDayの内容を返す。複製は行わない。
func (e *Engine) Preview(ctx context.Context, code string) (*Template, error) {
	source, err := e.days.FindByShareCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find share code: %w", err)
	}
	if source == nil {
		return nil, model.ErrNotFound
	}

	workouts, err := e.workouts.ListByDay(ctx, source.ID, &source.UserID)
	if err != nil {
		return nil, fmt.Errorf("list workouts for day %d: %w", source.ID, err)
	}
	owner, err := e.users.FindByID(ctx, source.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", source.UserID, err)
	}

	tmpl := &Template{
		Code:      code,
		Name:      source.Name,
		Subtitle:  source.Subtitle,
		OwnerName: owner.DisplayName(),
		Workouts:  make([]TemplateWorkout, len(workouts)),
	}
	for i, w := range workouts {
		tmpl.Workouts[i] = TemplateWorkout{Name: w.Name, PlannedSets: w.PlannedSets, PlannedReps: w.PlannedReps}
	}
	return tmpl, nil
}

// Clone は共有コードが指すDayを対象ユーザーのDayとして複製する。
// 複製されるのはDayの名前・サブタイトルと、各ワークアウトの名前・計画セット数・計画レップ数のみ。
// 複製したDayは共有コードを持たない。
func (e *Engine) Clone(ctx context.Context, code string, targetUserID int64) (*model.Day, error) {
	source, err := e.days.FindByShareCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find share code: %w", err)
	}
	if source == nil {
		return nil, model.ErrNotFound
	}

	workouts, err := e.workouts.ListByDay(ctx, source.ID, &source.UserID)
	if err != nil {
		return nil, fmt.Errorf("list workouts for day %d: %w", source.ID, err)
	}

	clone, err := e.days.Create(ctx, source.Name, source.Subtitle, targetUserID, nil)
	if err != nil {
		return nil, fmt.Errorf("create cloned day: %w", err)
	}

	for _, w := range workouts {
		in := model.WorkoutInput{
			Name:        w.Name,
			PlannedSets: w.PlannedSets,
			PlannedReps: w.PlannedReps,
		}
		if _, err := e.workouts.Add(ctx, clone.ID, in, targetUserID); err != nil {
			e.discardClone(ctx, clone.ID, targetUserID)
			return nil, fmt.Errorf("copy workout %d: %w", w.ID, err)
		}
	}

	e.metrics.RecordTemplateCloned(len(workouts))
	slog.Info("template cloned",
		slog.Int64("user_id", targetUserID),
		slog.Int64("source_day_id", source.ID),
		slog.Int64("day_id", clone.ID),
		slog.Int("workouts", len(workouts)),
	)
	return clone, nil
}

// discardClone は複製途中のDayを削除する。ワークアウトはDayの削除に連動して消える。
func (e *Engine) discardClone(ctx context.Context, dayID, userID int64) {
	if _, err := e.days.Delete(context.WithoutCancel(ctx), dayID, userID); err != nil {
		slog.Error("failed to discard partial clone",
			slog.Int64("user_id", userID),
			slog.Int64("day_id", dayID),
			slog.String("error", err.Error()),
		)
	}
}
