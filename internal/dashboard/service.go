// Package dashboard はユーザーのトレーニング集計を提供する。
package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/repository"
)

const (
	weeklyDays      = 7
	recentDaysLimit = 6
	dateLayout      = "2006-01-02"
)

// WeeklyPoint は1日分の挙上量と記録セット数。
type WeeklyPoint struct {
	Date     string
	Volume   float64
	Sessions int
}

// RecentDay は最近のトレーニング日の概要。
type RecentDay struct {
	ID        int64
	Name      string
	Subtitle  string
	Completed bool
}

// Summary はダッシュボードの集計結果。
// AvgDurationSecondsは所要時間が分かるDayが1件もなければnil。
type Summary struct {
	TotalDays          int
	CompletedDays      int
	TotalWorkouts      int
	TotalVolume        float64
	LastWorkoutDate    *time.Time
	Weekly             []WeeklyPoint
	RecentDays         []RecentDay
	AvgDurationSeconds *int
}

// Service はダッシュボード集計のサービス層。
type Service struct {
	days     repository.DayRepository
	workouts repository.WorkoutRepository
	logs     repository.LogRepository
	now      func() time.Time
	loc      *time.Location
}

// Option はServiceの設定を変更する。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation は週次集計で1日の区切りに使うタイムゾーンを設定する。既定はUTC。
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store repository.Store, opts ...Option) *Service {
	s := &Service{
		days:     store.Days(),
		workouts: store.Workouts(),
		logs:     store.Logs(),
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary はユーザーの集計を返す。
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	days, err := s.days.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("トレーニング日一覧の取得に失敗しました: %w", err)
	}

	summary := &Summary{TotalDays: len(days)}
	for _, d := range days {
		if d.Completed {
			summary.CompletedDays++
		}
		workouts, err := s.workouts.ListByDay(ctx, d.ID, &userID)
		if err != nil {
			return nil, fmt.Errorf("ワークアウト一覧の取得に失敗しました: %w", err)
		}
		summary.TotalWorkouts += len(workouts)
	}

	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("記録一覧の取得に失敗しました: %w", err)
	}

	summary.Weekly = s.weekly(logs)
	for _, l := range logs {
		summary.TotalVolume += volume(l)
		if summary.LastWorkoutDate == nil || l.Date.After(*summary.LastWorkoutDate) {
			date := l.Date
			summary.LastWorkoutDate = &date
		}
	}

	summary.RecentDays = recentDays(days)
	summary.AvgDurationSeconds = averageDuration(days)
	return summary, nil
}

// weekly は今日を含む直近7日間の集計を古い順で返す。
func (s *Service) weekly(logs []*model.Log) []WeeklyPoint {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	points := make([]WeeklyPoint, weeklyDays)
	index := make(map[string]int, weeklyDays)
	for i := 0; i < weeklyDays; i++ {
		date := today.AddDate(0, 0, i-(weeklyDays-1)).Format(dateLayout)
		points[i] = WeeklyPoint{Date: date}
		index[date] = i
	}

	for _, l := range logs {
		i, ok := index[l.Date.In(s.loc).Format(dateLayout)]
		if !ok {
			continue
		}
		points[i].Volume += volume(l)
		points[i].Sessions++
	}
	return points
}

func volume(l *model.Log) float64 {
	return l.Weight * float64(l.Reps)
}

// recentDays は開始日時（未開始なら作成日時）の新しい順に最大6件を返す。
func recentDays(days []*model.Day) []RecentDay {
	sorted := make([]*model.Day, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := activityTime(sorted[i]), activityTime(sorted[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return sorted[i].ID > sorted[j].ID
	})

	n := min(len(sorted), recentDaysLimit)
	recent := make([]RecentDay, n)
	for i, d := range sorted[:n] {
		recent[i] = RecentDay{ID: d.ID, Name: d.Name, Subtitle: d.Subtitle, Completed: d.Completed}
	}
	return recent
}

func activityTime(d *model.Day) time.Time {
	if d.StartedAt != nil {
		return *d.StartedAt
	}
	return d.CreatedAt
}

// averageDuration は所要時間の平均秒数を返す。
// duration_secondsがなければfinished_atとstarted_atの差を使う。
func averageDuration(days []*model.Day) *int {
	var total, count int
	for _, d := range days {
		switch {
		case d.DurationSeconds != nil:
			total += *d.DurationSeconds
			count++
		case d.StartedAt != nil && d.FinishedAt != nil && d.FinishedAt.After(*d.StartedAt):
			total += repository.DurationSeconds(*d.StartedAt, *d.FinishedAt)
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := int(math.Round(float64(total) / float64(count)))
	return &avg
}
