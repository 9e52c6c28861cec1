// Package memory はrepositoryの各インターフェースをインメモリで実装する。
// データベースを使わない単体テスト用の実装であり、Postgres実装と同じ
// 所有者スコープ・CASCADE削除・position連番の規則に従う。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/repository"
)

// Store はrepository.Storeのインメモリ実装。並行アクセスに対して安全。
type Store struct {
	mu sync.Mutex

	now    func() time.Time
	nextID int64

	users     map[int64]*model.User
	days      map[int64]*model.Day
	workouts  map[int64]*model.Workout
	logs      map[int64]*model.Log
	bmi       map[int64]*model.BMIRecord
	exercises map[int64]*model.Exercise

	// Err が設定されている場合、全操作がこのエラーを返す。
	// ストア障害時の振る舞いを検証するために使う。
	Err error
}

// New は空のStoreを生成する。
func New() *Store {
	return &Store{
		now:       time.Now,
		users:     make(map[int64]*model.User),
		days:      make(map[int64]*model.Day),
		workouts:  make(map[int64]*model.Workout),
		logs:      make(map[int64]*model.Log),
		bmi:       make(map[int64]*model.BMIRecord),
		exercises: make(map[int64]*model.Exercise),
	}
}

// SetClock は記録日時の既定値に使う時計を差し替える。
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() repository.UserRepository         { return userRepo{s} }
func (s *Store) Days() repository.DayRepository           { return dayRepo{s} }
func (s *Store) Workouts() repository.WorkoutRepository   { return workoutRepo{s} }
func (s *Store) Logs() repository.LogRepository           { return logRepo{s} }
func (s *Store) BMI() repository.BMIRepository            { return bmiRepo{s} }
func (s *Store) Exercises() repository.ExerciseRepository { return exerciseRepo{s} }

// Counts は各テーブルの行数を返す。CASCADE削除の検証に使う。
func (s *Store) Counts() (days, workouts, logs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.days), len(s.workouts), len(s.logs)
}

func (s *Store) lock() error {
	s.mu.Lock()
	if s.Err != nil {
		err := s.Err
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// --- users ---

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, name, email, passwordHash string) (*model.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	normalized := model.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == normalized {
			return nil, model.ErrDuplicateEmail
		}
	}
	u := &model.User{
		ID:           r.s.id(),
		Name:         name,
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    r.s.now(),
	}
	r.s.users[u.ID] = u
	return copyUser(u), nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	normalized := model.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == normalized {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r userRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return copyUser(r.s.users[id]), nil
}

func (r userRepo) SetAdmin(_ context.Context, email string, admin bool) (*model.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	normalized := model.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == normalized {
			u.Admin = admin
			return copyUser(u), nil
		}
	}
	return nil, nil
}

// SetAdmin はIDで指定したユーザーの管理者フラグを設定する。テストでのみ使う。
func (s *Store) SetAdmin(userID int64, admin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Admin = admin
	}
}

// --- days ---

type dayRepo struct{ s *Store }

func (r dayRepo) ListByUser(_ context.Context, userID int64) ([]*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	days := make([]*model.Day, 0)
	for _, d := range r.s.days {
		if d.UserID == userID {
			days = append(days, copyDay(d))
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].ID < days[j].ID })
	return days, nil
}

func (r dayRepo) FindByID(_ context.Context, id int64) (*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return copyDay(r.s.days[id]), nil
}

func (r dayRepo) FindByIDForUser(_ context.Context, id, userID int64) (*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return copyDay(r.s.ownedDay(id, userID)), nil
}

func (r dayRepo) Create(_ context.Context, name, subtitle string, userID int64, shareCode *string) (*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	if shareCode != nil && r.s.shareCodeInUse(*shareCode, 0) {
		return nil, model.ErrShareCodeTaken
	}
	d := &model.Day{
		ID:        r.s.id(),
		UserID:    userID,
		Name:      name,
		Subtitle:  subtitle,
		ShareCode: copyString(shareCode),
		CreatedAt: r.s.now(),
	}
	r.s.days[d.ID] = d
	return copyDay(d), nil
}

func (r dayRepo) Delete(_ context.Context, id, userID int64) (bool, error) {
	if err := r.s.lock(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()

	if r.s.ownedDay(id, userID) == nil {
		return false, nil
	}
	delete(r.s.days, id)
	for wid, w := range r.s.workouts {
		if w.DayID == id {
			r.s.deleteWorkoutCascade(wid)
		}
	}
	return true, nil
}

func (r dayRepo) SetShareCode(_ context.Context, dayID int64, code *string, userID int64) (*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	d := r.s.ownedDay(dayID, userID)
	if d == nil {
		return nil, nil
	}
	if code != nil && r.s.shareCodeInUse(*code, dayID) {
		return nil, model.ErrShareCodeTaken
	}
	d.ShareCode = copyString(code)
	return copyDay(d), nil
}

func (r dayRepo) FindByShareCode(_ context.Context, code string) (*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	for _, d := range r.s.days {
		if d.ShareCode != nil && *d.ShareCode == code {
			return copyDay(d), nil
		}
	}
	return nil, nil
}

func (r dayRepo) Start(_ context.Context, dayID, userID int64, now time.Time) (*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	d := r.s.ownedDay(dayID, userID)
	if d == nil {
		return nil, nil
	}
	started := now
	d.StartedAt = &started
	d.FinishedAt = nil
	d.DurationSeconds = nil
	d.Completed = false
	r.s.setDayWorkoutsCompleted(dayID, userID, false)
	return copyDay(d), nil
}

func (r dayRepo) CancelStart(_ context.Context, dayID, userID int64) (*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	d := r.s.ownedDay(dayID, userID)
	if d == nil {
		return nil, nil
	}
	d.StartedAt = nil
	return copyDay(d), nil
}

func (r dayRepo) Complete(_ context.Context, dayID, userID int64, now time.Time) (*model.Day, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	d := r.s.ownedDay(dayID, userID)
	if d == nil {
		return nil, nil
	}
	if d.StartedAt != nil {
		secs := repository.DurationSeconds(*d.StartedAt, now)
		d.DurationSeconds = &secs
	}
	finished := now
	d.FinishedAt = &finished
	d.StartedAt = nil
	d.Completed = true
	r.s.setDayWorkoutsCompleted(dayID, userID, true)
	return copyDay(d), nil
}

func (s *Store) ownedDay(id, userID int64) *model.Day {
	d, ok := s.days[id]
	if !ok || d.UserID != userID {
		return nil
	}
	return d
}

func (s *Store) shareCodeInUse(code string, exceptDayID int64) bool {
	for _, d := range s.days {
		if d.ID != exceptDayID && d.ShareCode != nil && *d.ShareCode == code {
			return true
		}
	}
	return false
}

// setDayWorkoutsCompleted はDayに属する所有者のワークアウトだけを更新する。
func (s *Store) setDayWorkoutsCompleted(dayID, userID int64, completed bool) {
	for _, w := range s.workouts {
		if w.DayID == dayID && w.UserID == userID {
			w.Completed = completed
		}
	}
}

// --- workouts ---

type workoutRepo struct{ s *Store }

func (r workoutRepo) ListByDay(_ context.Context, dayID int64, userID *int64) ([]*model.Workout, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	workouts := make([]*model.Workout, 0)
	for _, w := range r.s.dayWorkouts(dayID) {
		if userID != nil && w.UserID != *userID {
			continue
		}
		workouts = append(workouts, copyWorkout(w))
	}
	return workouts, nil
}

func (r workoutRepo) FindByID(_ context.Context, id, userID int64) (*model.Workout, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return copyWorkout(r.s.ownedWorkout(id, userID)), nil
}

func (r workoutRepo) Add(_ context.Context, dayID int64, in model.WorkoutInput, userID int64) (*model.Workout, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	if r.s.ownedDay(dayID, userID) == nil {
		return nil, nil
	}
	maxPos := 0
	for _, w := range r.s.workouts {
		if w.DayID == dayID && w.Position > maxPos {
			maxPos = w.Position
		}
	}
	w := &model.Workout{
		ID:          r.s.id(),
		DayID:       dayID,
		UserID:      userID,
		Name:        in.Name,
		PlannedSets: in.PlannedSets,
		PlannedReps: in.PlannedReps,
		Youtube:     copyString(in.Youtube),
		Position:    maxPos + 1,
	}
	r.s.workouts[w.ID] = w
	return copyWorkout(w), nil
}

func (r workoutRepo) Update(_ context.Context, id int64, in model.WorkoutInput, userID int64) (*model.Workout, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	w := r.s.ownedWorkout(id, userID)
	if w == nil {
		return nil, nil
	}
	w.Name = in.Name
	w.PlannedSets = in.PlannedSets
	w.PlannedReps = in.PlannedReps
	w.Youtube = copyString(in.Youtube)
	return copyWorkout(w), nil
}

func (r workoutRepo) SetCompleted(_ context.Context, id int64, completed bool, userID int64) (*model.Workout, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	w := r.s.ownedWorkout(id, userID)
	if w == nil {
		return nil, nil
	}
	w.Completed = completed
	return copyWorkout(w), nil
}

func (r workoutRepo) SetCurrentWeight(_ context.Context, id int64, weight *float64, userID int64) (*model.Workout, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	w := r.s.ownedWorkout(id, userID)
	if w == nil {
		return nil, nil
	}
	if weight == nil {
		w.CurrentWeight = nil
	} else {
		v := *weight
		w.CurrentWeight = &v
	}
	return copyWorkout(w), nil
}

func (r workoutRepo) Delete(_ context.Context, id, userID int64) (bool, error) {
	if err := r.s.lock(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()

	w := r.s.ownedWorkout(id, userID)
	if w == nil {
		return false, nil
	}
	dayID := w.DayID
	r.s.deleteWorkoutCascade(id)
	for i, rest := range r.s.dayWorkouts(dayID) {
		rest.Position = i + 1
	}
	return true, nil
}

func (r workoutRepo) Reorder(_ context.Context, dayID int64, orderedIDs []int64, userID int64) (bool, error) {
	if err := r.s.lock(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()

	var current []int64
	for _, w := range r.s.dayWorkouts(dayID) {
		if w.UserID == userID {
			current = append(current, w.ID)
		}
	}
	final, matched := repository.MergeOrder(current, orderedIDs)
	if matched == 0 {
		return false, nil
	}
	for i, id := range final {
		r.s.workouts[id].Position = i + 1
	}
	return true, nil
}

// dayWorkouts はDayのワークアウトをposition昇順、id昇順で返す。
// 返すのは内部の値そのものであり、呼び出し側はロックを保持していること。
func (s *Store) dayWorkouts(dayID int64) []*model.Workout {
	var workouts []*model.Workout
	for _, w := range s.workouts {
		if w.DayID == dayID {
			workouts = append(workouts, w)
		}
	}
	sort.Slice(workouts, func(i, j int) bool {
		if workouts[i].Position != workouts[j].Position {
			return workouts[i].Position < workouts[j].Position
		}
		return workouts[i].ID < workouts[j].ID
	})
	return workouts
}

func (s *Store) ownedWorkout(id, userID int64) *model.Workout {
	w, ok := s.workouts[id]
	if !ok || w.UserID != userID {
		return nil
	}
	return w
}

func (s *Store) deleteWorkoutCascade(id int64) {
	delete(s.workouts, id)
	for lid, l := range s.logs {
		if l.WorkoutID == id {
			delete(s.logs, lid)
		}
	}
}

// --- logs ---

type logRepo struct{ s *Store }

func (r logRepo) Add(_ context.Context, workoutID int64, in model.LogInput, userID int64) (*model.Log, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	if r.s.ownedWorkout(workoutID, userID) == nil {
		return nil, nil
	}
	date := r.s.now().UTC()
	if in.Date != nil {
		date = *in.Date
	}
	l := &model.Log{
		ID:        r.s.id(),
		WorkoutID: workoutID,
		UserID:    userID,
		Series:    in.Series,
		Reps:      in.Reps,
		Weight:    in.Weight,
		Date:      date,
	}
	r.s.logs[l.ID] = l
	c := *l
	return &c, nil
}

func (r logRepo) ListByWorkout(_ context.Context, workoutID int64, userID *int64) ([]*model.Log, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	return r.s.filterLogs(func(l *model.Log) bool {
		return l.WorkoutID == workoutID && (userID == nil || l.UserID == *userID)
	}), nil
}

func (r logRepo) ListByUser(_ context.Context, userID int64) ([]*model.Log, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	return r.s.filterLogs(func(l *model.Log) bool { return l.UserID == userID }), nil
}

func (s *Store) filterLogs(keep func(*model.Log) bool) []*model.Log {
	logs := make([]*model.Log, 0)
	for _, l := range s.logs {
		if keep(l) {
			c := *l
			logs = append(logs, &c)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].Date.Equal(logs[j].Date) {
			return logs[i].Date.After(logs[j].Date)
		}
		return logs[i].ID > logs[j].ID
	})
	return logs
}

// --- bmi ---

type bmiRepo struct{ s *Store }

func (r bmiRepo) Add(_ context.Context, userID int64, in model.BMIInput) (*model.BMIRecord, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	date := r.s.now().UTC()
	if in.Date != nil {
		date = *in.Date
	}
	rec := &model.BMIRecord{
		ID:     r.s.id(),
		UserID: userID,
		Weight: in.Weight,
		Height: in.Height,
		BMI:    in.BMI,
		Date:   date,
	}
	r.s.bmi[rec.ID] = rec
	c := *rec
	return &c, nil
}

func (r bmiRepo) ListByUser(_ context.Context, userID int64) ([]*model.BMIRecord, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	records := make([]*model.BMIRecord, 0)
	for _, rec := range r.s.bmi {
		if rec.UserID == userID {
			c := *rec
			records = append(records, &c)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func (r bmiRepo) Delete(_ context.Context, id, userID int64) (bool, error) {
	if err := r.s.lock(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()

	rec, ok := r.s.bmi[id]
	if !ok || rec.UserID != userID {
		return false, nil
	}
	delete(r.s.bmi, id)
	return true, nil
}

func (r bmiRepo) Clear(_ context.Context, userID int64) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	for id, rec := range r.s.bmi {
		if rec.UserID == userID {
			delete(r.s.bmi, id)
		}
	}
	return nil
}

// --- exercises ---

type exerciseRepo struct{ s *Store }

func (r exerciseRepo) List(_ context.Context, search string) ([]*model.Exercise, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(search))
	exercises := make([]*model.Exercise, 0)
	for _, e := range r.s.exercises {
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Name), q) &&
			!strings.Contains(strings.ToLower(e.TargetMuscle), q) &&
			!strings.Contains(strings.ToLower(e.Equipment), q) {
			continue
		}
		c := *e
		exercises = append(exercises, &c)
	}
	sort.Slice(exercises, func(i, j int) bool {
		if exercises[i].Name != exercises[j].Name {
			return exercises[i].Name < exercises[j].Name
		}
		return exercises[i].ID < exercises[j].ID
	})
	return exercises, nil
}

func (r exerciseRepo) FindByID(_ context.Context, id int64) (*model.Exercise, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	e, ok := r.s.exercises[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (r exerciseRepo) Create(_ context.Context, in model.ExerciseInput) (*model.Exercise, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	e := &model.Exercise{ID: r.s.id(), CreatedAt: r.s.now()}
	applyExercise(e, in)
	r.s.exercises[e.ID] = e
	c := *e
	return &c, nil
}

func (r exerciseRepo) Update(_ context.Context, id int64, in model.ExerciseInput) (*model.Exercise, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	e, ok := r.s.exercises[id]
	if !ok {
		return nil, nil
	}
	applyExercise(e, in)
	c := *e
	return &c, nil
}

func (r exerciseRepo) Delete(_ context.Context, id int64) (bool, error) {
	if err := r.s.lock(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.exercises[id]; !ok {
		return false, nil
	}
	delete(r.s.exercises, id)
	return true, nil
}

func applyExercise(e *model.Exercise, in model.ExerciseInput) {
	e.Name = in.Name
	e.TargetMuscle = in.TargetMuscle
	e.Equipment = in.Equipment
	e.ImagePath = in.ImagePath
	e.Description = in.Description
}

// --- copies ---

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func copyDay(d *model.Day) *model.Day {
	if d == nil {
		return nil
	}
	c := *d
	c.StartedAt = copyTime(d.StartedAt)
	c.FinishedAt = copyTime(d.FinishedAt)
	c.ShareCode = copyString(d.ShareCode)
	if d.DurationSeconds != nil {
		v := *d.DurationSeconds
		c.DurationSeconds = &v
	}
	return &c
}

func copyWorkout(w *model.Workout) *model.Workout {
	if w == nil {
		return nil
	}
	c := *w
	c.Youtube = copyString(w.Youtube)
	if w.CurrentWeight != nil {
		v := *w.CurrentWeight
		c.CurrentWeight = &v
	}
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// compile-time interface check
var _ repository.Store = (*Store)(nil)
