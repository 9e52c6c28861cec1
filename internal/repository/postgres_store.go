package repository

import "github.com/jmoiron/sqlx"

// PostgresStore は1つのコネクションプールを共有するPostgreSQLリポジトリ群。
type PostgresStore struct {
	users     *PostgresUserRepo
	days      *PostgresDayRepo
	workouts  *PostgresWorkoutRepo
	logs      *PostgresLogRepo
	bmi       *PostgresBMIRepo
	exercises *PostgresExerciseRepo
}

// NewPostgresStore は全リポジトリを生成する。dbの寿命は呼び出し側が管理する。
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		users:     NewPostgresUserRepo(db),
		days:      NewPostgresDayRepo(db),
		workouts:  NewPostgresWorkoutRepo(db),
		logs:      NewPostgresLogRepo(db),
		bmi:       NewPostgresBMIRepo(db),
		exercises: NewPostgresExerciseRepo(db),
	}
}

func (s *PostgresStore) Users() UserRepository         { return s.users }
func (s *PostgresStore) Days() DayRepository           { return s.days }
func (s *PostgresStore) Workouts() WorkoutRepository   { return s.workouts }
func (s *PostgresStore) Logs() LogRepository           { return s.logs }
func (s *PostgresStore) BMI() BMIRepository            { return s.bmi }
func (s *PostgresStore) Exercises() ExerciseRepository { return s.exercises }

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
