package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daonlabs/hagwon-backend/internal/model"
)

// ErrNotFound is returned when a referenced student or lesson row no
// longer exists. Handlers map it to 404, distinct from other failures.
var ErrNotFound = errors.New("record not found")

const studentColumns = `id, name, school, grade, teacher,
	to_char(start_date, 'YYYY-MM-DD'),
	schedule,
	COALESCE(to_char(deleted_at, 'YYYY-MM-DD'), ''),
	created_at, updated_at`

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(&s.ID, &s.Name, &s.School, &s.Grade, &s.Teacher,
		&s.StartDate, &s.Schedule, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a student by ID, withdrawn students included (their
// history is still operated on).
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
}

// ListActive retrieves all non-withdrawn students, optionally filtered by
// a search term matched against name, school, grade and teacher.
func (r *StudentRepository) ListActive(ctx context.Context, search string) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE deleted_at IS NULL`
	var args []interface{}
	if search != "" {
		// Fields joined with spaces so a term cannot match across a
		// field boundary (end of name + start of school).
		query += ` AND (name || ' ' || school || ' ' || grade || ' ' || teacher) ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, school, grade, teacher, start_date, schedule)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.School, s.Grade, s.Teacher, s.StartDate, s.Schedule,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update modifies a student's profile and weekly schedule.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET name = $1, school = $2, grade = $3, teacher = $4,
		 schedule = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6`,
		s.Name, s.School, s.Grade, s.Teacher, s.Schedule, s.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Withdraw soft-deletes a student by stamping the withdrawal date.
func (r *StudentRepository) Withdraw(ctx context.Context, id int, date string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET deleted_at = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		date, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
