package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daonlabs/hagwon-backend/internal/attendance"
	"github.com/daonlabs/hagwon-backend/internal/model"
)

// FailedSlot describes one insert that failed inside a bulk
// materialization batch.
type FailedSlot struct {
	Index int    `json:"index"`
	Date  string `json:"date"`
	Time  string `json:"time"`
	Err   error  `json:"-"`
}

// PartialBatchError reports a bulk insert where some rows failed. The
// rows that succeeded stay committed — the caller is told exactly which
// slots need manual reconciliation; nothing is rolled back or retried.
type PartialBatchError struct {
	Total  int
	Failed []FailedSlot
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("bulk insert: %d of %d lessons failed", len(e.Failed), e.Total)
}

// FieldMap renders the failed slots as field-level error details.
func (e *PartialBatchError) FieldMap() map[string]string {
	fields := make(map[string]string, len(e.Failed))
	for _, f := range e.Failed {
		fields[f.Date+" "+f.Time] = f.Err.Error()
	}
	return fields
}

const lessonColumns = `id, student_id,
	to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI'),
	status_kind, COALESCE(status_reason, ''), status_has_makeup,
	COALESCE(to_char(status_origin_date, 'YYYY-MM-DD'), ''), COALESCE(status_raw, ''),
	COALESCE(to_char(start_time, 'HH24:MI'), ''), COALESCE(to_char(end_time, 'HH24:MI'), ''),
	COALESCE(to_char(makeup_date, 'YYYY-MM-DD'), ''), COALESCE(to_char(makeup_time, 'HH24:MI'), ''),
	origin_lesson_id, COALESCE(note, ''),
	student_name, student_school, student_grade, student_teacher,
	created_at, updated_at`

const lessonInsert = `INSERT INTO lessons
	(id, student_id, date, time,
	 status_kind, status_reason, status_has_makeup, status_origin_date, status_raw,
	 start_time, end_time, makeup_date, makeup_time, origin_lesson_id, note,
	 student_name, student_school, student_grade, student_teacher)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), NULLIF($9, ''),
	        NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), $14, NULLIF($15, ''),
	        $16, $17, $18, $19)`

func lessonInsertArgs(l *model.Lesson) []interface{} {
	return []interface{}{
		l.ID, l.StudentID, l.Date, l.Time,
		string(l.Status.Kind), l.Status.Reason, l.Status.HasMakeup, l.Status.OriginDate, l.Status.Raw,
		l.StartTime, l.EndTime, l.MakeupDate, l.MakeupTime, l.OriginLessonID, l.Note,
		l.StudentName, l.StudentSchool, l.StudentGrade, l.StudentTeacher,
	}
}

// LessonRepository handles lesson data access.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	l := &model.Lesson{}
	var kind string
	err := row.Scan(&l.ID, &l.StudentID, &l.Date, &l.Time,
		&kind, &l.Status.Reason, &l.Status.HasMakeup, &l.Status.OriginDate, &l.Status.Raw,
		&l.StartTime, &l.EndTime, &l.MakeupDate, &l.MakeupTime,
		&l.OriginLessonID, &l.Note,
		&l.StudentName, &l.StudentSchool, &l.StudentGrade, &l.StudentTeacher,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.Status.Kind = attendance.Kind(kind)
	return l, nil
}

func (r *LessonRepository) queryLessons(ctx context.Context, query string, args ...interface{}) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// GetByID retrieves a lesson by ID.
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	return scanLesson(r.pool.QueryRow(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id))
}

// ListByStudent retrieves a student's full lesson history, date then time
// ascending.
func (r *LessonRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Lesson, error) {
	return r.queryLessons(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE student_id = $1 ORDER BY date, time`,
		studentID)
}

// ListByDateRange retrieves all lessons with from ≤ date ≤ to, date then
// time ascending. Used for the week view.
func (r *LessonRepository) ListByDateRange(ctx context.Context, from, to string) ([]model.Lesson, error) {
	return r.queryLessons(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE date BETWEEN $1 AND $2 ORDER BY date, time`,
		from, to)
}

// FindMakeupByOrigin locates the makeup lesson linked to an absence.
func (r *LessonRepository) FindMakeupByOrigin(ctx context.Context, originID uuid.UUID) (*model.Lesson, error) {
	return scanLesson(r.pool.QueryRow(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE origin_lesson_id = $1 LIMIT 1`, originID))
}

// Create inserts a single lesson.
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	return r.pool.QueryRow(ctx,
		lessonInsert+` RETURNING created_at, updated_at`,
		lessonInsertArgs(l)...,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
}

// BulkCreate inserts a materialization batch in one round trip. The batch
// is deliberately not wrapped in a transaction: rows that succeed stay,
// and failures come back as a *PartialBatchError listing the bad slots.
func (r *LessonRepository) BulkCreate(ctx context.Context, lessons []model.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range lessons {
		batch.Queue(lessonInsert, lessonInsertArgs(&lessons[i])...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var failed []FailedSlot
	for i := range lessons {
		if _, err := results.Exec(); err != nil {
			failed = append(failed, FailedSlot{
				Index: i,
				Date:  lessons[i].Date,
				Time:  lessons[i].Time,
				Err:   err,
			})
		}
	}

	if len(failed) > 0 {
		return &PartialBatchError{Total: len(lessons), Failed: failed}
	}
	return nil
}

// Update rewrites a lesson's mutable attendance fields.
func (r *LessonRepository) Update(ctx context.Context, l *model.Lesson) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lessons SET
		 status_kind = $1, status_reason = NULLIF($2, ''), status_has_makeup = $3,
		 status_origin_date = NULLIF($4, ''), status_raw = NULLIF($5, ''),
		 start_time = NULLIF($6, ''), end_time = NULLIF($7, ''),
		 makeup_date = NULLIF($8, ''), makeup_time = NULLIF($9, ''),
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = $10`,
		string(l.Status.Kind), l.Status.Reason, l.Status.HasMakeup,
		l.Status.OriginDate, l.Status.Raw,
		l.StartTime, l.EndTime, l.MakeupDate, l.MakeupTime, l.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateNote sets the free-text note. No state effect.
func (r *LessonRepository) UpdateNote(ctx context.Context, id uuid.UUID, note string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lessons SET note = NULLIF($1, ''), updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		note, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a lesson unconditionally. No cascade: a linked makeup or
// origin keeps existing with a dangling (set-null) reference.
func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFromDate removes a student's lessons on or after the given date.
// Used by schedule edits (regenerate future) and withdrawal.
func (r *LessonRepository) DeleteFromDate(ctx context.Context, studentID int, date string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM lessons WHERE student_id = $1 AND date >= $2`,
		studentID, date,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountByStudent returns the number of lessons a student owns.
func (r *LessonRepository) CountByStudent(ctx context.Context, studentID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lessons WHERE student_id = $1`, studentID).Scan(&n)
	return n, err
}
