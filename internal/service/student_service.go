package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/daonlabs/hagwon-backend/internal/attendance"
	"github.com/daonlabs/hagwon-backend/internal/config"
	"github.com/daonlabs/hagwon-backend/internal/model"
	"github.com/daonlabs/hagwon-backend/internal/repository"
	"github.com/daonlabs/hagwon-backend/internal/schedule"
)

// StudentService owns enrollment, schedule edits and withdrawal — the
// three operations that (re)materialize a student's weekly template into
// concrete lessons.
type StudentService struct {
	studentRepo *repository.StudentRepository
	lessonRepo  *repository.LessonRepository
	feed        *FeedService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	studentRepo *repository.StudentRepository,
	lessonRepo *repository.LessonRepository,
	feed *FeedService,
	rdb *redis.Client,
	log zerolog.Logger,
) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		lessonRepo:  lessonRepo,
		feed:        feed,
		rdb:         rdb,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// List retrieves all enrolled students, optionally filtered.
func (s *StudentService) List(ctx context.Context, search string) ([]model.Student, error) {
	students, err := s.studentRepo.ListActive(ctx, search)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []model.Student{}
	}
	return students, nil
}

// Enroll creates a student and materializes their full long-horizon
// lesson set (seven years of whole weeks from the start date).
//
// The bulk insert is not transactional with the student insert: on a
// partial batch failure the student row stays and the error reports the
// failed slots for manual reconciliation. Nothing is rolled back.
func (s *StudentService) Enroll(ctx context.Context, student *model.Student) error {
	if err := student.Schedule.Validate(); err != nil {
		return err
	}
	slots, err := schedule.Materialize(student.Schedule, student.StartDate, schedule.HorizonEnroll)
	if err != nil {
		return err
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		return err
	}

	// Operational flag so a slow enroll is visible while in flight.
	lockKey := config.CacheKey.StudentLessonsLockKey(student.ID)
	s.rdb.Set(ctx, lockKey, "enroll", 5*time.Minute)
	defer s.rdb.Del(ctx, lockKey)

	lessons := buildLessons(student, slots)
	if err := s.lessonRepo.BulkCreate(ctx, lessons); err != nil {
		s.log.Error().Err(err).Int("student_id", student.ID).
			Msg("Enrollment materialization incomplete")
		return err
	}

	s.feed.Bulk(ctx, FeedOpBulkInsert, student.ID, len(lessons))
	s.log.Info().
		Int("student_id", student.ID).
		Int("lessons", len(lessons)).
		Msg("Student enrolled")
	return nil
}

// Update edits a student's profile and weekly schedule, then regenerates
// the future: every lesson dated today or later is deleted and the new
// template is materialized six months forward. Past lessons — the
// attendance history — are never touched, and their denormalized student
// snapshots deliberately keep the old profile values.
func (s *StudentService) Update(ctx context.Context, student *model.Student) error {
	if err := student.Schedule.Validate(); err != nil {
		return err
	}

	today := time.Now().Format(schedule.DateLayout)
	slots, err := schedule.Materialize(student.Schedule, today, schedule.HorizonReschedule)
	if err != nil {
		return err
	}

	if err := s.studentRepo.Update(ctx, student); err != nil {
		return err
	}

	deleted, err := s.lessonRepo.DeleteFromDate(ctx, student.ID, today)
	if err != nil {
		return err
	}
	s.feed.Bulk(ctx, FeedOpBulkDelete, student.ID, int(deleted))

	lessons := buildLessons(student, slots)
	if err := s.lessonRepo.BulkCreate(ctx, lessons); err != nil {
		s.log.Error().Err(err).Int("student_id", student.ID).
			Msg("Reschedule materialization incomplete")
		return err
	}

	s.feed.Bulk(ctx, FeedOpBulkInsert, student.ID, len(lessons))
	s.log.Info().
		Int("student_id", student.ID).
		Int64("deleted", deleted).
		Int("created", len(lessons)).
		Msg("Schedule rematerialized")
	return nil
}

// Withdraw soft-deletes a student as of the given date and removes their
// lessons on or after it. Earlier history stays.
func (s *StudentService) Withdraw(ctx context.Context, id int, date string) error {
	if _, err := schedule.ParseDate(date); err != nil {
		return err
	}

	if err := s.studentRepo.Withdraw(ctx, id, date); err != nil {
		return err
	}

	deleted, err := s.lessonRepo.DeleteFromDate(ctx, id, date)
	if err != nil {
		return err
	}

	s.feed.Bulk(ctx, FeedOpBulkDelete, id, int(deleted))
	s.log.Info().
		Int("student_id", id).
		Str("date", date).
		Int64("lessons_removed", deleted).
		Msg("Student withdrawn")
	return nil
}

// buildLessons turns materialized slots into lesson rows carrying the
// student's display snapshot as of right now.
func buildLessons(student *model.Student, slots []schedule.Slot) []model.Lesson {
	snap := student.Snapshot()
	lessons := make([]model.Lesson, len(slots))
	for i, slot := range slots {
		lessons[i] = model.Lesson{
			ID:              uuid.New(),
			StudentID:       student.ID,
			Date:            slot.Date,
			Time:            slot.Time,
			Status:          attendance.Scheduled(),
			StudentSnapshot: snap,
		}
	}
	return lessons
}
