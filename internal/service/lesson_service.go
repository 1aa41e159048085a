package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/daonlabs/hagwon-backend/internal/attendance"
	"github.com/daonlabs/hagwon-backend/internal/model"
	"github.com/daonlabs/hagwon-backend/internal/repository"
	"github.com/daonlabs/hagwon-backend/internal/schedule"
)

// ErrNoMakeupLinked is returned when an operation needs an absence's
// linked makeup lesson and none can be found — either the absence never
// had one, or the link is dangling (makeup deleted). Handlers report it
// as a linkage inconsistency, distinct from a plain not-found.
var ErrNoMakeupLinked = errors.New("no linked makeup lesson")

// rawManualMakeup is the status text stamped on ad hoc makeup lessons
// inserted outside the weekly template. It is not part of the codec
// grammar on purpose: it decodes as Scheduled with the raw text kept.
const rawManualMakeup = "보강추가"

// LessonService owns the per-occurrence attendance lifecycle: the state
// machine on single lessons, makeup creation, and makeup relocation.
// Every lessons-table mutation is followed by a feed event.
type LessonService struct {
	lessonRepo  *repository.LessonRepository
	studentRepo *repository.StudentRepository
	feed        *FeedService
	log         zerolog.Logger
}

// NewLessonService creates a new LessonService.
func NewLessonService(
	lessonRepo *repository.LessonRepository,
	studentRepo *repository.StudentRepository,
	feed *FeedService,
	log zerolog.Logger,
) *LessonService {
	return &LessonService{
		lessonRepo:  lessonRepo,
		studentRepo: studentRepo,
		feed:        feed,
		log:         log.With().Str("component", "lesson_service").Logger(),
	}
}

// GetByID retrieves a single lesson.
func (s *LessonService) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	return s.lessonRepo.GetByID(ctx, id)
}

// ListWeek returns the lessons of the 7-day window starting at weekStart,
// date then time ascending.
func (s *LessonService) ListWeek(ctx context.Context, weekStart string) ([]model.Lesson, error) {
	start, err := schedule.ParseDate(weekStart)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, 6).Format(schedule.DateLayout)

	lessons, err := s.lessonRepo.ListByDateRange(ctx, weekStart, end)
	if err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	return lessons, nil
}

// ListByStudent returns a student's full lesson history.
func (s *LessonService) ListByStudent(ctx context.Context, studentID int) ([]model.Lesson, error) {
	if _, err := s.studentRepo.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	lessons, err := s.lessonRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	return lessons, nil
}

// MarkAttended records a held lesson. Empty start means "from now";
// the end time is always start + 90 minutes.
func (s *LessonService) MarkAttended(ctx context.Context, id uuid.UUID, start string) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyAttended(lesson, start, time.Now()); err != nil {
		return nil, err
	}
	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		return nil, err
	}

	s.feed.Lesson(ctx, FeedOpUpdate, lesson)
	return lesson, nil
}

// MarkAbsent records a missed lesson. With wantsMakeup, exactly one
// linked makeup lesson is created on the given slot; the makeup carries
// the student's *current* display snapshot (not the origin lesson's,
// which may predate a profile edit).
//
// The makeup row is inserted before the origin is updated, so a
// concurrent reader can briefly see the makeup without the origin's
// makeup_date — incomplete linkage is transient, not an error.
func (s *LessonService) MarkAbsent(ctx context.Context, id uuid.UUID, reason string, wantsMakeup bool, makeupDate, makeupTime string) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := lesson.StudentSnapshot
	if student, err := s.studentRepo.GetByID(ctx, lesson.StudentID); err == nil {
		snap = student.Snapshot()
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Err(err).Int("student_id", lesson.StudentID).
			Msg("Snapshot refresh failed, keeping the lesson's snapshot")
	}

	makeup, err := applyAbsent(lesson, snap, reason, wantsMakeup, makeupDate, makeupTime)
	if err != nil {
		return nil, err
	}

	if makeup != nil {
		if err := s.lessonRepo.Create(ctx, makeup); err != nil {
			return nil, fmt.Errorf("create makeup lesson: %w", err)
		}
		s.feed.Lesson(ctx, FeedOpInsert, makeup)
	}

	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		return nil, err
	}

	s.feed.Lesson(ctx, FeedOpUpdate, lesson)
	return lesson, nil
}

// ResetStatus undoes an attendance event. Makeup lessons keep their
// status tag and origin linkage; only the realized times are cleared.
func (s *LessonService) ResetStatus(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyReset(lesson)
	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		return nil, err
	}

	s.feed.Lesson(ctx, FeedOpUpdate, lesson)
	return lesson, nil
}

// SetNote stores the free-text annotation. No state effect.
func (s *LessonService) SetNote(ctx context.Context, id uuid.UUID, note string) error {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.lessonRepo.UpdateNote(ctx, id, note); err != nil {
		return err
	}
	s.feed.Lesson(ctx, FeedOpUpdate, lesson)
	return nil
}

// Delete removes a lesson unconditionally. Links are not cascaded: a
// surviving makeup keeps rendering its origin date from the status tag.
func (s *LessonService) Delete(ctx context.Context, id uuid.UUID) error {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.lessonRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.feed.Lesson(ctx, FeedOpDelete, lesson)
	return nil
}

// Relocate moves an absence's linked makeup lesson to a new slot: the old
// makeup row is deleted, a replacement with the same linkage is inserted,
// and the absence's makeup slot is updated to match.
func (s *LessonService) Relocate(ctx context.Context, absenceID uuid.UUID, newDate, newTime string) (*model.Lesson, error) {
	absence, err := s.lessonRepo.GetByID(ctx, absenceID)
	if err != nil {
		return nil, err
	}
	if absence.Status.Kind != attendance.KindAbsent || !absence.Status.HasMakeup {
		return nil, ErrNoMakeupLinked
	}

	old, err := s.lessonRepo.FindMakeupByOrigin(ctx, absence.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoMakeupLinked
		}
		return nil, err
	}

	replacement, err := relocatedMakeup(old, newDate, newTime)
	if err != nil {
		return nil, err
	}

	if err := s.lessonRepo.Delete(ctx, old.ID); err != nil {
		return nil, err
	}
	s.feed.Lesson(ctx, FeedOpDelete, old)

	if err := s.lessonRepo.Create(ctx, replacement); err != nil {
		return nil, fmt.Errorf("insert relocated makeup: %w", err)
	}
	s.feed.Lesson(ctx, FeedOpInsert, replacement)

	absence.MakeupDate, absence.MakeupTime = newDate, newTime
	if err := s.lessonRepo.Update(ctx, absence); err != nil {
		return nil, err
	}
	s.feed.Lesson(ctx, FeedOpUpdate, absence)

	s.log.Info().
		Str("absence_id", absence.ID.String()).
		Str("new_date", newDate).
		Str("new_time", newTime).
		Msg("Makeup relocated")

	return replacement, nil
}

// AddManual inserts an ad hoc makeup lesson outside the weekly template.
// It carries the raw "보강추가" status and no origin linkage.
func (s *LessonService) AddManual(ctx context.Context, studentID int, date, clock string) (*model.Lesson, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, err
	}
	if _, err := schedule.ParseClock(clock); err != nil {
		return nil, err
	}

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		ID:              uuid.New(),
		StudentID:       student.ID,
		Date:            date,
		Time:            clock,
		Status:          attendance.Status{Kind: attendance.KindScheduled, Raw: rawManualMakeup},
		StudentSnapshot: student.Snapshot(),
	}

	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}

	s.feed.Lesson(ctx, FeedOpInsert, lesson)
	return lesson, nil
}
