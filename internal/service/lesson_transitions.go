package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/daonlabs/hagwon-backend/internal/attendance"
	"github.com/daonlabs/hagwon-backend/internal/model"
	"github.com/daonlabs/hagwon-backend/internal/schedule"
)

// lessonMinutes is the fixed length of a held lesson: the realized end
// time is always start + 90 minutes.
const lessonMinutes = 90

// ErrMakeupSlotRequired is returned when an absence wants a makeup but no
// slot was given.
var ErrMakeupSlotRequired = errors.New("makeup date and time required when a makeup is requested")

// The transition functions below are the attendance state machine. They
// mutate lessons in memory only; LessonService persists the results and
// emits feed events. Keeping them free of I/O keeps every state rule
// testable without a database.

// applyAttended records a held lesson. An empty start means "from now":
// the wall-clock time is used. A makeup lesson keeps its Makeup variant
// (and with it the origin linkage for display); attendance shows through
// the realized times alone.
func applyAttended(l *model.Lesson, start string, now time.Time) error {
	if start == "" {
		start = now.Format(schedule.ClockLayout)
	}
	end, err := schedule.AddMinutes(start, lessonMinutes)
	if err != nil {
		return err
	}

	if !l.IsMakeup() {
		l.Status = attendance.Attended()
	}
	l.StartTime = start
	l.EndTime = end
	return nil
}

// applyAbsent moves a lesson to Absent. When a makeup is wanted it also
// builds the linked makeup lesson: a fresh occurrence on the given slot,
// tagged with the origin's date and reason, back-linked by lesson ID, and
// carrying the student's current display snapshot. The second return is
// nil when no makeup was requested.
//
// Deliberately not idempotent: each call with wantsMakeup builds a new
// makeup lesson. One call per transition is the caller's responsibility.
func applyAbsent(l *model.Lesson, snap model.StudentSnapshot, reason string, wantsMakeup bool, makeupDate, makeupTime string) (*model.Lesson, error) {
	if !wantsMakeup {
		l.Status = attendance.Absent(reason, false)
		l.StartTime, l.EndTime = "", ""
		l.MakeupDate, l.MakeupTime = "", ""
		return nil, nil
	}

	if makeupDate == "" || makeupTime == "" {
		return nil, ErrMakeupSlotRequired
	}
	if _, err := schedule.ParseDate(makeupDate); err != nil {
		return nil, err
	}
	if _, err := schedule.ParseClock(makeupTime); err != nil {
		return nil, err
	}

	originID := l.ID
	makeup := &model.Lesson{
		ID:              uuid.New(),
		StudentID:       l.StudentID,
		Date:            makeupDate,
		Time:            makeupTime,
		Status:          attendance.Makeup(l.Date, reason),
		OriginLessonID:  &originID,
		StudentSnapshot: snap,
	}

	l.Status = attendance.Absent(reason, true)
	l.StartTime, l.EndTime = "", ""
	l.MakeupDate, l.MakeupTime = makeupDate, makeupTime
	return makeup, nil
}

// applyReset undoes an attendance event: realized times are cleared and
// the lesson returns to Scheduled. A makeup lesson is the exception — its
// Makeup status (and with it the origin linkage) survives the reset, only
// the timing is cleared.
func applyReset(l *model.Lesson) {
	l.StartTime, l.EndTime = "", ""

	if l.IsMakeup() {
		return
	}

	l.Status = attendance.Scheduled()
	l.MakeupDate, l.MakeupTime = "", ""
}

// relocatedMakeup builds the replacement lesson for a makeup move: same
// linkage, status and note on a new slot, with realized times dropped.
func relocatedMakeup(old *model.Lesson, newDate, newTime string) (*model.Lesson, error) {
	if _, err := schedule.ParseDate(newDate); err != nil {
		return nil, err
	}
	if _, err := schedule.ParseClock(newTime); err != nil {
		return nil, err
	}

	return &model.Lesson{
		ID:              uuid.New(),
		StudentID:       old.StudentID,
		Date:            newDate,
		Time:            newTime,
		Status:          old.Status,
		OriginLessonID:  old.OriginLessonID,
		Note:            old.Note,
		StudentSnapshot: old.StudentSnapshot,
	}, nil
}
