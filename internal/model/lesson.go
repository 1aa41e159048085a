package model

import (
	"encoding/json"
	"time"

	"github.com/daonlabs/hagwon-backend/internal/attendance"
	"github.com/google/uuid"
)

// StudentSnapshot is the denormalized copy of a student's display fields
// attached to every lesson at creation time. It is a deliberate
// point-in-time copy: later edits to the student's profile must NOT be
// propagated to existing lessons.
type StudentSnapshot struct {
	StudentName    string `json:"student_name"`
	StudentSchool  string `json:"student_school"`
	StudentGrade   string `json:"student_grade"`
	StudentTeacher string `json:"student_teacher"`
}

// Lesson is one dated, timed occurrence of a student's class — the
// atomic schedulable unit. (StudentID, Date, Time) is unique at creation,
// but a student may hold several lessons on one date once makeups exist.
type Lesson struct {
	ID        uuid.UUID         `json:"id"`
	StudentID int               `json:"student_id"`
	Date      string            `json:"date"` // YYYY-MM-DD
	Time      string            `json:"time"` // HH:MM
	Status    attendance.Status `json:"status"`

	// Realized times, set only once attended.
	StartTime string `json:"start,omitempty"`
	EndTime   string `json:"end,omitempty"`

	// Makeup slot, set only on an absence with a linked makeup.
	MakeupDate string `json:"makeup_date,omitempty"`
	MakeupTime string `json:"makeup_time,omitempty"`

	// OriginLessonID links a makeup lesson back to its absence. Nil on
	// anything that is not a makeup, and also after the origin was
	// deleted (FK set-null); the status still carries the origin date
	// for display, so a dangling link degrades instead of breaking.
	OriginLessonID *uuid.UUID `json:"origin_lesson_id,omitempty"`

	Note string `json:"note,omitempty"`

	StudentSnapshot

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsMakeup reports whether this lesson is a generated makeup occurrence.
func (l *Lesson) IsMakeup() bool {
	return l.Status.Kind == attendance.KindMakeup
}

// StatusText is the display projection of the status variant, in the
// textual grammar academy staff are used to.
func (l *Lesson) StatusText() string {
	return attendance.Encode(l.Status)
}

// MarshalJSON includes the rendered status text alongside the variant so
// clients never re-derive the grammar.
func (l Lesson) MarshalJSON() ([]byte, error) {
	type alias Lesson
	return json.Marshal(struct {
		alias
		StatusText string `json:"status_text"`
	}{alias(l), l.StatusText()})
}

// CreateLessonRequest is the payload for inserting an ad hoc lesson
// outside the weekly template (manual makeup insertion).
type CreateLessonRequest struct {
	StudentID int    `json:"student_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
}
