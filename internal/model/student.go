package model

import (
	"time"

	"github.com/daonlabs/hagwon-backend/internal/schedule"
)

// Student is an enrolled academy student. Withdrawal is a soft delete:
// DeletedAt holds the withdrawal date and the row is never removed, so
// past lessons keep a valid owner.
type Student struct {
	ID        int               `json:"id"`
	Name      string            `json:"name"`
	School    string            `json:"school"`
	Grade     string            `json:"grade"`
	Teacher   string            `json:"teacher"`
	StartDate string            `json:"start_date"`
	Schedule  schedule.Template `json:"schedule"`
	DeletedAt string            `json:"deleted_at,omitempty"` // withdrawal date, empty while enrolled
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Snapshot captures the student's current display fields for
// denormalization onto lessons.
func (s *Student) Snapshot() StudentSnapshot {
	return StudentSnapshot{
		StudentName:    s.Name,
		StudentSchool:  s.School,
		StudentGrade:   s.Grade,
		StudentTeacher: s.Teacher,
	}
}

// CreateStudentRequest is the payload for enrolling a new student.
// Schedule uses weekday ordinal keys ("0" = Sunday … "6" = Saturday).
type CreateStudentRequest struct {
	Name      string            `json:"name" binding:"required,min=1,max=100"`
	School    string            `json:"school" binding:"max=100"`
	Grade     string            `json:"grade" binding:"max=30"`
	Teacher   string            `json:"teacher" binding:"max=100"`
	StartDate string            `json:"start_date" binding:"required"`
	Schedule  schedule.Template `json:"schedule" binding:"required"`
}

// UpdateStudentRequest is the payload for editing a student's profile and
// weekly schedule. A schedule change regenerates the student's future
// lessons; history stays untouched.
type UpdateStudentRequest struct {
	Name     string            `json:"name" binding:"required,min=1,max=100"`
	School   string            `json:"school" binding:"max=100"`
	Grade    string            `json:"grade" binding:"max=30"`
	Teacher  string            `json:"teacher" binding:"max=100"`
	Schedule schedule.Template `json:"schedule" binding:"required"`
}

// WithdrawStudentRequest carries the withdrawal date. Lessons on or after
// this date are deleted; earlier history is preserved.
type WithdrawStudentRequest struct {
	Date string `json:"date" binding:"required"`
}
