package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daonlabs/hagwon-backend/internal/attendance"
	"github.com/daonlabs/hagwon-backend/internal/model"
)

func scheduledLesson() *model.Lesson {
	return &model.Lesson{
		ID:        uuid.New(),
		StudentID: 7,
		Date:      "2024-03-04",
		Time:      "16:00",
		Status:    attendance.Scheduled(),
		StudentSnapshot: model.StudentSnapshot{
			StudentName: "김서연", StudentSchool: "한빛중학교",
			StudentGrade: "중2", StudentTeacher: "박선생",
		},
	}
}

func TestApplyAttended(t *testing.T) {
	t.Run("explicit start", func(t *testing.T) {
		l := scheduledLesson()
		if err := applyAttended(l, "16:00", time.Now()); err != nil {
			t.Fatalf("applyAttended failed: %v", err)
		}
		if l.Status.Kind != attendance.KindAttended {
			t.Errorf("status = %v, want ATTENDED", l.Status.Kind)
		}
		if l.StartTime != "16:00" || l.EndTime != "17:30" {
			t.Errorf("times = %s–%s, want 16:00–17:30", l.StartTime, l.EndTime)
		}
	})

	t.Run("empty start uses wall clock", func(t *testing.T) {
		l := scheduledLesson()
		now := time.Date(2024, 3, 4, 16, 12, 45, 0, time.Local)
		if err := applyAttended(l, "", now); err != nil {
			t.Fatalf("applyAttended failed: %v", err)
		}
		if l.StartTime != "16:12" {
			t.Errorf("start = %s, want 16:12", l.StartTime)
		}
		if l.EndTime != "17:42" {
			t.Errorf("end = %s, want 17:42", l.EndTime)
		}
	})

	t.Run("invalid start rejected", func(t *testing.T) {
		l := scheduledLesson()
		if err := applyAttended(l, "4pm", time.Now()); err == nil {
			t.Error("expected error for malformed start time")
		}
	})
}

func TestApplyAbsentWithoutMakeup(t *testing.T) {
	l := scheduledLesson()

	makeup, err := applyAbsent(l, l.StudentSnapshot, "여행", false, "", "")
	if err != nil {
		t.Fatalf("applyAbsent failed: %v", err)
	}
	if makeup != nil {
		t.Fatal("no makeup requested but one was built")
	}
	want := attendance.Absent("여행", false)
	if l.Status != want {
		t.Errorf("status = %+v, want %+v", l.Status, want)
	}
	if l.MakeupDate != "" || l.MakeupTime != "" {
		t.Errorf("makeup slot set without makeup: %s %s", l.MakeupDate, l.MakeupTime)
	}
}

func TestApplyAbsentWithMakeup(t *testing.T) {
	l := scheduledLesson()
	snap := model.StudentSnapshot{
		StudentName: "김서연", StudentSchool: "한빛중학교",
		StudentGrade: "중3", StudentTeacher: "정선생", // profile changed since enrollment
	}

	makeup, err := applyAbsent(l, snap, "감기", true, "2024-03-08", "17:00")
	if err != nil {
		t.Fatalf("applyAbsent failed: %v", err)
	}
	if makeup == nil {
		t.Fatal("makeup requested but none built")
	}

	// Origin side.
	if l.Status != attendance.Absent("감기", true) {
		t.Errorf("origin status = %+v", l.Status)
	}
	if l.MakeupDate != "2024-03-08" || l.MakeupTime != "17:00" {
		t.Errorf("origin makeup slot = %s %s", l.MakeupDate, l.MakeupTime)
	}

	// Makeup side.
	if makeup.Status != attendance.Makeup("2024-03-04", "감기") {
		t.Errorf("makeup status = %+v", makeup.Status)
	}
	if makeup.Date != "2024-03-08" || makeup.Time != "17:00" {
		t.Errorf("makeup slot = %s %s", makeup.Date, makeup.Time)
	}
	if makeup.OriginLessonID == nil || *makeup.OriginLessonID != l.ID {
		t.Error("makeup is not back-linked to its origin lesson")
	}
	if makeup.StudentID != l.StudentID {
		t.Errorf("makeup student = %d, want %d", makeup.StudentID, l.StudentID)
	}
	if makeup.StudentGrade != "중3" {
		t.Errorf("makeup snapshot = %+v, want the current profile", makeup.StudentSnapshot)
	}
	if makeup.ID == l.ID {
		t.Error("makeup must get its own identity")
	}
}

func TestApplyAbsentMissingSlot(t *testing.T) {
	tests := []struct {
		name       string
		date, time string
	}{
		{"no slot at all", "", ""},
		{"date only", "2024-03-08", ""},
		{"time only", "", "17:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := scheduledLesson()
			_, err := applyAbsent(l, l.StudentSnapshot, "감기", true, tt.date, tt.time)
			if !errors.Is(err, ErrMakeupSlotRequired) {
				t.Errorf("err = %v, want ErrMakeupSlotRequired", err)
			}
		})
	}

	t.Run("malformed slot", func(t *testing.T) {
		l := scheduledLesson()
		if _, err := applyAbsent(l, l.StudentSnapshot, "감기", true, "03/08", "17:00"); err == nil {
			t.Error("expected error for malformed makeup date")
		}
	})
}

func TestApplyAbsentTwiceBuildsTwoMakeups(t *testing.T) {
	// The transition is deliberately not idempotent: each call with a
	// makeup request builds a fresh makeup lesson.
	l := scheduledLesson()

	first, err := applyAbsent(l, l.StudentSnapshot, "감기", true, "2024-03-08", "17:00")
	if err != nil {
		t.Fatal(err)
	}
	second, err := applyAbsent(l, l.StudentSnapshot, "감기", true, "2024-03-09", "17:00")
	if err != nil {
		t.Fatal(err)
	}

	if first.ID == second.ID {
		t.Error("repeated transitions must build distinct makeup lessons")
	}
	if l.MakeupDate != "2024-03-09" {
		t.Errorf("origin slot = %s, want the latest request", l.MakeupDate)
	}
}

func TestApplyReset(t *testing.T) {
	t.Run("attended back to scheduled", func(t *testing.T) {
		l := scheduledLesson()
		if err := applyAttended(l, "16:00", time.Now()); err != nil {
			t.Fatal(err)
		}

		applyReset(l)
		if l.Status != attendance.Scheduled() {
			t.Errorf("status = %+v, want scheduled", l.Status)
		}
		if l.StartTime != "" || l.EndTime != "" {
			t.Errorf("times survived reset: %s–%s", l.StartTime, l.EndTime)
		}
	})

	t.Run("absence clears makeup slot", func(t *testing.T) {
		l := scheduledLesson()
		if _, err := applyAbsent(l, l.StudentSnapshot, "감기", true, "2024-03-08", "17:00"); err != nil {
			t.Fatal(err)
		}

		applyReset(l)
		if l.Status != attendance.Scheduled() {
			t.Errorf("status = %+v, want scheduled", l.Status)
		}
		if l.MakeupDate != "" || l.MakeupTime != "" {
			t.Errorf("makeup slot survived reset: %s %s", l.MakeupDate, l.MakeupTime)
		}
	})

	t.Run("makeup keeps identity", func(t *testing.T) {
		l := scheduledLesson()
		makeup, err := applyAbsent(l, l.StudentSnapshot, "감기", true, "2024-03-08", "17:00")
		if err != nil {
			t.Fatal(err)
		}
		if err := applyAttended(makeup, "17:00", time.Now()); err != nil {
			t.Fatal(err)
		}

		applyReset(makeup)
		if makeup.Status.Kind != attendance.KindMakeup {
			t.Errorf("makeup status = %v, want MAKEUP after reset", makeup.Status.Kind)
		}
		if makeup.OriginLessonID == nil {
			t.Error("origin link lost on reset")
		}
		if makeup.StartTime != "" || makeup.EndTime != "" {
			t.Errorf("times survived reset: %s–%s", makeup.StartTime, makeup.EndTime)
		}
	})
}

func TestRelocatedMakeup(t *testing.T) {
	l := scheduledLesson()
	old, err := applyAbsent(l, l.StudentSnapshot, "감기", true, "2024-03-08", "17:00")
	if err != nil {
		t.Fatal(err)
	}
	old.Note = "단어시험 재응시"

	moved, err := relocatedMakeup(old, "2024-03-09", "10:00")
	if err != nil {
		t.Fatalf("relocatedMakeup failed: %v", err)
	}

	if moved.Date != "2024-03-09" || moved.Time != "10:00" {
		t.Errorf("slot = %s %s", moved.Date, moved.Time)
	}
	if moved.ID == old.ID {
		t.Error("replacement must get its own identity")
	}
	if moved.Status != old.Status {
		t.Errorf("status changed on relocation: %+v vs %+v", moved.Status, old.Status)
	}
	if moved.OriginLessonID == nil || *moved.OriginLessonID != *old.OriginLessonID {
		t.Error("origin link not carried over")
	}
	if moved.Note != old.Note {
		t.Errorf("note lost: %q", moved.Note)
	}

	if _, err := relocatedMakeup(old, "bad-date", "10:00"); err == nil {
		t.Error("expected error for malformed date")
	}
}
