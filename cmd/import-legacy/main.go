// Command import-legacy loads the academy's old spreadsheet export into
// the database. It expects two CSV files:
//
//	students.csv: legacy_id,name,school,grade,teacher,start_date,schedule
//	lessons.csv:  legacy_student_id,date,time,status,start,end,note
//
// schedule uses the compact display form ("월 16:00, 수 17:00"); status
// uses the textual grammar and is decoded into the structured variant.
// Absence/makeup pairs are re-linked by student and origin date; rows
// whose link cannot be resolved are imported anyway and logged.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/daonlabs/hagwon-backend/internal/attendance"
	"github.com/daonlabs/hagwon-backend/internal/config"
	"github.com/daonlabs/hagwon-backend/internal/database"
	"github.com/daonlabs/hagwon-backend/internal/logger"
	"github.com/daonlabs/hagwon-backend/internal/model"
	"github.com/daonlabs/hagwon-backend/internal/repository"
	"github.com/daonlabs/hagwon-backend/internal/schedule"
)

func main() {
	var (
		studentsPath = flag.String("students", "students.csv", "students CSV path")
		lessonsPath  = flag.String("lessons", "lessons.csv", "lessons CSV path")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)

	// ── Students ────────────────────────────────────────────────────

	idMap := make(map[string]*model.Student) // legacy id → inserted student

	err = readCSV(*studentsPath, func(rec []string) {
		if len(rec) < 7 {
			log.Warn().Strs("row", rec).Msg("Short student row skipped")
			return
		}
		tpl, err := schedule.ParseTemplate(rec[6])
		if err != nil {
			log.Warn().Err(err).Str("legacy_id", rec[0]).Msg("Unparseable schedule, importing empty")
			tpl = schedule.Template{}
		}
		student := &model.Student{
			Name:      rec[1],
			School:    rec[2],
			Grade:     rec[3],
			Teacher:   rec[4],
			StartDate: rec[5],
			Schedule:  tpl,
		}
		if err := studentRepo.Create(ctx, student); err != nil {
			log.Error().Err(err).Str("legacy_id", rec[0]).Msg("Student insert failed")
			return
		}
		idMap[rec[0]] = student
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", *studentsPath).Msg("Failed to read students CSV")
	}
	log.Info().Int("students", len(idMap)).Msg("Students imported")

	// ── Lessons ─────────────────────────────────────────────────────

	var lessons []model.Lesson
	err = readCSV(*lessonsPath, func(rec []string) {
		if len(rec) < 7 {
			log.Warn().Strs("row", rec).Msg("Short lesson row skipped")
			return
		}
		student, ok := idMap[rec[0]]
		if !ok {
			log.Warn().Str("legacy_student_id", rec[0]).Msg("Lesson for unknown student skipped")
			return
		}
		lessons = append(lessons, model.Lesson{
			ID:              uuid.New(),
			StudentID:       student.ID,
			Date:            rec[1],
			Time:            rec[2],
			Status:          attendance.Decode(rec[3]),
			StartTime:       rec[4],
			EndTime:         rec[5],
			Note:            rec[6],
			StudentSnapshot: student.Snapshot(),
		})
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", *lessonsPath).Msg("Failed to read lessons CSV")
	}

	relinkMakeups(lessons, log)

	if err := lessonRepo.BulkCreate(ctx, lessons); err != nil {
		log.Error().Err(err).Msg("Lesson import incomplete")
	}
	log.Info().Int("lessons", len(lessons)).Msg("Lessons imported")
}

// relinkMakeups restores the absence ↔ makeup references the flat export
// lost. A makeup's status carries its origin date; the absence on that
// date for the same student is its origin. Unresolvable links are left
// dangling, which only degrades display.
func relinkMakeups(lessons []model.Lesson, log zerolog.Logger) {
	type key struct {
		studentID int
		date      string
	}

	absences := make(map[key]int) // → index into lessons
	for i := range lessons {
		if lessons[i].Status.Kind == attendance.KindAbsent {
			absences[key{lessons[i].StudentID, lessons[i].Date}] = i
		}
	}

	linked, dangling := 0, 0
	for i := range lessons {
		l := &lessons[i]
		if l.Status.Kind != attendance.KindMakeup || l.Status.OriginDate == "" {
			continue
		}
		j, ok := absences[key{l.StudentID, l.Status.OriginDate}]
		if !ok {
			dangling++
			log.Warn().
				Int("student_id", l.StudentID).
				Str("origin_date", l.Status.OriginDate).
				Msg("Makeup origin not found, link left dangling")
			continue
		}
		origin := &lessons[j]
		l.OriginLessonID = &origin.ID
		origin.MakeupDate, origin.MakeupTime = l.Date, l.Time
		linked++
	}

	log.Info().Int("linked", linked).Int("dangling", dangling).Msg("Makeup links rebuilt")
}

// readCSV streams a CSV file row by row. Exports carry no header line.
func readCSV(path string, fn func(rec []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fn(rec)
	}
}
