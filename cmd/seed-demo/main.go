// Command seed-demo enrolls a handful of sample students for local
// development. Each enrollment materializes the full lesson horizon, so
// the week view has data immediately.
package main

import (
	"context"
	"time"

	"github.com/daonlabs/hagwon-backend/internal/config"
	"github.com/daonlabs/hagwon-backend/internal/database"
	"github.com/daonlabs/hagwon-backend/internal/logger"
	"github.com/daonlabs/hagwon-backend/internal/model"
	"github.com/daonlabs/hagwon-backend/internal/repository"
	"github.com/daonlabs/hagwon-backend/internal/schedule"
	"github.com/daonlabs/hagwon-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	studentRepo := repository.NewStudentRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	feed := service.NewFeedService(rdb, log)
	students := service.NewStudentService(studentRepo, lessonRepo, feed, rdb, log)

	start := time.Now().Format(schedule.DateLayout)
	demo := []*model.Student{
		{
			Name: "김서연", School: "한빛중학교", Grade: "중2", Teacher: "박선생",
			StartDate: start,
			Schedule:  schedule.Template{time.Monday: "16:00", time.Wednesday: "16:00"},
		},
		{
			Name: "이준호", School: "동산고등학교", Grade: "고1", Teacher: "박선생",
			StartDate: start,
			Schedule:  schedule.Template{time.Tuesday: "18:00", time.Thursday: "18:00", time.Saturday: "10:00"},
		},
		{
			Name: "최민지", School: "한빛중학교", Grade: "중3", Teacher: "정선생",
			StartDate: start,
			Schedule:  schedule.Template{time.Friday: "17:00"},
		},
	}

	for _, s := range demo {
		if err := students.Enroll(ctx, s); err != nil {
			log.Error().Err(err).Str("name", s.Name).Msg("Demo enrollment failed")
			continue
		}
		log.Info().Int("id", s.ID).Str("name", s.Name).Msg("Demo student enrolled")
	}
}
