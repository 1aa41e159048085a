package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/daonlabs/hagwon-backend/internal/config"
	"github.com/daonlabs/hagwon-backend/internal/handler"
	"github.com/daonlabs/hagwon-backend/internal/middleware"
	"github.com/daonlabs/hagwon-backend/internal/response"
	"github.com/daonlabs/hagwon-backend/internal/service"
)

// Handlers aggregates all HTTP handlers for route registration.
type Handlers struct {
	Auth    *handler.AuthHandler
	Student *handler.StudentHandler
	Lesson  *handler.LessonHandler
	Feed    *handler.FeedHandler
}

// Setup configures the Gin engine with middleware and all routes.
func Setup(cfg *config.Config, authService *service.AuthService, h Handlers, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(response.RequestIDMiddleware())
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", loginLimiter.Middleware(), h.Auth.Login)
			auth.GET("/me", middleware.RequireAdminJWT(authService), h.Auth.Me)
		}

		admin := api.Group("")
		admin.Use(middleware.RequireAdminJWT(authService))
		{
			students := admin.Group("/students")
			{
				students.GET("", h.Student.List)
				students.POST("", h.Student.Create)
				students.GET("/:id", h.Student.Get)
				students.PUT("/:id", h.Student.Update)
				students.POST("/:id/withdraw", h.Student.Withdraw)
				students.GET("/:id/lessons", h.Student.Lessons)
			}

			lessons := admin.Group("/lessons")
			{
				lessons.GET("", h.Lesson.ListWeek)
				lessons.POST("", h.Lesson.Create)
				lessons.GET("/:id", h.Lesson.Get)
				lessons.POST("/:id/attend", h.Lesson.Attend)
				lessons.POST("/:id/absent", h.Lesson.Absent)
				lessons.POST("/:id/reset", h.Lesson.Reset)
				lessons.POST("/:id/relocate", h.Lesson.Relocate)
				lessons.PUT("/:id/note", h.Lesson.Note)
				lessons.DELETE("/:id", h.Lesson.Delete)
			}
		}
	}

	ws := r.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/lessons/feed", h.Feed.Stream)
	}

	log.Info().Msg("Routes registered")
	return r
}
