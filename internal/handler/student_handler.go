package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/daonlabs/hagwon-backend/internal/model"
	"github.com/daonlabs/hagwon-backend/internal/repository"
	"github.com/daonlabs/hagwon-backend/internal/response"
	"github.com/daonlabs/hagwon-backend/internal/service"
	"github.com/daonlabs/hagwon-backend/internal/validator"
)

// StudentHandler handles student roster endpoints.
type StudentHandler struct {
	studentService *service.StudentService
	lessonService  *service.LessonService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(
	studentService *service.StudentService,
	lessonService *service.LessonService,
	log zerolog.Logger,
) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		lessonService:  lessonService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// List handles GET /api/v1/students?q=...
// The search term matches name, school, grade, and teacher.
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.studentService.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list students")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, students)
}

// Get handles GET /api/v1/students/:id.
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// Create handles POST /api/v1/students. Enrollment materializes the full
// long-horizon lesson set; a partial batch failure reports the failed
// slots per field and keeps the student row.
func (h *StudentHandler) Create(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student := &model.Student{
		Name:      req.Name,
		School:    req.School,
		Grade:     req.Grade,
		Teacher:   req.Teacher,
		StartDate: req.StartDate,
		Schedule:  req.Schedule,
	}

	if err := h.studentService.Enroll(c.Request.Context(), student); err != nil {
		var batchErr *repository.PartialBatchError
		if errors.As(err, &batchErr) {
			h.log.Error().Err(err).Int("student_id", student.ID).
				Msg("Partial enrollment materialization")
			response.FailWithFields(c, http.StatusConflict, response.ErrPartialBatch, batchErr.FieldMap())
			return
		}
		h.log.Error().Err(err).Msg("Failed to enroll student")
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// Update handles PUT /api/v1/students/:id. Changing the weekly schedule
// regenerates the student's future lessons.
func (h *StudentHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	student.Name = req.Name
	student.School = req.School
	student.Grade = req.Grade
	student.Teacher = req.Teacher
	student.Schedule = req.Schedule

	if err := h.studentService.Update(c.Request.Context(), student); err != nil {
		var batchErr *repository.PartialBatchError
		if errors.As(err, &batchErr) {
			response.FailWithFields(c, http.StatusConflict, response.ErrPartialBatch, batchErr.FieldMap())
			return
		}
		h.log.Error().Err(err).Int("student_id", id).Msg("Failed to update student")
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// Withdraw handles POST /api/v1/students/:id/withdraw.
func (h *StudentHandler) Withdraw(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.WithdrawStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.studentService.Withdraw(c.Request.Context(), id, req.Date); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Int("student_id", id).Msg("Failed to withdraw student")
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"withdrawn": true})
}

// Lessons handles GET /api/v1/students/:id/lessons — the student's full
// lesson history, oldest first.
func (h *StudentHandler) Lessons(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	lessons, err := h.lessonService.ListByStudent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, lessons)
}
