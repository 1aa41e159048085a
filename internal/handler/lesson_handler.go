package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/daonlabs/hagwon-backend/internal/model"
	"github.com/daonlabs/hagwon-backend/internal/repository"
	"github.com/daonlabs/hagwon-backend/internal/response"
	"github.com/daonlabs/hagwon-backend/internal/service"
	"github.com/daonlabs/hagwon-backend/internal/validator"
)

// LessonHandler handles lesson and attendance endpoints.
type LessonHandler struct {
	lessonService *service.LessonService
	log           zerolog.Logger
}

// NewLessonHandler creates a new LessonHandler.
func NewLessonHandler(lessonService *service.LessonService, log zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		lessonService: lessonService,
		log:           log.With().Str("component", "lesson_handler").Logger(),
	}
}

// AttendRequest is the payload for marking attendance. Start is optional;
// empty means "from now".
type AttendRequest struct {
	Start string `json:"start"`
}

// AbsentRequest is the payload for marking an absence.
type AbsentRequest struct {
	Reason      string `json:"reason"`
	WantsMakeup bool   `json:"wants_makeup"`
	MakeupDate  string `json:"makeup_date"`
	MakeupTime  string `json:"makeup_time"`
}

// RelocateRequest is the payload for moving an absence's makeup lesson.
type RelocateRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// NoteRequest is the payload for annotating a lesson.
type NoteRequest struct {
	Note string `json:"note"`
}

// ListWeek handles GET /api/v1/lessons?week=YYYY-MM-DD — the 7-day window
// starting at the given date, date then time ascending.
func (h *LessonHandler) ListWeek(c *gin.Context) {
	week := c.Query("week")
	if week == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	lessons, err := h.lessonService.ListWeek(c.Request.Context(), week)
	if err != nil {
		h.log.Error().Err(err).Str("week", week).Msg("Failed to list week")
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	response.Success(c, http.StatusOK, lessons)
}

// Create handles POST /api/v1/lessons — ad hoc makeup insertion outside
// the weekly template.
func (h *LessonHandler) Create(c *gin.Context) {
	var req model.CreateLessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.lessonService.AddManual(c.Request.Context(), req.StudentID, req.Date, req.Time)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	response.Success(c, http.StatusCreated, lesson)
}

// Get handles GET /api/v1/lessons/:id.
func (h *LessonHandler) Get(c *gin.Context) {
	id, ok := h.lessonID(c)
	if !ok {
		return
	}

	lesson, err := h.lessonService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, lesson)
}

// Attend handles POST /api/v1/lessons/:id/attend.
func (h *LessonHandler) Attend(c *gin.Context) {
	id, ok := h.lessonID(c)
	if !ok {
		return
	}

	var req AttendRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.lessonService.MarkAttended(c.Request.Context(), id, req.Start)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, lesson)
}

// Absent handles POST /api/v1/lessons/:id/absent. With wants_makeup set,
// a linked makeup lesson is created on the given slot.
func (h *LessonHandler) Absent(c *gin.Context) {
	id, ok := h.lessonID(c)
	if !ok {
		return
	}

	var req AbsentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.lessonService.MarkAbsent(
		c.Request.Context(), id, req.Reason, req.WantsMakeup, req.MakeupDate, req.MakeupTime)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, lesson)
}

// Reset handles POST /api/v1/lessons/:id/reset — undo the attendance
// event while keeping a makeup's identity intact.
func (h *LessonHandler) Reset(c *gin.Context) {
	id, ok := h.lessonID(c)
	if !ok {
		return
	}

	lesson, err := h.lessonService.ResetStatus(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, lesson)
}

// Relocate handles POST /api/v1/lessons/:id/relocate — move the absence's
// linked makeup lesson to a new slot.
func (h *LessonHandler) Relocate(c *gin.Context) {
	id, ok := h.lessonID(c)
	if !ok {
		return
	}

	var req RelocateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	makeup, err := h.lessonService.Relocate(c.Request.Context(), id, req.Date, req.Time)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, makeup)
}

// Note handles PUT /api/v1/lessons/:id/note.
func (h *LessonHandler) Note(c *gin.Context) {
	id, ok := h.lessonID(c)
	if !ok {
		return
	}

	var req NoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.lessonService.SetNote(c.Request.Context(), id, req.Note); err != nil {
		h.respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"note": req.Note})
}

// Delete handles DELETE /api/v1/lessons/:id.
func (h *LessonHandler) Delete(c *gin.Context) {
	id, ok := h.lessonID(c)
	if !ok {
		return
	}

	if err := h.lessonService.Delete(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *LessonHandler) lessonID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *LessonHandler) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNoMakeupLinked):
		response.Fail(c, http.StatusConflict, response.ErrLinkageInconsistent)
	case errors.Is(err, service.ErrMakeupSlotRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		h.log.Error().Err(err).Msg("Lesson operation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
