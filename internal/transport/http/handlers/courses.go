package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/learnhub-client/internal/usecase"
)

// CourseHandler exposes the course catalog and enrollment endpoints.
type CourseHandler struct {
	courses *usecase.CourseService
	manager *usecase.SessionManager
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *usecase.CourseService, manager *usecase.SessionManager) *CourseHandler {
	return &CourseHandler{courses: courses, manager: manager}
}

// RegisterRoutes binds public catalog routes.
func (h *CourseHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.GET("/:id", h.get)
}

// RegisterAuthenticatedRoutes binds the routes that act on the current user.
func (h *CourseHandler) RegisterAuthenticatedRoutes(r *gin.RouterGroup) {
	r.POST("/enrollments", h.enroll)
	r.GET("/enrollments", h.enrollments)
	r.PUT("/lessons/:lessonID/progress", h.lessonProgress)
}

func (h *CourseHandler) list(c *gin.Context) {
	courses, err := h.courses.ListPublished(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list courses"))
		return
	}

	c.JSON(http.StatusOK, NewCourseListResponse(courses))
}

func (h *CourseHandler) get(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrCourseNotFound, Status: http.StatusNotFound, Message: "course not found"},
		}, http.StatusInternalServerError, "failed to fetch course")
		return
	}

	c.JSON(http.StatusOK, NewCoursePayload(course))
}

func (h *CourseHandler) enroll(c *gin.Context) {
	user := h.manager.CurrentUser()
	if user == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid enrollment payload"))
		return
	}

	enrollment, err := h.courses.Enroll(c.Request.Context(), user.ID, req.CourseID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAlreadyEnrolled, Status: http.StatusConflict, Message: "already enrolled in course"},
			{Err: usecase.ErrCourseNotFound, Status: http.StatusNotFound, Message: "course not found"},
		}, http.StatusInternalServerError, "enrollment failed")
		return
	}

	c.JSON(http.StatusCreated, NewEnrollmentPayload(enrollment))
}

func (h *CourseHandler) enrollments(c *gin.Context) {
	user := h.manager.CurrentUser()
	if user == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	enrollments, err := h.courses.Enrollments(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list enrollments"))
		return
	}

	payloads := make([]EnrollmentPayload, 0, len(enrollments))
	for i := range enrollments {
		payloads = append(payloads, *NewEnrollmentPayload(&enrollments[i]))
	}

	c.JSON(http.StatusOK, gin.H{"enrollments": payloads})
}

func (h *CourseHandler) lessonProgress(c *gin.Context) {
	user := h.manager.CurrentUser()
	if user == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req LessonProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid progress payload"))
		return
	}

	progress, err := h.courses.UpdateLessonProgress(c.Request.Context(), user.ID, c.Param("lessonID"), req.Completed, req.WatchTimeSeconds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to record progress"))
		return
	}

	c.JSON(http.StatusOK, LessonProgressPayload{
		LessonID:         progress.LessonID,
		Completed:        progress.Completed,
		CompletedAt:      progress.CompletedAt,
		WatchTimeSeconds: progress.WatchTimeSeconds,
	})
}
