package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/learnhub-client/internal/usecase"
)

// AdminHandler exposes the admin dashboard endpoints.
type AdminHandler struct {
	admin   *usecase.AdminService
	manager *usecase.SessionManager
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admin *usecase.AdminService, manager *usecase.SessionManager) *AdminHandler {
	return &AdminHandler{admin: admin, manager: manager}
}

// RegisterRoutes binds admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.stats)
	r.GET("/courses/pending", h.pendingCourses)
	r.POST("/courses/:id/approve", h.approveCourse)
	r.POST("/courses/:id/reject", h.rejectCourse)
}

var adminErrorCases = []ErrorCase{
	{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "admin role required"},
	{Err: usecase.ErrCourseNotFound, Status: http.StatusNotFound, Message: "course not found"},
}

func (h *AdminHandler) stats(c *gin.Context) {
	stats, err := h.admin.PlatformStats(c.Request.Context(), h.manager.CurrentUser())
	if err != nil {
		RespondWithMappedError(c, err, adminErrorCases, http.StatusInternalServerError, "failed to load stats")
		return
	}

	c.JSON(http.StatusOK, PlatformStatsResponse{
		TotalUsers:       stats.TotalUsers,
		TotalCourses:     stats.TotalCourses,
		TotalEnrollments: stats.TotalEnrollments,
	})
}

func (h *AdminHandler) pendingCourses(c *gin.Context) {
	courses, err := h.admin.PendingCourses(c.Request.Context(), h.manager.CurrentUser())
	if err != nil {
		RespondWithMappedError(c, err, adminErrorCases, http.StatusInternalServerError, "failed to list pending courses")
		return
	}

	c.JSON(http.StatusOK, NewCourseListResponse(courses))
}

func (h *AdminHandler) approveCourse(c *gin.Context) {
	course, err := h.admin.ApproveCourse(c.Request.Context(), h.manager.CurrentUser(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, adminErrorCases, http.StatusInternalServerError, "failed to approve course")
		return
	}

	c.JSON(http.StatusOK, NewCoursePayload(course))
}

func (h *AdminHandler) rejectCourse(c *gin.Context) {
	course, err := h.admin.RejectCourse(c.Request.Context(), h.manager.CurrentUser(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, adminErrorCases, http.StatusInternalServerError, "failed to reject course")
		return
	}

	c.JSON(http.StatusOK, NewCoursePayload(course))
}
