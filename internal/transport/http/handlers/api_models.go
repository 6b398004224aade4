package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/infra/logger"
)

// ErrorResponse represents a generic error payload with request ID for debugging.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request correlation ID.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	requestID, _ := c.Request.Context().Value(logger.RequestIDKey{}).(string)

	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestID,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// SignUpRequest defines the payload for account creation.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

// SignInRequest defines the payload for password authentication.
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest defines the payload for password recovery dispatch.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// IdentitySummary describes a provider identity returned by the API.
type IdentitySummary struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	EmailConfirmed bool       `json:"email_confirmed"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewIdentitySummary maps a domain identity into its API shape.
func NewIdentitySummary(identity *domain.Identity) *IdentitySummary {
	if identity == nil {
		return nil
	}
	return &IdentitySummary{
		ID:             identity.ID,
		Email:          identity.Email,
		EmailConfirmed: identity.EmailConfirmedAt != nil,
		ConfirmedAt:    identity.EmailConfirmedAt,
		CreatedAt:      identity.CreatedAt,
	}
}

// SessionSummary provides a compact view of the held session.
type SessionSummary struct {
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id,omitempty"`
}

// NewSessionSummary maps a domain session into its API shape.
func NewSessionSummary(session *domain.Session) *SessionSummary {
	if session == nil {
		return nil
	}
	return &SessionSummary{
		TokenType: session.TokenType,
		ExpiresAt: session.ExpiresAt,
		UserID:    session.UserID(),
	}
}

// ProfilePayload is the API view of a profile row.
type ProfilePayload struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	FullName    string         `json:"full_name"`
	AvatarURL   *string        `json:"avatar_url,omitempty"`
	Role        domain.Role    `json:"role"`
	IsActive    bool           `json:"is_active"`
	Preferences map[string]any `json:"preferences,omitempty"`
	LastLogin   *time.Time     `json:"last_login,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewProfilePayload maps a domain profile into its API shape.
func NewProfilePayload(profile *domain.Profile) *ProfilePayload {
	if profile == nil {
		return nil
	}
	return &ProfilePayload{
		ID:          profile.ID,
		Email:       profile.Email,
		FullName:    profile.FullName,
		AvatarURL:   profile.AvatarURL,
		Role:        profile.Role,
		IsActive:    profile.IsActive,
		Preferences: profile.Preferences,
		LastLogin:   profile.LastLogin,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}

// ProfileUpdateRequest defines the partial-update payload for the profile
// endpoint. Absent fields are left untouched.
type ProfileUpdateRequest struct {
	FullName    *string        `json:"full_name"`
	AvatarURL   *string        `json:"avatar_url"`
	Preferences map[string]any `json:"preferences"`
}

// AuthStateResponse is the observable authentication state.
type AuthStateResponse struct {
	User    *ProfilePayload `json:"user"`
	Session *SessionSummary `json:"session"`
	Loading bool            `json:"loading"`
}

// SignUpResponse is returned after successful account creation.
type SignUpResponse struct {
	User    *IdentitySummary `json:"user"`
	Message string           `json:"message"`
}

// LessonPayload is the API view of a lesson row.
type LessonPayload struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	OrderIndex      int    `json:"order_index"`
}

// CoursePayload is the API view of a course row.
type CoursePayload struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	InstructorID  string              `json:"instructor_id"`
	Instructor    *ProfilePayload     `json:"instructor,omitempty"`
	ThumbnailURL  *string             `json:"thumbnail_url,omitempty"`
	Price         float64             `json:"price"`
	Status        domain.CourseStatus `json:"status"`
	Category      string              `json:"category,omitempty"`
	Level         domain.CourseLevel  `json:"level,omitempty"`
	DurationHours float64             `json:"duration_hours"`
	Rating        float64             `json:"rating"`
	TotalStudents int                 `json:"total_students"`
	Lessons       []LessonPayload     `json:"lessons,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NewCoursePayload maps a domain course into its API shape.
func NewCoursePayload(course *domain.Course) *CoursePayload {
	if course == nil {
		return nil
	}

	payload := &CoursePayload{
		ID:            course.ID,
		Title:         course.Title,
		Description:   course.Description,
		InstructorID:  course.InstructorID,
		Instructor:    NewProfilePayload(course.Instructor),
		ThumbnailURL:  course.ThumbnailURL,
		Price:         course.Price,
		Status:        course.Status,
		Category:      course.Category,
		Level:         course.Level,
		DurationHours: course.DurationHours,
		Rating:        course.Rating,
		TotalStudents: course.TotalStudents,
		CreatedAt:     course.CreatedAt,
	}

	for _, lesson := range course.Lessons {
		payload.Lessons = append(payload.Lessons, LessonPayload{
			ID:              lesson.ID,
			Title:           lesson.Title,
			Description:     lesson.Description,
			VideoURL:        lesson.VideoURL,
			DurationMinutes: lesson.DurationMinutes,
			OrderIndex:      lesson.OrderIndex,
		})
	}

	return payload
}

// CourseListResponse wraps a course collection.
type CourseListResponse struct {
	Courses []CoursePayload `json:"courses"`
}

// NewCourseListResponse maps domain courses into the list shape.
func NewCourseListResponse(courses []domain.Course) CourseListResponse {
	resp := CourseListResponse{Courses: make([]CoursePayload, 0, len(courses))}
	for i := range courses {
		resp.Courses = append(resp.Courses, *NewCoursePayload(&courses[i]))
	}
	return resp
}

// EnrollRequest defines the payload for course enrollment.
type EnrollRequest struct {
	CourseID string `json:"course_id" binding:"required"`
}

// EnrollmentPayload is the API view of an enrollment row.
type EnrollmentPayload struct {
	ID                 string         `json:"id"`
	CourseID           string         `json:"course_id"`
	Course             *CoursePayload `json:"course,omitempty"`
	EnrolledAt         time.Time      `json:"enrolled_at"`
	ProgressPercentage float64        `json:"progress_percentage"`
	LastAccessed       time.Time      `json:"last_accessed"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
}

// NewEnrollmentPayload maps a domain enrollment into its API shape.
func NewEnrollmentPayload(enrollment *domain.Enrollment) *EnrollmentPayload {
	if enrollment == nil {
		return nil
	}
	return &EnrollmentPayload{
		ID:                 enrollment.ID,
		CourseID:           enrollment.CourseID,
		Course:             NewCoursePayload(enrollment.Course),
		EnrolledAt:         enrollment.EnrolledAt,
		ProgressPercentage: enrollment.ProgressPercentage,
		LastAccessed:       enrollment.LastAccessed,
		CompletedAt:        enrollment.CompletedAt,
	}
}

// LessonProgressRequest defines the payload for recording lesson progress.
type LessonProgressRequest struct {
	Completed        bool `json:"completed"`
	WatchTimeSeconds int  `json:"watch_time_seconds"`
}

// LessonProgressPayload is the API view of a lesson-progress row.
type LessonProgressPayload struct {
	LessonID         string     `json:"lesson_id"`
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	WatchTimeSeconds int        `json:"watch_time_seconds"`
}

// PlatformStatsResponse reports headline platform counts.
type PlatformStatsResponse struct {
	TotalUsers       int64 `json:"total_users"`
	TotalCourses     int64 `json:"total_courses"`
	TotalEnrollments int64 `json:"total_enrollments"`
}
