package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/core/port"
	"github.com/arklim/learnhub-client/internal/repository"
)

// CourseService serves the catalog, enrollment, and lesson-progress flows.
type CourseService struct {
	store  port.CourseStore
	logger *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(store port.CourseStore, log *zap.Logger) (*CourseService, error) {
	if store == nil {
		return nil, fmt.Errorf("course store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CourseService{store: store, logger: log}, nil
}

// ListPublished returns published courses, newest first.
func (s *CourseService) ListPublished(ctx context.Context) ([]domain.Course, error) {
	courses, err := s.store.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns a course with its lessons in order.
func (s *CourseService) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	if id == "" {
		return nil, fmt.Errorf("course id is required")
	}

	course, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("fetch course: %w", err)
	}

	return course, nil
}

// Enroll creates an enrollment for the user in the course. Enrolling twice
// in the same course fails with ErrAlreadyEnrolled.
func (s *CourseService) Enroll(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if courseID == "" {
		return nil, fmt.Errorf("course id is required")
	}

	now := time.Now().UTC()
	enrollment := domain.Enrollment{
		ID:                 uuid.NewString(),
		UserID:             userID,
		CourseID:           courseID,
		EnrolledAt:         now,
		ProgressPercentage: 0,
		LastAccessed:       now,
	}

	created, err := s.store.CreateEnrollment(ctx, enrollment)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	s.logger.Info("enrollment created",
		zap.String("user_id", userID),
		zap.String("course_id", courseID),
	)

	return created, nil
}

// Enrollments returns the user's enrollments with their course rows, most
// recent first.
func (s *CourseService) Enrollments(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	enrollments, err := s.store.ListEnrollmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	return enrollments, nil
}

// UpdateLessonProgress upserts the user's progress for a lesson, keyed by
// user and lesson. CompletedAt is stamped only when completed is set.
func (s *CourseService) UpdateLessonProgress(ctx context.Context, userID, lessonID string, completed bool, watchTimeSeconds int) (*domain.LessonProgress, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if lessonID == "" {
		return nil, fmt.Errorf("lesson id is required")
	}
	if watchTimeSeconds < 0 {
		return nil, fmt.Errorf("watch time must not be negative")
	}

	progress := domain.LessonProgress{
		ID:               uuid.NewString(),
		UserID:           userID,
		LessonID:         lessonID,
		Completed:        completed,
		WatchTimeSeconds: watchTimeSeconds,
	}
	if completed {
		now := time.Now().UTC()
		progress.CompletedAt = &now
	}

	saved, err := s.store.UpsertLessonProgress(ctx, progress)
	if err != nil {
		return nil, fmt.Errorf("upsert lesson progress: %w", err)
	}

	return saved, nil
}
