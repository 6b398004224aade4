package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/core/port"
	"github.com/arklim/learnhub-client/internal/repository"
)

// AdminService serves the admin panel: platform statistics and the course
// approval queue. Every operation is gated on the acting profile holding the
// admin role.
type AdminService struct {
	store  port.CourseStore
	logger *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(store port.CourseStore, log *zap.Logger) (*AdminService, error) {
	if store == nil {
		return nil, fmt.Errorf("course store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{store: store, logger: log}, nil
}

func requireAdmin(actor *domain.Profile) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// PlatformStats aggregates user, course, and enrollment counts.
func (s *AdminService) PlatformStats(ctx context.Context, actor *domain.Profile) (domain.PlatformStats, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.PlatformStats{}, err
	}

	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return domain.PlatformStats{}, fmt.Errorf("count users: %w", err)
	}
	courses, err := s.store.CountCourses(ctx)
	if err != nil {
		return domain.PlatformStats{}, fmt.Errorf("count courses: %w", err)
	}
	enrollments, err := s.store.CountEnrollments(ctx)
	if err != nil {
		return domain.PlatformStats{}, fmt.Errorf("count enrollments: %w", err)
	}

	return domain.PlatformStats{
		TotalUsers:       users,
		TotalCourses:     courses,
		TotalEnrollments: enrollments,
	}, nil
}

// PendingCourses returns draft courses awaiting approval, newest first.
func (s *AdminService) PendingCourses(ctx context.Context, actor *domain.Profile) ([]domain.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	courses, err := s.store.ListByStatus(ctx, domain.CourseStatusDraft)
	if err != nil {
		return nil, fmt.Errorf("list pending courses: %w", err)
	}

	return courses, nil
}

// ApproveCourse publishes a draft course.
func (s *AdminService) ApproveCourse(ctx context.Context, actor *domain.Profile, courseID string) (*domain.Course, error) {
	return s.transition(ctx, actor, courseID, domain.CourseStatusPublished)
}

// RejectCourse archives a draft course.
func (s *AdminService) RejectCourse(ctx context.Context, actor *domain.Profile, courseID string) (*domain.Course, error) {
	return s.transition(ctx, actor, courseID, domain.CourseStatusArchived)
}

func (s *AdminService) transition(ctx context.Context, actor *domain.Profile, courseID string, status domain.CourseStatus) (*domain.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if courseID == "" {
		return nil, fmt.Errorf("course id is required")
	}

	course, err := s.store.UpdateStatus(ctx, courseID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("update course status: %w", err)
	}

	s.logger.Info("course status changed",
		zap.String("course_id", courseID),
		zap.String("status", string(status)),
		zap.String("actor", actor.ID),
	)

	return course, nil
}
