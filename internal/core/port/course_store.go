package port

import (
	"context"

	"github.com/arklim/learnhub-client/internal/core/domain"
)

// CourseStore exposes persistence behavior for the course catalog and
// enrollment tracking.
type CourseStore interface {
	ListPublished(ctx context.Context) ([]domain.Course, error)
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	ListByStatus(ctx context.Context, status domain.CourseStatus) ([]domain.Course, error)
	UpdateStatus(ctx context.Context, id string, status domain.CourseStatus) (*domain.Course, error)

	CreateEnrollment(ctx context.Context, enrollment domain.Enrollment) (*domain.Enrollment, error)
	ListEnrollmentsByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)
	UpsertLessonProgress(ctx context.Context, progress domain.LessonProgress) (*domain.LessonProgress, error)

	CountUsers(ctx context.Context) (int64, error)
	CountCourses(ctx context.Context) (int64, error)
	CountEnrollments(ctx context.Context) (int64, error)
}
