package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/repository"
)

var courseColumns = []string{
	"c.id",
	"c.title",
	"c.description",
	"c.instructor_id",
	"c.thumbnail_url",
	"c.price",
	"c.status",
	"c.category",
	"c.level",
	"c.duration_hours",
	"c.rating",
	"c.total_students",
	"c.created_at",
	"c.updated_at",
}

// CourseRepository implements port.CourseStore backed by the provider's
// PostgreSQL courses, lessons, enrollments, and lesson_progress tables.
type CourseRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCourseRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewCourseRepository(exec pgExecutor) *CourseRepository {
	return &CourseRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListPublished returns published courses with instructor name and avatar,
// newest first.
func (r *CourseRepository) ListPublished(ctx context.Context) ([]domain.Course, error) {
	return r.listWithInstructor(ctx, domain.CourseStatusPublished)
}

// ListByStatus returns courses in the given status, newest first.
func (r *CourseRepository) ListByStatus(ctx context.Context, status domain.CourseStatus) ([]domain.Course, error) {
	return r.listWithInstructor(ctx, status)
}

func (r *CourseRepository) listWithInstructor(ctx context.Context, status domain.CourseStatus) ([]domain.Course, error) {
	columns := append(append([]string{}, courseColumns...), "p.full_name", "p.avatar_url")

	stmt, args, err := r.builder.
		Select(columns...).
		From("courses c").
		LeftJoin("profiles p ON p.id = c.instructor_id").
		Where(squirrel.Eq{"c.status": status}).
		OrderBy("c.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list courses sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := make([]domain.Course, 0)
	for rows.Next() {
		var (
			course           domain.Course
			instructorName   *string
			instructorAvatar *string
		)
		if err := rows.Scan(
			&course.ID,
			&course.Title,
			&course.Description,
			&course.InstructorID,
			&course.ThumbnailURL,
			&course.Price,
			&course.Status,
			&course.Category,
			&course.Level,
			&course.DurationHours,
			&course.Rating,
			&course.TotalStudents,
			&course.CreatedAt,
			&course.UpdatedAt,
			&instructorName,
			&instructorAvatar,
		); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		if instructorName != nil {
			course.Instructor = &domain.Profile{
				ID:        course.InstructorID,
				FullName:  *instructorName,
				AvatarURL: instructorAvatar,
			}
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, nil
}

// GetByID returns a course with its lessons ordered by order_index.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	if id == "" {
		return nil, fmt.Errorf("course id is required")
	}

	stmt, args, err := r.builder.
		Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select course sql: %w", err)
	}

	var course domain.Course
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.InstructorID,
		&course.ThumbnailURL,
		&course.Price,
		&course.Status,
		&course.Category,
		&course.Level,
		&course.DurationHours,
		&course.Rating,
		&course.TotalStudents,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select course: %w", err)
	}

	lessons, err := r.listLessons(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Lessons = lessons

	return &course, nil
}

func (r *CourseRepository) listLessons(ctx context.Context, courseID string) ([]domain.Lesson, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"course_id",
			"title",
			"description",
			"video_url",
			"duration_minutes",
			"order_index",
			"created_at",
			"updated_at",
		).
		From("lessons").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("order_index ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list lessons sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]domain.Lesson, 0)
	for rows.Next() {
		var lesson domain.Lesson
		if err := rows.Scan(
			&lesson.ID,
			&lesson.CourseID,
			&lesson.Title,
			&lesson.Description,
			&lesson.VideoURL,
			&lesson.DurationMinutes,
			&lesson.OrderIndex,
			&lesson.CreatedAt,
			&lesson.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}

// UpdateStatus transitions a course's publication status and returns the row.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id string, status domain.CourseStatus) (*domain.Course, error) {
	if id == "" {
		return nil, fmt.Errorf("course id is required")
	}

	stmt, args, err := r.builder.
		Update("courses").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update course status sql: %w", err)
	}

	var updatedID string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update course status: %w", err)
	}

	return r.GetByID(ctx, updatedID)
}

// CreateEnrollment inserts an enrollment row. A duplicate user/course pair
// fails with repository.ErrConflict.
func (r *CourseRepository) CreateEnrollment(ctx context.Context, enrollment domain.Enrollment) (*domain.Enrollment, error) {
	stmt, args, err := r.builder.
		Insert("enrollments").
		Columns(
			"id",
			"user_id",
			"course_id",
			"enrolled_at",
			"progress_percentage",
			"last_accessed",
			"completed_at",
		).
		Values(
			enrollment.ID,
			enrollment.UserID,
			enrollment.CourseID,
			enrollment.EnrolledAt,
			enrollment.ProgressPercentage,
			enrollment.LastAccessed,
			enrollment.CompletedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert enrollment sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	created := enrollment
	return &created, nil
}

// ListEnrollmentsByUser returns the user's enrollments with their course
// rows, most recently enrolled first.
func (r *CourseRepository) ListEnrollmentsByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	columns := append([]string{
		"e.id",
		"e.user_id",
		"e.course_id",
		"e.enrolled_at",
		"e.progress_percentage",
		"e.last_accessed",
		"e.completed_at",
	}, courseColumns...)

	stmt, args, err := r.builder.
		Select(columns...).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Where(squirrel.Eq{"e.user_id": userID}).
		OrderBy("e.enrolled_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list enrollments sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]domain.Enrollment, 0)
	for rows.Next() {
		var (
			enrollment domain.Enrollment
			course     domain.Course
		)
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.UserID,
			&enrollment.CourseID,
			&enrollment.EnrolledAt,
			&enrollment.ProgressPercentage,
			&enrollment.LastAccessed,
			&enrollment.CompletedAt,
			&course.ID,
			&course.Title,
			&course.Description,
			&course.InstructorID,
			&course.ThumbnailURL,
			&course.Price,
			&course.Status,
			&course.Category,
			&course.Level,
			&course.DurationHours,
			&course.Rating,
			&course.TotalStudents,
			&course.CreatedAt,
			&course.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollment.Course = &course
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return enrollments, nil
}

// UpsertLessonProgress inserts or refreshes per-lesson progress keyed by
// user and lesson, returning the persisted row.
func (r *CourseRepository) UpsertLessonProgress(ctx context.Context, progress domain.LessonProgress) (*domain.LessonProgress, error) {
	stmt, args, err := r.builder.
		Insert("lesson_progress").
		Columns(
			"id",
			"user_id",
			"lesson_id",
			"completed",
			"completed_at",
			"watch_time_seconds",
		).
		Values(
			progress.ID,
			progress.UserID,
			progress.LessonID,
			progress.Completed,
			progress.CompletedAt,
			progress.WatchTimeSeconds,
		).
		Suffix(`ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			watch_time_seconds = EXCLUDED.watch_time_seconds
			RETURNING id, user_id, lesson_id, completed, completed_at, watch_time_seconds`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert lesson progress sql: %w", err)
	}

	var saved domain.LessonProgress
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&saved.ID,
		&saved.UserID,
		&saved.LessonID,
		&saved.Completed,
		&saved.CompletedAt,
		&saved.WatchTimeSeconds,
	); err != nil {
		return nil, fmt.Errorf("upsert lesson progress: %w", err)
	}

	return &saved, nil
}

// CountUsers returns the number of profile rows.
func (r *CourseRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, "profiles")
}

// CountCourses returns the number of course rows.
func (r *CourseRepository) CountCourses(ctx context.Context) (int64, error) {
	return r.count(ctx, "courses")
}

// CountEnrollments returns the number of enrollment rows.
func (r *CourseRepository) CountEnrollments(ctx context.Context) (int64, error) {
	return r.count(ctx, "enrollments")
}

func (r *CourseRepository) count(ctx context.Context, table string) (int64, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	return count, nil
}
