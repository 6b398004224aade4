package domain

import "time"

// CourseStatus enumerates the publication states of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// CourseLevel enumerates course difficulty tiers.
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "beginner"
	CourseLevelIntermediate CourseLevel = "intermediate"
	CourseLevelAdvanced     CourseLevel = "advanced"
)

// Course mirrors the persisted representation in the courses table.
type Course struct {
	ID            string
	Title         string
	Description   string
	InstructorID  string
	Instructor    *Profile
	ThumbnailURL  *string
	Price         float64
	Status        CourseStatus
	Category      string
	Level         CourseLevel
	DurationHours float64
	Rating        float64
	TotalStudents int
	Lessons       []Lesson
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Lesson mirrors the persisted representation in the lessons table.
type Lesson struct {
	ID              string
	CourseID        string
	Title           string
	Description     string
	VideoURL        string
	DurationMinutes int
	OrderIndex      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Enrollment links a profile to a course it is taking.
type Enrollment struct {
	ID                 string
	UserID             string
	CourseID           string
	Course             *Course
	EnrolledAt         time.Time
	ProgressPercentage float64
	LastAccessed       time.Time
	CompletedAt        *time.Time
}

// LessonProgress tracks per-lesson completion for a profile.
type LessonProgress struct {
	ID               string
	UserID           string
	LessonID         string
	Completed        bool
	CompletedAt      *time.Time
	WatchTimeSeconds int
}

// PlatformStats aggregates headline counts for the admin dashboard.
type PlatformStats struct {
	TotalUsers       int64
	TotalCourses     int64
	TotalEnrollments int64
}
