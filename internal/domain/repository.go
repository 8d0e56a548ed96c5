package domain

import (
	"context"
	"time"
)

// ProgressRepository defines access to persisted progress records
type ProgressRepository interface {
	// Get returns the progress for the pair, or nil if none has been recorded yet
	Get(ctx context.Context, studentID, lessonID uint) (*Progress, error)

	// Upsert applies the report to the stored record with the reconciliation rule (see Progress.Merge), creating the
	// record if absent.  Concurrent calls never create two records.  Returns the stored values and whether the record was created.
	Upsert(ctx context.Context, studentID uint, report ProgressReport, at time.Time) (*Progress, bool, error)

	// ListForStudent returns the student's progress rows, restricted to lessonIDs when it is non-nil
	ListForStudent(ctx context.Context, studentID uint, lessonIDs []uint) ([]Progress, error)
}

// ContentRepository defines read access to lessons and cohorts
type ContentRepository interface {
	GetLesson(ctx context.Context, id uint) (*Lesson, error)
	GetCohort(ctx context.Context, id uint) (*Cohort, error)

	// ListCohortLessons returns the cohort's lessons ordered by their order index
	ListCohortLessons(ctx context.Context, cohortID uint, publishedOnly bool) ([]Lesson, error)

	// ListCohortsByStatus returns cohorts currently in any of the given statuses
	ListCohortsByStatus(ctx context.Context, statuses ...CohortStatus) ([]Cohort, error)

	UpdateCohortStatus(ctx context.Context, id uint, status CohortStatus) error
}

// ContentWriter stores content pulled from the external content store, keyed by that store's identifiers
type ContentWriter interface {
	UpsertCohort(ctx context.Context, externalID string, cohort *Cohort) error
	UpsertLesson(ctx context.Context, externalID, cohortExternalID string, lesson *Lesson) error
}

// EnrollmentRepository defines access to enrollments
type EnrollmentRepository interface {
	// GetEnrollment returns the student's enrollment in the cohort, or nil if there is none
	GetEnrollment(ctx context.Context, studentID, cohortID uint) (*Enrollment, error)

	ListForStudent(ctx context.Context, studentID uint) ([]Enrollment, error)

	// CompleteActive moves every active enrollment of the cohort to completed and returns how many changed
	CompleteActive(ctx context.Context, cohortID uint) (int64, error)
}

// ContentSource is the external content store lessons and cohorts are synchronised from
type ContentSource interface {
	FetchCatalog(ctx context.Context) ([]CatalogCohort, error)
}

// CatalogCohort is a cohort as published by the external content store
type CatalogCohort struct {
	ExternalID string
	Cohort     Cohort
	Lessons    []CatalogLesson
}

// CatalogLesson is a lesson as published by the external content store
type CatalogLesson struct {
	ExternalID string
	Lesson     Lesson
}
