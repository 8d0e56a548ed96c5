package domain

import (
	"fmt"
	"time"
)

// CompletionThresholdPercent is the share of a lesson's duration that counts as having watched it
const CompletionThresholdPercent = 90.0

// Progress is the persisted watch state for one (student, lesson) pair
type Progress struct {
	StudentID        uint      `json:"studentId"`
	LessonID         uint      `json:"lessonId"`
	WatchTimeSeconds int       `json:"watchTime"`
	Completed        bool      `json:"completed"`
	WatchedAt        time.Time `json:"watchedAt"`
}

// ProgressReport is a single observation sent by a client for the caller's own progress
type ProgressReport struct {
	LessonID         uint
	WatchTimeSeconds int
	Completed        bool
}

// Validate checks the report is well formed
func (r ProgressReport) Validate() error {
	if r.LessonID == 0 {
		return fmt.Errorf("%w: lessonId is required", ErrInvalidReport)
	}
	if r.WatchTimeSeconds < 0 {
		return fmt.Errorf("%w: watchTime must not be negative", ErrInvalidReport)
	}
	return nil
}

// ReportResult carries the canonical values stored after a report was applied
type ReportResult struct {
	WatchTimeSeconds int
	Completed        bool
	// Created is true when the report created the record rather than updating an existing one
	Created bool
}

// Merge applies the reconciliation rule: watch time takes the maximum and completion is sticky.  The result does not
// depend on the order reports are merged in, and merging the same report twice is a no-op.
func (p Progress) Merge(r ProgressReport, at time.Time) (merged Progress, changed bool) {
	merged = p
	if r.WatchTimeSeconds > merged.WatchTimeSeconds {
		merged.WatchTimeSeconds = r.WatchTimeSeconds
		changed = true
	}
	if r.Completed && !merged.Completed {
		merged.Completed = true
		changed = true
	}
	merged.WatchedAt = at
	return merged, changed
}

// ReachesCompletion reports whether the watch time reaches the completion threshold for the expected duration.
// Unknown or non-positive durations never complete.
func ReachesCompletion(watchTimeSeconds int, expectedDurationSeconds *int) bool {
	if expectedDurationSeconds == nil || *expectedDurationSeconds <= 0 {
		return false
	}
	return float64(watchTimeSeconds)*100/float64(*expectedDurationSeconds) >= CompletionThresholdPercent
}

// Summary is the aggregate progress of a student over a set of lessons
type Summary struct {
	TotalLessons          int   `json:"totalLessons"`
	CompletedLessons      int   `json:"completedLessons"`
	ProgressPercentage    int   `json:"progressPercentage"`
	TotalWatchTimeSeconds int   `json:"totalWatchTimeSeconds"`
	LastWatchedLessonID   *uint `json:"lastWatchedLesson"`
	// ResumeLessonID is the lesson to continue with, only set for cohort summaries
	ResumeLessonID *uint `json:"resumeLesson,omitempty"`
}

// CohortCard is one entry of a student's dashboard
type CohortCard struct {
	Cohort     Cohort           `json:"cohort"`
	Enrollment EnrollmentStatus `json:"enrollmentStatus"`
	Summary    Summary          `json:"summary"`
}
