package service

import (
	"context"
	"fmt"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// ProgressService records progress reports from students
type ProgressService struct {
	content           domain.ContentRepository
	enrollments       domain.EnrollmentRepository
	progress          domain.ProgressRepository
	enforceEnrollment bool
	now               func() time.Time
}

func NewProgressService(content domain.ContentRepository, enrollments domain.EnrollmentRepository,
	progress domain.ProgressRepository, enforceEnrollment bool) *ProgressService {
	return &ProgressService{
		content:           content,
		enrollments:       enrollments,
		progress:          progress,
		enforceEnrollment: enforceEnrollment,
		now:               time.Now,
	}
}

// ReportProgress applies a report for the student.  Watch time never decreases and completion never reverts,
// whatever order reports arrive in.  A report that reaches the completion threshold of the lesson's expected
// duration counts as completed.
func (s *ProgressService) ReportProgress(ctx context.Context, studentID uint, report domain.ProgressReport) (*domain.ReportResult, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}

	lesson, err := s.content.GetLesson(ctx, report.LessonID)
	if err != nil {
		return nil, err
	}
	if !lesson.IsPublished() {
		return nil, fmt.Errorf("%w: %d is not published", domain.ErrLessonNotFound, lesson.ID)
	}

	if s.enforceEnrollment {
		if _, err := requireEnrollment(ctx, s.enrollments, studentID, lesson.CohortID); err != nil {
			return nil, err
		}
	}

	if !report.Completed && domain.ReachesCompletion(report.WatchTimeSeconds, lesson.Video.ExpectedDurationSeconds) {
		log.Debug("Report reaches completion threshold", "student_id", studentID, "lesson_id", lesson.ID,
			"watch_time", report.WatchTimeSeconds)
		report.Completed = true
	}

	p, created, err := s.progress.Upsert(ctx, studentID, report, s.now().UTC())
	if err != nil {
		return nil, err
	}

	log.Info("Progress recorded", "student_id", studentID, "lesson_id", lesson.ID, "watch_time", p.WatchTimeSeconds,
		"completed", p.Completed, "created", created)
	return &domain.ReportResult{
		WatchTimeSeconds: p.WatchTimeSeconds,
		Completed:        p.Completed,
		Created:          created,
	}, nil
}

// LessonProgress returns the student's progress on one lesson as a list of zero or one rows
func (s *ProgressService) LessonProgress(ctx context.Context, studentID, lessonID uint) ([]domain.Progress, error) {
	p, err := s.progress.Get(ctx, studentID, lessonID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return []domain.Progress{}, nil
	}
	return []domain.Progress{*p}, nil
}

// ListProgress returns all of the student's progress rows
func (s *ProgressService) ListProgress(ctx context.Context, studentID uint) ([]domain.Progress, error) {
	return s.progress.ListForStudent(ctx, studentID, nil)
}

// requireEnrollment returns the student's enrollment in the cohort, or ErrNotEnrolled when it is missing or cancelled
func requireEnrollment(ctx context.Context, enrollments domain.EnrollmentRepository, studentID, cohortID uint) (*domain.Enrollment, error) {
	e, err := enrollments.GetEnrollment(ctx, studentID, cohortID)
	if err != nil {
		return nil, err
	}
	if !e.AllowsAccess() {
		return nil, fmt.Errorf("%w: student %d, cohort %d", domain.ErrNotEnrolled, studentID, cohortID)
	}
	return e, nil
}
