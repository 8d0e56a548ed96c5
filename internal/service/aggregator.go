package service

import (
	"context"
	"math"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// ProgressAggregator projects stored progress into completion summaries
type ProgressAggregator struct {
	content     domain.ContentRepository
	enrollments domain.EnrollmentRepository
	progress    domain.ProgressRepository
}

func NewProgressAggregator(content domain.ContentRepository, enrollments domain.EnrollmentRepository,
	progress domain.ProgressRepository) *ProgressAggregator {
	return &ProgressAggregator{
		content:     content,
		enrollments: enrollments,
		progress:    progress,
	}
}

// Summarize aggregates the student's progress over the given lessons.  Duplicate ids count once and rows for other
// lessons are ignored.
func (a *ProgressAggregator) Summarize(ctx context.Context, studentID uint, lessonIDs []uint) (domain.Summary, error) {
	ids := uniqueIDs(lessonIDs)
	if len(ids) == 0 {
		return domain.Summary{}, nil
	}

	rows, err := a.progress.ListForStudent(ctx, studentID, ids)
	if err != nil {
		return domain.Summary{}, err
	}
	return summarize(ids, rows), nil
}

// SummarizeCohort aggregates the student's progress over the cohort's published lessons and picks the lesson to
// resume with
func (a *ProgressAggregator) SummarizeCohort(ctx context.Context, studentID, cohortID uint) (domain.Summary, error) {
	if _, err := a.content.GetCohort(ctx, cohortID); err != nil {
		return domain.Summary{}, err
	}
	if _, err := requireEnrollment(ctx, a.enrollments, studentID, cohortID); err != nil {
		return domain.Summary{}, err
	}
	return a.cohortSummary(ctx, studentID, cohortID)
}

// Dashboard returns a card for every cohort the student is enrolled in, cancelled enrollments excepted
func (a *ProgressAggregator) Dashboard(ctx context.Context, studentID uint) ([]domain.CohortCard, error) {
	enrollments, err := a.enrollments.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	cards := make([]domain.CohortCard, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		if !e.AllowsAccess() {
			continue
		}
		cohort, err := a.content.GetCohort(ctx, e.CohortID)
		if err != nil {
			log.Warn("Skipping enrollment with unknown cohort", "student_id", studentID, "cohort_id", e.CohortID,
				"error", err)
			continue
		}
		summary, err := a.cohortSummary(ctx, studentID, e.CohortID)
		if err != nil {
			return nil, err
		}
		cards = append(cards, domain.CohortCard{Cohort: *cohort, Enrollment: e.Status, Summary: summary})
	}
	return cards, nil
}

func (a *ProgressAggregator) cohortSummary(ctx context.Context, studentID, cohortID uint) (domain.Summary, error) {
	lessons, err := a.content.ListCohortLessons(ctx, cohortID, true)
	if err != nil {
		return domain.Summary{}, err
	}
	ids := make([]uint, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	if len(ids) == 0 {
		return domain.Summary{}, nil
	}

	rows, err := a.progress.ListForStudent(ctx, studentID, ids)
	if err != nil {
		return domain.Summary{}, err
	}
	summary := summarize(ids, rows)
	summary.ResumeLessonID = resumeLesson(ids, rows, summary.LastWatchedLessonID)
	return summary, nil
}

func summarize(ids []uint, rows []domain.Progress) domain.Summary {
	summary := domain.Summary{TotalLessons: len(ids)}
	if len(ids) == 0 {
		return summary
	}

	wanted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var last *domain.Progress
	for i := range rows {
		p := &rows[i]
		if !wanted[p.LessonID] {
			continue
		}
		// A lesson counts once even if the repository returned it twice
		delete(wanted, p.LessonID)

		summary.TotalWatchTimeSeconds += p.WatchTimeSeconds
		if p.Completed {
			summary.CompletedLessons++
		}
		if last == nil || p.WatchedAt.After(last.WatchedAt) {
			last = p
		}
	}

	summary.ProgressPercentage = int(math.Round(float64(summary.CompletedLessons) * 100 / float64(summary.TotalLessons)))
	if last != nil {
		id := last.LessonID
		summary.LastWatchedLessonID = &id
	}
	return summary
}

// resumeLesson picks the last watched lesson while it is incomplete, otherwise the first incomplete lesson after it
// in order, wrapping to the first incomplete lesson overall.  Nil when every lesson is complete.
func resumeLesson(ordered []uint, rows []domain.Progress, lastWatched *uint) *uint {
	completed := make(map[uint]bool, len(rows))
	for _, p := range rows {
		if p.Completed {
			completed[p.LessonID] = true
		}
	}

	start := 0
	if lastWatched != nil {
		for i, id := range ordered {
			if id == *lastWatched {
				start = i
				break
			}
		}
	}

	for i := 0; i < len(ordered); i++ {
		id := ordered[(start+i)%len(ordered)]
		if !completed[id] {
			return &id
		}
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
