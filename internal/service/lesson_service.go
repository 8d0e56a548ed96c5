package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// LessonSource is where the learner client reads a cohort's lessons from
type LessonSource interface {
	CohortLessons(ctx context.Context, cohortID uint) ([]domain.LessonEntry, error)
	CohortSummary(ctx context.Context, cohortID uint) (*domain.Summary, error)
}

// DashboardSource is implemented by lesson sources that can list the caller's cohorts.  It lets the service pick a
// cohort when none is configured.
type DashboardSource interface {
	Dashboard(ctx context.Context) ([]domain.CohortCard, error)
}

// LessonFilter selects lessons by the caller's progress on them
type LessonFilter int

const (
	FilterAll LessonFilter = iota
	FilterNotStarted
	FilterInProgress
	FilterCompleted
)

func (f LessonFilter) String() string {
	switch f {
	case FilterNotStarted:
		return "Not started"
	case FilterInProgress:
		return "In progress"
	case FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// Next cycles through the filters
func (f LessonFilter) Next() LessonFilter {
	return (f + 1) % 4
}

// LessonService keeps the learner client's copy of a cohort's lessons, only refreshing it on request
type LessonService struct {
	source     LessonSource
	cohortID   uint
	cohort     *domain.Cohort
	lessons    []*domain.LessonEntry
	summary    *domain.Summary
	updateLock sync.Mutex
}

func NewLessonService(source LessonSource, cohortID uint) *LessonService {
	return &LessonService{
		source:   source,
		cohortID: cohortID,
	}
}

func (s *LessonService) CohortID() uint {
	s.updateLock.Lock()
	defer s.updateLock.Unlock()
	return s.cohortID
}

// GetCohort returns the cohort picked from the dashboard, nil when the cohort was configured
func (s *LessonService) GetCohort() *domain.Cohort {
	s.updateLock.Lock()
	defer s.updateLock.Unlock()
	return s.cohort
}

func (s *LessonService) GetLessons() []*domain.LessonEntry {
	s.updateLock.Lock()
	defer s.updateLock.Unlock()
	return s.lessons
}

// GetSummary returns the cohort summary from the last load, nil before the first one
func (s *LessonService) GetSummary() *domain.Summary {
	s.updateLock.Lock()
	defer s.updateLock.Unlock()
	return s.summary
}

// LoadLessons fetches the cohort's lessons and summary
func (s *LessonService) LoadLessons(ctx context.Context) error {
	cohortID, err := s.resolveCohort(ctx)
	if err != nil {
		return err
	}

	entries, err := s.source.CohortLessons(ctx, cohortID)
	if err != nil {
		return err
	}
	summary, err := s.source.CohortSummary(ctx, cohortID)
	if err != nil {
		return err
	}

	lessons := make([]*domain.LessonEntry, 0, len(entries))
	for i := range entries {
		lessons = append(lessons, &entries[i])
	}

	s.updateLock.Lock()
	s.lessons = lessons
	s.summary = summary
	s.updateLock.Unlock()

	log.Info("Loaded lessons", "cohort_id", cohortID, "count", len(lessons),
		"progress_percentage", summary.ProgressPercentage)
	return nil
}

// resolveCohort returns the configured cohort, or picks one from the dashboard.  Active enrollments win over pending
// and completed ones.
func (s *LessonService) resolveCohort(ctx context.Context) (uint, error) {
	s.updateLock.Lock()
	cohortID := s.cohortID
	s.updateLock.Unlock()
	if cohortID != 0 {
		return cohortID, nil
	}

	dashboard, ok := s.source.(DashboardSource)
	if !ok {
		return 0, fmt.Errorf("no cohort configured")
	}
	cards, err := dashboard.Dashboard(ctx)
	if err != nil {
		return 0, err
	}

	var picked *domain.CohortCard
	for i := range cards {
		card := &cards[i]
		if card.Enrollment == domain.EnrollmentCancelled {
			continue
		}
		if picked == nil || (card.Enrollment == domain.EnrollmentActive && picked.Enrollment != domain.EnrollmentActive) {
			picked = card
		}
	}
	if picked == nil {
		return 0, fmt.Errorf("not enrolled in any cohort")
	}

	log.Info("Picked cohort from dashboard", "cohort_id", picked.Cohort.ID, "title", picked.Cohort.Title,
		"enrollment", picked.Enrollment)
	s.updateLock.Lock()
	s.cohortID = picked.Cohort.ID
	s.cohort = &picked.Cohort
	s.updateLock.Unlock()
	return picked.Cohort.ID, nil
}

// GetLessonsByFilter filters the cached lessons
func (s *LessonService) GetLessonsByFilter(filter LessonFilter) []*domain.LessonEntry {
	s.updateLock.Lock()
	defer s.updateLock.Unlock()

	var result []*domain.LessonEntry
	for _, entry := range s.lessons {
		if matchesFilter(entry, filter) {
			result = append(result, entry)
		}
	}
	return result
}

func matchesFilter(entry *domain.LessonEntry, filter LessonFilter) bool {
	switch filter {
	case FilterNotStarted:
		return entry.Progress == nil || (entry.Progress.WatchTimeSeconds == 0 && !entry.Progress.Completed)
	case FilterInProgress:
		return entry.Progress != nil && entry.Progress.WatchTimeSeconds > 0 && !entry.Progress.Completed
	case FilterCompleted:
		return entry.Progress != nil && entry.Progress.Completed
	default:
		return true
	}
}

// GetLessonByID finds a lesson in the cached list
func (s *LessonService) GetLessonByID(id uint) *domain.LessonEntry {
	s.updateLock.Lock()
	defer s.updateLock.Unlock()
	return s.findLesson(id)
}

func (s *LessonService) findLesson(id uint) *domain.LessonEntry {
	for _, entry := range s.lessons {
		if entry.Lesson.ID == id {
			return entry
		}
	}
	return nil
}

// ApplyResult updates the cached progress of a lesson with the canonical values of a save
func (s *LessonService) ApplyResult(lessonID uint, result *domain.ReportResult) error {
	if result == nil {
		return nil
	}

	s.updateLock.Lock()
	defer s.updateLock.Unlock()

	entry := s.findLesson(lessonID)
	if entry == nil {
		return fmt.Errorf("lesson not found with ID: %d", lessonID)
	}

	previouslyCompleted := entry.Progress != nil && entry.Progress.Completed
	if entry.Progress == nil {
		entry.Progress = &domain.Progress{LessonID: lessonID}
	}
	entry.Progress.WatchTimeSeconds = result.WatchTimeSeconds
	entry.Progress.Completed = result.Completed
	entry.Progress.WatchedAt = time.Now()

	log.Debug("Synchronized local lesson progress with save result",
		"lesson_id", lessonID,
		"watch_time", result.WatchTimeSeconds,
		"completed", result.Completed)

	if result.Completed && !previouslyCompleted {
		log.Info("Completed lesson", "lesson_id", lessonID, "title", entry.Lesson.Title)
		if s.summary != nil {
			s.summary.CompletedLessons++
			if s.summary.TotalLessons > 0 {
				s.summary.ProgressPercentage = (s.summary.CompletedLessons*100 + s.summary.TotalLessons/2) / s.summary.TotalLessons
			}
		}
	}
	if s.summary != nil {
		id := lessonID
		s.summary.LastWatchedLessonID = &id
	}
	return nil
}
