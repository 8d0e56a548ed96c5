package service

import (
	"context"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// CohortLifecycleService moves cohorts through upcoming, active and completed as their dates pass
type CohortLifecycleService struct {
	content     domain.ContentRepository
	enrollments domain.EnrollmentRepository
	now         func() time.Time
}

func NewCohortLifecycleService(content domain.ContentRepository, enrollments domain.EnrollmentRepository) *CohortLifecycleService {
	return &CohortLifecycleService{
		content:     content,
		enrollments: enrollments,
		now:         time.Now,
	}
}

// Advance updates every cohort whose status is behind its schedule and returns how many changed.  When a cohort
// completes, its active enrollments complete with it.
func (s *CohortLifecycleService) Advance(ctx context.Context) (int, error) {
	cohorts, err := s.content.ListCohortsByStatus(ctx, domain.CohortUpcoming, domain.CohortActive)
	if err != nil {
		return 0, err
	}

	now := s.now()
	changed := 0
	for i := range cohorts {
		c := &cohorts[i]
		next := c.StatusAt(now)
		if next == c.Status {
			continue
		}

		if err := s.content.UpdateCohortStatus(ctx, c.ID, next); err != nil {
			return changed, err
		}
		changed++
		log.Info("Cohort status changed", "cohort_id", c.ID, "from", c.Status, "to", next)

		if next == domain.CohortCompleted {
			n, err := s.enrollments.CompleteActive(ctx, c.ID)
			if err != nil {
				return changed, err
			}
			log.Info("Enrollments completed", "cohort_id", c.ID, "count", n)
		}
	}
	return changed, nil
}
