package service

import (
	"context"
	"fmt"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// SyncResult counts what a content sync stored
type SyncResult struct {
	Cohorts int
	Lessons int
	Failed  int
}

// ContentSyncService copies cohorts and lessons from the external content store into the database
type ContentSyncService struct {
	source domain.ContentSource
	writer domain.ContentWriter
}

func NewContentSyncService(source domain.ContentSource, writer domain.ContentWriter) *ContentSyncService {
	return &ContentSyncService{source: source, writer: writer}
}

// Sync fetches the catalog and upserts it by external id.  A cohort that fails to store skips its lessons; single
// failures are counted and logged rather than aborting the run.
func (s *ContentSyncService) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult

	catalog, err := s.source.FetchCatalog(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	for i := range catalog {
		entry := &catalog[i]
		cohort := entry.Cohort
		if err := s.writer.UpsertCohort(ctx, entry.ExternalID, &cohort); err != nil {
			log.Warn("Failed to store cohort", "external_id", entry.ExternalID, "error", err)
			res.Failed += 1 + len(entry.Lessons)
			continue
		}
		res.Cohorts++

		for j := range entry.Lessons {
			lesson := entry.Lessons[j].Lesson
			if err := s.writer.UpsertLesson(ctx, entry.Lessons[j].ExternalID, entry.ExternalID, &lesson); err != nil {
				log.Warn("Failed to store lesson", "external_id", entry.Lessons[j].ExternalID, "error", err)
				res.Failed++
				continue
			}
			res.Lessons++
		}
	}

	log.Info("Content sync finished", "cohorts", res.Cohorts, "lessons", res.Lessons, "failed", res.Failed)
	return res, nil
}
