package cms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// CatalogSource reads cohorts and their lessons from the CMS
type CatalogSource struct {
	client *Client
}

func NewCatalogSource(client *Client) domain.ContentSource {
	return &CatalogSource{
		client: client,
	}
}

const catalogQuery = `
    query {
        cohorts {
            id
            courseId
            title
            status
            startsAt
            endsAt
            lessons {
                id
                orderIndex
                title
                status
                video {
                    kind
                    url
                    expectedDurationSeconds
                }
                materials {
                    title
                    url
                }
            }
        }
    }
`

type catalogResponse struct {
	Cohorts []struct {
		ID       string
		CourseID uint `json:"courseId"`
		Title    string
		Status   string
		StartsAt *time.Time `json:"startsAt"`
		EndsAt   *time.Time `json:"endsAt"`
		Lessons  []struct {
			ID         string
			OrderIndex int `json:"orderIndex"`
			Title      string
			Status     string
			Video      struct {
				Kind                    string
				URL                     string `json:"url"`
				ExpectedDurationSeconds *int   `json:"expectedDurationSeconds"`
			}
			Materials []struct {
				Title string
				URL   string `json:"url"`
			}
		}
	}
}

// FetchCatalog returns every cohort the CMS publishes along with its lessons
func (s *CatalogSource) FetchCatalog(ctx context.Context) ([]domain.CatalogCohort, error) {
	var response catalogResponse
	if err := s.client.Query(ctx, catalogQuery, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	catalog := make([]domain.CatalogCohort, 0, len(response.Cohorts))
	for _, c := range response.Cohorts {
		if c.ID == "" {
			log.Warn("Skipping CMS cohort without id", "title", c.Title)
			continue
		}

		entry := domain.CatalogCohort{
			ExternalID: c.ID,
			Cohort: domain.Cohort{
				CourseID: c.CourseID,
				Title:    c.Title,
				Status:   cohortStatus(c.Status),
			},
		}
		if c.StartsAt != nil {
			entry.Cohort.StartsAt = c.StartsAt.UTC()
		}
		if c.EndsAt != nil {
			entry.Cohort.EndsAt = c.EndsAt.UTC()
		}

		for _, l := range c.Lessons {
			if l.ID == "" {
				log.Warn("Skipping CMS lesson without id", "cohort", c.ID, "title", l.Title)
				continue
			}
			lesson := domain.Lesson{
				OrderIndex: l.OrderIndex,
				Title:      l.Title,
				Status:     publicationStatus(l.Status),
				Video: domain.VideoRef{
					Kind:                    domain.VideoKind(strings.ToLower(l.Video.Kind)),
					URL:                     l.Video.URL,
					ExpectedDurationSeconds: l.Video.ExpectedDurationSeconds,
				},
			}
			for _, m := range l.Materials {
				lesson.Materials = append(lesson.Materials, domain.Material{Title: m.Title, URL: m.URL})
			}
			entry.Lessons = append(entry.Lessons, domain.CatalogLesson{ExternalID: l.ID, Lesson: lesson})
		}

		catalog = append(catalog, entry)
	}

	log.Info("Fetched CMS catalog", "cohorts", len(catalog))
	return catalog, nil
}

// cohortStatus maps the CMS status onto ours.  Unknown values start out upcoming and the lifecycle job takes over.
func cohortStatus(s string) domain.CohortStatus {
	switch domain.CohortStatus(strings.ToLower(s)) {
	case domain.CohortActive:
		return domain.CohortActive
	case domain.CohortCompleted:
		return domain.CohortCompleted
	default:
		return domain.CohortUpcoming
	}
}

// publicationStatus treats anything but an explicit "published" as a draft
func publicationStatus(s string) domain.PublicationStatus {
	if strings.EqualFold(s, string(domain.PublicationPublished)) {
		return domain.PublicationPublished
	}
	return domain.PublicationDraft
}
