package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentStore implements domain.ContentRepository and domain.ContentWriter
type ContentStore struct {
	db *gorm.DB
}

var (
	_ domain.ContentRepository = (*ContentStore)(nil)
	_ domain.ContentWriter     = (*ContentStore)(nil)
)

func NewContentStore(db *gorm.DB) *ContentStore {
	return &ContentStore{db: db}
}

func (s *ContentStore) GetLesson(ctx context.Context, id uint) (*domain.Lesson, error) {
	var m LessonModel
	err := s.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", domain.ErrLessonNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lesson %d: %w", id, err)
	}
	l := m.toDomain()
	return &l, nil
}

func (s *ContentStore) GetCohort(ctx context.Context, id uint) (*domain.Cohort, error) {
	var m CohortModel
	err := s.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", domain.ErrCohortNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort %d: %w", id, err)
	}
	c := m.toDomain()
	return &c, nil
}

func (s *ContentStore) ListCohortLessons(ctx context.Context, cohortID uint, publishedOnly bool) ([]domain.Lesson, error) {
	q := s.db.WithContext(ctx).Where("cohort_id = ?", cohortID)
	if publishedOnly {
		q = q.Where("status = ?", string(domain.PublicationPublished))
	}

	var rows []LessonModel
	if err := q.Order("order_index").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list lessons of cohort %d: %w", cohortID, err)
	}

	out := make([]domain.Lesson, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *ContentStore) ListCohortsByStatus(ctx context.Context, statuses ...domain.CohortStatus) ([]domain.Cohort, error) {
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}

	var rows []CohortModel
	if err := s.db.WithContext(ctx).Where("status IN ?", names).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list cohorts: %w", err)
	}

	out := make([]domain.Cohort, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *ContentStore) UpdateCohortStatus(ctx context.Context, id uint, status domain.CohortStatus) error {
	res := s.db.WithContext(ctx).Model(&CohortModel{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("failed to update cohort %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", domain.ErrCohortNotFound, id)
	}
	return nil
}

// UpsertCohort stores the cohort under its external id and fills in cohort.ID.  The status is only written on
// insert; afterwards it belongs to the lifecycle job.
func (s *ContentStore) UpsertCohort(ctx context.Context, externalID string, cohort *domain.Cohort) error {
	status := cohort.Status
	if status == "" {
		status = domain.CohortUpcoming
	}
	m := CohortModel{
		ExternalID: &externalID,
		CourseID:   cohort.CourseID,
		Title:      cohort.Title,
		Status:     string(status),
		StartsAt:   cohort.StartsAt,
		EndsAt:     cohort.EndsAt,
	}

	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"course_id":  m.CourseID,
			"title":      m.Title,
			"starts_at":  m.StartsAt,
			"ends_at":    m.EndsAt,
			"updated_at": time.Now(),
		}),
	}).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to upsert cohort %s: %w", externalID, err)
	}

	var stored CohortModel
	if err := db.Where("external_id = ?", externalID).First(&stored).Error; err != nil {
		return fmt.Errorf("failed to reload cohort %s: %w", externalID, err)
	}
	*cohort = stored.toDomain()
	return nil
}

// UpsertLesson stores the lesson under its external id, attached to the cohort with cohortExternalID, and fills in
// lesson.ID and lesson.CohortID.
func (s *ContentStore) UpsertLesson(ctx context.Context, externalID, cohortExternalID string, lesson *domain.Lesson) error {
	db := s.db.WithContext(ctx)

	var cohort CohortModel
	if err := db.Where("external_id = ?", cohortExternalID).First(&cohort).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: external id %s", domain.ErrCohortNotFound, cohortExternalID)
		}
		return fmt.Errorf("failed to load cohort %s: %w", cohortExternalID, err)
	}
	lesson.CohortID = cohort.ID

	m, err := lessonModelFrom(lesson)
	if err != nil {
		return fmt.Errorf("failed to encode lesson %s: %w", externalID, err)
	}
	m.ID = 0
	m.ExternalID = &externalID

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"cohort_id":                 m.CohortID,
			"order_index":               m.OrderIndex,
			"title":                     m.Title,
			"video_kind":                m.VideoKind,
			"video_url":                 m.VideoURL,
			"expected_duration_seconds": m.ExpectedDurationSeconds,
			"materials":                 m.Materials,
			"status":                    m.Status,
			"updated_at":                time.Now(),
		}),
	}).Create(m).Error; err != nil {
		return fmt.Errorf("failed to upsert lesson %s: %w", externalID, err)
	}

	var stored LessonModel
	if err := db.Where("external_id = ?", externalID).First(&stored).Error; err != nil {
		return fmt.Errorf("failed to reload lesson %s: %w", externalID, err)
	}
	*lesson = stored.toDomain()
	return nil
}

// CreateLesson stores a lesson that is authored directly rather than synchronised, and fills in lesson.ID
func (s *ContentStore) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	m, err := lessonModelFrom(lesson)
	if err != nil {
		return fmt.Errorf("failed to encode lesson: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	*lesson = m.toDomain()
	return nil
}

// CreateCohort stores a cohort that is authored directly rather than synchronised, and fills in cohort.ID
func (s *ContentStore) CreateCohort(ctx context.Context, cohort *domain.Cohort) error {
	m := CohortModel{
		CourseID: cohort.CourseID,
		Title:    cohort.Title,
		Status:   string(cohort.Status),
		StartsAt: cohort.StartsAt,
		EndsAt:   cohort.EndsAt,
	}
	if m.Status == "" {
		m.Status = string(domain.CohortUpcoming)
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to create cohort: %w", err)
	}
	*cohort = m.toDomain()
	return nil
}
