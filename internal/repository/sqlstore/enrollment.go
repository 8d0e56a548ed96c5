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

// EnrollmentStore implements domain.EnrollmentRepository
type EnrollmentStore struct {
	db *gorm.DB
}

var _ domain.EnrollmentRepository = (*EnrollmentStore)(nil)

func NewEnrollmentStore(db *gorm.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

func (s *EnrollmentStore) GetEnrollment(ctx context.Context, studentID, cohortID uint) (*domain.Enrollment, error) {
	var m EnrollmentModel
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND cohort_id = ?", studentID, cohortID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	e := m.toDomain()
	return &e, nil
}

func (s *EnrollmentStore) ListForStudent(ctx context.Context, studentID uint) ([]domain.Enrollment, error) {
	var rows []EnrollmentModel
	if err := s.db.WithContext(ctx).Where("student_id = ?", studentID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	out := make([]domain.Enrollment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *EnrollmentStore) CompleteActive(ctx context.Context, cohortID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&EnrollmentModel{}).
		Where("cohort_id = ? AND status = ?", cohortID, string(domain.EnrollmentActive)).
		Update("status", string(domain.EnrollmentCompleted))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to complete enrollments of cohort %d: %w", cohortID, res.Error)
	}
	return res.RowsAffected, nil
}

// Enroll creates the student's enrollment in the cohort or changes its status
func (s *EnrollmentStore) Enroll(ctx context.Context, studentID, cohortID uint, status domain.EnrollmentStatus) (*domain.Enrollment, error) {
	m := EnrollmentModel{StudentID: studentID, CohortID: cohortID, Status: string(status)}
	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "cohort_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     m.Status,
			"updated_at": time.Now(),
		}),
	}).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("failed to enroll student %d in cohort %d: %w", studentID, cohortID, err)
	}
	return s.GetEnrollment(ctx, studentID, cohortID)
}
