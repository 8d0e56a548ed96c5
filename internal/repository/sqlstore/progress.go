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

// ProgressStore implements domain.ProgressRepository
type ProgressStore struct {
	db *gorm.DB
}

var _ domain.ProgressRepository = (*ProgressStore)(nil)

func NewProgressStore(db *gorm.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) Get(ctx context.Context, studentID, lessonID uint) (*domain.Progress, error) {
	var m ProgressModel
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	p := m.toDomain()
	return &p, nil
}

// Upsert inserts the report, or merges it into the existing row when the (student_id, lesson_id) unique index
// rejects the insert.  The insert's own row count decides whether the record was created, so of two concurrent first
// writes exactly one reports created.  The merge is a single conditional UPDATE, never a read-modify-write.
func (s *ProgressStore) Upsert(ctx context.Context, studentID uint, report domain.ProgressReport, at time.Time) (*domain.Progress, bool, error) {
	greatest := "GREATEST"
	if s.db.Dialector.Name() == DriverSQLite {
		greatest = "MAX"
	}

	var created bool
	var out ProgressModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := ProgressModel{
			StudentID:        studentID,
			LessonID:         report.LessonID,
			WatchTimeSeconds: report.WatchTimeSeconds,
			Completed:        report.Completed,
			WatchedAt:        at,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1

		if !created {
			err := tx.Model(&ProgressModel{}).
				Where("student_id = ? AND lesson_id = ?", studentID, report.LessonID).
				Updates(map[string]interface{}{
					"watch_time_seconds": gorm.Expr(greatest+"(watch_time_seconds, ?)", report.WatchTimeSeconds),
					"completed":          gorm.Expr("completed OR ?", report.Completed),
					"watched_at":         at,
					"updated_at":         at,
				}).Error
			if err != nil {
				return err
			}
		}

		return tx.Where("student_id = ? AND lesson_id = ?", studentID, report.LessonID).First(&out).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert progress: %w", err)
	}

	p := out.toDomain()
	return &p, created, nil
}

func (s *ProgressStore) ListForStudent(ctx context.Context, studentID uint, lessonIDs []uint) ([]domain.Progress, error) {
	if lessonIDs != nil && len(lessonIDs) == 0 {
		return []domain.Progress{}, nil
	}

	q := s.db.WithContext(ctx).Where("student_id = ?", studentID)
	if lessonIDs != nil {
		q = q.Where("lesson_id IN ?", lessonIDs)
	}

	var rows []ProgressModel
	if err := q.Order("lesson_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	out := make([]domain.Progress, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
