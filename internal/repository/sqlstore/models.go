package sqlstore

import (
	"encoding/json"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"gorm.io/datatypes"
)

// CohortModel is a scheduled run of a course
type CohortModel struct {
	ID         uint    `gorm:"primaryKey"`
	ExternalID *string `gorm:"size:64;uniqueIndex:idx_cohort_external"`
	CourseID   uint    `gorm:"not null;index"`
	Title      string  `gorm:"size:255;not null"`
	Status     string  `gorm:"size:16;not null;index"`
	StartsAt   time.Time
	EndsAt     time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (CohortModel) TableName() string { return "cohorts" }

// LessonModel is a lesson with its video reference flattened into columns
type LessonModel struct {
	ID                      uint    `gorm:"primaryKey"`
	ExternalID              *string `gorm:"size:64;uniqueIndex:idx_lesson_external"`
	CohortID                uint    `gorm:"not null;uniqueIndex:idx_cohort_lesson_order,priority:1"`
	OrderIndex              int     `gorm:"not null;uniqueIndex:idx_cohort_lesson_order,priority:2"`
	Title                   string  `gorm:"size:255;not null"`
	VideoKind               string  `gorm:"size:32"`
	VideoURL                string  `gorm:"size:2048"`
	ExpectedDurationSeconds *int
	Materials               datatypes.JSON
	Status                  string `gorm:"size:16;not null"`
	CreatedAt               time.Time
	UpdatedAt               time.Time

	Cohort *CohortModel `gorm:"foreignKey:CohortID;constraint:OnDelete:RESTRICT"`
}

func (LessonModel) TableName() string { return "lessons" }

// EnrollmentModel links one student to one cohort
type EnrollmentModel struct {
	ID        uint   `gorm:"primaryKey"`
	StudentID uint   `gorm:"not null;uniqueIndex:idx_student_cohort,priority:1"`
	CohortID  uint   `gorm:"not null;uniqueIndex:idx_student_cohort,priority:2;index"`
	Status    string `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Cohort *CohortModel `gorm:"foreignKey:CohortID;constraint:OnDelete:RESTRICT"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

// ProgressModel is the watch state of one student on one lesson
type ProgressModel struct {
	ID               uint      `gorm:"primaryKey"`
	StudentID        uint      `gorm:"not null;uniqueIndex:idx_student_lesson,priority:1"`
	LessonID         uint      `gorm:"not null;uniqueIndex:idx_student_lesson,priority:2"`
	WatchTimeSeconds int       `gorm:"not null"`
	Completed        bool      `gorm:"not null"`
	WatchedAt        time.Time `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (ProgressModel) TableName() string { return "lesson_progress" }

func (m *CohortModel) toDomain() domain.Cohort {
	return domain.Cohort{
		ID:       m.ID,
		CourseID: m.CourseID,
		Title:    m.Title,
		Status:   domain.CohortStatus(m.Status),
		StartsAt: m.StartsAt,
		EndsAt:   m.EndsAt,
	}
}

func (m *LessonModel) toDomain() domain.Lesson {
	lesson := domain.Lesson{
		ID:         m.ID,
		CohortID:   m.CohortID,
		OrderIndex: m.OrderIndex,
		Title:      m.Title,
		Video: domain.VideoRef{
			Kind:                    domain.VideoKind(m.VideoKind),
			URL:                     m.VideoURL,
			ExpectedDurationSeconds: m.ExpectedDurationSeconds,
		},
		Status: domain.PublicationStatus(m.Status),
	}
	if len(m.Materials) > 0 {
		if err := json.Unmarshal(m.Materials, &lesson.Materials); err != nil {
			log.Warn("Ignoring malformed lesson materials", "lesson_id", m.ID, "error", err)
		}
	}
	return lesson
}

func lessonModelFrom(l *domain.Lesson) (*LessonModel, error) {
	m := &LessonModel{
		ID:                      l.ID,
		CohortID:                l.CohortID,
		OrderIndex:              l.OrderIndex,
		Title:                   l.Title,
		VideoKind:               string(l.Video.Kind),
		VideoURL:                l.Video.URL,
		ExpectedDurationSeconds: l.Video.ExpectedDurationSeconds,
		Status:                  string(l.Status),
	}
	if m.Status == "" {
		m.Status = string(domain.PublicationDraft)
	}
	if len(l.Materials) > 0 {
		data, err := json.Marshal(l.Materials)
		if err != nil {
			return nil, err
		}
		m.Materials = datatypes.JSON(data)
	}
	return m, nil
}

func (m *EnrollmentModel) toDomain() domain.Enrollment {
	return domain.Enrollment{
		ID:        m.ID,
		StudentID: m.StudentID,
		CohortID:  m.CohortID,
		Status:    domain.EnrollmentStatus(m.Status),
	}
}

func (m *ProgressModel) toDomain() domain.Progress {
	return domain.Progress{
		StudentID:        m.StudentID,
		LessonID:         m.LessonID,
		WatchTimeSeconds: m.WatchTimeSeconds,
		Completed:        m.Completed,
		WatchedAt:        m.WatchedAt,
	}
}
