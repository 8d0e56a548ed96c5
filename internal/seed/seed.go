// Package seed loads cohorts, lessons and enrollments authored in a YAML file, for development and demos.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/video"
	"gopkg.in/yaml.v3"
)

// File is the layout of a seed file
type File struct {
	Cohorts []Cohort `yaml:"cohorts"`
}

type Cohort struct {
	Title       string       `yaml:"title"`
	CourseID    uint         `yaml:"course_id"`
	Status      string       `yaml:"status"`
	StartsAt    time.Time    `yaml:"starts_at"`
	EndsAt      time.Time    `yaml:"ends_at"`
	Lessons     []Lesson     `yaml:"lessons"`
	Enrollments []Enrollment `yaml:"enrollments"`
}

type Lesson struct {
	Title string `yaml:"title"`
	Order int    `yaml:"order"`
	// Kind is derived from the URL when empty
	Kind                    string     `yaml:"kind"`
	VideoURL                string     `yaml:"video_url"`
	ExpectedDurationSeconds *int       `yaml:"expected_duration_seconds"`
	Status                  string     `yaml:"status"`
	Materials               []Material `yaml:"materials"`
}

type Material struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

type Enrollment struct {
	StudentID uint   `yaml:"student_id"`
	Status    string `yaml:"status"`
}

// ContentStore creates authored content
type ContentStore interface {
	CreateCohort(ctx context.Context, cohort *domain.Cohort) error
	CreateLesson(ctx context.Context, lesson *domain.Lesson) error
}

// Enroller creates enrollments
type Enroller interface {
	Enroll(ctx context.Context, studentID, cohortID uint, status domain.EnrollmentStatus) (*domain.Enrollment, error)
}

// Result counts what a seed run created
type Result struct {
	Cohorts     int
	Lessons     int
	Enrollments int
}

// Load reads and parses a seed file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Apply creates everything in the file.  It is not idempotent: running it twice creates the cohorts twice.
func Apply(ctx context.Context, f *File, content ContentStore, enrollments Enroller) (Result, error) {
	var result Result

	for _, c := range f.Cohorts {
		cohort := domain.Cohort{
			CourseID: c.CourseID,
			Title:    c.Title,
			Status:   domain.CohortStatus(c.Status),
			StartsAt: c.StartsAt.UTC(),
			EndsAt:   c.EndsAt.UTC(),
		}
		if cohort.Status == "" {
			cohort.Status = cohort.StatusAt(time.Now())
		}
		if err := content.CreateCohort(ctx, &cohort); err != nil {
			return result, fmt.Errorf("cohort %q: %w", c.Title, err)
		}
		result.Cohorts++

		for i, l := range c.Lessons {
			lesson := lessonFrom(cohort.ID, i, l)
			if err := content.CreateLesson(ctx, &lesson); err != nil {
				return result, fmt.Errorf("lesson %q of cohort %q: %w", l.Title, c.Title, err)
			}
			result.Lessons++
		}

		for _, e := range c.Enrollments {
			status := domain.EnrollmentStatus(e.Status)
			if status == "" {
				status = domain.EnrollmentActive
			}
			if _, err := enrollments.Enroll(ctx, e.StudentID, cohort.ID, status); err != nil {
				return result, err
			}
			result.Enrollments++
		}

		log.Info("Seeded cohort", "cohort_id", cohort.ID, "title", cohort.Title,
			"lessons", len(c.Lessons), "enrollments", len(c.Enrollments))
	}

	return result, nil
}

func lessonFrom(cohortID uint, index int, l Lesson) domain.Lesson {
	order := l.Order
	if order == 0 {
		order = index + 1
	}
	status := domain.PublicationStatus(l.Status)
	if status == "" {
		status = domain.PublicationPublished
	}

	lesson := domain.Lesson{
		CohortID:   cohortID,
		OrderIndex: order,
		Title:      l.Title,
		Status:     status,
		Video: domain.VideoRef{
			Kind:                    domain.VideoKind(l.Kind),
			URL:                     l.VideoURL,
			ExpectedDurationSeconds: l.ExpectedDurationSeconds,
		},
	}
	if lesson.Video.Kind == "" {
		lesson.Video.Kind = kindOf(l.VideoURL)
	}
	for _, m := range l.Materials {
		lesson.Materials = append(lesson.Materials, domain.Material{Title: m.Title, URL: m.URL})
	}
	return lesson
}

func kindOf(url string) domain.VideoKind {
	switch video.Resolve(url).Kind {
	case video.KindYouTube:
		return domain.VideoKindYouTube
	case video.KindVimeo:
		return domain.VideoKindVimeo
	case video.KindDirectFile:
		return domain.VideoKindDirectFile
	default:
		return domain.VideoKindExternalLink
	}
}
