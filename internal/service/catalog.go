package service

import (
	"context"
	"fmt"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/video"
)

// CatalogService lists lessons to enrolled students
type CatalogService struct {
	content     domain.ContentRepository
	enrollments domain.EnrollmentRepository
	progress    domain.ProgressRepository
}

func NewCatalogService(content domain.ContentRepository, enrollments domain.EnrollmentRepository,
	progress domain.ProgressRepository) *CatalogService {
	return &CatalogService{
		content:     content,
		enrollments: enrollments,
		progress:    progress,
	}
}

// CohortLessons returns the cohort's published lessons in order with how to play each and the student's progress
func (s *CatalogService) CohortLessons(ctx context.Context, studentID, cohortID uint) ([]domain.LessonEntry, error) {
	if _, err := s.content.GetCohort(ctx, cohortID); err != nil {
		return nil, err
	}
	if _, err := requireEnrollment(ctx, s.enrollments, studentID, cohortID); err != nil {
		return nil, err
	}

	lessons, err := s.content.ListCohortLessons(ctx, cohortID, true)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	rows, err := s.progress.ListForStudent(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}
	byLesson := make(map[uint]domain.Progress, len(rows))
	for _, p := range rows {
		byLesson[p.LessonID] = p
	}

	entries := make([]domain.LessonEntry, 0, len(lessons))
	for _, l := range lessons {
		entry := domain.LessonEntry{Lesson: l, Playback: PlaybackFor(l.Video)}
		if p, ok := byLesson[l.ID]; ok {
			entry.Progress = &p
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// LessonEmbed returns the sandboxed player description for an embeddable lesson
func (s *CatalogService) LessonEmbed(ctx context.Context, studentID, lessonID uint) (video.Embed, error) {
	lesson, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		return video.Embed{}, err
	}
	if !lesson.IsPublished() {
		return video.Embed{}, fmt.Errorf("%w: %d is not published", domain.ErrLessonNotFound, lesson.ID)
	}
	if _, err := requireEnrollment(ctx, s.enrollments, studentID, lesson.CohortID); err != nil {
		return video.Embed{}, err
	}
	return video.EmbedFor(video.Resolve(lesson.Video.URL), lesson.Title)
}

// PlaybackFor classifies a lesson's video.  URLs that resolve to nothing playable keep a declared external-link kind
// so clients can hand them to the browser.
func PlaybackFor(ref domain.VideoRef) domain.Playback {
	src := video.Resolve(ref.URL)
	pb := domain.Playback{
		Kind:                     string(src.Kind),
		ProviderID:               src.ProviderID,
		SupportsProgressTracking: src.SupportsProgressTracking,
	}
	if src.Kind == video.KindUnknown && ref.Kind == domain.VideoKindExternalLink {
		pb.Kind = string(domain.VideoKindExternalLink)
	}
	return pb
}
