package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func intPtr(v int) *int { return &v }

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestProgressUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(openTestDB(t))
	t0 := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

	p, err := store.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, created, err := store.Upsert(ctx, 1, domain.ProgressReport{LessonID: 10, WatchTimeSeconds: 120}, t0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 120, p.WatchTimeSeconds)
	assert.False(t, p.Completed)

	// Lower watch time keeps the maximum but refreshes the timestamp
	p, created, err = store.Upsert(ctx, 1, domain.ProgressReport{LessonID: 10, WatchTimeSeconds: 80}, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 120, p.WatchTimeSeconds)
	assert.True(t, p.WatchedAt.Equal(t0.Add(time.Minute)))

	p, _, err = store.Upsert(ctx, 1, domain.ProgressReport{LessonID: 10, WatchTimeSeconds: 100, Completed: true}, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.Equal(t, 120, p.WatchTimeSeconds)

	p, _, err = store.Upsert(ctx, 1, domain.ProgressReport{LessonID: 10, WatchTimeSeconds: 130}, t0.Add(3*time.Minute))
	require.NoError(t, err)
	assert.True(t, p.Completed, "completion is sticky")
	assert.Equal(t, 130, p.WatchTimeSeconds)

	stored, err := store.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, *p, *stored)
}

func TestProgressUpsertConcurrentFirstWrites(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewProgressStore(db)

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(watch int) {
			defer wg.Done()
			_, created, err := store.Upsert(ctx, 1, domain.ProgressReport{LessonID: 10, WatchTimeSeconds: watch}, time.Now())
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i * 10)
	}
	wg.Wait()
	assert.Equal(t, 1, createdCount, "only the write that inserted the row reports created")

	var count int64
	require.NoError(t, db.Model(&ProgressModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	p, err := store.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 70, p.WatchTimeSeconds)
}

func TestProgressListForStudent(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(openTestDB(t))
	now := time.Now()

	for _, lesson := range []uint{3, 1, 2} {
		_, _, err := store.Upsert(ctx, 1, domain.ProgressReport{LessonID: lesson, WatchTimeSeconds: int(lesson) * 10}, now)
		require.NoError(t, err)
	}
	_, _, err := store.Upsert(ctx, 2, domain.ProgressReport{LessonID: 1, WatchTimeSeconds: 5}, now)
	require.NoError(t, err)

	all, err := store.ListForStudent(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint(1), all[0].LessonID)

	some, err := store.ListForStudent(ctx, 1, []uint{2, 9})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, 20, some[0].WatchTimeSeconds)

	none, err := store.ListForStudent(ctx, 1, []uint{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContentStore(t *testing.T) {
	ctx := context.Background()
	store := NewContentStore(openTestDB(t))

	cohort := domain.Cohort{CourseID: 1, Title: "Autumn", StartsAt: time.Now()}
	require.NoError(t, store.CreateCohort(ctx, &cohort))
	assert.NotZero(t, cohort.ID)
	assert.Equal(t, domain.CohortUpcoming, cohort.Status)

	lessons := []domain.Lesson{
		{CohortID: cohort.ID, OrderIndex: 2, Title: "Second", Status: domain.PublicationPublished,
			Video: domain.VideoRef{Kind: domain.VideoKindDirectFile, URL: "https://cdn.example.com/2.mp4", ExpectedDurationSeconds: intPtr(600)},
			Materials: []domain.Material{{Title: "Slides", URL: "https://cdn.example.com/2.pdf"}}},
		{CohortID: cohort.ID, OrderIndex: 1, Title: "First", Status: domain.PublicationPublished,
			Video: domain.VideoRef{Kind: domain.VideoKindYouTube, URL: "https://youtu.be/dQw4w9WgXcQ"}},
		{CohortID: cohort.ID, OrderIndex: 3, Title: "Draft"},
	}
	for i := range lessons {
		require.NoError(t, store.CreateLesson(ctx, &lessons[i]))
	}

	got, err := store.GetLesson(ctx, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title)
	require.NotNil(t, got.Video.ExpectedDurationSeconds)
	assert.Equal(t, 600, *got.Video.ExpectedDurationSeconds)
	assert.Equal(t, []domain.Material{{Title: "Slides", URL: "https://cdn.example.com/2.pdf"}}, got.Materials)

	_, err = store.GetLesson(ctx, 999)
	assert.True(t, errors.Is(err, domain.ErrLessonNotFound))
	_, err = store.GetCohort(ctx, 999)
	assert.True(t, errors.Is(err, domain.ErrCohortNotFound))

	published, err := store.ListCohortLessons(ctx, cohort.ID, true)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "First", published[0].Title)
	assert.Equal(t, "Second", published[1].Title)

	all, err := store.ListCohortLessons(ctx, cohort.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, domain.PublicationDraft, all[2].Status)

	require.NoError(t, store.UpdateCohortStatus(ctx, cohort.ID, domain.CohortActive))
	active, err := store.ListCohortsByStatus(ctx, domain.CohortActive, domain.CohortUpcoming)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, domain.CohortActive, active[0].Status)

	err = store.UpdateCohortStatus(ctx, 999, domain.CohortActive)
	assert.True(t, errors.Is(err, domain.ErrCohortNotFound))
}

func TestContentUpsertByExternalID(t *testing.T) {
	ctx := context.Background()
	store := NewContentStore(openTestDB(t))

	cohort := domain.Cohort{CourseID: 4, Title: "Spring", Status: domain.CohortUpcoming}
	require.NoError(t, store.UpsertCohort(ctx, "cms-cohort-1", &cohort))
	id := cohort.ID
	require.NoError(t, store.UpdateCohortStatus(ctx, id, domain.CohortActive))

	cohort = domain.Cohort{CourseID: 4, Title: "Spring (renamed)", Status: domain.CohortUpcoming}
	require.NoError(t, store.UpsertCohort(ctx, "cms-cohort-1", &cohort))
	assert.Equal(t, id, cohort.ID)
	assert.Equal(t, "Spring (renamed)", cohort.Title)
	assert.Equal(t, domain.CohortActive, cohort.Status, "lifecycle status survives a sync")

	lesson := domain.Lesson{Title: "Intro", OrderIndex: 1, Status: domain.PublicationDraft}
	require.NoError(t, store.UpsertLesson(ctx, "cms-lesson-1", "cms-cohort-1", &lesson))
	lessonID := lesson.ID
	assert.Equal(t, id, lesson.CohortID)

	lesson = domain.Lesson{Title: "Intro", OrderIndex: 1, Status: domain.PublicationPublished,
		Video: domain.VideoRef{Kind: domain.VideoKindVimeo, URL: "https://vimeo.com/76979871"}}
	require.NoError(t, store.UpsertLesson(ctx, "cms-lesson-1", "cms-cohort-1", &lesson))
	assert.Equal(t, lessonID, lesson.ID)
	assert.True(t, lesson.IsPublished())
	assert.Equal(t, "https://vimeo.com/76979871", lesson.Video.URL)

	err := store.UpsertLesson(ctx, "cms-lesson-2", "missing", &domain.Lesson{Title: "Orphan"})
	assert.True(t, errors.Is(err, domain.ErrCohortNotFound))
}

func TestEnrollmentStore(t *testing.T) {
	ctx := context.Background()
	store := NewEnrollmentStore(openTestDB(t))

	e, err := store.GetEnrollment(ctx, 1, 5)
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.False(t, e.AllowsAccess())

	_, err = store.Enroll(ctx, 1, 5, domain.EnrollmentActive)
	require.NoError(t, err)
	_, err = store.Enroll(ctx, 2, 5, domain.EnrollmentActive)
	require.NoError(t, err)
	_, err = store.Enroll(ctx, 3, 5, domain.EnrollmentPending)
	require.NoError(t, err)
	e, err = store.Enroll(ctx, 1, 6, domain.EnrollmentActive)
	require.NoError(t, err)
	assert.True(t, e.AllowsAccess())

	e, err = store.Enroll(ctx, 2, 5, domain.EnrollmentCancelled)
	require.NoError(t, err)
	assert.False(t, e.AllowsAccess())

	list, err := store.ListForStudent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	n, err := store.CompleteActive(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only active enrollments complete")

	e, err = store.GetEnrollment(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentCompleted, e.Status)
	e, err = store.GetEnrollment(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentPending, e.Status)
}
