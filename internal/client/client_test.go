package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(config.ClientConfig{BaseURL: srv.URL, Token: "test-token", TimeoutSeconds: 2})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(config.ClientConfig{})
	assert.Error(t, err)
}

func TestReportProgress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/progress", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(7), body["lessonId"])
		assert.Equal(t, float64(550), body["watchTime"])
		assert.Equal(t, false, body["completed"])

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true, "updated": true, "watchTime": 560, "completed": true,
		})
	})

	res, err := c.ReportProgress(context.Background(), domain.ProgressReport{LessonID: 7, WatchTimeSeconds: 550})
	require.NoError(t, err)
	assert.Equal(t, &domain.ReportResult{WatchTimeSeconds: 560, Completed: true, Created: false}, res,
		"canonical server values are returned, not the reported ones")
}

func TestReportProgressErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		sentinel  error
		retryable bool
	}{
		{name: "Unauthorized", status: http.StatusUnauthorized, sentinel: domain.ErrUnauthorized},
		{name: "NotEnrolled", status: http.StatusForbidden, sentinel: domain.ErrNotEnrolled},
		{name: "UnknownLesson", status: http.StatusNotFound, sentinel: domain.ErrLessonNotFound},
		{name: "BadReport", status: http.StatusBadRequest, sentinel: domain.ErrInvalidReport},
		{name: "ServerError", status: http.StatusInternalServerError, retryable: true},
		{name: "RateLimited", status: http.StatusTooManyRequests, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]interface{}{"success": false, "message": "nope"})
			})

			_, err := c.ReportProgress(context.Background(), domain.ProgressReport{LessonID: 1, WatchTimeSeconds: 10})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
			if tt.sentinel != nil {
				assert.True(t, errors.Is(err, tt.sentinel))
			}
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(config.ClientConfig{BaseURL: url, TimeoutSeconds: 1})
	require.NoError(t, err)

	_, err = c.ReportProgress(context.Background(), domain.ProgressReport{LessonID: 1})
	require.Error(t, err)

	var netErr NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.True(t, IsRetryable(err))
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLessonProgress(t *testing.T) {
	t.Run("Recorded", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "3", r.URL.Query().Get("lessonId"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data": []map[string]interface{}{
					{"studentId": 1, "lessonId": 3, "watchTime": 550, "completed": false, "watchedAt": "2026-10-01T10:00:00Z"},
				},
			})
		})

		p, err := c.LessonProgress(context.Background(), 3)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 550, p.WatchTimeSeconds)
		assert.Equal(t, uint(3), p.LessonID)
	})

	t.Run("NothingRecorded", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": []interface{}{}})
		})

		p, err := c.LessonProgress(context.Background(), 3)
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestCohortSummaryAndLessons(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/progress":
			assert.Equal(t, "5", r.URL.Query().Get("cohortId"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"totalLessons": 4, "completedLessons": 1, "progressPercentage": 25,
					"totalWatchTimeSeconds": 900, "lastWatchedLesson": 2, "resumeLesson": 2,
				},
			})
		case "/cohorts/5/lessons":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data": []map[string]interface{}{
					{
						"lesson":   map[string]interface{}{"id": 2, "cohortId": 5, "title": "Intro", "orderIndex": 1},
						"playback": map[string]interface{}{"kind": "direct-file", "supportsProgressTracking": true},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	})

	summary, err := c.CohortSummary(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 25, summary.ProgressPercentage)
	require.NotNil(t, summary.ResumeLessonID)
	assert.Equal(t, uint(2), *summary.ResumeLessonID)

	lessons, err := c.CohortLessons(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "Intro", lessons[0].Lesson.Title)
	assert.True(t, lessons[0].Playback.SupportsProgressTracking)
	assert.Nil(t, lessons[0].Progress)
}

func TestDashboard(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/progress/dashboard", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{
					"cohort":           map[string]interface{}{"id": 5, "title": "Autumn"},
					"enrollmentStatus": "active",
					"summary":          map[string]interface{}{"totalLessons": 0, "progressPercentage": 0},
				},
			},
		})
	})

	cards, err := c.Dashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, domain.EnrollmentActive, cards[0].Enrollment)
	assert.Equal(t, "Autumn", cards[0].Cohort.Title)
}
