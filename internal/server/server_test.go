package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PizzaHomicide/lectern/internal/auth"
	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/repository/sqlstore"
	"github.com/PizzaHomicide/lectern/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret          = "server-test-secret"
	enrolledStudent     = uint(10)
	unenrolledStudent   = uint(11)
	testRateLimitPerMin = 0
)

type fixture struct {
	srv        *Server
	cohortID   uint
	lessonID   uint // direct file, expected duration 600s
	youtubeID  uint
	draftID    uint
	enrolled   string
	unenrolled string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlstore.Close(db) })

	content := sqlstore.NewContentStore(db)
	enrollments := sqlstore.NewEnrollmentStore(db)
	progress := sqlstore.NewProgressStore(db)

	cohort := domain.Cohort{CourseID: 1, Title: "Evening cohort", Status: domain.CohortActive}
	require.NoError(t, content.CreateCohort(ctx, &cohort))

	duration := 600
	lessons := []domain.Lesson{
		{CohortID: cohort.ID, OrderIndex: 1, Title: "Intro", Status: domain.PublicationPublished,
			Video: domain.VideoRef{Kind: domain.VideoKindDirectFile, URL: "https://cdn.example.com/intro.mp4", ExpectedDurationSeconds: &duration}},
		{CohortID: cohort.ID, OrderIndex: 2, Title: "Talk", Status: domain.PublicationPublished,
			Video: domain.VideoRef{Kind: domain.VideoKindYouTube, URL: "https://youtu.be/dQw4w9WgXcQ"}},
		{CohortID: cohort.ID, OrderIndex: 3, Title: "Draft", Status: domain.PublicationDraft,
			Video: domain.VideoRef{Kind: domain.VideoKindDirectFile, URL: "https://cdn.example.com/draft.mp4"}},
	}
	for i := range lessons {
		require.NoError(t, content.CreateLesson(ctx, &lessons[i]))
	}
	_, err = enrollments.Enroll(ctx, enrolledStudent, cohort.ID, domain.EnrollmentActive)
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	srv := New(config.ServerConfig{Listen: ":0", CORSOrigins: "*", RateLimitPerMinute: testRateLimitPerMin}, verifier, Services{
		Progress:   service.NewProgressService(content, enrollments, progress, true),
		Aggregator: service.NewProgressAggregator(content, enrollments, progress),
		Catalog:    service.NewCatalogService(content, enrollments, progress),
	})

	return &fixture{
		srv:        srv,
		cohortID:   cohort.ID,
		lessonID:   lessons[0].ID,
		youtubeID:  lessons[1].ID,
		draftID:    lessons[2].ID,
		enrolled:   issue(t, enrolledStudent),
		unenrolled: issue(t, unenrolledStudent),
	}
}

func issue(t *testing.T, id uint) string {
	t.Helper()
	token, err := auth.IssueToken(testSecret, id, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, target, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.srv.App().Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var decoded map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func progressBody(lessonID uint, watch int, completed bool) string {
	b, _ := json.Marshal(map[string]interface{}{"lessonId": lessonID, "watchTime": watch, "completed": completed})
	return string(b)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := f.srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestPostProgress(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/progress", f.enrolled, progressBody(f.lessonID, 120, false))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["created"])
	assert.Nil(t, body["updated"])
	assert.Equal(t, float64(120), body["watchTime"])
	assert.Equal(t, false, body["completed"])

	// A second tab behind the first reports later
	resp, body = f.do(t, http.MethodPost, "/progress", f.enrolled, progressBody(f.lessonID, 80, false))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["updated"])
	assert.Equal(t, float64(120), body["watchTime"])

	// 90% of the expected duration completes server side
	resp, body = f.do(t, http.MethodPost, "/progress", f.enrolled, progressBody(f.lessonID, 540, false))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["completed"])

	resp, body = f.do(t, http.MethodPost, "/progress", f.enrolled, progressBody(f.lessonID, 10, false))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["completed"], "completion is sticky")
	assert.Equal(t, float64(540), body["watchTime"])
}

func TestPostProgressErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		token  string
		body   string
		status int
	}{
		{"NoToken", "", progressBody(f.lessonID, 10, false), http.StatusUnauthorized},
		{"BadToken", "garbage", progressBody(f.lessonID, 10, false), http.StatusUnauthorized},
		{"MissingLesson", f.enrolled, `{"watchTime": 10}`, http.StatusBadRequest},
		{"MissingWatchTime", f.enrolled, `{"lessonId": 1}`, http.StatusBadRequest},
		{"NegativeWatchTime", f.enrolled, progressBody(f.lessonID, -5, false), http.StatusBadRequest},
		{"MalformedBody", f.enrolled, `{"lessonId":`, http.StatusBadRequest},
		{"UnknownLesson", f.enrolled, progressBody(9999, 10, false), http.StatusNotFound},
		{"DraftLesson", f.enrolled, progressBody(f.draftID, 10, false), http.StatusNotFound},
		{"NotEnrolled", f.unenrolled, progressBody(f.lessonID, 10, false), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, "/progress", tt.token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestGetProgress(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/progress?lessonId="+itoa(f.lessonID), f.enrolled, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"])

	f.do(t, http.MethodPost, "/progress", f.enrolled, progressBody(f.lessonID, 550, false))

	resp, body = f.do(t, http.MethodGet, "/progress?lessonId="+itoa(f.lessonID), f.enrolled, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := body["data"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, float64(550), row["watchTime"])
	assert.Equal(t, false, row["completed"])

	resp, body = f.do(t, http.MethodGet, "/progress", f.enrolled, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, body = f.do(t, http.MethodGet, "/progress?cohortId="+itoa(f.cohortID), f.enrolled, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), summary["totalLessons"])
	assert.Equal(t, float64(0), summary["progressPercentage"])
	assert.Equal(t, float64(550), summary["totalWatchTimeSeconds"])
	assert.Equal(t, float64(f.lessonID), summary["lastWatchedLesson"])
	assert.Equal(t, float64(f.lessonID), summary["resumeLesson"])

	resp, _ = f.do(t, http.MethodGet, "/progress?cohortId="+itoa(f.cohortID), f.unenrolled, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/progress?cohortId=9999", f.enrolled, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/progress?lessonId=abc", f.enrolled, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProgressIsPerStudent(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/progress", f.enrolled, progressBody(f.lessonID, 100, false))

	resp, body := f.do(t, http.MethodGet, "/progress", f.unenrolled, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"])
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/progress", f.enrolled, progressBody(f.lessonID, 600, true))

	resp, body := f.do(t, http.MethodGet, "/progress/dashboard", f.enrolled, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cards := body["data"].([]interface{})
	require.Len(t, cards, 1)
	card := cards[0].(map[string]interface{})
	assert.Equal(t, "active", card["enrollmentStatus"])
	assert.Equal(t, float64(50), card["summary"].(map[string]interface{})["progressPercentage"])
}

func TestCohortLessons(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/cohorts/"+itoa(f.cohortID)+"/lessons", f.enrolled, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 2)

	first := entries[0].(map[string]interface{})
	playback := first["playback"].(map[string]interface{})
	assert.Equal(t, "direct-file", playback["kind"])
	assert.Equal(t, true, playback["supportsProgressTracking"])

	second := entries[1].(map[string]interface{})
	playback = second["playback"].(map[string]interface{})
	assert.Equal(t, "embed-youtube", playback["kind"])
	assert.Equal(t, "dQw4w9WgXcQ", playback["providerId"])

	resp, _ = f.do(t, http.MethodGet, "/cohorts/"+itoa(f.cohortID)+"/lessons", f.unenrolled, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLessonEmbed(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/lessons/"+itoa(f.youtubeID)+"/embed", nil)
	req.Header.Set("Authorization", "Bearer "+f.enrolled)
	resp, err := f.srv.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ")
	assert.Contains(t, string(page), "sandbox=")

	resp, _ = f.do(t, http.MethodGet, "/lessons/"+itoa(f.lessonID)+"/embed", f.enrolled, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t)
	limited := New(config.ServerConfig{RateLimitPerMinute: 2}, f.srv.verifier, f.srv.svc)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := limited.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
