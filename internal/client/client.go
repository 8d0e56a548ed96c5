// Package client talks to the progress service on behalf of the learner client.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/go-resty/resty/v2"
)

// Client is the HTTP client for the progress service
type Client struct {
	http *resty.Client
}

// NetworkError wraps failures that happened before a response was received
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response from the service.  It unwraps to the matching domain error where there is one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("progress service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("progress service returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrNotEnrolled
	case http.StatusNotFound:
		return domain.ErrLessonNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidReport
	}
	return nil
}

// IsRetryable reports whether repeating the request may succeed
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

type reportRequest struct {
	LessonID  uint `json:"lessonId"`
	WatchTime int  `json:"watchTime"`
	Completed bool `json:"completed"`
}

type reportResponse struct {
	Success   bool `json:"success"`
	Created   bool `json:"created"`
	Updated   bool `json:"updated"`
	WatchTime int  `json:"watchTime"`
	Completed bool `json:"completed"`
}

// New creates a client for the configured service
func New(cfg config.ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client base_url is empty")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}

	return &Client{http: rc}, nil
}

// ReportProgress sends one observation for the caller and returns the canonical values the service stored
func (c *Client) ReportProgress(ctx context.Context, report domain.ProgressReport) (*domain.ReportResult, error) {
	var out reportResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(reportRequest{
			LessonID:  report.LessonID,
			WatchTime: report.WatchTimeSeconds,
			Completed: report.Completed,
		}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/progress")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to report progress for lesson %d: %w", report.LessonID, err)
	}

	log.Debug("Progress saved", "lesson_id", report.LessonID, "watch_time", out.WatchTime, "completed", out.Completed,
		"created", out.Created)
	return &domain.ReportResult{
		WatchTimeSeconds: out.WatchTime,
		Completed:        out.Completed,
		Created:          out.Created,
	}, nil
}

// LessonProgress returns the caller's progress on a lesson, or nil if nothing was recorded yet
func (c *Client) LessonProgress(ctx context.Context, lessonID uint) (*domain.Progress, error) {
	var out envelope[[]domain.Progress]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("lessonId", strconv.FormatUint(uint64(lessonID), 10)).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/progress")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to fetch progress for lesson %d: %w", lessonID, err)
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return &out.Data[0], nil
}

// CohortSummary returns the caller's aggregate progress in a cohort
func (c *Client) CohortSummary(ctx context.Context, cohortID uint) (*domain.Summary, error) {
	var out envelope[domain.Summary]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("cohortId", strconv.FormatUint(uint64(cohortID), 10)).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/progress")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to fetch summary for cohort %d: %w", cohortID, err)
	}
	return &out.Data, nil
}

// CohortLessons returns the cohort's published lessons in order, with the caller's progress on each
func (c *Client) CohortLessons(ctx context.Context, cohortID uint) ([]domain.LessonEntry, error) {
	var out envelope[[]domain.LessonEntry]
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(cohortID), 10)).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/cohorts/{id}/lessons")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to fetch lessons for cohort %d: %w", cohortID, err)
	}
	return out.Data, nil
}

// Dashboard returns one card per cohort the caller is enrolled in
func (c *Client) Dashboard(ctx context.Context) ([]domain.CohortCard, error) {
	var out envelope[[]domain.CohortCard]
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/progress/dashboard")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to fetch dashboard: %w", err)
	}
	return out.Data, nil
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return NetworkError{Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Message
	}
	return apiErr
}
