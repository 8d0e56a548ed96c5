package domain

import "errors"

var (
	ErrInvalidReport  = errors.New("invalid progress report")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrCohortNotFound = errors.New("cohort not found")
	ErrNotEnrolled    = errors.New("not enrolled in cohort")
	ErrUnauthorized   = errors.New("unauthorized")
)
