package domain

import "time"

// VideoKind is the content store's declaration of how a lesson's video is delivered
type VideoKind string

const (
	VideoKindYouTube      VideoKind = "embed-youtube"
	VideoKindVimeo        VideoKind = "embed-vimeo"
	VideoKindDirectFile   VideoKind = "direct-file"
	VideoKindExternalLink VideoKind = "external-link"
)

// PublicationStatus is the authoring state of a lesson
type PublicationStatus string

const (
	PublicationDraft     PublicationStatus = "draft"
	PublicationPublished PublicationStatus = "published"
)

// CohortStatus tracks a cohort through its scheduled lifecycle
type CohortStatus string

const (
	CohortUpcoming  CohortStatus = "upcoming"
	CohortActive    CohortStatus = "active"
	CohortCompleted CohortStatus = "completed"
)

// VideoRef is the video reference attached to a lesson
type VideoRef struct {
	Kind VideoKind `json:"kind"`
	URL  string    `json:"url"`
	// ExpectedDurationSeconds is the authored duration, if known
	ExpectedDurationSeconds *int `json:"expectedDurationSeconds,omitempty"`
}

// Material is a downloadable file attached to a lesson
type Material struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Lesson is one unit of video content within a cohort
type Lesson struct {
	ID         uint              `json:"id"`
	CohortID   uint              `json:"cohortId"`
	OrderIndex int               `json:"orderIndex"`
	Title      string            `json:"title"`
	Video      VideoRef          `json:"video"`
	Materials  []Material        `json:"materials"`
	Status     PublicationStatus `json:"status"`
}

// IsPublished reports whether students may see the lesson
func (l *Lesson) IsPublished() bool {
	return l.Status == PublicationPublished
}

// Cohort is a scheduled run of a course
type Cohort struct {
	ID       uint         `json:"id"`
	CourseID uint         `json:"courseId"`
	Title    string       `json:"title"`
	Status   CohortStatus `json:"status"`
	StartsAt time.Time    `json:"startsAt"`
	EndsAt   time.Time    `json:"endsAt"`
}

// StatusAt returns the lifecycle status the cohort should have at the given instant.  A completed cohort never
// moves backwards.
func (c *Cohort) StatusAt(now time.Time) CohortStatus {
	if c.Status == CohortCompleted {
		return CohortCompleted
	}
	switch {
	case !c.EndsAt.IsZero() && !now.Before(c.EndsAt):
		return CohortCompleted
	case !now.Before(c.StartsAt):
		return CohortActive
	default:
		return CohortUpcoming
	}
}

// Playback describes how a client should present a lesson's video
type Playback struct {
	Kind                     string  `json:"kind"`
	ProviderID               *string `json:"providerId,omitempty"`
	SupportsProgressTracking bool    `json:"supportsProgressTracking"`
}

// LessonEntry is a lesson as listed to an enrolled student, with the caller's own progress if any
type LessonEntry struct {
	Lesson   Lesson    `json:"lesson"`
	Playback Playback  `json:"playback"`
	Progress *Progress `json:"progress,omitempty"`
}
