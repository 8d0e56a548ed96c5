package domain

// EnrollmentStatus is the state of a student's registration into a cohort
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment links one student to one cohort
type Enrollment struct {
	ID        uint             `json:"id"`
	StudentID uint             `json:"studentId"`
	CohortID  uint             `json:"cohortId"`
	Status    EnrollmentStatus `json:"status"`
}

// AllowsAccess reports whether the enrollment lets the student read the cohort's lessons and record progress
// against them.
func (e *Enrollment) AllowsAccess() bool {
	return e != nil && e.Status != EnrollmentCancelled
}
