package enrollments

import "time"

type StatusType string

const (
	StatusPending   StatusType = "pending"
	StatusApproved  StatusType = "approved"
	StatusRejected  StatusType = "rejected"
	StatusCompleted StatusType = "completed"
)

// Enrollment links a student to a course offering. The names are denormalized
// by the backend for display.
type Enrollment struct {
	ID                 string     `json:"id"`
	StudentID          string     `json:"student_id"`
	StudentUsername    string     `json:"student_username"`
	CourseID           string     `json:"course_id"`
	CourseName         string     `json:"course_name"`
	CourseOfferingID   string     `json:"course_offering_id"`
	CourseOfferingName string     `json:"course_offering_name"`
	Status             StatusType `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type List struct {
	Enrollments []Enrollment `json:"enrollments"`
	Total       int          `json:"total"`
}

type CreateRequest struct {
	StudentID          string `json:"student_id" validate:"required,uuid"`
	StudentUsername    string `json:"student_username" validate:"min=3,max=255"`
	CourseID           string `json:"course_id" validate:"required,uuid"`
	CourseName         string `json:"course_name" validate:"min=1,max=255"`
	CourseOfferingID   string `json:"course_offering_id" validate:"required,uuid"`
	CourseOfferingName string `json:"course_offering_name" validate:"min=1,max=255"`
}

type StatusRequest struct {
	Status StatusType `json:"status" validate:"oneof=pending approved rejected completed"`
}
