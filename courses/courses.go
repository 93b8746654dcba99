package courses

import "time"

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Course is a catalog entry. Offerings are the runnable instances of it.
type Course struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	ThumbnailID  *string    `json:"thumbnail_id,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	Categories   []Category `json:"categories,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CourseList struct {
	Courses []Course `json:"courses"`
	Total   int      `json:"total"`
}

type CategoryList struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

type CourseRequest struct {
	Name        string   `json:"name,omitempty" validate:"notblank"`
	Description string   `json:"description,omitempty"`
	ThumbnailID *string  `json:"thumbnail_id"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description,omitempty"`
}

type OfferingType string

const (
	OfferingOnline   OfferingType = "online"
	OfferingOnCampus OfferingType = "oncampus"
)

type OfferingStatus string

const (
	OfferingPending   OfferingStatus = "pending"
	OfferingActive    OfferingStatus = "active"
	OfferingOngoing   OfferingStatus = "ongoing"
	OfferingCompleted OfferingStatus = "completed"
)

type Offering struct {
	ID             string         `json:"id"`
	CourseID       string         `json:"course_id"`
	CourseName     *string        `json:"course_name,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	OfferingType   OfferingType   `json:"offering_type"`
	Status         OfferingStatus `json:"status"`
	Duration       *string        `json:"duration,omitempty"`
	ClassTime      *string        `json:"class_time,omitempty"`
	EnrollmentCost float64        `json:"enrollment_cost"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// OfferingDetail is an offering with its instructors and sections expanded.
type OfferingDetail struct {
	Offering
	Instructors []Instructor `json:"instructors"`
	Sections    []Section    `json:"sections"`
}

type OfferingList struct {
	Offerings []Offering `json:"offerings"`
	Total     int        `json:"total"`
}

type OfferingRequest struct {
	Name           string          `json:"name,omitempty" validate:"notblank"`
	Description    string          `json:"description,omitempty"`
	OfferingType   OfferingType    `json:"offering_type,omitempty" validate:"omitempty,oneof=online oncampus"`
	Duration       *string         `json:"duration,omitempty"`
	ClassTime      *string         `json:"class_time,omitempty"`
	EnrollmentCost *float64        `json:"enrollment_cost,omitempty" validate:"omitempty,gte=0"`
	Status         *OfferingStatus `json:"status,omitempty" validate:"omitempty,oneof=pending active ongoing completed"`
}

type Instructor struct {
	ID                 string    `json:"id"`
	CourseOfferingID   string    `json:"course_offering_id"`
	InstructorID       string    `json:"instructor_id"`
	InstructorUsername string    `json:"instructor_username"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type AssignInstructorRequest struct {
	InstructorID string `json:"instructor_id" validate:"notblank"`
}

type ContentStatus string

const (
	Draft     ContentStatus = "draft"
	Published ContentStatus = "published"
	Archived  ContentStatus = "archived"
)

type Section struct {
	ID               string        `json:"id"`
	CourseOfferingID string        `json:"course_offering_id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Order            int           `json:"order"`
	Status           ContentStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type SectionRequest struct {
	Name        string         `json:"name,omitempty" validate:"notblank"`
	Description string         `json:"description,omitempty"`
	Order       *int           `json:"order,omitempty"`
	Status      *ContentStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
}

// Module is an item inside a section. Only zoom content is supported by the backend.
type Module struct {
	ID              string    `json:"id"`
	CourseSectionID string    `json:"course_section_id"`
	ContentID       *string   `json:"content_id,omitempty"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ContentType     string    `json:"content_type"`   // "zoom"
	ContentStatus   string    `json:"content_status"` // draft, pending or created
	Order           int       `json:"order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ModuleRequest struct {
	Name        string `json:"name,omitempty" validate:"notblank"`
	Description string `json:"description,omitempty"`
	ContentType string `json:"content_type,omitempty" validate:"omitempty,oneof=zoom"`
	Order       *int   `json:"order,omitempty"`
}

// ReorderItem assigns a new position to a section or module.
type ReorderItem struct {
	ID    string `json:"id" validate:"notblank"`
	Order int    `json:"order"`
}

type ReorderRequest struct {
	Items []ReorderItem `json:"items" validate:"dive"`
}
