package server

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-lms-client/courses"
	"github.com/jrsteele09/go-lms-client/enrollments"
	"github.com/jrsteele09/go-lms-client/media"
	"github.com/jrsteele09/go-lms-client/users"
)

// Seeded accounts. All of them share DemoPassword.
const (
	DemoPassword        = "Password@123"
	DemoAdminEmail      = "admin@asto.local"
	DemoInstructorEmail = "instructor@asto.local"
	DemoStudentEmail    = "student@asto.local"

	// DemoOTP is the one-time password "sent" by forgot-password.
	DemoOTP = "123456"

	DemoBucket = "course-materials"
)

// Fixed IDs keep tokens minted by one process valid in the next.
const (
	demoAdminID      = "7f1b6a52-0c1e-4a39-9a57-5d2f0e6c1a01"
	demoInstructorID = "7f1b6a52-0c1e-4a39-9a57-5d2f0e6c1a02"
	demoStudentID    = "7f1b6a52-0c1e-4a39-9a57-5d2f0e6c1a03"

	demoCategoryID = "2c9d4e11-8b7a-4f60-b2d4-0a1e3f5c7d01"
	demoCourseGoID = "3d0e5f22-9c8b-4071-83e5-1b2f406d8e01"
	demoCourseDBID = "3d0e5f22-9c8b-4071-83e5-1b2f406d8e02"
	demoOfferingID = "4e1f6033-ad9c-4182-94f6-2c30517e9f01"
	demoFileID     = "5f20714e-be0d-4293-a507-3d41628fa001"
)

// InitialiseSystem seeds the demo users, a small catalog, one enrollment and one file.
func (s *Server) InitialiseSystem() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	created := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	seed := []users.User{
		{ID: demoAdminID, Username: "admin", Email: DemoAdminEmail, Role: users.RoleAdmin},
		{ID: demoInstructorID, Username: "instructor", Email: DemoInstructorEmail, Role: users.RoleInstructor},
		{ID: demoStudentID, Username: "student", Email: DemoStudentEmail, Role: users.RoleStudent},
	}
	for _, u := range seed {
		u.Status = users.StatusActive
		u.EmailVerified = true
		u.CreatedAt = created
		if _, err := s.addAccount(u, DemoPassword); err != nil {
			return fmt.Errorf("failed to seed %s: %w", u.Email, err)
		}
	}

	category := courses.Category{
		ID:          demoCategoryID,
		Name:        "Programming",
		Description: "Software development courses",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	s.categories = []courses.Category{category}
	s.courseList = []courses.Course{
		{
			ID:          demoCourseGoID,
			Name:        "Go for Backend Engineers",
			Description: "Services, concurrency and tooling in Go",
			Categories:  []courses.Category{category},
			CreatedAt:   created,
			UpdatedAt:   created,
		},
		{
			ID:          demoCourseDBID,
			Name:        "Relational Databases",
			Description: "Modelling, SQL and transactions",
			Categories:  []courses.Category{category},
			CreatedAt:   created,
			UpdatedAt:   created,
		},
	}

	courseName := "Go for Backend Engineers"
	s.offerings = []courses.Offering{{
		ID:             demoOfferingID,
		CourseID:       demoCourseGoID,
		CourseName:     &courseName,
		Name:           "Go Spring Cohort",
		Description:    "Evening online cohort",
		OfferingType:   courses.OfferingOnline,
		Status:         courses.OfferingActive,
		EnrollmentCost: 120,
		CreatedAt:      created,
		UpdatedAt:      created,
	}}
	s.enrollments = []enrollments.Enrollment{{
		ID:                 "6a317250-cf1e-43a4-b618-4e5273900b01",
		StudentID:          demoStudentID,
		StudentUsername:    "student",
		CourseID:           demoCourseGoID,
		CourseName:         courseName,
		CourseOfferingID:   demoOfferingID,
		CourseOfferingName: "Go Spring Cohort",
		Status:             enrollments.StatusApproved,
		CreatedAt:          created,
		UpdatedAt:          created,
	}}

	syllabus := []byte("Week 1: Tooling\nWeek 2: Concurrency\nWeek 3: Services\n")
	s.files[DemoBucket+"/"+demoFileID] = storedFile{
		meta: media.File{
			ID:               demoFileID,
			OriginalFilename: "syllabus.txt",
			StoredFilename:   demoFileID + ".txt",
			BucketName:       DemoBucket,
			MimeType:         "text/plain",
			SizeBytes:        int64(len(syllabus)),
			UploadedBy:       demoInstructorID,
			CreatedAt:        created,
			UpdatedAt:        created,
		},
		content: syllabus,
	}

	s.logger.Debug().Int("users", len(seed)).Int("courses", len(s.courseList)).Msg("fake backend seeded")
	return nil
}
