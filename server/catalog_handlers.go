package server

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-lms-client/courses"
	"github.com/jrsteele09/go-lms-client/enrollments"
	"github.com/jrsteele09/go-lms-client/internal/utils"
	"github.com/jrsteele09/go-lms-client/media"
	"github.com/jrsteele09/go-lms-client/users"
)

func (s *Server) ListCoursesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID := r.URL.Query().Get("category_id")

		s.lock.RLock()
		found := make([]courses.Course, 0, len(s.courseList))
		for _, c := range s.courseList {
			if !matches(r, c.Name, c.Description) || !inCategory(c, categoryID) {
				continue
			}
			found = append(found, c)
		}
		s.lock.RUnlock()

		start, end := page(r, len(found))
		writeJSON(w, http.StatusOK, courses.CourseList{Courses: found[start:end], Total: len(found)})
	}
}

func inCategory(c courses.Course, categoryID string) bool {
	if categoryID == "" {
		return true
	}
	for _, cat := range c.Categories {
		if cat.ID == categoryID {
			return true
		}
	}
	return false
}

func (s *Server) GetCourseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.lock.RLock()
		defer s.lock.RUnlock()
		for _, c := range s.courseList {
			if c.ID == id {
				writeJSON(w, http.StatusOK, c)
				return
			}
		}
		writeError(w, http.StatusNotFound, "course not found")
	}
}

func (s *Server) CreateCourseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courses.CourseRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()
		now := s.now().UTC()
		c := courses.Course{
			ID:          uuid.New().String(),
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			ThumbnailID: req.ThumbnailID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for _, id := range req.CategoryIDs {
			for _, cat := range s.categories {
				if cat.ID == id {
					c.Categories = append(c.Categories, cat)
				}
			}
		}
		s.courseList = append(s.courseList, c)
		writeJSON(w, http.StatusCreated, c)
	}
}

func (s *Server) DeleteCourseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.lock.Lock()
		defer s.lock.Unlock()
		for i, c := range s.courseList {
			if c.ID == id {
				s.courseList = append(s.courseList[:i], s.courseList[i+1:]...)
				writeJSON(w, http.StatusOK, messageResponse{Message: "course deleted"})
				return
			}
		}
		writeError(w, http.StatusNotFound, "course not found")
	}
}

func (s *Server) ListCategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.RLock()
		found := make([]courses.Category, 0, len(s.categories))
		for _, c := range s.categories {
			if matches(r, c.Name, c.Description) {
				found = append(found, c)
			}
		}
		s.lock.RUnlock()

		start, end := page(r, len(found))
		writeJSON(w, http.StatusOK, courses.CategoryList{Categories: found[start:end], Total: len(found)})
	}
}

func (s *Server) ListOfferingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := r.URL.Query().Get("course_id")
		s.lock.RLock()
		found := make([]courses.Offering, 0, len(s.offerings))
		for _, o := range s.offerings {
			if (courseID == "" || o.CourseID == courseID) && matches(r, o.Name, o.Description) {
				found = append(found, o)
			}
		}
		s.lock.RUnlock()

		start, end := page(r, len(found))
		writeJSON(w, http.StatusOK, courses.OfferingList{Offerings: found[start:end], Total: len(found)})
	}
}

func (s *Server) ListEnrollmentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		found := s.filterEnrollments(func(e enrollments.Enrollment) bool {
			return (q.Get("student_id") == "" || e.StudentID == q.Get("student_id")) &&
				(q.Get("course_id") == "" || e.CourseID == q.Get("course_id")) &&
				(q.Get("status") == "" || string(e.Status) == q.Get("status")) &&
				matches(r, e.StudentUsername, e.CourseName, e.CourseOfferingName)
		})
		start, end := page(r, len(found))
		writeJSON(w, http.StatusOK, enrollments.List{Enrollments: found[start:end], Total: len(found)})
	}
}

// EnrollmentsByUserHandler lets students read only their own enrollments.
func (s *Server) EnrollmentsByUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		caller, _ := userFrom(r.Context())
		if caller.Role == users.RoleStudent && caller.ID != id {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		writeJSON(w, http.StatusOK, s.filterEnrollments(func(e enrollments.Enrollment) bool {
			return e.StudentID == id
		}))
	}
}

func (s *Server) EnrollmentsByCourseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		writeJSON(w, http.StatusOK, s.filterEnrollments(func(e enrollments.Enrollment) bool {
			return e.CourseID == id
		}))
	}
}

func (s *Server) filterEnrollments(keep func(enrollments.Enrollment) bool) []enrollments.Enrollment {
	s.lock.RLock()
	defer s.lock.RUnlock()
	found := make([]enrollments.Enrollment, 0, len(s.enrollments))
	for _, e := range s.enrollments {
		if keep(e) {
			found = append(found, e)
		}
	}
	return found
}

func (s *Server) CreateEnrollmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrollments.CreateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		now := s.now().UTC()
		e := enrollments.Enrollment{
			ID:                 uuid.New().String(),
			StudentID:          req.StudentID,
			StudentUsername:    req.StudentUsername,
			CourseID:           req.CourseID,
			CourseName:         req.CourseName,
			CourseOfferingID:   req.CourseOfferingID,
			CourseOfferingName: req.CourseOfferingName,
			Status:             enrollments.StatusPending,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		s.lock.Lock()
		s.enrollments = append(s.enrollments, e)
		s.lock.Unlock()
		writeJSON(w, http.StatusCreated, e)
	}
}

func (s *Server) UpdateEnrollmentStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrollments.StatusRequest
		if !decodeBody(w, r, &req) {
			return
		}
		id := r.PathValue("id")
		s.lock.Lock()
		defer s.lock.Unlock()
		for i := range s.enrollments {
			if s.enrollments[i].ID == id {
				s.enrollments[i].Status = req.Status
				s.enrollments[i].UpdatedAt = s.now().UTC()
				writeJSON(w, http.StatusOK, s.enrollments[i])
				return
			}
		}
		writeError(w, http.StatusNotFound, "enrollment not found")
	}
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		s.lock.RLock()
		found := make([]users.User, 0, len(s.accounts))
		for _, a := range s.accounts {
			if (role == "" || string(a.user.Role) == role) && matches(r, a.user.Username, a.user.Email) {
				found = append(found, a.user)
			}
		}
		s.lock.RUnlock()
		slices.SortFunc(found, func(a, b users.User) int { return strings.Compare(a.Email, b.Email) })

		start, end := page(r, len(found))
		writeJSON(w, http.StatusOK, users.List{Users: found[start:end], Total: len(found)})
	}
}

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.lookupUser(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) ListFilesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bucket := r.URL.Query().Get("bucket_name")
		s.lock.RLock()
		found := make([]media.File, 0, len(s.files))
		for _, f := range s.files {
			if (bucket == "" || f.meta.BucketName == bucket) && matches(r, f.meta.OriginalFilename) {
				found = append(found, f.meta)
			}
		}
		s.lock.RUnlock()
		slices.SortFunc(found, func(a, b media.File) int { return strings.Compare(a.ID, b.ID) })

		start, end := page(r, len(found))
		writeJSON(w, http.StatusOK, media.FileList{Files: found[start:end], Total: len(found)})
	}
}

func (s *Server) DownloadFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("bucket") + "/" + r.PathValue("id")
		s.lock.RLock()
		f, ok := s.files[key]
		s.lock.RUnlock()
		if !ok {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		w.Header().Set("Content-Type", f.meta.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.meta.OriginalFilename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(f.content)
	}
}

func (s *Server) GetCategoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.lock.RLock()
		defer s.lock.RUnlock()
		for _, c := range s.categories {
			if c.ID == id {
				writeJSON(w, http.StatusOK, c)
				return
			}
		}
		writeError(w, http.StatusNotFound, "category not found")
	}
}

func (s *Server) GetOfferingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.lock.RLock()
		defer s.lock.RUnlock()
		for _, o := range s.offerings {
			if o.ID == id {
				writeJSON(w, http.StatusOK, courses.OfferingDetail{
					Offering:    o,
					Instructors: []courses.Instructor{},
					Sections:    []courses.Section{},
				})
				return
			}
		}
		writeError(w, http.StatusNotFound, "course offering not found")
	}
}

func (s *Server) CreateOfferingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courses.OfferingRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		courseID := r.PathValue("id")

		s.lock.Lock()
		defer s.lock.Unlock()
		var course *courses.Course
		for i := range s.courseList {
			if s.courseList[i].ID == courseID {
				course = &s.courseList[i]
			}
		}
		if course == nil {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}

		now := s.now().UTC()
		o := courses.Offering{
			ID:           uuid.New().String(),
			CourseID:     courseID,
			CourseName:   utils.Ptr(course.Name),
			Name:         strings.TrimSpace(req.Name),
			Description:  req.Description,
			OfferingType: req.OfferingType,
			Status:       courses.OfferingPending,
			Duration:     utils.NonBlank(utils.Value(req.Duration)),
			ClassTime:    utils.NonBlank(utils.Value(req.ClassTime)),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if o.OfferingType == "" {
			o.OfferingType = courses.OfferingOnline
		}
		if req.Status != nil {
			o.Status = *req.Status
		}
		if req.EnrollmentCost != nil {
			o.EnrollmentCost = *req.EnrollmentCost
		}
		s.offerings = append(s.offerings, o)
		writeJSON(w, http.StatusCreated, o)
	}
}

// GetEnrollmentHandler lets students read only their own enrollments.
func (s *Server) GetEnrollmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		caller, _ := userFrom(r.Context())
		found := s.filterEnrollments(func(e enrollments.Enrollment) bool { return e.ID == id })
		if len(found) == 0 {
			writeError(w, http.StatusNotFound, "enrollment not found")
			return
		}
		if caller.Role == users.RoleStudent && found[0].StudentID != caller.ID {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		writeJSON(w, http.StatusOK, found[0])
	}
}

func (s *Server) GetFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.lock.RLock()
		defer s.lock.RUnlock()
		for _, f := range s.files {
			if f.meta.ID == id {
				writeJSON(w, http.StatusOK, f.meta)
				return
			}
		}
		writeError(w, http.StatusNotFound, "file not found")
	}
}
