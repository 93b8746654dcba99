package server

// Route path constants. They match the LMS gateway paths the client calls.
const (
	RouteHealth = "/health"

	// Auth
	RouteLogin          = "/api/v1/auth/login"
	RouteRegister       = "/api/v1/auth/register"
	RouteVerify         = "/api/v1/auth/verify"
	RouteRefreshToken   = "/api/v1/auth/refresh-token"
	RouteForgotPassword = "/api/v1/auth/forgot-password"
	RouteVerifyOTP      = "/api/v1/auth/verify-otp"
	RouteResetPassword  = "/api/v1/auth/reset-password"

	// Users
	RouteUsers = "/api/v1/users"
	RouteUser  = "/api/v1/users/{id}"

	// Catalog
	RouteCourses      = "/api/v1/courses"
	RouteCoursesFind  = "/api/v1/courses/find"
	RouteCourse       = "/api/v1/courses/{id}"
	RouteCategories   = "/api/v1/categories"
	RouteCategory     = "/api/v1/categories/{id}"
	RouteOfferings    = "/api/v1/course-offerings"
	RouteOffering     = "/api/v1/course-offerings/{id}"
	RouteCourseOffers = "/api/v1/courses/{id}/offerings"

	// Enrollments
	RouteEnrollments       = "/api/v1/enrollments"
	RouteEnrollment        = "/api/v1/enrollments/{id}"
	RouteEnrollmentStatus  = "/api/v1/enrollments/{id}/status"
	RouteEnrollmentsUser   = "/api/v1/enrollments/user/{id}"
	RouteEnrollmentsCourse = "/api/v1/enrollments/course/{id}"

	// Files
	RouteFiles        = "/api/v1/files"
	RouteFile         = "/api/v1/files/{id}"
	RouteFileDownload = "/api/v1/buckets/{bucket}/files/{id}/download"
)
