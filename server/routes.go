package server

import (
	"net/http"

	"github.com/jrsteele09/go-lms-client/users"
)

func (s *Server) initRoutes() {
	requireAuth := s.RequireAuth()
	staff := []func(http.HandlerFunc) http.HandlerFunc{requireAuth, s.RequireRole(users.RoleAdmin, users.RoleInstructor)}
	admin := []func(http.HandlerFunc) http.HandlerFunc{requireAuth, s.RequireRole(users.RoleAdmin)}

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// AUTH
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteVerify, ChainMiddleware(s.VerifyHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRefreshToken, ChainMiddleware(s.RefreshTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifyOTP, ChainMiddleware(s.VerifyOTPHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware()...))

	// Public catalog
	s.RegisterRouteHandler("GET "+RouteCourses, ChainMiddleware(s.ListCoursesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCoursesFind, ChainMiddleware(s.ListCoursesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCourse, ChainMiddleware(s.GetCourseHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCategories, ChainMiddleware(s.ListCategoriesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCategory, ChainMiddleware(s.GetCategoryHandler(), s.APIMiddleware()...))

	// Dashboard
	s.RegisterRouteHandler("POST "+RouteCourses, ChainMiddleware(s.CreateCourseHandler(), s.APIMiddleware(admin...)...))
	s.RegisterRouteHandler("DELETE "+RouteCourse, ChainMiddleware(s.DeleteCourseHandler(), s.APIMiddleware(admin...)...))
	s.RegisterRouteHandler("GET "+RouteOfferings, ChainMiddleware(s.ListOfferingsHandler(), s.APIMiddleware(requireAuth)...))
	s.RegisterRouteHandler("GET "+RouteOffering, ChainMiddleware(s.GetOfferingHandler(), s.APIMiddleware(requireAuth)...))
	s.RegisterRouteHandler("POST "+RouteCourseOffers, ChainMiddleware(s.CreateOfferingHandler(), s.APIMiddleware(staff...)...))
	s.RegisterRouteHandler("GET "+RouteUsers, ChainMiddleware(s.ListUsersHandler(), s.APIMiddleware(admin...)...))
	s.RegisterRouteHandler("GET "+RouteUser, ChainMiddleware(s.GetUserHandler(), s.APIMiddleware(requireAuth)...))

	// Enrollments
	s.RegisterRouteHandler("GET "+RouteEnrollments, ChainMiddleware(s.ListEnrollmentsHandler(), s.APIMiddleware(staff...)...))
	s.RegisterRouteHandler("GET "+RouteEnrollment, ChainMiddleware(s.GetEnrollmentHandler(), s.APIMiddleware(requireAuth)...))
	s.RegisterRouteHandler("POST "+RouteEnrollments, ChainMiddleware(s.CreateEnrollmentHandler(), s.APIMiddleware(requireAuth)...))
	s.RegisterRouteHandler("GET "+RouteEnrollmentsUser, ChainMiddleware(s.EnrollmentsByUserHandler(), s.APIMiddleware(requireAuth)...))
	s.RegisterRouteHandler("GET "+RouteEnrollmentsCourse, ChainMiddleware(s.EnrollmentsByCourseHandler(), s.APIMiddleware(staff...)...))
	s.RegisterRouteHandler("PUT "+RouteEnrollmentStatus, ChainMiddleware(s.UpdateEnrollmentStatusHandler(), s.APIMiddleware(admin...)...))

	// Files
	s.RegisterRouteHandler("GET "+RouteFiles, ChainMiddleware(s.ListFilesHandler(), s.APIMiddleware(requireAuth)...))
	s.RegisterRouteHandler("GET "+RouteFile, ChainMiddleware(s.GetFileHandler(), s.APIMiddleware(requireAuth)...))
	s.RegisterRouteHandler("GET "+RouteFileDownload, ChainMiddleware(s.DownloadFileHandler(), s.APIMiddleware(requireAuth)...))
}
