package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-portal-api/internal/middleware"
	"github.com/noah-isme/institute-portal-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth      *AuthHandler
	Admission *AdmissionHandler
	Register  *RegisterHandler
	Course    *CourseHandler
	Catalog   *CatalogHandler
	Result    *ResultHandler
	LMS       *LMSHandler
	Upload    *UploadHandler
	User      *UserHandler
}

// RouteDeps carries the middleware dependencies shared by protected routes.
type RouteDeps struct {
	Tokens middleware.TokenValidator
	Audit  middleware.AuditRepository
	Logger *zap.Logger
}

// RegisterRoutes mounts the public site, admin console and LMS endpoints on api.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, deps RouteDeps) {
	authed := middleware.JWT(deps.Tokens)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource)
	}

	// Public site.
	api.POST("/admissions", h.Admission.Submit)
	api.POST("/admissions/drafts", h.Admission.SaveDraft)
	api.GET("/admissions/track", h.Admission.Track)
	api.GET("/courses", h.Course.ListPublic)
	api.GET("/courses/:id", h.Course.GetPublic)
	api.GET("/products", h.Catalog.Products)
	api.GET("/products/:id", h.Catalog.Product)
	api.GET("/alerts", h.Catalog.Alerts)
	api.GET("/results", h.Result.Lookup)
	api.POST("/uploads/photos", h.Upload.UploadPhoto)
	api.GET("/register/exports/download", h.Register.Download)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", authed, h.Auth.Logout)
	auth.GET("/me", authed, h.Auth.Me)
	auth.POST("/change-password", authed, h.Auth.ChangePassword)

	api.GET("/me/enrollment", authed, middleware.RequireRoles(models.RoleStudent), h.Register.MyEnrollment)

	admin := api.Group("/admin", authed)
	admin.GET("/admissions", staff, h.Admission.List)
	admin.GET("/admissions/:id", staff, h.Admission.Get)
	admin.POST("/admissions/:id/approve", adminOnly, h.Admission.Approve)
	admin.POST("/admissions/:id/reject", adminOnly, h.Admission.Reject)

	admin.GET("/register", staff, h.Register.List)
	admin.POST("/register/export", adminOnly, h.Register.Export)
	admin.GET("/register/by-number/:registration_no", staff, h.Register.GetByRegistrationNo)
	admin.GET("/register/:id", staff, h.Register.Get)
	admin.PATCH("/register/:id/status", adminOnly, h.Register.UpdateStatus)
	admin.POST("/register/:id/account", adminOnly, h.Register.ProvisionAccount)

	admin.GET("/courses", staff, h.Course.ListAll)
	admin.POST("/courses", adminOnly, audit(models.AuditActionCourseCreate, models.AuditResourceCourse), h.Course.Create)
	admin.PUT("/courses/:id", adminOnly, audit(models.AuditActionCourseUpdate, models.AuditResourceCourse), h.Course.Update)
	admin.DELETE("/courses/:id", adminOnly, audit(models.AuditActionCourseDeactivate, models.AuditResourceCourse), h.Course.Deactivate)

	admin.POST("/products", adminOnly, audit(models.AuditActionProductSave, models.AuditResourceProduct), h.Catalog.CreateProduct)
	admin.PUT("/products/:id", adminOnly, audit(models.AuditActionProductSave, models.AuditResourceProduct), h.Catalog.UpdateProduct)
	admin.POST("/alerts", adminOnly, audit(models.AuditActionAlertCreate, models.AuditResourceAlert), h.Catalog.CreateAlert)
	admin.DELETE("/alerts/:id", adminOnly, audit(models.AuditActionAlertDelete, models.AuditResourceAlert), h.Catalog.DeleteAlert)

	admin.POST("/results", staff, h.Result.Publish)

	admin.GET("/users", adminOnly, h.User.List)
	admin.GET("/users/:id", middleware.RBAC(string(models.RoleAdmin), middleware.RoleSelf), h.User.Get)
	admin.POST("/users", adminOnly, h.User.Create)
	admin.PATCH("/users/:id", adminOnly, h.User.Update)
	admin.DELETE("/users/:id", adminOnly, h.User.Deactivate)

	lms := api.Group("/lms", authed)
	lms.GET("/courses/:id/sessions", h.LMS.Schedules)
	lms.GET("/courses/:id/discussions", h.LMS.Discussions)
	lms.POST("/courses/:id/discussions", h.LMS.PostDiscussion)
	lms.POST("/sessions", staff, h.LMS.CreateSchedule)
	lms.GET("/sessions/:id/attendance", staff, h.LMS.Attendance)
	lms.PUT("/sessions/:id/attendance", staff, h.LMS.MarkAttendance)
}
