package http

import (
	"html/template"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/auth"
	"github.com/mrlokans/staffmanager/internal/entities"
)

// templateFuncs are available to every page template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date":         displayDate,
		"datetime":     displayDateTime,
		"overdue":      func(l entities.BorrowedBook, now time.Time) bool { return l.IsOverdue(now) },
		"countOverdue": overdueLoans,
		"now":          time.Now,
		"subtract": func(a, b int) int {
			return a - b
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
}

func displayDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return formatDate(t)
	case *time.Time:
		if t != nil {
			return formatDate(*t)
		}
	}
	return ""
}

func displayDateTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		if !t.IsZero() {
			return t.Format("2006-01-02 15:04")
		}
	case *time.Time:
		if t != nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return ""
}

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.Handler())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(auth.ActAsAdmin())
	}

	router.Use(ViewerMiddleware(cfg.AuthConfig.Mode))

	tmpl := template.Must(template.New("").Funcs(templateFuncs()).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}
	if cfg.Images != nil {
		router.Static("/uploads", cfg.Images.Root())
	}

	var counts CountsReader
	var checks []HealthCheck
	if cfg.Database != nil {
		counts = cfg.Database
		checks = append(checks, PingCheck("database", cfg.Database))
	}
	if cfg.Images != nil {
		checks = append(checks, DirCheck("uploads", cfg.Images.Root()))
	}
	ui := NewUIController(cfg.Services, counts, cfg.Auditor)
	ui.images = cfg.Images
	health := NewHealthController(cfg.Version, checks...)

	// Anonymous routes
	router.GET("/health", health.Status)
	router.GET("/ping", Ping)
	router.GET("/", ui.Home)
	router.GET("/error", ui.ErrorPage)
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			respondNotFound(c, "route")
			return
		}
		ui.NotFound(c)
	})

	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController, err := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.TemplatesPath, cfg.AuthConfig)
		if err == nil {
			if cfg.AuthEvents != nil {
				authController.SetEventLogger(cfg.AuthEvents)
			}
			authController.RegisterRoutes(router)

			tokenController := auth.NewAPITokenController(cfg.AuthService)
			router.POST("/api/auth/token", tokenController.GenerateToken)
			router.DELETE("/api/auth/token", tokenController.RevokeToken)

			// Any signed-in user may manage their own password and token
			profile := NewProfileController(cfg.AuthService)
			router.GET("/profile", profile.ProfilePage)
			router.POST("/profile/password", profile.ChangePassword)
			router.POST("/profile/token", profile.GenerateToken)
			router.POST("/profile/token/revoke", profile.RevokeToken)
		}
	}

	// Everything below requires the Admin role
	admin := router.Group("")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireRole(entities.UserRoleAdmin))
	}
	api := admin.Group("/api")

	registerAPI(api, cfg)
	ui.register(admin)

	if cfg.Images != nil {
		owners := map[string]imageRoutes{
			"books":     newBookImages(cfg.Services.Books, cfg.Images, cfg.Auditor),
			"members":   newMemberImages(cfg.Services.Members, cfg.Images, cfg.Auditor),
			"employees": newEmployeeImages(cfg.Services.Employees, cfg.Images, cfg.Auditor),
		}
		for plural, o := range owners {
			api.POST("/"+plural+"/:id/image", o.Upload)
			api.DELETE("/"+plural+"/:id/image", o.Remove)
			admin.POST("/"+plural+"/:id/image", o.UploadForm)
			admin.POST("/"+plural+"/:id/image/delete", o.RemoveForm)
		}
	}

	if cfg.Audit != nil {
		audit := NewAuditController(cfg.Audit)
		admin.GET("/audit", audit.AuditLogPage)
		api.GET("/audit", audit.GetAuditEvents)
		api.GET("/audit/:entity/:id", audit.GetEntityHistory)
	}

	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/types", tasksController.TaskTypes)
		api.GET("/tasks/:id", tasksController.TaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
		admin.GET("/maintenance", tasksController.MaintenancePage)
		admin.POST("/maintenance/:type/run", tasksController.RunTaskForm)
	}

	if cfg.Users != nil {
		usersController := NewUsersController(cfg.Users, cfg.Auditor)
		api.GET("/users", usersController.List)
		api.PUT("/users/:id/role", usersController.SetRole)
		api.DELETE("/users/:id", usersController.Delete)
	}

	return router
}

// registerAPI mounts the JSON entity endpoints.
func registerAPI(api gin.IRoutes, cfg RouterConfig) {
	svc := cfg.Services
	newBooksResource(svc.Books, cfg.Images, cfg.Auditor).register(api, "/books")
	newMembersResource(svc.Members, cfg.Images, cfg.Auditor).register(api, "/members")
	newEmployeesResource(svc.Employees, cfg.Images, cfg.Auditor).register(api, "/employees")
	NewShiftsController(svc.Shifts, svc.Employees, cfg.Auditor).register(api)
	NewEmployeeShiftsController(svc.EmployeeShifts, cfg.Auditor).register(api)
	NewBorrowedBooksController(svc.Loans, cfg.Auditor).register(api)
}
