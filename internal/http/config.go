package http

import (
	"github.com/mrlokans/staffmanager/internal/auth"
	"github.com/mrlokans/staffmanager/internal/config"
	"github.com/mrlokans/staffmanager/internal/database"
	"github.com/mrlokans/staffmanager/internal/images"
	"github.com/mrlokans/staffmanager/internal/services"
)

// Services groups the entity services the handlers work against.
type Services struct {
	Books          *services.BookService
	Members        *services.MemberService
	Employees      *services.EmployeeService
	Shifts         *services.ShiftService
	EmployeeShifts *services.EmployeeShiftService
	Loans          *services.BorrowingService
}

// NewServices builds every entity service over one database.
func NewServices(db *database.Database, loanPeriodDays int) Services {
	return Services{
		Books:          services.NewBookService(db.DB),
		Members:        services.NewMemberService(db.DB),
		Employees:      services.NewEmployeeService(db.DB),
		Shifts:         services.NewShiftService(db.DB),
		EmployeeShifts: services.NewEmployeeShiftService(db.DB),
		Loans:          services.NewBorrowingService(db.DB, loanPeriodDays),
	}
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Services Services
	Images   *images.Store
	Auditor  Auditor
	Audit    AuditReader

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string

	// Authentication; AuthService and AuthMiddleware are nil in "none" mode
	AuthConfig     config.Auth
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	AuthEvents     auth.EventLogger
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool
	Users          UserAdmin

	// Task queue client (optional)
	TaskClient TaskQueue
}
