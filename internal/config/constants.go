package config

// Default paths and workflow constants
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./staffmanager.db"

	// DefaultUploadsDir is where entity images are stored, served under /uploads
	DefaultUploadsDir = "./uploads"

	// DefaultLoanPeriodDays is the due date offset applied when a loan has none
	DefaultLoanPeriodDays = 14

	// DefaultAdminEmail is the seeded administrator's email address
	DefaultAdminEmail = "admin@staffmanagement.com"
)
