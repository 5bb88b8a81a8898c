// Package database opens the SQLite store and runs schema migrations.
//
// # Layout
//
//	database/
//	├── database.go      # Connection setup, migrations, dashboard counts
//	├── audit/           # Audit trail queries and retention cleanup
//	└── users/           # Account listing and role administration
//
// Entity CRUD for the library and staff domain is handled by the
// services package, which works on the *gorm.DB exposed here.
//
// # Connection
//
// NewDatabase enables SQLite foreign keys on every connection and turns on
// gorm's error translation, so unique index violations surface as
// gorm.ErrDuplicatedKey:
//
//	db, err := database.NewDatabase("./staffmanager.db")
//	auditRepo := audit.NewRepository(db.DB)
//	usersRepo := users.NewRepository(db.DB)
package database
