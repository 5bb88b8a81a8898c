package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// Models lists every table managed by AutoMigrate, parents before children.
var Models = []any{
	&entities.User{},
	&entities.Book{},
	&entities.Member{},
	&entities.Employee{},
	&entities.Shift{},
	&entities.EmployeeShift{},
	&entities.BorrowedBook{},
	&entities.AuditEvent{},
}

var nowFunc = time.Now

type Database struct {
	DB *gorm.DB
}

type options struct {
	logLevel logger.LogLevel
}

// Option customizes how the database connection is opened.
type Option func(*options)

// WithLogLevel sets the gorm logger level (default: Warn).
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *options) {
		o.logLevel = level
	}
}

// DSN appends the connection parameters the application relies on to a
// SQLite file path: enforced foreign keys and a busy timeout.
func DSN(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	o := options{logLevel: logger.Warn}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(sqlite.Open(DSN(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(o.logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Counts holds row totals shown on the dashboard.
type Counts struct {
	Books        int64
	Members      int64
	Employees    int64
	Shifts       int64
	OpenLoans    int64
	OverdueLoans int64
}

// GetCounts returns row totals for the main tables.
func (d *Database) GetCounts(ctx context.Context) (Counts, error) {
	var c Counts
	db := d.DB.WithContext(ctx)

	if err := db.Model(&entities.Book{}).Count(&c.Books).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.Member{}).Count(&c.Members).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.Employee{}).Count(&c.Employees).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.Shift{}).Count(&c.Shifts).Error; err != nil {
		return c, err
	}
	if err := db.Model(&entities.BorrowedBook{}).Where("return_date IS NULL").Count(&c.OpenLoans).Error; err != nil {
		return c, err
	}
	err := db.Model(&entities.BorrowedBook{}).
		Where("return_date IS NULL AND due_date < ?", nowFunc()).
		Count(&c.OverdueLoans).Error
	return c, err
}

// ReferencedImages returns the set of image paths stored on books, members
// and employees.
func (d *Database) ReferencedImages(ctx context.Context) (map[string]bool, error) {
	refs := make(map[string]bool)
	for _, model := range []any{&entities.Book{}, &entities.Member{}, &entities.Employee{}} {
		var paths []string
		err := d.DB.WithContext(ctx).Model(model).
			Where("image_path <> ''").
			Pluck("image_path", &paths).Error
		if err != nil {
			return nil, fmt.Errorf("load image paths: %w", err)
		}
		for _, p := range paths {
			refs[p] = true
		}
	}
	return refs, nil
}
