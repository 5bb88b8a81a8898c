package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := NewDatabase(dbPath, WithLogLevel(logger.Silent))
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "app.db?_foreign_keys=on&_busy_timeout=5000", DSN("app.db"))
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on&_busy_timeout=5000", DSN("file::memory:?cache=shared"))
}

func TestNewDatabase_MigratesAllTables(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, table := range []string{"users", "books", "members", "employees", "shifts", "employee_shifts", "borrowed_books", "audit_events"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.True(t, db.DB.Migrator().HasIndex(&entities.EmployeeShift{}, "idx_employee_shift_pair"))
}

func TestDatabase_Ping(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	assert.NoError(t, db.Ping(context.Background()))
}

func TestDatabase_DuplicateLinkIsTranslated(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	emp := &entities.Employee{FirstName: "Ann", LastName: "Lee"}
	require.NoError(t, db.DB.Create(emp).Error)
	shift := &entities.Shift{StartDateTime: time.Now(), EndDateTime: time.Now().Add(time.Hour)}
	require.NoError(t, db.DB.Create(shift).Error)

	require.NoError(t, db.DB.Create(&entities.EmployeeShift{EmployeeID: emp.ID, ShiftID: shift.ID}).Error)
	err := db.DB.Create(&entities.EmployeeShift{EmployeeID: emp.ID, ShiftID: shift.ID}).Error

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestDatabase_ForeignKeysEnforced(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	loan := &entities.BorrowedBook{MemberID: 999, BookID: 999, BorrowDate: time.Now(), DueDate: time.Now()}
	err := db.DB.Create(loan).Error

	assert.Error(t, err)
}

func TestDatabase_GetCounts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	book := &entities.Book{Title: "Dune", Author: "Herbert"}
	require.NoError(t, db.DB.Create(book).Error)
	member := &entities.Member{FirstName: "Sam", LastName: "Vimes"}
	require.NoError(t, db.DB.Create(member).Error)

	returned := now.Add(-time.Hour)
	loans := []entities.BorrowedBook{
		{MemberID: member.ID, BookID: book.ID, BorrowDate: now.AddDate(0, 0, -20), DueDate: now.AddDate(0, 0, -6)},
		{MemberID: member.ID, BookID: book.ID, BorrowDate: now.AddDate(0, 0, -2), DueDate: now.AddDate(0, 0, 12)},
		{MemberID: member.ID, BookID: book.ID, BorrowDate: now.AddDate(0, 0, -30), DueDate: now.AddDate(0, 0, -16), ReturnDate: &returned},
	}
	require.NoError(t, db.DB.Create(&loans).Error)

	counts, err := db.GetCounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Books)
	assert.Equal(t, int64(1), counts.Members)
	assert.Equal(t, int64(0), counts.Employees)
	assert.Equal(t, int64(2), counts.OpenLoans)
	assert.Equal(t, int64(1), counts.OverdueLoans)
}

func TestDatabase_ReferencedImages(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.DB.Create(&entities.Member{FirstName: "Alice", LastName: "Reed", ImagePath: "uploads/members/a.jpg"}).Error)
	require.NoError(t, db.DB.Create(&entities.Member{FirstName: "Bob", LastName: "Stone"}).Error)
	require.NoError(t, db.DB.Create(&entities.Employee{FirstName: "Carol", LastName: "King", ImagePath: "uploads/employees/c.jpg"}).Error)

	refs, err := db.ReferencedImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"uploads/members/a.jpg":   true,
		"uploads/employees/c.jpg": true,
	}, refs)
}
