package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/staffmanager/internal/database"
	"github.com/mrlokans/staffmanager/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.DB
}

func createBook(t *testing.T, db *gorm.DB, title string) *entities.Book {
	t.Helper()
	book := &entities.Book{Title: title, Author: "Frank Herbert", ISBN: "9780441013593", Status: "Available"}
	require.NoError(t, db.Create(book).Error)
	return book
}

func createMember(t *testing.T, db *gorm.DB, first string) *entities.Member {
	t.Helper()
	member := &entities.Member{FirstName: first, LastName: "Smith", Email: first + "@example.com"}
	require.NoError(t, db.Create(member).Error)
	return member
}

func createEmployee(t *testing.T, db *gorm.DB, first string) *entities.Employee {
	t.Helper()
	emp := &entities.Employee{
		FirstName:  first,
		LastName:   "Jones",
		Email:      first + "@library.test",
		Role:       "Librarian",
		HourlyRate: 1850,
		DateHired:  time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(emp).Error)
	return emp
}

func createShift(t *testing.T, db *gorm.DB, start time.Time, length time.Duration) *entities.Shift {
	t.Helper()
	shift := &entities.Shift{StartDateTime: start, EndDateTime: start.Add(length)}
	require.NoError(t, db.Create(shift).Error)
	return shift
}

func uintPtr(v uint) *uint { return &v }
