package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// ShiftService manages working shifts. Deleting a shift drops its
// assignments and clears it from loans recorded during it.
type ShiftService struct {
	*CRUD[entities.Shift, *entities.Shift]
}

func NewShiftService(db *gorm.DB) *ShiftService {
	crud := newCRUD[entities.Shift, *entities.Shift](db, "shift")
	crud.validate = validateShift
	crud.beforeDelete = func(tx *gorm.DB, id uint) error {
		if err := tx.Where("shift_id = ?", id).Delete(&entities.EmployeeShift{}).Error; err != nil {
			return err
		}
		for _, column := range []string{"borrowed_during_shift_id", "returned_during_shift_id"} {
			err := tx.Model(&entities.BorrowedBook{}).
				Where(column+" = ?", id).
				Update(column, nil).Error
			if err != nil {
				return err
			}
		}
		return nil
	}
	return &ShiftService{CRUD: crud}
}

func validateShift(_ *gorm.DB, s *entities.Shift) error {
	if s.StartDateTime.IsZero() || s.EndDateTime.IsZero() {
		return invalidf("shift start and end are required")
	}
	if s.EndDateTime.Before(s.StartDateTime) {
		return invalidf("shift cannot end before it starts")
	}
	return nil
}

// Current returns the earliest-starting shift that contains now, or nil
// when no shift is running.
func (s *ShiftService) Current(ctx context.Context, now time.Time) (*entities.Shift, error) {
	return currentShift(s.db.WithContext(ctx), now)
}

// Shift times are compared in Go; SQLite holds them as text and a lexical
// comparison breaks across UTC offsets.
func currentShift(db *gorm.DB, now time.Time) (*entities.Shift, error) {
	var shifts []entities.Shift
	if err := db.Find(&shifts).Error; err != nil {
		return nil, fmt.Errorf("current shift: %w", err)
	}

	var current *entities.Shift
	for i := range shifts {
		if !shifts[i].Contains(now) {
			continue
		}
		if current == nil || shifts[i].StartDateTime.Before(current.StartDateTime) {
			current = &shifts[i]
		}
	}
	return current, nil
}

// ShiftsForEmployee lists the shifts an employee is assigned to, earliest
// first.
func (s *ShiftService) ShiftsForEmployee(ctx context.Context, employeeID uint) ([]entities.ShiftSummary, error) {
	return shiftsForEmployee(s.db.WithContext(ctx), employeeID)
}

func shiftsForEmployee(db *gorm.DB, employeeID uint) ([]entities.ShiftSummary, error) {
	summaries := []entities.ShiftSummary{}
	err := db.Model(&entities.Shift{}).
		Select("shifts.id, shifts.start_date_time, shifts.end_date_time").
		Joins("JOIN employee_shifts ON employee_shifts.shift_id = shifts.id").
		Where("employee_shifts.employee_id = ?", employeeID).
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("shifts for employee %d: %w", employeeID, err)
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.StartDateTime.Equal(b.StartDateTime) {
			return a.StartDateTime.Before(b.StartDateTime)
		}
		return a.ID < b.ID
	})
	return summaries, nil
}
