package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// EmployeeShiftService assigns employees to shifts. It exposes both the
// link/unlink operations and plain CRUD over the join rows; each pair of
// (employee, shift) may appear at most once on either surface.
type EmployeeShiftService struct {
	*CRUD[entities.EmployeeShift, *entities.EmployeeShift]
}

func NewEmployeeShiftService(db *gorm.DB) *EmployeeShiftService {
	crud := newCRUD[entities.EmployeeShift, *entities.EmployeeShift](db, "employee shift")
	crud.preloads = []string{"Employee", "Shift"}
	crud.validate = validateEmployeeShift
	crud.duplicateErr = ErrDuplicateLink
	return &EmployeeShiftService{CRUD: crud}
}

func validateEmployeeShift(tx *gorm.DB, link *entities.EmployeeShift) error {
	if link.EmployeeID == 0 || link.ShiftID == 0 {
		return invalidf("employee id and shift id are required")
	}
	if err := requireExists(tx, &entities.Employee{}, "employee", link.EmployeeID); err != nil {
		return err
	}
	if err := requireExists(tx, &entities.Shift{}, "shift", link.ShiftID); err != nil {
		return err
	}

	var count int64
	err := tx.Model(&entities.EmployeeShift{}).
		Where("employee_id = ? AND shift_id = ? AND id <> ?", link.EmployeeID, link.ShiftID, link.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("employee %d, shift %d: %w", link.EmployeeID, link.ShiftID, ErrDuplicateLink)
	}
	return nil
}

// Link assigns the employee to the shift.
func (s *EmployeeShiftService) Link(ctx context.Context, employeeID, shiftID uint) (*entities.EmployeeShift, error) {
	return s.Create(ctx, &entities.EmployeeShift{EmployeeID: employeeID, ShiftID: shiftID})
}

// Unlink removes the assignment and reports whether one existed.
func (s *EmployeeShiftService) Unlink(ctx context.Context, employeeID, shiftID uint) (bool, error) {
	removed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link entities.EmployeeShift
		err := tx.Where("employee_id = ? AND shift_id = ?", employeeID, shiftID).
			Order("id").
			First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&link).Error; err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("unlink employee %d from shift %d: %w", employeeID, shiftID, err)
	}
	return removed, nil
}

func (s *EmployeeShiftService) EmployeesInShift(ctx context.Context, shiftID uint) ([]entities.EmployeeSummary, error) {
	return employeesForShift(s.db.WithContext(ctx), shiftID)
}

func (s *EmployeeShiftService) ShiftsForEmployee(ctx context.Context, employeeID uint) ([]entities.ShiftSummary, error) {
	return shiftsForEmployee(s.db.WithContext(ctx), employeeID)
}

// requireExists reports ErrInvalidArgument when no row of model has the id.
func requireExists(tx *gorm.DB, model any, name string, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return invalidf("%s %d does not exist", name, id)
	}
	return nil
}
