package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// EmployeeService manages staff records. Deleting an employee drops their
// shift assignments and clears their name from loans they processed.
type EmployeeService struct {
	*CRUD[entities.Employee, *entities.Employee]
}

func NewEmployeeService(db *gorm.DB) *EmployeeService {
	crud := newCRUD[entities.Employee, *entities.Employee](db, "employee")
	crud.validate = validateEmployee
	crud.beforeDelete = func(tx *gorm.DB, id uint) error {
		if err := tx.Where("employee_id = ?", id).Delete(&entities.EmployeeShift{}).Error; err != nil {
			return err
		}
		for _, column := range []string{"processed_by_employee_id", "received_by_employee_id"} {
			err := tx.Model(&entities.BorrowedBook{}).
				Where(column+" = ?", id).
				Update(column, nil).Error
			if err != nil {
				return err
			}
		}
		return nil
	}
	return &EmployeeService{CRUD: crud}
}

func validateEmployee(_ *gorm.DB, e *entities.Employee) error {
	if strings.TrimSpace(e.FirstName) == "" || strings.TrimSpace(e.LastName) == "" {
		return invalidf("employee first and last name are required")
	}
	if e.HourlyRate < 0 {
		return invalidf("hourly rate cannot be negative")
	}
	return nil
}

// EmployeesForShift lists the employees assigned to a shift. Unknown or
// empty shifts yield an empty list.
func (s *EmployeeService) EmployeesForShift(ctx context.Context, shiftID uint) ([]entities.EmployeeSummary, error) {
	return employeesForShift(s.db.WithContext(ctx), shiftID)
}

func employeesForShift(db *gorm.DB, shiftID uint) ([]entities.EmployeeSummary, error) {
	summaries := []entities.EmployeeSummary{}
	err := db.Model(&entities.Employee{}).
		Select("employees.id, employees.first_name, employees.last_name, employees.email, employees.role").
		Joins("JOIN employee_shifts ON employee_shifts.employee_id = employees.id").
		Where("employee_shifts.shift_id = ?", shiftID).
		Order("employees.last_name, employees.first_name, employees.id").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("employees for shift %d: %w", shiftID, err)
	}
	return summaries, nil
}
