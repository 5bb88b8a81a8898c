package entities

import "time"

type Employee struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FirstName  string    `gorm:"size:100;not null" json:"first_name"`
	LastName   string    `gorm:"index;size:100;not null" json:"last_name"`
	Email      string    `gorm:"index;size:255" json:"email"`
	Role       string    `gorm:"size:100" json:"role"`
	HourlyRate Money     `gorm:"column:hourly_rate_cents" json:"hourly_rate"`
	DateHired  time.Time `json:"date_hired"`
	ImagePath  string    `gorm:"size:512" json:"image_path,omitempty"`
	Versioned

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns "First Last" for display.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Summary projects the employee onto the fields that are safe to show in
// shift assignment views.
func (e Employee) Summary() EmployeeSummary {
	return EmployeeSummary{
		ID:        e.ID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Email:     e.Email,
		Role:      e.Role,
	}
}

type Shift struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StartDateTime time.Time `gorm:"index;not null" json:"start_date_time"`
	EndDateTime   time.Time `gorm:"index;not null" json:"end_date_time"`
	Versioned

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether t falls inside the shift, bounds included.
func (s Shift) Contains(t time.Time) bool {
	return !t.Before(s.StartDateTime) && !t.After(s.EndDateTime)
}

// Summary returns the display projection of the shift.
func (s Shift) Summary() ShiftSummary {
	return ShiftSummary{
		ID:            s.ID,
		StartDateTime: s.StartDateTime,
		EndDateTime:   s.EndDateTime,
	}
}

// EmployeeShift assigns an employee to a shift. The (EmployeeID, ShiftID)
// pair is unique.
type EmployeeShift struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	EmployeeID uint `gorm:"not null;uniqueIndex:idx_employee_shift_pair" json:"employee_id"`
	ShiftID    uint `gorm:"not null;uniqueIndex:idx_employee_shift_pair;index" json:"shift_id"`
	Versioned

	Employee *Employee `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"employee,omitempty"`
	Shift    *Shift    `gorm:"foreignKey:ShiftID;constraint:OnDelete:CASCADE" json:"shift,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmployeeSummary is the read model used when listing employees of a shift.
// It leaves out pay and hiring data.
type EmployeeSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type ShiftSummary struct {
	ID            uint      `json:"id"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
}

func (Employee) TableName() string {
	return "employees"
}

func (Shift) TableName() string {
	return "shifts"
}

func (EmployeeShift) TableName() string {
	return "employee_shifts"
}
