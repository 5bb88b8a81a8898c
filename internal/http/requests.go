package http

import (
	"time"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// JSON request bodies. Each maps onto the record it writes; image paths are
// never taken from a request and only change through the image endpoints.

type BookRequest struct {
	ID      uint   `json:"id"`
	Title   string `json:"title" binding:"required,max=256"`
	Author  string `json:"author" binding:"required,max=256"`
	ISBN    string `json:"isbn" binding:"max=20"`
	Status  string `json:"status" binding:"max=50"`
	Version uint   `json:"version"`
}

func (r BookRequest) entity() *entities.Book {
	return &entities.Book{
		ID:        r.ID,
		Title:     r.Title,
		Author:    r.Author,
		ISBN:      r.ISBN,
		Status:    r.Status,
		Versioned: entities.Versioned{Version: r.Version},
	}
}

type MemberRequest struct {
	ID          uint   `json:"id"`
	FirstName   string `json:"first_name" binding:"required,max=100"`
	LastName    string `json:"last_name" binding:"required,max=100"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	PhoneNumber string `json:"phone_number" binding:"max=32"`
	Version     uint   `json:"version"`
}

func (r MemberRequest) entity() *entities.Member {
	return &entities.Member{
		ID:          r.ID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Versioned:   entities.Versioned{Version: r.Version},
	}
}

type EmployeeRequest struct {
	ID         uint           `json:"id"`
	FirstName  string         `json:"first_name" binding:"required,max=100"`
	LastName   string         `json:"last_name" binding:"required,max=100"`
	Email      string         `json:"email" binding:"omitempty,email,max=255"`
	Role       string         `json:"role" binding:"max=100"`
	HourlyRate entities.Money `json:"hourly_rate" binding:"gte=0"`
	DateHired  time.Time      `json:"date_hired"`
	Version    uint           `json:"version"`
}

func (r EmployeeRequest) entity() *entities.Employee {
	return &entities.Employee{
		ID:         r.ID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Role:       r.Role,
		HourlyRate: r.HourlyRate,
		DateHired:  r.DateHired,
		Versioned:  entities.Versioned{Version: r.Version},
	}
}

type ShiftRequest struct {
	ID            uint      `json:"id"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	Version       uint      `json:"version"`
}

func (r ShiftRequest) entity() *entities.Shift {
	return &entities.Shift{
		ID:            r.ID,
		StartDateTime: r.StartDateTime,
		EndDateTime:   r.EndDateTime,
		Versioned:     entities.Versioned{Version: r.Version},
	}
}

type EmployeeShiftRequest struct {
	ID         uint `json:"id"`
	EmployeeID uint `json:"employee_id"`
	ShiftID    uint `json:"shift_id"`
	Version    uint `json:"version"`
}

func (r EmployeeShiftRequest) entity() *entities.EmployeeShift {
	return &entities.EmployeeShift{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		ShiftID:    r.ShiftID,
		Versioned:  entities.Versioned{Version: r.Version},
	}
}

type LinkRequest struct {
	EmployeeID uint `json:"employee_id" form:"employee_id" binding:"required"`
	ShiftID    uint `json:"shift_id" form:"shift_id" binding:"required"`
}

// LoanRequest opens or replaces a loan. On create, zero dates and a missing
// borrowing shift are filled with defaults.
type LoanRequest struct {
	ID                    uint       `json:"id"`
	MemberID              uint       `json:"member_id" binding:"required"`
	BookID                uint       `json:"book_id" binding:"required"`
	BorrowDate            time.Time  `json:"borrow_date"`
	DueDate               time.Time  `json:"due_date"`
	ReturnDate            *time.Time `json:"return_date"`
	BorrowedDuringShiftID *uint      `json:"borrowed_during_shift_id"`
	ReturnedDuringShiftID *uint      `json:"returned_during_shift_id"`
	ProcessedByEmployeeID *uint      `json:"processed_by_employee_id"`
	ReceivedByEmployeeID  *uint      `json:"received_by_employee_id"`
	Version               uint       `json:"version"`
}

func (r LoanRequest) entity() *entities.BorrowedBook {
	return &entities.BorrowedBook{
		ID:                    r.ID,
		MemberID:              r.MemberID,
		BookID:                r.BookID,
		BorrowDate:            r.BorrowDate,
		DueDate:               r.DueDate,
		ReturnDate:            r.ReturnDate,
		BorrowedDuringShiftID: r.BorrowedDuringShiftID,
		ReturnedDuringShiftID: r.ReturnedDuringShiftID,
		ProcessedByEmployeeID: r.ProcessedByEmployeeID,
		ReceivedByEmployeeID:  r.ReceivedByEmployeeID,
		Versioned:             entities.Versioned{Version: r.Version},
	}
}

type ReturnRequest struct {
	ShiftID    *uint `json:"shift_id"`
	EmployeeID *uint `json:"employee_id"`
}
