package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/staffmanager/internal/entities"
	"github.com/mrlokans/staffmanager/internal/services"
)

// Layouts used by <input type="date"> and <input type="datetime-local">.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// HTML form bodies. Values arrive as strings and are parsed here so a bad
// date or amount re-renders the form with a message instead of failing to bind.

func parseFormDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD)", services.ErrInvalidArgument, field)
	}
	return t, nil
}

func parseFormDateTime(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", services.ErrInvalidArgument, field)
	}
	t, err := time.ParseInLocation(dateTimeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date and time", services.ErrInvalidArgument, field)
	}
	return t, nil
}

// parseFormID reads an optional id select; empty means none.
func parseFormID(field, value string) (*uint, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: invalid %s", services.ErrInvalidArgument, field)
	}
	v := uint(id)
	return &v, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

func formatID(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

type BookForm struct {
	Title   string `form:"title" binding:"required,max=256"`
	Author  string `form:"author" binding:"required,max=256"`
	ISBN    string `form:"isbn" binding:"max=20"`
	Status  string `form:"status" binding:"max=50"`
	Version uint   `form:"version"`
}

func (f BookForm) entity() (*entities.Book, error) {
	return &entities.Book{
		Title:     strings.TrimSpace(f.Title),
		Author:    strings.TrimSpace(f.Author),
		ISBN:      strings.TrimSpace(f.ISBN),
		Status:    strings.TrimSpace(f.Status),
		Versioned: entities.Versioned{Version: f.Version},
	}, nil
}

func bookForm(b *entities.Book) BookForm {
	return BookForm{
		Title:   b.Title,
		Author:  b.Author,
		ISBN:    b.ISBN,
		Status:  b.Status,
		Version: b.Version,
	}
}

type MemberForm struct {
	FirstName   string `form:"first_name" binding:"required,max=100"`
	LastName    string `form:"last_name" binding:"required,max=100"`
	Email       string `form:"email" binding:"omitempty,email,max=255"`
	PhoneNumber string `form:"phone_number" binding:"max=32"`
	Version     uint   `form:"version"`
}

func (f MemberForm) entity() (*entities.Member, error) {
	return &entities.Member{
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
		Email:       strings.TrimSpace(f.Email),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
		Versioned:   entities.Versioned{Version: f.Version},
	}, nil
}

func memberForm(m *entities.Member) MemberForm {
	return MemberForm{
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Email:       m.Email,
		PhoneNumber: m.PhoneNumber,
		Version:     m.Version,
	}
}

type EmployeeForm struct {
	FirstName  string `form:"first_name" binding:"required,max=100"`
	LastName   string `form:"last_name" binding:"required,max=100"`
	Email      string `form:"email" binding:"omitempty,email,max=255"`
	Role       string `form:"role" binding:"max=100"`
	HourlyRate string `form:"hourly_rate"`
	DateHired  string `form:"date_hired"`
	Version    uint   `form:"version"`
}

func (f EmployeeForm) entity() (*entities.Employee, error) {
	rate, err := entities.ParseMoney(f.HourlyRate)
	if err != nil {
		return nil, fmt.Errorf("%w: hourly rate: %v", services.ErrInvalidArgument, err)
	}
	hired, err := parseFormDate("date hired", f.DateHired)
	if err != nil {
		return nil, err
	}
	return &entities.Employee{
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		Email:      strings.TrimSpace(f.Email),
		Role:       strings.TrimSpace(f.Role),
		HourlyRate: rate,
		DateHired:  hired,
		Versioned:  entities.Versioned{Version: f.Version},
	}, nil
}

func employeeForm(e *entities.Employee) EmployeeForm {
	return EmployeeForm{
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Role:       e.Role,
		HourlyRate: e.HourlyRate.String(),
		DateHired:  formatDate(e.DateHired),
		Version:    e.Version,
	}
}

type ShiftForm struct {
	StartDateTime string `form:"start_date_time"`
	EndDateTime   string `form:"end_date_time"`
	Version       uint   `form:"version"`
}

func (f ShiftForm) entity() (*entities.Shift, error) {
	start, err := parseFormDateTime("start", f.StartDateTime)
	if err != nil {
		return nil, err
	}
	end, err := parseFormDateTime("end", f.EndDateTime)
	if err != nil {
		return nil, err
	}
	return &entities.Shift{
		StartDateTime: start,
		EndDateTime:   end,
		Versioned:     entities.Versioned{Version: f.Version},
	}, nil
}

func shiftForm(s *entities.Shift) ShiftForm {
	return ShiftForm{
		StartDateTime: formatDateTime(s.StartDateTime),
		EndDateTime:   formatDateTime(s.EndDateTime),
		Version:       s.Version,
	}
}

// LoanForm opens or edits a loan. Shift and employee selects are optional.
type LoanForm struct {
	MemberID              uint   `form:"member_id" binding:"required"`
	BookID                uint   `form:"book_id" binding:"required"`
	BorrowDate            string `form:"borrow_date"`
	DueDate               string `form:"due_date"`
	ReturnDate            string `form:"return_date"`
	BorrowedDuringShiftID string `form:"borrowed_during_shift_id"`
	ReturnedDuringShiftID string `form:"returned_during_shift_id"`
	ProcessedByEmployeeID string `form:"processed_by_employee_id"`
	ReceivedByEmployeeID  string `form:"received_by_employee_id"`
	Version               uint   `form:"version"`
}

func (f LoanForm) entity() (*entities.BorrowedBook, error) {
	loan := &entities.BorrowedBook{
		MemberID:  f.MemberID,
		BookID:    f.BookID,
		Versioned: entities.Versioned{Version: f.Version},
	}

	var err error
	if loan.BorrowDate, err = parseFormDate("borrow date", f.BorrowDate); err != nil {
		return nil, err
	}
	if loan.DueDate, err = parseFormDate("due date", f.DueDate); err != nil {
		return nil, err
	}
	returned, err := parseFormDate("return date", f.ReturnDate)
	if err != nil {
		return nil, err
	}
	if !returned.IsZero() {
		loan.ReturnDate = &returned
	}

	ids := []struct {
		field, value string
		dst          **uint
	}{
		{"borrowing shift", f.BorrowedDuringShiftID, &loan.BorrowedDuringShiftID},
		{"return shift", f.ReturnedDuringShiftID, &loan.ReturnedDuringShiftID},
		{"processing employee", f.ProcessedByEmployeeID, &loan.ProcessedByEmployeeID},
		{"receiving employee", f.ReceivedByEmployeeID, &loan.ReceivedByEmployeeID},
	}
	for _, id := range ids {
		if *id.dst, err = parseFormID(id.field, id.value); err != nil {
			return nil, err
		}
	}
	return loan, nil
}

func loanForm(l *entities.BorrowedBook) LoanForm {
	form := LoanForm{
		MemberID:              l.MemberID,
		BookID:                l.BookID,
		BorrowDate:            formatDate(l.BorrowDate),
		DueDate:               formatDate(l.DueDate),
		BorrowedDuringShiftID: formatID(l.BorrowedDuringShiftID),
		ReturnedDuringShiftID: formatID(l.ReturnedDuringShiftID),
		ProcessedByEmployeeID: formatID(l.ProcessedByEmployeeID),
		ReceivedByEmployeeID:  formatID(l.ReceivedByEmployeeID),
		Version:               l.Version,
	}
	if l.ReturnDate != nil {
		form.ReturnDate = formatDate(*l.ReturnDate)
	}
	return form
}

// ReturnForm closes a loan from its details page.
type ReturnForm struct {
	ShiftID    string `form:"shift_id"`
	EmployeeID string `form:"employee_id"`
}

func (f ReturnForm) details() (services.ReturnDetails, error) {
	shiftID, err := parseFormID("shift", f.ShiftID)
	if err != nil {
		return services.ReturnDetails{}, err
	}
	employeeID, err := parseFormID("employee", f.EmployeeID)
	if err != nil {
		return services.ReturnDetails{}, err
	}
	return services.ReturnDetails{ShiftID: shiftID, EmployeeID: employeeID}, nil
}
