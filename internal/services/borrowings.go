package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// DefaultLoanPeriodDays is used when no loan period is configured.
const DefaultLoanPeriodDays = 14

// ReturnDetails records who took a book back and during which shift.
// A nil ShiftID falls back to the shift running at return time.
type ReturnDetails struct {
	ShiftID    *uint
	EmployeeID *uint
}

// BorrowingService runs the loan workflow. A loan is open while its return
// date is empty; Return closes it exactly once.
type BorrowingService struct {
	*CRUD[entities.BorrowedBook, *entities.BorrowedBook]

	loanPeriodDays int
	now            func() time.Time
}

func NewBorrowingService(db *gorm.DB, loanPeriodDays int) *BorrowingService {
	if loanPeriodDays <= 0 {
		loanPeriodDays = DefaultLoanPeriodDays
	}
	crud := newCRUD[entities.BorrowedBook, *entities.BorrowedBook](db, "borrowed book")
	crud.preloads = []string{
		"Book",
		"Member",
		"BorrowedDuringShift",
		"ReturnedDuringShift",
		"ProcessedByEmployee",
		"ReceivedByEmployee",
	}
	crud.validate = validateLoan
	return &BorrowingService{
		CRUD:           crud,
		loanPeriodDays: loanPeriodDays,
		now:            time.Now,
	}
}

// LoanPeriodDays returns the default length of a loan.
func (s *BorrowingService) LoanPeriodDays() int {
	return s.loanPeriodDays
}

func validateLoan(tx *gorm.DB, loan *entities.BorrowedBook) error {
	if loan.MemberID == 0 || loan.BookID == 0 {
		return invalidf("member id and book id are required")
	}
	if loan.BorrowDate.IsZero() || loan.DueDate.IsZero() {
		return invalidf("borrow date and due date are required")
	}
	if loan.DueDate.Before(loan.BorrowDate) {
		return invalidf("due date cannot be before borrow date")
	}
	if loan.ReturnDate != nil && loan.ReturnDate.Before(loan.BorrowDate) {
		return invalidf("return date cannot be before borrow date")
	}

	if err := requireExists(tx, &entities.Member{}, "member", loan.MemberID); err != nil {
		return err
	}
	if err := requireExists(tx, &entities.Book{}, "book", loan.BookID); err != nil {
		return err
	}
	return validateLoanContext(tx, loan.BorrowedDuringShiftID, loan.ReturnedDuringShiftID,
		loan.ProcessedByEmployeeID, loan.ReceivedByEmployeeID)
}

func validateLoanContext(tx *gorm.DB, borrowShift, returnShift, processedBy, receivedBy *uint) error {
	for _, id := range []*uint{borrowShift, returnShift} {
		if id != nil {
			if err := requireExists(tx, &entities.Shift{}, "shift", *id); err != nil {
				return err
			}
		}
	}
	for _, id := range []*uint{processedBy, receivedBy} {
		if id != nil {
			if err := requireExists(tx, &entities.Employee{}, "employee", *id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Borrow opens a new loan. The borrow date defaults to today, the due date
// to the borrow date plus the loan period, and the borrowing shift to the
// shift running now.
func (s *BorrowingService) Borrow(ctx context.Context, loan *entities.BorrowedBook) (*entities.BorrowedBook, error) {
	if loan == nil {
		return nil, invalidf("loan payload is required")
	}
	if loan.ReturnDate != nil {
		return nil, invalidf("a new loan cannot already be returned")
	}

	now := s.now()
	if loan.BorrowDate.IsZero() {
		loan.BorrowDate = startOfDay(now)
	}
	if loan.DueDate.IsZero() {
		loan.DueDate = loan.BorrowDate.AddDate(0, 0, s.loanPeriodDays)
	}
	if loan.BorrowedDuringShiftID == nil {
		shift, err := currentShift(s.db.WithContext(ctx), now)
		if err != nil {
			return nil, err
		}
		if shift != nil {
			loan.BorrowedDuringShiftID = &shift.ID
		}
	}

	return s.Create(ctx, loan)
}

// Return closes an open loan. The return date is now, but never earlier
// than the borrow date. Returning a closed loan yields ErrAlreadyReturned
// and leaves it untouched.
func (s *BorrowingService) Return(ctx context.Context, id uint, details ReturnDetails) (*entities.BorrowedBook, error) {
	now := s.now()
	db := s.db.WithContext(ctx)

	shiftID := details.ShiftID
	if shiftID == nil {
		shift, err := currentShift(db, now)
		if err != nil {
			return nil, err
		}
		if shift != nil {
			shiftID = &shift.ID
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var loan entities.BorrowedBook
		if err := tx.First(&loan, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(s.name, id)
			}
			return err
		}
		if loan.IsReturned() {
			return fmt.Errorf("borrowed book %d: %w", id, ErrAlreadyReturned)
		}
		if err := validateLoanContext(tx, nil, shiftID, nil, details.EmployeeID); err != nil {
			return err
		}

		returnedAt := now
		if returnedAt.Before(loan.BorrowDate) {
			returnedAt = loan.BorrowDate
		}

		result := tx.Model(&loan).
			Where("version = ? AND return_date IS NULL", loan.Version).
			Updates(map[string]any{
				"return_date":              returnedAt,
				"returned_during_shift_id": shiftID,
				"received_by_employee_id":  details.EmployeeID,
				"version":                  loan.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("borrowed book %d: %w", id, ErrStaleUpdate)
		}
		return nil
	})
	if err != nil {
		return nil, s.writeError("return", err)
	}
	return s.Get(ctx, id)
}

// ByMember lists a member's loans with book and member loaded.
func (s *BorrowingService) ByMember(ctx context.Context, memberID uint) ([]entities.BorrowedBook, error) {
	return s.findLoans(ctx, "member_id = ?", memberID)
}

// ByBook lists a book's loans with book and member loaded.
func (s *BorrowingService) ByBook(ctx context.Context, bookID uint) ([]entities.BorrowedBook, error) {
	return s.findLoans(ctx, "book_id = ?", bookID)
}

// Overdue lists open loans whose due date is before now, earliest due first.
func (s *BorrowingService) Overdue(ctx context.Context, now time.Time) ([]entities.BorrowedBook, error) {
	open, err := s.findLoans(ctx, "return_date IS NULL")
	if err != nil {
		return nil, err
	}

	overdue := []entities.BorrowedBook{}
	for _, loan := range open {
		if loan.IsOverdue(now) {
			overdue = append(overdue, loan)
		}
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].DueDate.Before(overdue[j].DueDate)
	})
	return overdue, nil
}

func (s *BorrowingService) findLoans(ctx context.Context, query string, args ...any) ([]entities.BorrowedBook, error) {
	loans := []entities.BorrowedBook{}
	err := s.db.WithContext(ctx).
		Preload("Book").
		Preload("Member").
		Where(query, args...).
		Order("id").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("find borrowed books: %w", err)
	}
	return loans, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
