package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// OverdueLoanFinder lists open loans past their due date.
type OverdueLoanFinder interface {
	Overdue(ctx context.Context, now time.Time) ([]entities.BorrowedBook, error)
}

// MaintenanceRecorder stores the outcome of a maintenance run.
type MaintenanceRecorder interface {
	LogMaintenance(action, description string, metadata map[string]any, err error)
}

// OverdueLoansTask reports every open loan whose due date has passed.
type OverdueLoansTask struct{}

func (t OverdueLoansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_loans",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueLoansProcessor logs each overdue loan and records a summary.
// recorder may be nil.
func OverdueLoansProcessor(finder OverdueLoanFinder, recorder MaintenanceRecorder, now func() time.Time) backlite.QueueProcessor[OverdueLoansTask] {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, task OverdueLoansTask) error {
		if finder == nil {
			return errNotConfigured("overdue loan finder")
		}

		at := now()
		loans, err := finder.Overdue(ctx, at)
		if err != nil {
			record(recorder, "overdue_loans", "Overdue loan check failed", nil, err)
			return fmt.Errorf("find overdue loans: %w", err)
		}

		ids := make([]uint, 0, len(loans))
		for _, loan := range loans {
			ids = append(ids, loan.ID)
			log.Printf("[TASK] Loan %d overdue by %d day(s): %s", loan.ID, daysLate(loan.DueDate, at), describeLoan(loan))
		}

		summary := fmt.Sprintf("%d overdue loan(s)", len(loans))
		log.Printf("[TASK] Overdue loan check finished: %s", summary)
		record(recorder, "overdue_loans", summary, map[string]any{"loan_ids": ids}, nil)
		return nil
	}
}

// NewOverdueLoansQueue creates a backlite queue for overdue loan checks.
func NewOverdueLoansQueue(finder OverdueLoanFinder, recorder MaintenanceRecorder) backlite.Queue {
	return backlite.NewQueue(OverdueLoansProcessor(finder, recorder, nil))
}

func describeLoan(loan entities.BorrowedBook) string {
	title := fmt.Sprintf("book %d", loan.BookID)
	if loan.Book != nil {
		title = fmt.Sprintf("%q", loan.Book.Title)
	}
	member := fmt.Sprintf("member %d", loan.MemberID)
	if loan.Member != nil {
		member = loan.Member.FullName()
	}
	return fmt.Sprintf("%s borrowed by %s, due %s", title, member, loan.DueDate.Format("2006-01-02"))
}

func daysLate(due, now time.Time) int {
	return int(now.Sub(due).Hours() / 24)
}

func record(recorder MaintenanceRecorder, action, description string, metadata map[string]any, err error) {
	if recorder != nil {
		recorder.LogMaintenance(action, description, metadata, err)
	}
}
