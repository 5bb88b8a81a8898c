package entities

import "time"

type Book struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Title  string `gorm:"index;size:256;not null" json:"title"`
	Author string `gorm:"index;size:256;not null" json:"author"`
	ISBN   string `gorm:"index;size:20" json:"isbn"`
	Status string `gorm:"size:50" json:"status"`
	// Cover photo under the image store, e.g. "uploads/books/<uuid>.jpg"
	ImagePath string `gorm:"size:512" json:"image_path,omitempty"`
	Versioned

	BorrowedBooks []BorrowedBook `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"borrowed_books,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Member struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	FirstName   string `gorm:"size:100;not null" json:"first_name"`
	LastName    string `gorm:"index;size:100;not null" json:"last_name"`
	Email       string `gorm:"index;size:255" json:"email"`
	PhoneNumber string `gorm:"size:32" json:"phone_number"`
	ImagePath   string `gorm:"size:512" json:"image_path,omitempty"`
	Versioned

	BorrowedBooks []BorrowedBook `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"borrowed_books,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns "First Last" for display.
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// BorrowedBook is a single loan of a book to a member. ReturnDate is nil while
// the loan is open.
type BorrowedBook struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	MemberID   uint       `gorm:"index;not null" json:"member_id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	BorrowDate time.Time  `gorm:"index" json:"borrow_date"`
	DueDate    time.Time  `gorm:"index" json:"due_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date"`

	// Shift and employee context of the borrow and return transactions
	BorrowedDuringShiftID *uint `gorm:"index" json:"borrowed_during_shift_id"`
	ReturnedDuringShiftID *uint `gorm:"index" json:"returned_during_shift_id"`
	ProcessedByEmployeeID *uint `gorm:"index" json:"processed_by_employee_id"`
	ReceivedByEmployeeID  *uint `gorm:"index" json:"received_by_employee_id"`
	Versioned

	Member              *Member   `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"member,omitempty"`
	Book                *Book     `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book,omitempty"`
	BorrowedDuringShift *Shift    `gorm:"foreignKey:BorrowedDuringShiftID;constraint:OnDelete:SET NULL" json:"borrowed_during_shift,omitempty"`
	ReturnedDuringShift *Shift    `gorm:"foreignKey:ReturnedDuringShiftID;constraint:OnDelete:SET NULL" json:"returned_during_shift,omitempty"`
	ProcessedByEmployee *Employee `gorm:"foreignKey:ProcessedByEmployeeID;constraint:OnDelete:SET NULL" json:"processed_by_employee,omitempty"`
	ReceivedByEmployee  *Employee `gorm:"foreignKey:ReceivedByEmployeeID;constraint:OnDelete:SET NULL" json:"received_by_employee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsReturned reports whether the loan has been closed.
func (b BorrowedBook) IsReturned() bool {
	return b.ReturnDate != nil
}

// IsOverdue reports whether the loan is still open after its due date.
func (b BorrowedBook) IsOverdue(now time.Time) bool {
	return b.ReturnDate == nil && b.DueDate.Before(now)
}

func (Book) TableName() string {
	return "books"
}

func (Member) TableName() string {
	return "members"
}

func (BorrowedBook) TableName() string {
	return "borrowed_books"
}
