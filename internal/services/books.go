package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// BookService manages the book catalogue. Deleting a book removes its loans.
type BookService struct {
	*CRUD[entities.Book, *entities.Book]
}

func NewBookService(db *gorm.DB) *BookService {
	crud := newCRUD[entities.Book, *entities.Book](db, "book")
	crud.preloads = []string{"BorrowedBooks", "BorrowedBooks.Member"}
	crud.validate = validateBook
	crud.beforeDelete = func(tx *gorm.DB, id uint) error {
		return tx.Where("book_id = ?", id).Delete(&entities.BorrowedBook{}).Error
	}
	return &BookService{CRUD: crud}
}

func validateBook(_ *gorm.DB, book *entities.Book) error {
	if strings.TrimSpace(book.Title) == "" {
		return invalidf("book title is required")
	}
	if strings.TrimSpace(book.Author) == "" {
		return invalidf("book author is required")
	}
	return nil
}
