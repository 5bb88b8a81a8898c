package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/entities"
)

// MemberService manages library members. Deleting a member removes their loans.
type MemberService struct {
	*CRUD[entities.Member, *entities.Member]
}

func NewMemberService(db *gorm.DB) *MemberService {
	crud := newCRUD[entities.Member, *entities.Member](db, "member")
	crud.preloads = []string{"BorrowedBooks", "BorrowedBooks.Book"}
	crud.validate = validateMember
	crud.beforeDelete = func(tx *gorm.DB, id uint) error {
		return tx.Where("member_id = ?", id).Delete(&entities.BorrowedBook{}).Error
	}
	return &MemberService{CRUD: crud}
}

func validateMember(_ *gorm.DB, m *entities.Member) error {
	if strings.TrimSpace(m.FirstName) == "" || strings.TrimSpace(m.LastName) == "" {
		return invalidf("member first and last name are required")
	}
	return nil
}
