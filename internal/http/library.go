package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/entities"
	"github.com/mrlokans/staffmanager/internal/images"
	"github.com/mrlokans/staffmanager/internal/services"
)

func newBooksResource(svc *services.BookService, store *images.Store, a Auditor) *resource[entities.Book, *entities.Book, BookRequest] {
	return &resource[entities.Book, *entities.Book, BookRequest]{
		kind:  "book",
		svc:   svc,
		audit: auditorOrNop(a),
		name:  func(b *entities.Book) string { return b.Title },
		keep: func(stored, incoming *entities.Book) {
			incoming.ImagePath = stored.ImagePath
		},
		removed: dropImage(store, bookImage),
	}
}

func newMembersResource(svc *services.MemberService, store *images.Store, a Auditor) *resource[entities.Member, *entities.Member, MemberRequest] {
	return &resource[entities.Member, *entities.Member, MemberRequest]{
		kind:  "member",
		svc:   svc,
		audit: auditorOrNop(a),
		name:  func(m *entities.Member) string { return m.FullName() },
		keep: func(stored, incoming *entities.Member) {
			incoming.ImagePath = stored.ImagePath
		},
		removed: dropImage(store, memberImage),
	}
}

// BorrowedBooksController serves the loan workflow on top of loan CRUD.
type BorrowedBooksController struct {
	*resource[entities.BorrowedBook, *entities.BorrowedBook, LoanRequest]

	loans *services.BorrowingService
	now   func() time.Time
}

func NewBorrowedBooksController(loans *services.BorrowingService, a Auditor) *BorrowedBooksController {
	return &BorrowedBooksController{
		resource: &resource[entities.BorrowedBook, *entities.BorrowedBook, LoanRequest]{
			kind:   "borrowed_book",
			svc:    loans,
			audit:  auditorOrNop(a),
			name:   loanName,
			create: loans.Borrow,
		},
		loans: loans,
		now:   time.Now,
	}
}

func loanName(loan *entities.BorrowedBook) string {
	if loan.Book != nil && loan.Member != nil {
		return loan.Book.Title + " / " + loan.Member.FullName()
	}
	return "loan"
}

// Return handles POST /api/borrowed-books/:id/return
func (bc *BorrowedBooksController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ReturnRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	loan, err := bc.loans.Return(c.Request.Context(), id, services.ReturnDetails{
		ShiftID:    req.ShiftID,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		respondServiceError(c, err, "return loan")
		return
	}

	bc.audit.LogReturn(actorFrom(c), loan)
	c.Status(http.StatusNoContent)
}

// Overdue handles GET /api/borrowed-books/overdue
func (bc *BorrowedBooksController) Overdue(c *gin.Context) {
	bc.respondLoans(c, "overdue loans", func(ctx context.Context) ([]entities.BorrowedBook, error) {
		return bc.loans.Overdue(ctx, bc.now())
	})
}

// ByMember handles GET /api/borrowed-books/member/:memberId
func (bc *BorrowedBooksController) ByMember(c *gin.Context) {
	id, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}
	bc.respondLoans(c, "loans by member", func(ctx context.Context) ([]entities.BorrowedBook, error) {
		return bc.loans.ByMember(ctx, id)
	})
}

// ByBook handles GET /api/borrowed-books/book/:bookId
func (bc *BorrowedBooksController) ByBook(c *gin.Context) {
	id, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	bc.respondLoans(c, "loans by book", func(ctx context.Context) ([]entities.BorrowedBook, error) {
		return bc.loans.ByBook(ctx, id)
	})
}

func (bc *BorrowedBooksController) respondLoans(c *gin.Context, what string, find func(context.Context) ([]entities.BorrowedBook, error)) {
	loans, err := find(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, what)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (bc *BorrowedBooksController) register(g gin.IRoutes) {
	g.GET("/borrowed-books/overdue", bc.Overdue)
	g.GET("/borrowed-books/member/:memberId", bc.ByMember)
	g.GET("/borrowed-books/book/:bookId", bc.ByBook)
	g.POST("/borrowed-books/:id/return", bc.Return)
	bc.resource.register(g, "/borrowed-books")
}
