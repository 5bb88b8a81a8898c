package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/staffmanager/internal/entities"
)

func TestBooksAPI_CRUD(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "POST", "/api/books", gin.H{"title": "The Dispossessed", "author": "Ursula K. Le Guin", "isbn": "9780061054884", "status": "Available"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entities.Book](t, w)
	assert.NotZero(t, created.ID)
	assert.Equal(t, uint(1), created.Version)

	path := fmt.Sprintf("/api/books/%d", created.ID)

	w = ts.do(t, "GET", path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "The Dispossessed", decode[entities.Book](t, w).Title)

	w = ts.do(t, "PUT", path, gin.H{"id": created.ID, "title": "The Dispossessed", "author": "Ursula K. Le Guin", "status": "On loan", "version": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[entities.Book](t, w)
	assert.Equal(t, "On loan", updated.Status)
	assert.Equal(t, uint(2), updated.Version)

	w = ts.do(t, "GET", "/api/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Book](t, w), 1)

	w = ts.do(t, "DELETE", path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, "GET", path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, "DELETE", path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{
		fmt.Sprintf("create book %d", created.ID),
		fmt.Sprintf("update book %d v2", created.ID),
		fmt.Sprintf("delete book %d", created.ID),
	}, ts.auditor.Events())
}

func TestBooksAPI_EmptyList(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "GET", "/api/books", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestBooksAPI_Validation(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "POST", "/api/books", gin.H{"author": "Anonymous"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}](t, w)
	assert.Equal(t, "invalid_argument", resp.Code)
	assert.Equal(t, "required", resp.Details["title"])
	assert.Empty(t, ts.auditor.Events())
}

func TestBooksAPI_UpdateRejectsMismatchedID(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Lathe of Heaven")

	w := ts.do(t, "PUT", fmt.Sprintf("/api/books/%d", book.ID), gin.H{"id": book.ID + 1, "title": "x", "author": "y"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksAPI_StaleUpdate(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Always Coming Home")
	path := fmt.Sprintf("/api/books/%d", book.ID)

	w := ts.do(t, "PUT", path, gin.H{"id": book.ID, "title": "Always Coming Home", "author": "Le Guin", "version": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, "PUT", path, gin.H{"id": book.ID, "title": "Stale write", "author": "Le Guin", "version": 1})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "stale_update", decode[ErrorResponse](t, w).Code)
}

func TestBooksAPI_InvalidID(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "GET", "/api/books/abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMembersAPI_UpdateKeepsImagePath(t *testing.T) {
	ts := setupTestServer(t)
	member := ts.createMember(t, "Shevek")
	require.NoError(t, ts.db.DB.Model(member).Update("image_path", "uploads/members/photo.jpg").Error)

	w := ts.do(t, "PUT", fmt.Sprintf("/api/members/%d", member.ID), gin.H{
		"id":         member.ID,
		"first_name": "Shevek",
		"last_name":  "Urrasti",
		"email":      "shevek@example.com",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[entities.Member](t, w)
	assert.Equal(t, "Urrasti", updated.LastName)
	assert.Equal(t, "uploads/members/photo.jpg", updated.ImagePath)
}

func TestMembersAPI_RejectsBadEmail(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "POST", "/api/members", gin.H{"first_name": "A", "last_name": "B", "email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployeesAPI_Create(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "POST", "/api/employees", gin.H{
		"first_name":  "Takver",
		"last_name":   "Anarres",
		"role":        "Archivist",
		"hourly_rate": "18.50",
		"date_hired":  "2022-09-01T00:00:00Z",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	employee := decode[entities.Employee](t, w)
	assert.Equal(t, entities.Money(1850), employee.HourlyRate)
	assert.Equal(t, "Archivist", employee.Role)
}

func TestShiftsAPI_Current(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "GET", "/api/shifts/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	shift := ts.createShift(t, time.Now().Add(-time.Hour), 4*time.Hour)

	w = ts.do(t, "GET", "/api/shifts/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, shift.ID, decode[entities.Shift](t, w).ID)
}

func TestShiftsAPI_RejectsInvertedShift(t *testing.T) {
	ts := setupTestServer(t)
	start := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)

	w := ts.do(t, "POST", "/api/shifts", gin.H{
		"start_date_time": start,
		"end_date_time":   start.Add(-time.Hour),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployeeShiftsAPI_LinkAndUnlink(t *testing.T) {
	ts := setupTestServer(t)
	employee := ts.createEmployee(t, "Odo")
	shift := ts.createShift(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), 8*time.Hour)
	body := gin.H{"employee_id": employee.ID, "shift_id": shift.ID}

	w := ts.do(t, "POST", "/api/employee-shifts/link", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	link := decode[entities.EmployeeShift](t, w)
	assert.Equal(t, employee.ID, link.EmployeeID)
	assert.Equal(t, shift.ID, link.ShiftID)

	w = ts.do(t, "POST", "/api/employee-shifts/link", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_link", decode[ErrorResponse](t, w).Code)

	w = ts.do(t, "GET", fmt.Sprintf("/api/employee-shifts/employees-in-shift/%d", shift.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.EmployeeSummary](t, w), 1)

	w = ts.do(t, "GET", fmt.Sprintf("/api/employee-shifts/shifts-for-employee/%d", employee.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.ShiftSummary](t, w), 1)

	w = ts.do(t, "GET", fmt.Sprintf("/api/shifts/%d/employees", shift.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.EmployeeSummary](t, w), 1)

	unlink := fmt.Sprintf("/api/employee-shifts/unlink?employee_id=%d&shift_id=%d", employee.ID, shift.ID)
	w = ts.do(t, "DELETE", unlink, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, "DELETE", unlink, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{
		fmt.Sprintf("link %d %d", employee.ID, shift.ID),
		fmt.Sprintf("unlink %d %d", employee.ID, shift.ID),
	}, ts.auditor.Events())
}

func TestEmployeeShiftsAPI_LinkValidation(t *testing.T) {
	ts := setupTestServer(t)
	employee := ts.createEmployee(t, "Rulag")

	w := ts.do(t, "POST", "/api/employee-shifts/link", gin.H{"employee_id": employee.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, "POST", "/api/employee-shifts/link", gin.H{"employee_id": employee.ID, "shift_id": 999})
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusNotFound}, w.Code)

	w = ts.do(t, "DELETE", "/api/employee-shifts/unlink?employee_id=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBorrowedBooksAPI_BorrowDefaults(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Four Ways to Forgiveness")
	member := ts.createMember(t, "Gvarab")
	shift := ts.createShift(t, time.Now().Add(-2*time.Hour), 6*time.Hour)

	w := ts.do(t, "POST", "/api/borrowed-books", gin.H{"member_id": member.ID, "book_id": book.ID})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loan := decode[entities.BorrowedBook](t, w)
	assert.False(t, loan.BorrowDate.IsZero())
	assert.Equal(t, loan.BorrowDate.AddDate(0, 0, 14).Format(dateLayout), loan.DueDate.Format(dateLayout))
	require.NotNil(t, loan.BorrowedDuringShiftID)
	assert.Equal(t, shift.ID, *loan.BorrowedDuringShiftID)
	assert.Nil(t, loan.ReturnDate)
}

func TestBorrowedBooksAPI_BorrowRequiresExistingRecords(t *testing.T) {
	ts := setupTestServer(t)
	member := ts.createMember(t, "Sabul")

	w := ts.do(t, "POST", "/api/borrowed-books", gin.H{"member_id": member.ID, "book_id": 404})
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusNotFound}, w.Code)

	w = ts.do(t, "POST", "/api/borrowed-books", gin.H{"member_id": member.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBorrowedBooksAPI_Return(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "The Word for World Is Forest")
	member := ts.createMember(t, "Selver")
	employee := ts.createEmployee(t, "Davidson")

	w := ts.do(t, "POST", "/api/borrowed-books", gin.H{"member_id": member.ID, "book_id": book.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loan := decode[entities.BorrowedBook](t, w)
	returnPath := fmt.Sprintf("/api/borrowed-books/%d/return", loan.ID)

	w = ts.do(t, "POST", returnPath, gin.H{"employee_id": employee.ID})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = ts.do(t, "GET", fmt.Sprintf("/api/borrowed-books/%d", loan.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	returned := decode[entities.BorrowedBook](t, w)
	require.NotNil(t, returned.ReturnDate)
	require.NotNil(t, returned.ReceivedByEmployeeID)
	assert.Equal(t, employee.ID, *returned.ReceivedByEmployeeID)

	w = ts.do(t, "POST", returnPath, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_returned", decode[ErrorResponse](t, w).Code)

	w = ts.do(t, "POST", "/api/borrowed-books/999/return", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBorrowedBooksAPI_OverdueAndLookups(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Tehanu")
	member := ts.createMember(t, "Tenar")
	other := ts.createMember(t, "Ged")

	past := time.Now().AddDate(0, 0, -30)
	w := ts.do(t, "POST", "/api/borrowed-books", gin.H{
		"member_id":   member.ID,
		"book_id":     book.ID,
		"borrow_date": past,
		"due_date":    past.AddDate(0, 0, 14),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, "POST", "/api/borrowed-books", gin.H{"member_id": other.ID, "book_id": book.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, "GET", "/api/borrowed-books/overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	overdue := decode[[]entities.BorrowedBook](t, w)
	require.Len(t, overdue, 1)
	assert.Equal(t, member.ID, overdue[0].MemberID)

	w = ts.do(t, "GET", fmt.Sprintf("/api/borrowed-books/member/%d", other.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.BorrowedBook](t, w), 1)

	w = ts.do(t, "GET", fmt.Sprintf("/api/borrowed-books/book/%d", book.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.BorrowedBook](t, w), 2)
}

func TestBorrowedBooksAPI_DeletingMemberRemovesLoans(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Voices")
	member := ts.createMember(t, "Memer")

	w := ts.do(t, "POST", "/api/borrowed-books", gin.H{"member_id": member.ID, "book_id": book.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, "DELETE", fmt.Sprintf("/api/members/%d", member.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, "GET", fmt.Sprintf("/api/borrowed-books/book/%d", book.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]entities.BorrowedBook](t, w))
}
