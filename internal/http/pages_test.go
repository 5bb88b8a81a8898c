package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookPages_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "GET", "/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No books yet.")

	w = ts.do(t, "GET", "/books/new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/books"`)

	w = ts.postForm(t, "/books", url.Values{"title": {"Rocannon's World"}, "author": {"Ursula K. Le Guin"}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/books/"), location)

	w = ts.do(t, "GET", location, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Rocannon&#39;s World")
	assert.Contains(t, w.Body.String(), "No loans.")

	w = ts.do(t, "GET", location+"/edit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="version" value="1"`)

	w = ts.postForm(t, location+"/edit", url.Values{"title": {"Planet of Exile"}, "author": {"Ursula K. Le Guin"}, "version": {"1"}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, location, w.Header().Get("Location"))

	w = ts.postForm(t, location+"/edit", url.Values{"title": {"Stale"}, "author": {"Ursula K. Le Guin"}, "version": {"1"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "changed by someone else")

	w = ts.do(t, "GET", location+"/delete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Planet of Exile")

	w = ts.postForm(t, location+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/books", w.Header().Get("Location"))

	w = ts.do(t, "GET", location, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookPages_ValidationRerendersForm(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.postForm(t, "/books", url.Values{"title": {"No author"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please check: author (required)")
	assert.Contains(t, w.Body.String(), `value="No author"`)
	assert.Empty(t, ts.auditor.Events())
}

func TestPages_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/books/42", "/members/abc", "/employees/42/edit", "/shifts/42/delete"} {
		w := ts.do(t, "GET", path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestEmployeePages_InvalidRate(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.postForm(t, "/employees", url.Values{
		"first_name":  {"Gimar"},
		"last_name":   {"Kees"},
		"hourly_rate": {"lots"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "hourly rate")
}

func TestShiftPages_Create(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "GET", "/shifts/new", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.postForm(t, "/shifts", url.Values{
		"start_date_time": {"2024-06-01T09:00"},
		"end_date_time":   {"2024-06-01T17:00"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	w = ts.postForm(t, "/shifts", url.Values{
		"start_date_time": {"2024-06-01T17:00"},
		"end_date_time":   {"2024-06-01T09:00"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot end before it starts")
}

func TestEmployeePages_AssignAndUnassignShift(t *testing.T) {
	ts := setupTestServer(t)
	employee := ts.createEmployee(t, "Tuio")
	shift := ts.createShift(t, time.Date(2024, 6, 2, 8, 0, 0, 0, time.Local), 8*time.Hour)
	details := fmt.Sprintf("/employees/%d", employee.ID)

	w := ts.do(t, "GET", details, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Not assigned to any shift.")

	w = ts.postForm(t, details+"/shifts", url.Values{"shift_id": {fmt.Sprint(shift.ID)}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, details, w.Header().Get("Location"))

	w = ts.do(t, "GET", details, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("/shifts/%d/unassign", shift.ID))

	w = ts.postForm(t, details+"/shifts", url.Values{"shift_id": {fmt.Sprint(shift.ID)}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already assigned")

	w = ts.postForm(t, details+"/shifts", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.postForm(t, fmt.Sprintf("%s/shifts/%d/unassign", details, shift.ID), url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)

	links, err := ts.svc.EmployeeShifts.ShiftsForEmployee(context.Background(), employee.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestShiftPages_AssignAndUnassignEmployee(t *testing.T) {
	ts := setupTestServer(t)
	working := ts.createEmployee(t, "Shevek")
	idle := ts.createEmployee(t, "Takver")
	shift := ts.createShift(t, time.Date(2024, 6, 3, 14, 0, 0, 0, time.Local), 6*time.Hour)
	details := fmt.Sprintf("/shifts/%d", shift.ID)

	w := ts.do(t, "GET", details, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Nobody is assigned to this shift.")
	assert.Contains(t, body, `action="`+details+`/employees"`)
	assert.Contains(t, body, fmt.Sprintf(`<option value="%d">Shevek Hale</option>`, working.ID))
	assert.Contains(t, body, fmt.Sprintf(`<option value="%d">Takver Hale</option>`, idle.ID))

	w = ts.postForm(t, details+"/employees", url.Values{"employee_id": {fmt.Sprint(working.ID)}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, details, w.Header().Get("Location"))
	assert.Contains(t, ts.auditor.Events(), fmt.Sprintf("link %d %d", working.ID, shift.ID))

	w = ts.do(t, "GET", details, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, fmt.Sprintf("%s/employees/%d/unassign", details, working.ID))
	assert.NotContains(t, body, fmt.Sprintf(`<option value="%d">`, working.ID), "assigned employees leave the picker")
	assert.Contains(t, body, fmt.Sprintf(`<option value="%d">Takver Hale</option>`, idle.ID))

	w = ts.postForm(t, details+"/employees", url.Values{"employee_id": {fmt.Sprint(working.ID)}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.postForm(t, details+"/employees", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.postForm(t, details+"/employees", url.Values{"employee_id": {"999"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "employee 999 does not exist")

	w = ts.postForm(t, fmt.Sprintf("%s/employees/%d/unassign", details, working.ID), url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, details, w.Header().Get("Location"))
	assert.Contains(t, ts.auditor.Events(), fmt.Sprintf("unlink %d %d", working.ID, shift.ID))

	staff, err := ts.svc.EmployeeShifts.EmployeesInShift(context.Background(), shift.ID)
	require.NoError(t, err)
	assert.Empty(t, staff)
}

func TestLoanPages_NewFormDefaults(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "City of Illusions")
	ts.createMember(t, "Falk")
	shift := ts.createShift(t, time.Now().Add(-time.Hour), 3*time.Hour)

	w := ts.do(t, "GET", fmt.Sprintf("/borrowed-books/new?book_id=%d", book.ID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	today := time.Now().Format(dateLayout)
	due := time.Now().AddDate(0, 0, 14).Format(dateLayout)
	assert.Contains(t, body, `name="borrow_date" value="`+today+`"`)
	assert.Contains(t, body, `name="due_date" value="`+due+`"`)
	assert.Contains(t, body, fmt.Sprintf(`<option value="%d" selected>City of Illusions`, book.ID))
	assert.Contains(t, body, fmt.Sprintf(`<option value="%d" selected>`, shift.ID))
}

func TestLoanPages_BorrowAndReturn(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "The Left Hand of Darkness")
	member := ts.createMember(t, "Estraven")
	employee := ts.createEmployee(t, "Genly")

	w := ts.postForm(t, "/borrowed-books", url.Values{
		"member_id":                {fmt.Sprint(member.ID)},
		"book_id":                  {fmt.Sprint(book.ID)},
		"processed_by_employee_id": {fmt.Sprint(employee.ID)},
	})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	location := w.Header().Get("Location")

	w = ts.do(t, "GET", location, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mark returned")

	w = ts.postForm(t, location+"/return", url.Values{"employee_id": {fmt.Sprint(employee.ID)}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, location, w.Header().Get("Location"))

	w = ts.do(t, "GET", location, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Mark returned")
	assert.Contains(t, w.Body.String(), "to Genly Hale")

	w = ts.postForm(t, location+"/return", url.Values{})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already been returned")

	loans, err := ts.svc.Loans.ByMember(context.Background(), member.ID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.True(t, loans[0].IsReturned())
}

func TestLoanPages_MissingMember(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Malafrena")

	w := ts.postForm(t, "/borrowed-books", url.Values{"book_id": {fmt.Sprint(book.ID)}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "member_id (required)")
}

func TestHomePage_ShowsCounts(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Searoad")
	ts.createMember(t, "Ai")

	w := ts.do(t, "GET", "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>1</strong> books")
	assert.Contains(t, w.Body.String(), "<strong>1</strong> members")
	assert.Contains(t, w.Body.String(), "<strong>0</strong> open loans")
}

func TestErrorPage(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "GET", "/error", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong")
}
