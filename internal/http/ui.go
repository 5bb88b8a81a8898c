package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/database"
	"github.com/mrlokans/staffmanager/internal/entities"
	"github.com/mrlokans/staffmanager/internal/images"
)

// CountsReader supplies the dashboard totals.
type CountsReader interface {
	GetCounts(ctx context.Context) (database.Counts, error)
}

// UIController serves the server-rendered pages.
type UIController struct {
	svc    Services
	counts CountsReader
	audit  Auditor
	images *images.Store // nil disables photo cleanup on delete
	now    func() time.Time
}

func NewUIController(svc Services, counts CountsReader, auditor Auditor) *UIController {
	return &UIController{
		svc:    svc,
		counts: counts,
		audit:  auditorOrNop(auditor),
		now:    time.Now,
	}
}

// Home renders the dashboard. Signed-out visitors see it without totals.
func (ui *UIController) Home(c *gin.Context) {
	data := gin.H{"Title": "Staff management"}
	if ui.counts != nil && CurrentViewer(c).IsAdmin {
		counts, err := ui.counts.GetCounts(c.Request.Context())
		if err != nil {
			redirectToError(c, err, "dashboard counts")
			return
		}
		data["Counts"] = counts
	}
	render(c, http.StatusOK, "home", data)
}

// ErrorPage renders the generic error page.
func (ui *UIController) ErrorPage(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		message = "Something went wrong. The problem has been logged."
	}
	renderError(c, http.StatusOK, message)
}

// NotFound renders the 404 page for unknown routes.
func (ui *UIController) NotFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, "Page not found")
}

func (ui *UIController) register(g gin.IRoutes) {
	ui.books().register(g)
	ui.members().register(g)
	ui.employees().register(g)
	ui.shifts().register(g)
	ui.loans().register(g)

	g.POST("/employees/:id/shifts", ui.AssignShift)
	g.POST("/employees/:id/shifts/:shiftId/unassign", ui.UnassignShift)
	g.POST("/shifts/:id/employees", ui.AssignEmployee)
	g.POST("/shifts/:id/employees/:employeeId/unassign", ui.UnassignEmployee)
	g.POST("/borrowed-books/:id/return", ui.ReturnLoan)
}

func (ui *UIController) books() *pageResource[entities.Book, *entities.Book, BookForm] {
	return &pageResource[entities.Book, *entities.Book, BookForm]{
		kind:  "book",
		path:  "/books",
		tmpl:  "books",
		title: "Books",
		svc:   ui.svc.Books,
		audit: ui.audit,
		name:  func(b *entities.Book) string { return b.Title },
		fill:  bookForm,
		keep: func(stored, incoming *entities.Book) {
			incoming.ImagePath = stored.ImagePath
		},
		removed: dropImage(ui.images, bookImage),
		details: func(c *gin.Context, b *entities.Book, data gin.H) error {
			loans, err := ui.svc.Loans.ByBook(c.Request.Context(), b.ID)
			data["Loans"] = loans
			data["Now"] = ui.now()
			return err
		},
	}
}

func (ui *UIController) members() *pageResource[entities.Member, *entities.Member, MemberForm] {
	return &pageResource[entities.Member, *entities.Member, MemberForm]{
		kind:  "member",
		path:  "/members",
		tmpl:  "members",
		title: "Members",
		svc:   ui.svc.Members,
		audit: ui.audit,
		name:  func(m *entities.Member) string { return m.FullName() },
		fill:  memberForm,
		keep: func(stored, incoming *entities.Member) {
			incoming.ImagePath = stored.ImagePath
		},
		removed: dropImage(ui.images, memberImage),
		details: func(c *gin.Context, m *entities.Member, data gin.H) error {
			loans, err := ui.svc.Loans.ByMember(c.Request.Context(), m.ID)
			data["Loans"] = loans
			data["Now"] = ui.now()
			return err
		},
	}
}

func (ui *UIController) employees() *pageResource[entities.Employee, *entities.Employee, EmployeeForm] {
	return &pageResource[entities.Employee, *entities.Employee, EmployeeForm]{
		kind:  "employee",
		path:  "/employees",
		tmpl:  "employees",
		title: "Employees",
		svc:   ui.svc.Employees,
		audit: ui.audit,
		name:  func(e *entities.Employee) string { return e.FullName() },
		fill:  employeeForm,
		keep: func(stored, incoming *entities.Employee) {
			incoming.ImagePath = stored.ImagePath
		},
		removed: dropImage(ui.images, employeeImage),
		details: ui.employeeShifts,
	}
}

// employeeShifts splits all shifts into those the employee works and those
// still open to them.
func (ui *UIController) employeeShifts(c *gin.Context, e *entities.Employee, data gin.H) error {
	ctx := c.Request.Context()
	assigned, err := ui.svc.Shifts.ShiftsForEmployee(ctx, e.ID)
	if err != nil {
		return err
	}
	all, err := ui.svc.Shifts.List(ctx)
	if err != nil {
		return err
	}

	taken := make(map[uint]bool, len(assigned))
	for _, s := range assigned {
		taken[s.ID] = true
	}
	available := []entities.Shift{}
	for _, s := range all {
		if !taken[s.ID] {
			available = append(available, s)
		}
	}

	data["AssignedShifts"] = assigned
	data["AvailableShifts"] = available
	return nil
}

func (ui *UIController) shifts() *pageResource[entities.Shift, *entities.Shift, ShiftForm] {
	return &pageResource[entities.Shift, *entities.Shift, ShiftForm]{
		kind:  "shift",
		path:  "/shifts",
		tmpl:  "shifts",
		title: "Shifts",
		svc:   ui.svc.Shifts,
		audit: ui.audit,
		name:  shiftName,
		fill:  shiftForm,
		blank: func(c *gin.Context) ShiftForm {
			start := ui.now().Truncate(time.Hour)
			return ShiftForm{
				StartDateTime: formatDateTime(start),
				EndDateTime:   formatDateTime(start.Add(8 * time.Hour)),
			}
		},
		details: func(c *gin.Context, s *entities.Shift, data gin.H) error {
			data["Current"] = s.Contains(ui.now())
			return ui.shiftStaff(c, s, data)
		},
	}
}

// shiftStaff splits all employees into those working the shift and those
// who could still be put on it.
func (ui *UIController) shiftStaff(c *gin.Context, s *entities.Shift, data gin.H) error {
	ctx := c.Request.Context()
	assigned, err := ui.svc.Employees.EmployeesForShift(ctx, s.ID)
	if err != nil {
		return err
	}
	all, err := ui.svc.Employees.List(ctx)
	if err != nil {
		return err
	}

	working := make(map[uint]bool, len(assigned))
	for _, e := range assigned {
		working[e.ID] = true
	}
	available := []entities.EmployeeSummary{}
	for _, e := range all {
		if !working[e.ID] {
			available = append(available, e.Summary())
		}
	}

	data["Employees"] = assigned
	data["AvailableEmployees"] = available
	return nil
}

func (ui *UIController) loans() *pageResource[entities.BorrowedBook, *entities.BorrowedBook, LoanForm] {
	return &pageResource[entities.BorrowedBook, *entities.BorrowedBook, LoanForm]{
		kind:   "borrowed_book",
		path:   "/borrowed-books",
		tmpl:   "loans",
		title:  "Borrowed books",
		svc:    ui.svc.Loans,
		audit:  ui.audit,
		name:   loanName,
		fill:   loanForm,
		blank:  ui.blankLoan,
		create: ui.svc.Loans.Borrow,
		options: func(c *gin.Context, data gin.H) error {
			return ui.loanOptions(c.Request.Context(), data)
		},
		details: func(c *gin.Context, l *entities.BorrowedBook, data gin.H) error {
			data["Now"] = ui.now()
			if l.IsReturned() {
				return nil
			}
			return ui.returnOptions(c.Request.Context(), data)
		},
	}
}

// blankLoan preselects today, the default due date and the current shift.
func (ui *UIController) blankLoan(c *gin.Context) LoanForm {
	now := ui.now()
	form := LoanForm{
		BorrowDate: formatDate(now),
		DueDate:    formatDate(now.AddDate(0, 0, ui.svc.Loans.LoanPeriodDays())),
	}
	if shift, err := ui.svc.Shifts.Current(c.Request.Context(), now); err == nil && shift != nil {
		form.BorrowedDuringShiftID = formatID(&shift.ID)
	}
	if id, err := parseFormID("member", c.Query("member_id")); err == nil && id != nil {
		form.MemberID = *id
	}
	if id, err := parseFormID("book", c.Query("book_id")); err == nil && id != nil {
		form.BookID = *id
	}
	return form
}

func (ui *UIController) loanOptions(ctx context.Context, data gin.H) error {
	members, err := ui.svc.Members.List(ctx)
	if err != nil {
		return err
	}
	books, err := ui.svc.Books.List(ctx)
	if err != nil {
		return err
	}
	shifts, err := ui.svc.Shifts.List(ctx)
	if err != nil {
		return err
	}
	employees, err := ui.svc.Employees.List(ctx)
	if err != nil {
		return err
	}
	data["Members"] = members
	data["Books"] = books
	data["Shifts"] = shifts
	data["Employees"] = employees
	return nil
}

func (ui *UIController) returnOptions(ctx context.Context, data gin.H) error {
	employees, err := ui.svc.Employees.List(ctx)
	if err != nil {
		return err
	}
	shifts, err := ui.svc.Shifts.List(ctx)
	if err != nil {
		return err
	}
	current, err := ui.svc.Shifts.Current(ctx, ui.now())
	if err != nil {
		return err
	}
	data["Employees"] = employees
	data["Shifts"] = shifts
	data["CurrentShiftID"] = uint(0)
	if current != nil {
		data["CurrentShiftID"] = current.ID
	}
	return nil
}

// AssignShift handles POST /employees/:id/shifts
func (ui *UIController) AssignShift(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	shiftID, err := parseFormID("shift", c.PostForm("shift_id"))
	if err != nil || shiftID == nil {
		renderError(c, http.StatusBadRequest, "Choose a shift to assign.")
		return
	}

	link, err := ui.svc.EmployeeShifts.Link(c.Request.Context(), id, *shiftID)
	if err != nil {
		renderServiceError(c, err, "assign shift")
		return
	}
	ui.audit.LogLink(actorFrom(c), link)
	c.Redirect(http.StatusSeeOther, itemPath("/employees", id))
}

// UnassignShift handles POST /employees/:id/shifts/:shiftId/unassign
func (ui *UIController) UnassignShift(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	shiftID, err := parseFormID("shift", c.Param("shiftId"))
	if err != nil || shiftID == nil {
		renderError(c, http.StatusNotFound, "Page not found")
		return
	}

	removed, err := ui.svc.EmployeeShifts.Unlink(c.Request.Context(), id, *shiftID)
	if err != nil {
		renderServiceError(c, err, "unassign shift")
		return
	}
	if removed {
		ui.audit.LogUnlink(actorFrom(c), id, *shiftID)
	}
	c.Redirect(http.StatusSeeOther, itemPath("/employees", id))
}

// AssignEmployee handles POST /shifts/:id/employees
func (ui *UIController) AssignEmployee(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	employeeID, err := parseFormID("employee", c.PostForm("employee_id"))
	if err != nil || employeeID == nil {
		renderError(c, http.StatusBadRequest, "Choose an employee to assign.")
		return
	}

	link, err := ui.svc.EmployeeShifts.Link(c.Request.Context(), *employeeID, id)
	if err != nil {
		renderServiceError(c, err, "assign employee")
		return
	}
	ui.audit.LogLink(actorFrom(c), link)
	c.Redirect(http.StatusSeeOther, itemPath("/shifts", id))
}

// UnassignEmployee handles POST /shifts/:id/employees/:employeeId/unassign
func (ui *UIController) UnassignEmployee(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	employeeID, err := parseFormID("employee", c.Param("employeeId"))
	if err != nil || employeeID == nil {
		renderError(c, http.StatusNotFound, "Page not found")
		return
	}

	removed, err := ui.svc.EmployeeShifts.Unlink(c.Request.Context(), *employeeID, id)
	if err != nil {
		renderServiceError(c, err, "unassign employee")
		return
	}
	if removed {
		ui.audit.LogUnlink(actorFrom(c), *employeeID, id)
	}
	c.Redirect(http.StatusSeeOther, itemPath("/shifts", id))
}

// ReturnLoan handles POST /borrowed-books/:id/return
func (ui *UIController) ReturnLoan(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	var form ReturnForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, http.StatusBadRequest, errorMessage(err))
		return
	}
	details, err := form.details()
	if err != nil {
		renderError(c, http.StatusBadRequest, errorMessage(err))
		return
	}

	loan, err := ui.svc.Loans.Return(c.Request.Context(), id, details)
	if err != nil {
		renderServiceError(c, err, "return loan")
		return
	}
	ui.audit.LogReturn(actorFrom(c), loan)
	c.Redirect(http.StatusSeeOther, itemPath("/borrowed-books", id))
}

// overdueLoans is used by templates to flag late loans.
func overdueLoans(loans []entities.BorrowedBook, now time.Time) int {
	n := 0
	for _, l := range loans {
		if l.IsOverdue(now) {
			n++
		}
	}
	return n
}
