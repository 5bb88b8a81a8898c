package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/entities"
	"github.com/mrlokans/staffmanager/internal/images"
	"github.com/mrlokans/staffmanager/internal/services"
)

func newEmployeesResource(svc *services.EmployeeService, store *images.Store, a Auditor) *resource[entities.Employee, *entities.Employee, EmployeeRequest] {
	return &resource[entities.Employee, *entities.Employee, EmployeeRequest]{
		kind:  "employee",
		svc:   svc,
		audit: auditorOrNop(a),
		name:  func(e *entities.Employee) string { return e.FullName() },
		keep: func(stored, incoming *entities.Employee) {
			incoming.ImagePath = stored.ImagePath
		},
		removed: dropImage(store, employeeImage),
	}
}

// ShiftsController serves shift CRUD plus the current-shift lookup.
type ShiftsController struct {
	*resource[entities.Shift, *entities.Shift, ShiftRequest]

	shifts    *services.ShiftService
	employees *services.EmployeeService
	now       func() time.Time
}

func NewShiftsController(shifts *services.ShiftService, employees *services.EmployeeService, a Auditor) *ShiftsController {
	return &ShiftsController{
		resource: &resource[entities.Shift, *entities.Shift, ShiftRequest]{
			kind:  "shift",
			svc:   shifts,
			audit: auditorOrNop(a),
			name:  shiftName,
		},
		shifts:    shifts,
		employees: employees,
		now:       time.Now,
	}
}

func shiftName(s *entities.Shift) string {
	return s.StartDateTime.Format("2006-01-02 15:04") + " - " + s.EndDateTime.Format("2006-01-02 15:04")
}

// Current handles GET /api/shifts/current
func (sc *ShiftsController) Current(c *gin.Context) {
	shift, err := sc.shifts.Current(c.Request.Context(), sc.now())
	if err != nil {
		respondServiceError(c, err, "current shift")
		return
	}
	if shift == nil {
		respondNotFound(c, "current shift")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// Employees handles GET /api/shifts/:id/employees
func (sc *ShiftsController) Employees(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := sc.shifts.Get(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "shift employees")
		return
	}
	employees, err := sc.employees.EmployeesForShift(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "shift employees")
		return
	}
	c.JSON(http.StatusOK, employees)
}

func (sc *ShiftsController) register(g gin.IRoutes) {
	g.GET("/shifts/current", sc.Current)
	g.GET("/shifts/:id/employees", sc.Employees)
	sc.resource.register(g, "/shifts")
}

// EmployeeShiftsController serves shift assignments, both as raw join
// records and through link/unlink.
type EmployeeShiftsController struct {
	*resource[entities.EmployeeShift, *entities.EmployeeShift, EmployeeShiftRequest]

	links *services.EmployeeShiftService
}

func NewEmployeeShiftsController(links *services.EmployeeShiftService, a Auditor) *EmployeeShiftsController {
	return &EmployeeShiftsController{
		resource: &resource[entities.EmployeeShift, *entities.EmployeeShift, EmployeeShiftRequest]{
			kind:  "employee_shift",
			svc:   links,
			audit: auditorOrNop(a),
			name:  linkName,
		},
		links: links,
	}
}

func linkName(l *entities.EmployeeShift) string {
	if l.Employee != nil {
		return l.Employee.FullName()
	}
	return "assignment"
}

// Link handles POST /api/employee-shifts/link
func (ec *EmployeeShiftsController) Link(c *gin.Context) {
	var req LinkRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}
	link, err := ec.links.Link(c.Request.Context(), req.EmployeeID, req.ShiftID)
	if err != nil {
		respondServiceError(c, err, "link employee")
		return
	}
	ec.audit.LogLink(actorFrom(c), link)
	c.JSON(http.StatusOK, link)
}

// Unlink handles DELETE /api/employee-shifts/unlink?employee_id=&shift_id=
func (ec *EmployeeShiftsController) Unlink(c *gin.Context) {
	employeeID, ok := parseQueryID(c, "employee_id")
	if !ok {
		return
	}
	shiftID, ok := parseQueryID(c, "shift_id")
	if !ok {
		return
	}
	removed, err := ec.links.Unlink(c.Request.Context(), employeeID, shiftID)
	if err != nil {
		respondServiceError(c, err, "unlink employee")
		return
	}
	if !removed {
		respondNotFound(c, "assignment")
		return
	}
	ec.audit.LogUnlink(actorFrom(c), employeeID, shiftID)
	c.Status(http.StatusNoContent)
}

// EmployeesInShift handles GET /api/employee-shifts/employees-in-shift/:shiftId
func (ec *EmployeeShiftsController) EmployeesInShift(c *gin.Context) {
	id, ok := parseIDParam(c, "shiftId")
	if !ok {
		return
	}
	employees, err := ec.links.EmployeesInShift(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "employees in shift")
		return
	}
	c.JSON(http.StatusOK, employees)
}

// ShiftsForEmployee handles GET /api/employee-shifts/shifts-for-employee/:employeeId
func (ec *EmployeeShiftsController) ShiftsForEmployee(c *gin.Context) {
	id, ok := parseIDParam(c, "employeeId")
	if !ok {
		return
	}
	shifts, err := ec.links.ShiftsForEmployee(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "shifts for employee")
		return
	}
	c.JSON(http.StatusOK, shifts)
}

func (ec *EmployeeShiftsController) register(g gin.IRoutes) {
	g.POST("/employee-shifts/link", ec.Link)
	g.DELETE("/employee-shifts/unlink", ec.Unlink)
	g.GET("/employee-shifts/employees-in-shift/:shiftId", ec.EmployeesInShift)
	g.GET("/employee-shifts/shifts-for-employee/:employeeId", ec.ShiftsForEmployee)
	ec.resource.register(g, "/employee-shifts")
}
