package http

import (
	"github.com/mrlokans/staffmanager/internal/audit"
	dbaudit "github.com/mrlokans/staffmanager/internal/database/audit"
	"github.com/mrlokans/staffmanager/internal/entities"
)

// Auditor records changes made through the handlers.
type Auditor interface {
	LogCreate(actor audit.Actor, entityType string, entityID uint, name string)
	LogUpdate(actor audit.Actor, entityType string, entityID uint, name string, version uint)
	LogDelete(actor audit.Actor, entityType string, entityID uint, name string, record any)
	LogReturn(actor audit.Actor, loan *entities.BorrowedBook)
	LogLink(actor audit.Actor, link *entities.EmployeeShift)
	LogUnlink(actor audit.Actor, employeeID, shiftID uint)
	LogUpload(actor audit.Actor, entityType string, entityID uint, path string, err error)
}

// AuditReader serves the audit log views.
type AuditReader interface {
	GetEvents(filter dbaudit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEntityHistory(entityType string, entityID uint) ([]entities.AuditEvent, error)
}

type nopAuditor struct{}

func (nopAuditor) LogCreate(audit.Actor, string, uint, string)        {}
func (nopAuditor) LogUpdate(audit.Actor, string, uint, string, uint)  {}
func (nopAuditor) LogDelete(audit.Actor, string, uint, string, any)   {}
func (nopAuditor) LogReturn(audit.Actor, *entities.BorrowedBook)      {}
func (nopAuditor) LogLink(audit.Actor, *entities.EmployeeShift)       {}
func (nopAuditor) LogUnlink(audit.Actor, uint, uint)                  {}
func (nopAuditor) LogUpload(audit.Actor, string, uint, string, error) {}

func auditorOrNop(a Auditor) Auditor {
	if a == nil {
		return nopAuditor{}
	}
	return a
}
