package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/mrlokans/staffmanager/internal/database/audit"
	"github.com/mrlokans/staffmanager/internal/entities"
)

// Actor identifies who triggered an event. The zero value is the system.
type Actor struct {
	UserID    uint
	IPAddress string
	UserAgent string
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo     *audit.Repository
	archiver *Archiver
	pending  sync.WaitGroup
}

// NewService creates a new audit service. archiver may be nil, in which
// case deleted records are not archived to disk.
func NewService(repo *audit.Repository, archiver *Archiver) *Service {
	return &Service{repo: repo, archiver: archiver}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.Insert(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.Insert(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every event queued with LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) newEvent(actor Actor, eventType entities.AuditEventType, entityType string, entityID uint) *entities.AuditEvent {
	event := &entities.AuditEvent{
		UserID:     actor.UserID,
		EventType:  eventType,
		Action:     entityType + "_" + string(eventType),
		EntityType: entityType,
		IPAddress:  actor.IPAddress,
		UserAgent:  truncate(actor.UserAgent, 500),
		Status:     entities.AuditStatusSuccess,
	}
	if entityID > 0 {
		event.EntityID = &entityID
	}
	return event
}

// LogCreate records a new record.
func (s *Service) LogCreate(actor Actor, entityType string, entityID uint, name string) {
	event := s.newEvent(actor, entities.AuditEventCreate, entityType, entityID)
	event.Description = fmt.Sprintf("Created %s: %s", entityType, name)
	s.LogAsync(event)
}

// LogUpdate records a full replace of a record at its new version.
func (s *Service) LogUpdate(actor Actor, entityType string, entityID uint, name string, version uint) {
	event := s.newEvent(actor, entities.AuditEventUpdate, entityType, entityID)
	event.Description = fmt.Sprintf("Updated %s: %s", entityType, name)
	event.Metadata = encodeMetadata(map[string]any{"version": version})
	s.LogAsync(event)
}

// LogDelete records a deletion and archives the removed record as JSON.
func (s *Service) LogDelete(actor Actor, entityType string, entityID uint, name string, record any) {
	event := s.newEvent(actor, entities.AuditEventDelete, entityType, entityID)
	event.Description = fmt.Sprintf("Deleted %s: %s", entityType, name)

	if s.archiver != nil && record != nil {
		filename, err := s.archiver.Archive(entityType, entityID, record)
		if err != nil {
			log.Printf("Failed to archive deleted %s %d: %v", entityType, entityID, err)
		} else {
			event.Metadata = encodeMetadata(map[string]any{"archive": filename})
		}
	}

	s.LogAsync(event)
}

// LogReturn records the closing of a loan.
func (s *Service) LogReturn(actor Actor, loan *entities.BorrowedBook) {
	event := s.newEvent(actor, entities.AuditEventReturn, "borrowed_book", loan.ID)
	event.Description = fmt.Sprintf("Returned loan %d", loan.ID)
	if loan.Book != nil && loan.Member != nil {
		event.Description = fmt.Sprintf("%s returned %q", loan.Member.FullName(), loan.Book.Title)
	}

	metadata := map[string]any{"book_id": loan.BookID, "member_id": loan.MemberID}
	if loan.ReturnDate != nil {
		metadata["return_date"] = loan.ReturnDate.Format(time.RFC3339)
	}
	if loan.ReceivedByEmployeeID != nil {
		metadata["received_by_employee_id"] = *loan.ReceivedByEmployeeID
	}
	event.Metadata = encodeMetadata(metadata)
	s.LogAsync(event)
}

// LogLink records an employee being assigned to a shift.
func (s *Service) LogLink(actor Actor, link *entities.EmployeeShift) {
	event := s.newEvent(actor, entities.AuditEventLink, "employee_shift", link.ID)
	event.Description = fmt.Sprintf("Assigned employee %d to shift %d", link.EmployeeID, link.ShiftID)
	event.Metadata = encodeMetadata(map[string]any{"employee_id": link.EmployeeID, "shift_id": link.ShiftID})
	s.LogAsync(event)
}

// LogUnlink records an employee being removed from a shift.
func (s *Service) LogUnlink(actor Actor, employeeID, shiftID uint) {
	event := s.newEvent(actor, entities.AuditEventUnlink, "employee_shift", 0)
	event.Description = fmt.Sprintf("Unassigned employee %d from shift %d", employeeID, shiftID)
	event.Metadata = encodeMetadata(map[string]any{"employee_id": employeeID, "shift_id": shiftID})
	s.LogAsync(event)
}

// LogUpload records an image being attached to or removed from a record.
func (s *Service) LogUpload(actor Actor, entityType string, entityID uint, path string, err error) {
	event := s.newEvent(actor, entities.AuditEventUpload, entityType, entityID)
	event.Action = entityType + "_image"
	if path == "" {
		event.Description = fmt.Sprintf("Removed image from %s %d", entityType, entityID)
	} else {
		event.Description = fmt.Sprintf("Uploaded image for %s %d", entityType, entityID)
		event.Metadata = encodeMetadata(map[string]any{"path": path})
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogMaintenance records the outcome of a background maintenance task.
func (s *Service) LogMaintenance(action, description string, metadata map[string]any, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}
	if len(metadata) > 0 {
		event.Metadata = encodeMetadata(metadata)
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.Page(filter, limit, offset)
}

// GetEntityHistory returns the events recorded against one record.
func (s *Service) GetEntityHistory(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	return s.repo.History(entityType, entityID)
}

// PurgeEvents deletes events recorded before cutoff.
func (s *Service) PurgeEvents(cutoff time.Time) (int64, error) {
	return s.repo.PurgeBefore(cutoff)
}

func encodeMetadata(metadata map[string]any) datatypes.JSON {
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
