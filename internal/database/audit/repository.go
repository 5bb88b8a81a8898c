// Package audit stores and queries the audit trail.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows an event listing. Zero values match everything.
type Filter struct {
	UserID     uint
	EventType  entities.AuditEventType
	EntityType string
	EntityID   uint
	Since      time.Time
}

func (f Filter) scope(q *gorm.DB) *gorm.DB {
	conds := []struct {
		set   bool
		query string
		arg   any
	}{
		{f.UserID > 0, "user_id = ?", f.UserID},
		{f.EventType != "", "event_type = ?", f.EventType},
		{f.EntityType != "", "entity_type = ?", f.EntityType},
		{f.EntityID > 0, "entity_id = ?", f.EntityID},
		{!f.Since.IsZero(), "created_at > ?", f.Since},
	}
	for _, c := range conds {
		if c.set {
			q = q.Where(c.query, c.arg)
		}
	}
	return q
}

// Insert stores one event, stamping CreatedAt when the caller left it empty.
func (r *Repository) Insert(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// Page returns matching events newest first plus the number of matches.
// A non-positive limit means defaultPageSize.
func (r *Repository) Page(filter Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var total int64
	matching := filter.scope(r.db.Model(&entities.AuditEvent{}))
	if err := matching.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	var events []entities.AuditEvent
	err := matching.Order("created_at DESC, id DESC").Limit(limit).Offset(max(offset, 0)).Find(&events).Error
	return events, total, err
}

// History lists what happened to one record, oldest first.
func (r *Repository) History(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := Filter{EntityType: entityType, EntityID: entityID}.scope(r.db).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

// PurgeBefore deletes events created before cutoff and returns how many went.
func (r *Repository) PurgeBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", cutoff).Delete(&entities.AuditEvent{})
	return res.RowsAffected, res.Error
}
