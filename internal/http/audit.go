package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	dbaudit "github.com/mrlokans/staffmanager/internal/database/audit"
	"github.com/mrlokans/staffmanager/internal/entities"
)

const auditPageSize = 25

type AuditController struct {
	audit AuditReader
}

func NewAuditController(audit AuditReader) *AuditController {
	return &AuditController{audit: audit}
}

type EventTypeOption struct {
	Value string
	Label string
}

type auditQuery struct {
	Filter dbaudit.Filter
	Page   int
	Limit  int
	Type   string
}

func parseAuditQuery(c *gin.Context, defaultLimit int) auditQuery {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}

	q := auditQuery{Page: page, Limit: limit, Type: c.Query("type")}
	q.Filter.EventType = entities.AuditEventType(q.Type)
	q.Filter.EntityType = c.Query("entity")
	if id, err := strconv.ParseUint(c.Query("entity_id"), 10, 64); err == nil {
		q.Filter.EntityID = uint(id)
	}
	if id, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		q.Filter.UserID = uint(id)
	}
	return q
}

func totalPages(total int64, limit int) int {
	pages := (int(total) + limit - 1) / limit
	if pages < 1 {
		return 1
	}
	return pages
}

// AuditLogPage renders the audit log UI
// GET /audit
func (ac *AuditController) AuditLogPage(c *gin.Context) {
	q := parseAuditQuery(c, auditPageSize)
	events, total, err := ac.audit.GetEvents(q.Filter, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		renderError(c, http.StatusInternalServerError, "Failed to load audit events")
		return
	}

	render(c, http.StatusOK, "audit", gin.H{
		"Title":       "Audit log",
		"Events":      events,
		"CurrentPage": q.Page,
		"TotalPages":  totalPages(total, q.Limit),
		"TotalEvents": total,
		"EventType":   q.Type,
		"EventTypes":  eventTypes(),
	})
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	q := parseAuditQuery(c, auditPageSize)
	events, total, err := ac.audit.GetEvents(q.Filter, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		respondInternalError(c, err, "failed to load audit events")
		return
	}

	offset := (q.Page - 1) * q.Limit
	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Limit:      q.Limit,
		Offset:     offset,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: totalPages(total, q.Limit),
	})
}

// GetEntityHistory handles GET /api/audit/:entity/:id
func (ac *AuditController) GetEntityHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	events, err := ac.audit.GetEntityHistory(c.Param("entity"), id)
	if err != nil {
		respondInternalError(c, err, "failed to load entity history")
		return
	}
	c.JSON(http.StatusOK, events)
}

func eventTypes() []EventTypeOption {
	opts := []EventTypeOption{{Value: "", Label: "All Events"}}
	for _, t := range entities.AuditEventTypes {
		opts = append(opts, EventTypeOption{Value: string(t), Label: t.Label()})
	}
	return opts
}
