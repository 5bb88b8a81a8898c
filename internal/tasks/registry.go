package tasks

import (
	"errors"
	"fmt"

	"github.com/mikestefanello/backlite"
)

// ErrUnknownTaskType is returned by Build for names not in Types.
var ErrUnknownTaskType = errors.New("unknown task type")

// errNotConfigured fails a run whose processor was built without a dependency.
func errNotConfigured(what string) error {
	return fmt.Errorf("%s not configured", what)
}

// TypeInfo describes a task that can be triggered by hand.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Types lists the maintenance tasks in display order.
func Types() []TypeInfo {
	return []TypeInfo{
		{Type: OverdueLoansTask{}.Config().Name, Description: "Report open loans past their due date"},
		{Type: CleanupAuditEventsTask{}.Config().Name, Description: "Delete audit events and archived records past retention"},
		{Type: CleanupOrphanImagesTask{}.Config().Name, Description: "Delete uploaded photos no member or employee uses"},
	}
}

// Params carries the optional knobs of a manual run.
type Params struct {
	RetentionDays int `json:"retention_days,omitempty" form:"retention_days" binding:"omitempty,min=1"`
	MinAgeMinutes int `json:"min_age_minutes,omitempty" form:"min_age_minutes" binding:"omitempty,min=1"`
}

// Build returns the task for a type name.
func Build(taskType string, p Params) (backlite.Task, error) {
	switch taskType {
	case "overdue_loans":
		return OverdueLoansTask{}, nil
	case "cleanup_audit_events":
		return CleanupAuditEventsTask{RetentionDays: p.RetentionDays}, nil
	case "cleanup_orphan_images":
		return CleanupOrphanImagesTask{MinAgeMinutes: p.MinAgeMinutes}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}
}
