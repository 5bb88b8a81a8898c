package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultAuditRetentionDays applies when a task carries no retention.
const DefaultAuditRetentionDays = 90

type AuditEventCleaner interface {
	PurgeEvents(cutoff time.Time) (int64, error)
}

// SnapshotPruner removes archived JSON snapshots written before cutoff.
type SnapshotPruner interface {
	Prune(cutoff time.Time) (int, error)
}

// CleanupAuditEventsTask trims the audit trail and its snapshot archive to
// RetentionDays.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func (t CleanupAuditEventsTask) days() int {
	if t.RetentionDays > 0 {
		return t.RetentionDays
	}
	return DefaultAuditRetentionDays
}

// CleanupAuditEventsProcessor purges rows first, then snapshots, against the
// same cutoff. pruner and recorder may be nil.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner, pruner SnapshotPruner, recorder MaintenanceRecorder) backlite.QueueProcessor[CleanupAuditEventsTask] {
	const action = "cleanup_audit_events"
	return func(_ context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errNotConfigured("audit event cleaner")
		}
		days := task.days()
		cutoff := time.Now().AddDate(0, 0, -days)

		rows, err := cleaner.PurgeEvents(cutoff)
		if err != nil {
			record(recorder, action, "Audit cleanup failed", nil, err)
			return fmt.Errorf("purge audit events: %w", err)
		}

		var files int
		if pruner != nil {
			if files, err = pruner.Prune(cutoff); err != nil {
				record(recorder, action, "Snapshot pruning failed", nil, err)
				return fmt.Errorf("prune snapshots: %w", err)
			}
		}

		summary := fmt.Sprintf("Removed %d audit events and %d snapshots older than %d days", rows, files, days)
		log.Printf("[TASK] %s", summary)
		record(recorder, action, summary, map[string]any{
			"events_deleted":    rows,
			"snapshots_deleted": files,
			"retention_days":    days,
		}, nil)
		return nil
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner, pruner SnapshotPruner, recorder MaintenanceRecorder) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner, pruner, recorder))
}
