package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/staffmanager/internal/audit"
	"github.com/mrlokans/staffmanager/internal/auth"
	"github.com/mrlokans/staffmanager/internal/database"
	"github.com/mrlokans/staffmanager/internal/database/users"
	"github.com/mrlokans/staffmanager/internal/http"
	"github.com/mrlokans/staffmanager/internal/images"
	"github.com/mrlokans/staffmanager/internal/scheduler"
	"github.com/mrlokans/staffmanager/internal/services"
	"github.com/mrlokans/staffmanager/internal/tasks"
)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.Auditor = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ auth.EventLogger = (*audit.Service)(nil)

var _ http.CountsReader = (*database.Database)(nil)
var _ http.Pinger = (*database.Database)(nil)

var _ http.UserAdmin = (*users.Repository)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)

// =============================================================================
// Maintenance Tasks
// =============================================================================

var _ tasks.OverdueLoanFinder = (*services.BorrowingService)(nil)
var _ tasks.MaintenanceRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.SnapshotPruner = (*audit.Archiver)(nil)
var _ tasks.ImageStore = (*images.Store)(nil)
var _ tasks.ImageReferences = (*database.Database)(nil)

var _ scheduler.Enqueuer = (*tasks.Client)(nil)
