// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Record Services
//
//   - services.Entity: a record with an id and an optimistic version (internal/services/interfaces.go)
//   - crudService: List/Get/Create/Update/Remove used by the generic JSON and page
//     handlers (internal/http/resource.go)
//
// ## HTTP Dependencies
//
//   - Auditor, AuditReader: audit trail writes and reads (internal/http/interfaces.go)
//   - CountsReader: dashboard totals (internal/http/ui.go)
//   - Pinger: database health (internal/http/health.go)
//   - UserAdmin: account listing, role changes and removal (internal/http/users.go)
//   - TaskQueue: maintenance task enqueue and status (internal/http/tasks.go)
//
// ## Maintenance
//
//   - OverdueLoanFinder, MaintenanceRecorder (internal/tasks/overdue_loans.go)
//   - AuditEventCleaner, SnapshotPruner (internal/tasks/cleanup_audit.go)
//   - ImageStore, ImageReferences (internal/tasks/cleanup_images.go)
//   - Enqueuer: what the cron scheduler hands tasks to (internal/scheduler/maintenance.go)
//
// # Adding a New Record Type
//
//  1. Add the entity in internal/entities/ embedding Versioned, give it
//     GetID/SetID in record.go, and register it with AutoMigrate in
//     internal/database/database.go.
//
//  2. Create the service in internal/services/ as a struct embedding
//     *CRUD[entities.Room, *entities.Room], with a NewRoomService(db)
//     constructor.
//
//  3. Add a request type in internal/http/requests.go, a form in
//     internal/http/forms.go, and register both resources in router.go and ui.go.
//
// # Adding a New Maintenance Task
//
//  1. Define the task and its processor in internal/tasks/ and return a
//     backlite.Queue from a NewXQueue constructor.
//
//  2. Register the queue in entrypoint.go and add it to the task type
//     registry in internal/tasks/registry.go.
//
//  3. Optionally add a cron schedule in internal/scheduler/maintenance.go.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
