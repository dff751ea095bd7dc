// Package core provides the business logic for bulk client imports.
//
// This package is the heart of the importer, containing all domain logic
// independent of any UI or transport layer. It is driven by the web server
// and by the clientdesk CLI without modification.
//
// # Pipeline
//
// An import moves through four components:
//
//   - [Parse] turns the uploaded CSV text into [Record] values.
//   - [Validate] applies the per-field rules and returns every [ValidationError].
//   - [Project] derives the bounded [Preview] shown before committing.
//   - [Orchestrator] owns the import dialog state machine and is the only
//     component that performs I/O (file read, batch insert, notifications).
//
// Parse, Validate and Project are pure functions and can be tested without
// any collaborators.
//
// # State Machine
//
// The orchestrator moves a session through these phases:
//
//	idle -> file_selected -> parsing -> previewed -> importing -> completed
//	                            |                        |
//	                            +--------> failed <------+
//
// Failed is recoverable: a read or parse failure is retried by selecting a
// file again, a commit failure by calling [Orchestrator.Import] again with the
// records still held by the session. Close returns to idle from every phase
// except importing.
//
// # Collaborators
//
// The orchestrator depends on three interfaces supplied by the host:
//
//   - [Store]: persists a batch of clients in one call.
//   - [Identity]: resolves the user that owns the imported clients.
//   - [Notifier]: surfaces success and error messages to the user.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE005: File errors (type, read, parse, size, missing)
//   - VAL001: Validation errors block the import
//   - IMP001-IMP005: Commit errors (duplicates, store failures, busy)
//   - SES001, AUTH001, RATE001: Host errors
package core
