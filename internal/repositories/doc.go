// Package repositories implements SQLite persistence for the session and run history.
//
// No playlist or track data is stored: the provider remains the source of truth.
//
// Key Implementations:
//   - [SessionRepository] : The single authorized session, replaced on every login
//   - [RunRepository] : Combine run metadata with soft deletes, implementing models.Repository
//
// Runs get sequence numbers from [NextSequence], which atomically increments a counter held in a
// dedicated <table>_sequence table.
package repositories
