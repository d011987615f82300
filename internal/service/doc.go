// Package service contains the application use cases. The upload service
// records new tasks, hands them to the background runner, and answers
// status lookups.
//
// The service layer depends on domain entities and the repository interfaces
// from internal/store, never on a specific storage backend.
package service
