// Package domain defines the core business entities and errors.
//
// The only persisted entity is Task: one URL-to-channel upload request and its
// lifecycle record. Status changes go through the Task methods so that the
// forward-only state machine and the terminal-field invariants hold no matter
// which store backs the record.
package domain
