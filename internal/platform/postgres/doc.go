// Package postgres provides the PostgreSQL implementation of the
// store.TaskStore interface, selected when the database URL uses the
// postgres:// or postgresql:// scheme.
package postgres
