// Package sqlite provides the embedded, file-backed implementation of the
// store.TaskStore interface. It is the default backend and needs no external
// database server.
package sqlite
