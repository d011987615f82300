// Package mongo provides the MongoDB implementation of the store.TaskStore
// interface, selected when the database URL uses the mongodb:// or
// mongodb+srv:// scheme.
package mongo
