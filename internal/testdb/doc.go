// Package testdb provides utilities for database integration tests: it
// locates disposable PostgreSQL and MongoDB servers through environment
// variables and skips tests cleanly when none is configured.
package testdb
