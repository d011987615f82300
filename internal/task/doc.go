// Package task runs background work on a fixed pool of workers fed by a
// bounded in-memory queue. Submission never blocks: a full queue is reported
// to the caller immediately. Queued work is not persisted and does not
// survive a restart.
package task
