// Package api handles incoming HTTP requests, request validation, and
// response formatting. It adapts the upload service to the JSON surface:
// task submission, task status lookup, and the health probe.
package api
