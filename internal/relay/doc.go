// Package relay sends staged files to the destination channel. It classifies
// each file by extension, picks the transmission mode, and retries a failed
// native send exactly once as a generic file.
package relay
