// Package telegram owns the single MTProto session the service uses to reach
// the destination channel. The session authenticates once, persists its
// credentials to a file, validates the channel, and then serves sends from
// any goroutine for the lifetime of the process.
package telegram
