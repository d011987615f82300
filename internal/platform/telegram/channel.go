package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/tg"
)

// channelIDOffset is added to bare channel IDs in the -100 prefixed form.
const channelIDOffset int64 = 1_000_000_000_000

// dialogBatchSize is the number of dialogs requested per page.
const dialogBatchSize = 100

var (
	// ErrNoMessageID is returned when a send response carries no message.
	ErrNoMessageID = errors.New("telegram: response carried no message id")

	// ErrChannelNotFound is returned when no dialog of the account is the
	// configured channel.
	ErrChannelNotFound = errors.New("telegram: channel not found among dialogs")
)

// ChannelValidationError is returned when the configured channel cannot be
// found among the dialogs the account can access.
type ChannelValidationError struct {
	ChannelID int64
	Err       error
}

// Error implements the error interface.
func (e *ChannelValidationError) Error() string {
	return fmt.Sprintf("cannot access channel %d: %v; check the configured channel id", e.ChannelID, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ChannelValidationError) Unwrap() error {
	return e.Err
}

// NormalizeChannelID converts a configured channel ID, either bare or in the
// -100 prefixed form, to the bare ID the API uses.
func NormalizeChannelID(id int64) int64 {
	switch {
	case id <= -channelIDOffset:
		return -id - channelIDOffset
	case id < 0:
		return -id
	default:
		return id
	}
}

// findDialogChannel pages through the account's dialogs until it finds the
// channel with the given bare ID.
func findDialogChannel(ctx context.Context, api *tg.Client, id int64) (*tg.Channel, error) {
	iter := query.GetDialogs(api).BatchSize(dialogBatchSize).Iter()
	for iter.Next(ctx) {
		if ch, ok := iter.Value().Entities.Channels()[id]; ok {
			return ch, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list dialogs: %w", err)
	}
	return nil, ErrChannelNotFound
}

// messageIDFromUpdates extracts the ID of the message created by a send.
func messageIDFromUpdates(updates tg.UpdatesClass) (int, error) {
	var list []tg.UpdateClass
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID, nil
	case *tg.Updates:
		list = u.Updates
	case *tg.UpdatesCombined:
		list = u.Updates
	default:
		return 0, fmt.Errorf("%w: unexpected %T", ErrNoMessageID, updates)
	}

	fallback := 0
	for _, update := range list {
		switch up := update.(type) {
		case *tg.UpdateNewChannelMessage:
			return up.Message.GetID(), nil
		case *tg.UpdateNewMessage:
			return up.Message.GetID(), nil
		case *tg.UpdateMessageID:
			fallback = up.ID
		}
	}
	if fallback != 0 {
		return fallback, nil
	}
	return 0, ErrNoMessageID
}
