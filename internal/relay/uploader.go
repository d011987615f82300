package relay

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Media is one send request handed to a Sender.
type Media struct {
	Path     string
	Filename string
	Caption  string
	MIMEType string
	Mode     Mode
}

// Sender transmits media to the destination channel.
type Sender interface {
	// Send uploads the media and returns the new channel message ID.
	Send(ctx context.Context, media Media) (int, error)
	// Validated reports whether the destination channel passed startup checks.
	Validated() bool
	// ChannelID is the destination channel in its configured form.
	ChannelID() int64
}

// UploadRequest describes a staged file to relay.
type UploadRequest struct {
	Path          string
	Filename      string
	Caption       string
	ForceDocument bool
}

// Result describes a successful upload.
type Result struct {
	MessageID int      `json:"message_id"`
	ChannelID int64    `json:"channel_id"`
	FileType  FileType `json:"file_type"`
}

// Uploader relays staged files through a Sender.
type Uploader struct {
	sender Sender
	logger *slog.Logger
}

// NewUploader creates an Uploader.
func NewUploader(sender Sender, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		sender: sender,
		logger: logger.With("component", "uploader"),
	}
}

// attempt is the outcome of one send.
type attempt struct {
	mode      Mode
	messageID int
	err       error
}

func (u *Uploader) send(ctx context.Context, media Media, mode Mode) attempt {
	media.Mode = mode
	id, err := u.sender.Send(ctx, media)
	return attempt{mode: mode, messageID: id, err: err}
}

// sendWithFallback sends media in mode and, if that fails and mode is not
// already the generic-file mode, retries once as a generic file.
func (u *Uploader) sendWithFallback(ctx context.Context, media Media, mode Mode) (int, error) {
	first := u.send(ctx, media, mode)
	if first.err == nil {
		return first.messageID, nil
	}

	log := u.logger.With("filename", media.Filename, "mode", first.mode.String())
	if first.mode == ModeDocument {
		log.Error("failed to send file", "error", first.err)
		return 0, &UploadError{Mode: first.mode, Original: first.err}
	}

	log.Warn("failed to send file, retrying as document", "error", first.err)
	retry := u.send(ctx, media, ModeDocument)
	if retry.err != nil {
		log.Error("document fallback failed", "error", retry.err)
		return 0, &UploadError{Mode: first.mode, Original: first.err, Fallback: retry.err}
	}
	return retry.messageID, nil
}

// Upload sends the staged file and removes it afterwards, whether or not the
// send succeeded.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*Result, error) {
	defer u.removeStaged(req.Path)

	if u.sender == nil || !u.sender.Validated() {
		return nil, ErrChannelNotValidated
	}

	fileType := Classify(req.Filename)
	mode := ModeFor(fileType, req.ForceDocument)
	u.logger.Debug("processing file",
		"filename", req.Filename,
		"file_type", fileType,
		"mode", mode.String(),
		"force_document", req.ForceDocument)

	media := Media{
		Path:     req.Path,
		Filename: req.Filename,
		Caption:  req.Caption,
		MIMEType: MIMEType(req.Filename),
	}

	messageID, err := u.sendWithFallback(ctx, media, mode)
	if err != nil {
		return nil, err
	}

	return &Result{
		MessageID: messageID,
		ChannelID: u.sender.ChannelID(),
		FileType:  fileType,
	}, nil
}

func (u *Uploader) removeStaged(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		u.logger.Warn("failed to delete temporary file", "path", path, "error", err)
	}
}
