package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/phrazzld/relay-api/internal/config"
	"github.com/phrazzld/relay-api/internal/relay"
)

// SessionFileName is the credential file kept in the session directory.
const SessionFileName = "tg_session.json"

// ErrSessionClosed is returned by Start when the session was already closed.
var ErrSessionClosed = errors.New("telegram: session closed")

// Session is the process-wide messaging session. It implements relay.Sender.
type Session struct {
	cfg    config.TelegramConfig
	prompt CodePrompt
	logger *slog.Logger

	validated atomic.Bool

	mu     sync.RWMutex
	api    *tg.Client
	peer   *tg.InputPeerChannel
	cancel context.CancelFunc
	done   chan error
	closed bool
}

var _ relay.Sender = (*Session)(nil)

// NewSession creates a Session. Nothing connects until Start is called.
// A nil prompt reads the login code from the terminal.
func NewSession(cfg config.TelegramConfig, prompt CodePrompt, logger *slog.Logger) *Session {
	if prompt == nil {
		prompt = TerminalPrompt()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:    cfg,
		prompt: prompt,
		logger: logger.With("component", "telegram"),
	}
}

// Start connects, authenticates if the session file holds no valid login,
// and validates the destination channel. It returns once the session is
// usable or has failed; on success the connection stays open until Close.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.done != nil {
		s.mu.Unlock()
		return errors.New("telegram: session already started")
	}

	if err := os.MkdirAll(s.cfg.SessionDir, 0o700); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	client := telegram.NewClient(s.cfg.AppID, s.cfg.AppHash, telegram.Options{
		SessionStorage: &session.FileStorage{
			Path: filepath.Join(s.cfg.SessionDir, SessionFileName),
		},
	})

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	done := s.done
	s.mu.Unlock()

	ready := make(chan error, 1)
	go func() {
		err := client.Run(runCtx, func(ctx context.Context) error {
			if err := s.authenticate(ctx, client); err != nil {
				ready <- err
				return err
			}
			if err := s.validateChannel(ctx, client.API()); err != nil {
				ready <- err
				return err
			}
			ready <- nil
			<-ctx.Done()
			return nil
		})
		s.validated.Store(false)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("telegram client stopped", "error", err)
		}
		select {
		case ready <- err:
		default:
		}
		done <- err
		close(done)
	}()

	select {
	case err := <-ready:
		if err != nil {
			cancel()
			return err
		}
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (s *Session) authenticate(ctx context.Context, client *telegram.Client) error {
	flow := auth.NewFlow(
		auth.Constant(s.cfg.Phone, s.cfg.Password, auth.CodeAuthenticatorFunc(s.prompt)),
		auth.SendCodeOptions{},
	)
	if err := client.Auth().IfNecessary(ctx, flow); err != nil {
		return fmt.Errorf("telegram authentication failed: %w", err)
	}

	self, err := client.Self(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current user: %w", err)
	}
	s.logger.Info("connected to telegram", "user_id", self.ID, "username", self.Username)
	return nil
}

func (s *Session) validateChannel(ctx context.Context, api *tg.Client) error {
	id := NormalizeChannelID(s.cfg.ChannelID)

	ch, err := findDialogChannel(ctx, api, id)
	if err != nil {
		return &ChannelValidationError{ChannelID: s.cfg.ChannelID, Err: err}
	}

	s.mu.Lock()
	s.api = api
	s.peer = &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
	s.mu.Unlock()
	s.validated.Store(true)

	s.logger.Info("channel validated", "channel_id", s.cfg.ChannelID, "title", ch.Title)
	return nil
}

// Validated reports whether the channel passed validation and the
// connection is still running.
func (s *Session) Validated() bool {
	return s.validated.Load()
}

// ChannelID returns the channel ID as configured.
func (s *Session) ChannelID() int64 {
	return s.cfg.ChannelID
}

// Send uploads the file at media.Path and posts it to the channel in the
// requested mode, returning the new message ID.
func (s *Session) Send(ctx context.Context, media relay.Media) (int, error) {
	s.mu.RLock()
	api, peer := s.api, s.peer
	s.mu.RUnlock()
	if !s.Validated() || api == nil || peer == nil {
		return 0, relay.ErrChannelNotValidated
	}

	file, err := uploader.NewUploader(api).FromPath(ctx, media.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to upload file: %w", err)
	}

	updates, err := message.NewSender(api).To(peer).Media(ctx, buildMedia(file, media))
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	return messageIDFromUpdates(updates)
}

// buildMedia selects the send builder for the requested mode.
func buildMedia(file tg.InputFileClass, media relay.Media) message.MediaOption {
	caption := styling.Plain(media.Caption)

	switch media.Mode {
	case relay.ModePhoto:
		return message.UploadedPhoto(file, caption)
	case relay.ModeVideo:
		return message.UploadedDocument(file, caption).
			Filename(media.Filename).
			MIME(media.MIMEType).
			Video().
			SupportsStreaming()
	case relay.ModeAudio:
		return message.UploadedDocument(file, caption).
			Filename(media.Filename).
			MIME(media.MIMEType).
			Audio()
	default:
		return message.UploadedDocument(file, caption).
			Filename(media.Filename).
			MIME(media.MIMEType).
			ForceFile(true)
	}
}

// Close disconnects the session and waits for the client to stop.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	s.validated.Store(false)
	if cancel == nil {
		return nil
	}
	cancel()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
