package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/hashicorp/go-cleanhttp"
)

// sniffLen is how much of the payload is inspected when the extension has to
// be detected from content.
const sniffLen = 3072

// DownloadError is returned when the origin answers with a non-success status.
type DownloadError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download file: HTTP %d", e.StatusCode)
}

// Download is a fetched file staged on local disk. The caller owns Path and
// must call Remove when done with it.
type Download struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

// Remove deletes the staged file.
func (d *Download) Remove() error {
	if d == nil || d.Path == "" {
		return nil
	}
	err := os.Remove(d.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Fetcher performs single-shot HTTP downloads into temporary files.
type Fetcher struct {
	client  *http.Client
	tempDir string
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher. A nil client selects a pooled client with no
// shared global state; an empty tempDir selects the OS temp directory.
func NewFetcher(client *http.Client, tempDir string, log *slog.Logger) *Fetcher {
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		client:  client,
		tempDir: tempDir,
		logger:  log.With("component", "fetcher"),
	}
}

// Fetch downloads rawURL with one GET request and stages the body in a
// temporary file whose suffix matches the resolved filename's extension.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	log := f.logger.With("url", shortURL(rawURL))
	log.Debug("downloading file")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid download url: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("download request failed", "error", err)
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("download failed", "status", resp.StatusCode)
		return nil, &DownloadError{StatusCode: resp.StatusCode}
	}

	body := bufio.NewReaderSize(resp.Body, sniffLen)
	head, err := body.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	filename := ResolveFilename(resp.Header.Get("Content-Disposition"), rawURL, contentType, head)

	suffix := ""
	if ext := Extension(filename); safeExtension.MatchString(ext) {
		suffix = "." + ext
	}

	tmp, err := os.CreateTemp(f.tempDir, "relay-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}

	size, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return nil, fmt.Errorf("failed to save downloaded file: %w", copyErr)
		}
		return nil, fmt.Errorf("failed to save downloaded file: %w", closeErr)
	}

	log.Info("downloaded file",
		"filename", filename,
		"size_bytes", size)

	return &Download{
		Path:        tmp.Name(),
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
	}, nil
}

func shortURL(u string) string {
	if len(u) < 60 {
		return u
	}
	return u[:30] + "..." + u[len(u)-20:]
}
