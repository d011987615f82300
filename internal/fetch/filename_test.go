package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilenameFromHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{name: "quoted", header: `attachment; filename="a.png"`, want: "a.png"},
		{name: "bare", header: `attachment; filename=report.pdf`, want: "report.pdf"},
		{name: "no filename", header: `inline`, want: ""},
		{name: "malformed falls back to split", header: `attachment; filename="my file.mp4"; x`, want: "my file.mp4"},
		{name: "path is stripped", header: `attachment; filename="../../etc/passwd"`, want: "passwd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FilenameFromHeaders(tc.header))
		})
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/files/a.png", "a.png"},
		{"https://example.com/files/a.png?size=large#x", "a.png"},
		{"https://example.com/img", "img"},
		{"https://example.com/dir/", ""},
		{"https://example.com", ""},
		{"https://example.com/my%20song.mp3", "my song.mp3"},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.want, FilenameFromURL(tc.url))
		})
	}
}

func TestExtensionFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", "png"},
		{"IMAGE/JPEG", "jpeg"},
		{"image/webp; charset=binary", "webp"},
		{"application/pdf", "pdf"},
		{"video/mp4", "mp4"},
		{"audio/ogg", "ogg"},
		{"application/zip", ""},
		{"text/html; charset=utf-8", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.contentType, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtensionFromContentType(tc.contentType))
		})
	}
}

func TestResolveFilename(t *testing.T) {
	pngHeader := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	pdfHeader := []byte("%PDF-1.7\n")

	tests := []struct {
		name        string
		disposition string
		url         string
		contentType string
		head        []byte
		want        string
	}{
		{
			name:        "header wins",
			disposition: `attachment; filename="a.png"`,
			url:         "https://example.com/download?id=1",
			contentType: "application/octet-stream",
			want:        "a.png",
		},
		{
			name:        "url segment with extension",
			url:         "https://example.com/x/photo.jpg",
			contentType: "image/png",
			want:        "photo.jpg",
		},
		{
			name:        "extension from content type",
			url:         "https://example.com/img",
			contentType: "image/png",
			want:        "img.png",
		},
		{
			name:        "header without extension uses content type",
			disposition: `attachment; filename="report"`,
			contentType: "application/pdf",
			want:        "report.pdf",
		},
		{
			name:        "sniffed extension",
			url:         "https://example.com/blob",
			contentType: "application/octet-stream",
			head:        pdfHeader,
			want:        "blob.pdf",
		},
		{
			name:        "default name",
			url:         "https://example.com/",
			contentType: "image/png",
			want:        "downloaded_file.png",
		},
		{
			name:        "default name with sniffing",
			url:         "https://example.com/",
			head:        pngHeader,
			want:        "downloaded_file.png",
		},
		{
			name: "nothing known",
			url:  "https://example.com/",
			want: "downloaded_file",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveFilename(tc.disposition, tc.url, tc.contentType, tc.head))
		})
	}
}
