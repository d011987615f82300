package fetch

import (
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultFilename is used when neither the headers nor the URL name the file.
const DefaultFilename = "downloaded_file"

var safeExtension = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+._-]{0,15}$`)

// FilenameFromHeaders returns the filename named by a Content-Disposition
// header value, or "" when there is none.
func FilenameFromHeaders(contentDisposition string) string {
	if contentDisposition == "" {
		return ""
	}

	if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
		if name := cleanFilename(params["filename"]); name != "" {
			return name
		}
	}

	// Malformed headers still often carry a usable filename= token.
	idx := strings.Index(strings.ToLower(contentDisposition), "filename=")
	if idx < 0 {
		return ""
	}
	raw := contentDisposition[idx+len("filename="):]
	if semi := strings.IndexByte(raw, ';'); semi >= 0 {
		raw = raw[:semi]
	}
	return cleanFilename(strings.Trim(strings.TrimSpace(raw), `"'`))
}

// FilenameFromURL returns the last path segment of rawURL, unescaped.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.EscapedPath()
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	segment := path.Base(p)
	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}
	return cleanFilename(segment)
}

// ExtensionFromContentType maps a declared content type to an extension
// without the leading dot. Only images, PDFs, video and audio are mapped.
func ExtensionFromContentType(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	} else if semi := strings.IndexByte(mediaType, ';'); semi >= 0 {
		mediaType = strings.TrimSpace(mediaType[:semi])
	}

	var ext string
	switch {
	case mediaType == "application/pdf":
		ext = "pdf"
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "video/"),
		strings.HasPrefix(mediaType, "audio/"):
		ext = mediaType[strings.IndexByte(mediaType, '/')+1:]
	}

	if !safeExtension.MatchString(ext) {
		return ""
	}
	return ext
}

// ExtensionFromContent sniffs the payload prefix and returns its extension
// without the leading dot, or "" for unrecognized data.
func ExtensionFromContent(head []byte) string {
	if len(head) == 0 {
		return ""
	}
	return strings.TrimPrefix(mimetype.Detect(head).Extension(), ".")
}

// ResolveFilename applies the naming rules in order: header, URL path,
// declared content type for a missing extension, then payload sniffing.
func ResolveFilename(contentDisposition, rawURL, contentType string, head []byte) string {
	name := FilenameFromHeaders(contentDisposition)
	if name == "" {
		name = FilenameFromURL(rawURL)
	}

	if Extension(name) == "" {
		ext := ExtensionFromContentType(contentType)
		if ext == "" {
			ext = ExtensionFromContent(head)
		}
		if name == "" {
			name = DefaultFilename
		}
		if ext != "" {
			name = name + "." + ext
		}
	}

	return name
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func cleanFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	name = path.Base(name)
	switch name {
	case ".", "/", "..":
		return ""
	}
	return name
}
