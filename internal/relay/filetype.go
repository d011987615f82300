package relay

import (
	"mime"
	"path/filepath"
	"strings"
)

// FileType is the extension-based classification of an upload.
type FileType string

// File type buckets.
const (
	FileTypePhoto    FileType = "photo"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeDocument FileType = "document"
)

// Mode is how a file is transmitted to the channel.
type Mode int

// Transmission modes. ModeDocument is the generic-file mode.
const (
	ModeDocument Mode = iota
	ModePhoto
	ModeVideo
	ModeAudio
)

func (m Mode) String() string {
	switch m {
	case ModePhoto:
		return "photo"
	case ModeVideo:
		return "video"
	case ModeAudio:
		return "audio"
	default:
		return "document"
	}
}

var fileTypes = map[string]FileType{
	"jpg":  FileTypePhoto,
	"jpeg": FileTypePhoto,
	"png":  FileTypePhoto,
	"gif":  FileTypePhoto,
	"webp": FileTypePhoto,
	"mp4":  FileTypeVideo,
	"avi":  FileTypeVideo,
	"mov":  FileTypeVideo,
	"mkv":  FileTypeVideo,
	"webm": FileTypeVideo,
	"wmv":  FileTypeVideo,
	"mp3":  FileTypeAudio,
	"wav":  FileTypeAudio,
	"ogg":  FileTypeAudio,
	"m4a":  FileTypeAudio,
	"flac": FileTypeAudio,
}

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"wmv":  "video/x-ms-wmv",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Classify buckets filename by its extension, case-insensitively.
func Classify(filename string) FileType {
	if ft, ok := fileTypes[extension(filename)]; ok {
		return ft
	}
	return FileTypeDocument
}

// ModeFor returns the transmission mode for a classified file.
func ModeFor(ft FileType, forceDocument bool) Mode {
	if forceDocument {
		return ModeDocument
	}
	switch ft {
	case FileTypePhoto:
		return ModePhoto
	case FileTypeVideo:
		return ModeVideo
	case FileTypeAudio:
		return ModeAudio
	default:
		return ModeDocument
	}
}

// MIMEType returns the content type declared for filename when it is sent.
func MIMEType(filename string) string {
	ext := extension(filename)
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	if ext != "" {
		if mt := mime.TypeByExtension("." + ext); mt != "" {
			return mt
		}
	}
	return "application/octet-stream"
}
