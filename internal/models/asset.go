package models

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	// AudioMediaType is the media type of every converted audio track
	AudioMediaType = "audio/mpeg"
	// AudioFileName is the name the audio track is uploaded under
	AudioFileName = "audio.mp3"
)

// VideoAsset is a selected video held in memory for one submission.
type VideoAsset struct {
	Name      string
	MediaType string
	Data      []byte
}

// AudioAsset is the compact audio track derived from exactly one VideoAsset.
type AudioAsset struct {
	Name      string
	MediaType string
	Data      []byte
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
}

// IsVideoFile checks if the file has a supported video extension
func IsVideoFile(path string) bool {
	_, ok := videoTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// NewVideoAsset wraps raw bytes, deriving the media type from the file name and falling back to sniffing.
func NewVideoAsset(name string, data []byte) VideoAsset {
	ext := strings.ToLower(filepath.Ext(name))
	mediaType, ok := videoTypes[ext]
	if !ok {
		mediaType = mime.TypeByExtension(ext)
	}
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	return VideoAsset{
		Name:      filepath.Base(name),
		MediaType: mediaType,
		Data:      data,
	}
}

// IsVideo reports whether the asset declares a video container type.
func (v VideoAsset) IsVideo() bool {
	return strings.HasPrefix(v.MediaType, "video/")
}
