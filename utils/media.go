// utils/media.go
package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	// Maximum decoded media size (10MB)
	maxMediaSize = 10 * 1024 * 1024
	// Maximum width for stored images
	maxImageWidth = 800
	// Maximum width for video thumbnails
	thumbnailWidth = 320
)

var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"video/mp4":  true,
	"video/webm": true,
}

// ValidateMediaType checks that the declared media type is one the feed accepts
func ValidateMediaType(mediaType string) error {
	if !allowedMediaTypes[mediaType] {
		return fmt.Errorf("unsupported media type: %s", mediaType)
	}
	return nil
}

// IsVideoType reports whether the media type is a video format
func IsVideoType(mediaType string) bool {
	return strings.HasPrefix(mediaType, "video/")
}

// DecodeMediaBase64 decodes an attachment, stripping any data URI prefix
// and enforcing the size limit.
func DecodeMediaBase64(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 media: %v", err)
	}
	if len(decoded) > maxMediaSize {
		return nil, fmt.Errorf("media exceeds maximum size of %d bytes", maxMediaSize)
	}
	return decoded, nil
}

// NormalizeImageBase64 re-encodes an image attachment, downscaling anything
// wider than maxImageWidth while preserving aspect ratio. Animated GIFs are
// passed through untouched.
func NormalizeImageBase64(data, mediaType string) (string, error) {
	decoded, err := DecodeMediaBase64(data)
	if err != nil {
		return "", err
	}

	if mediaType == "image/gif" {
		return base64.StdEncoding.EncodeToString(decoded), nil
	}

	img, err := imaging.Decode(bytes.NewReader(decoded))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %v", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode image: %v", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// GenerateVideoThumbnail extracts the first frame of a video attachment
// and returns it as a base64 JPEG.
func GenerateVideoThumbnail(data, mediaType string) (string, error) {
	decoded, err := DecodeMediaBase64(data)
	if err != nil {
		return "", err
	}

	ext := ".mp4"
	if mediaType == "video/webm" {
		ext = ".webm"
	}

	tempDir := os.TempDir()
	videoPath := filepath.Join(tempDir, fmt.Sprintf("video_%d%s", time.Now().UnixNano(), ext))
	thumbnailPath := filepath.Join(tempDir, fmt.Sprintf("thumbnail_%d.jpg", time.Now().UnixNano()))

	if err := os.WriteFile(videoPath, decoded, 0o600); err != nil {
		return "", fmt.Errorf("failed to write video file: %v", err)
	}
	defer os.Remove(videoPath)

	// Generate thumbnail using ffmpeg
	err = ffmpeg.Input(videoPath).
		Output(thumbnailPath, ffmpeg.KwArgs{"vframes": 1, "ss": "00:00:01"}).
		OverWriteOutput().
		Run()
	if err != nil {
		return "", fmt.Errorf("failed to generate thumbnail: %v", err)
	}
	defer os.Remove(thumbnailPath)

	thumbnailData, err := os.ReadFile(thumbnailPath)
	if err != nil {
		return "", fmt.Errorf("failed to read thumbnail file: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(thumbnailData))
	if err != nil {
		return "", fmt.Errorf("failed to decode thumbnail: %v", err)
	}

	// Resize to max width while maintaining aspect ratio
	if img.Bounds().Dx() > thumbnailWidth {
		img = imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %v", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
