// utils/qrcode.go
package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// GenerateProfileQRCode builds a QR code pointing at a user's public profile
// and returns it as a data URI suitable for embedding in responses.
func GenerateProfileQRCode(username string) (string, error) {
	baseURL := os.Getenv("PROFILE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://texty.app"
	}
	content := fmt.Sprintf("%s/profile/%s", baseURL, username)

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	// Scale the QR code to a reasonable size (300x300 pixels)
	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}

	base64QR := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/png;base64," + base64QR, nil
}
