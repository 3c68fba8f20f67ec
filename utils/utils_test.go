package utils

import (
	"encoding/base64"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hashed == "correct-horse-battery" {
		t.Fatal("hash should not equal the plaintext")
	}
	if !CheckPassword(hashed, "correct-horse-battery") {
		t.Fatal("correct password should verify")
	}
	if CheckPassword(hashed, "wrong-password") {
		t.Fatal("wrong password should not verify")
	}
}

func TestGenerateUsername(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+\d{4}$`)

	tests := []struct {
		name string
		base string
	}{
		{"John Doe", "johndoe"},
		{"  Alice  ", "alice"},
		{"BOB", "bob"},
		{"", "user"},
	}
	for _, tc := range tests {
		got := GenerateUsername(tc.name)
		if !strings.HasPrefix(got, tc.base) {
			t.Errorf("GenerateUsername(%q) = %q, want prefix %q", tc.name, got, tc.base)
		}
		if !pattern.MatchString(got) {
			t.Errorf("GenerateUsername(%q) = %q, want lowercase base plus 4-digit suffix", tc.name, got)
		}
	}
}

func TestGenerateSecureOTP(t *testing.T) {
	otp, err := GenerateSecureOTP()
	if err != nil {
		t.Fatalf("GenerateSecureOTP: %v", err)
	}
	if len(otp) != 6 {
		t.Fatalf("OTP length = %d, want 6", len(otp))
	}
}

func TestEncryptDecryptCredentials(t *testing.T) {
	creds := RememberedCredentials{
		Email:      "alice@example.com",
		UserID:     "user-123",
		ExpiresAt:  time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second),
		DeviceInfo: "test-agent",
	}

	encrypted, err := EncryptCredentials(creds)
	if err != nil {
		t.Fatalf("EncryptCredentials: %v", err)
	}
	if strings.Contains(encrypted, creds.Email) {
		t.Fatal("ciphertext should not expose the email")
	}

	decrypted, err := DecryptCredentials(encrypted)
	if err != nil {
		t.Fatalf("DecryptCredentials: %v", err)
	}
	if decrypted.Email != creds.Email || decrypted.UserID != creds.UserID {
		t.Fatalf("roundtrip mismatch: %+v", decrypted)
	}
	if decrypted.DeviceInfo != creds.DeviceInfo {
		t.Fatalf("device info mismatch: %q", decrypted.DeviceInfo)
	}
}

func TestDecryptCredentialsRejectsGarbage(t *testing.T) {
	if _, err := DecryptCredentials("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := DecryptCredentials(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}
}

func TestValidateMediaType(t *testing.T) {
	for _, mt := range []string{"image/jpeg", "image/png", "image/gif", "video/mp4", "video/webm"} {
		if err := ValidateMediaType(mt); err != nil {
			t.Errorf("ValidateMediaType(%q) = %v, want nil", mt, err)
		}
	}
	for _, mt := range []string{"image/bmp", "application/pdf", "text/html", ""} {
		if err := ValidateMediaType(mt); err == nil {
			t.Errorf("ValidateMediaType(%q) = nil, want error", mt)
		}
	}
}

func TestIsVideoType(t *testing.T) {
	if !IsVideoType("video/mp4") || !IsVideoType("video/webm") {
		t.Fatal("video types should be recognized")
	}
	if IsVideoType("image/jpeg") {
		t.Fatal("image type should not be a video")
	}
}

func TestDecodeMediaBase64(t *testing.T) {
	raw := []byte("hello media")
	encoded := base64.StdEncoding.EncodeToString(raw)

	decoded, err := DecodeMediaBase64(encoded)
	if err != nil {
		t.Fatalf("plain base64: %v", err)
	}
	if string(decoded) != "hello media" {
		t.Fatalf("decoded = %q", decoded)
	}

	decoded, err = DecodeMediaBase64("data:image/png;base64," + encoded)
	if err != nil {
		t.Fatalf("data URI: %v", err)
	}
	if string(decoded) != "hello media" {
		t.Fatalf("decoded with prefix = %q", decoded)
	}

	if _, err := DecodeMediaBase64("%%%not-base64%%%"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestNormalizeImageBase64PassesThroughGIF(t *testing.T) {
	raw := []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}
	encoded := base64.StdEncoding.EncodeToString(raw)

	got, err := NormalizeImageBase64(encoded, "image/gif")
	if err != nil {
		t.Fatalf("NormalizeImageBase64: %v", err)
	}
	if got != encoded {
		t.Fatal("GIF attachments should pass through untouched")
	}
}
