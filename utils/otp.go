// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const otpTTL = 10 * time.Minute

func GenerateSecureOTP() (string, error) {
	// Generate 6 random bytes
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	// Convert to base32 string
	return base32.StdEncoding.EncodeToString(bytes)[:6], nil
}

// StoreOTP saves a password-reset OTP for the given email with a short expiry
func StoreOTP(redisClient *redis.Client, email, otp string) error {
	if redisClient == nil {
		return errors.New("redis client not available")
	}
	return redisClient.Set(context.Background(), "otp:"+email, otp, otpTTL).Err()
}

// VerifyOTP checks the submitted OTP against the stored one and consumes it on success
func VerifyOTP(redisClient *redis.Client, email, otp string) error {
	if redisClient == nil {
		return errors.New("redis client not available")
	}

	stored, err := redisClient.Get(context.Background(), "otp:"+email).Result()
	if err != nil {
		if err == redis.Nil {
			return errors.New("OTP not found or expired")
		}
		return err
	}

	if stored != otp {
		return errors.New("invalid OTP")
	}

	redisClient.Del(context.Background(), "otp:"+email)
	return nil
}

func ValidateOTPAttempts(email string, redisClient *redis.Client) error {
	key := "otp_attempts:" + email
	attempts, err := redisClient.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}

	// Set expiry if first attempt
	if attempts == 1 {
		redisClient.Expire(context.Background(), key, 1*time.Hour)
	}

	// Limit to 5 attempts per hour
	if attempts > 5 {
		return errors.New("too many OTP attempts")
	}

	return nil
}
