// utils/mailer.go
package utils

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

// SendPasswordResetEmail emails a password-reset OTP to the given address
func SendPasswordResetEmail(to, otp string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	subject := "Your password reset code"
	body := fmt.Sprintf("Your password reset code is: %s\n\nIt expires in 10 minutes. If you did not request a reset, you can ignore this email.", otp)

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
