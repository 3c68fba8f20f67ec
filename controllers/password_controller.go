package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/texty-app/texty_backend/config"
	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/utils"
)

// PasswordController handles the OTP-based password reset flow
type PasswordController struct {
	DB     *mongo.Client
	Redis  *redis.Client
	logger *log.Logger
}

// NewPasswordController creates a new password controller
func NewPasswordController(db *mongo.Client, redisClient *redis.Client) *PasswordController {
	return &PasswordController{
		DB:     db,
		Redis:  redisClient,
		logger: log.New(os.Stdout, "[PASSWORD] ", log.LstdFlags),
	}
}

// ForgotPassword generates an OTP and emails it to the account holder.
// The response never reveals whether the email exists.
func (pc *PasswordController) ForgotPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	if pc.Redis == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Password reset is temporarily unavailable",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	neutral := models.Response{
		Status:  http.StatusOK,
		Message: "If an account exists for this email, a reset code has been sent",
	}

	var account models.Account
	err := config.GetCollection(pc.DB, "accounts").FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			pc.logger.Printf("ForgotPassword: database error for %s: %v", email, err)
		}
		return c.JSON(http.StatusOK, neutral)
	}

	if err := utils.ValidateOTPAttempts(email, pc.Redis); err != nil {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many reset attempts. Please try again later",
		})
	}

	otp, err := utils.GenerateSecureOTP()
	if err != nil {
		pc.logger.Printf("ForgotPassword: failed to generate OTP: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process reset request",
		})
	}

	if err := utils.StoreOTP(pc.Redis, email, otp); err != nil {
		pc.logger.Printf("ForgotPassword: failed to store OTP for %s: %v", email, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process reset request",
		})
	}

	if err := utils.SendPasswordResetEmail(email, otp); err != nil {
		pc.logger.Printf("ForgotPassword: failed to email OTP to %s: %v", email, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send reset email",
		})
	}

	pc.logger.Printf("ForgotPassword: reset code sent for %s", email)
	return c.JSON(http.StatusOK, neutral)
}

// ResetPassword verifies the OTP and replaces the account password
func (pc *PasswordController) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	if pc.Redis == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Password reset is temporarily unavailable",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := utils.VerifyOTP(pc.Redis, email, req.OTP); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired reset code",
		})
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		pc.logger.Printf("ResetPassword: failed to hash password: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reset password",
		})
	}

	update := bson.M{"$set": bson.M{"password": hashedPassword, "updatedAt": time.Now()}}
	result, err := config.GetCollection(pc.DB, "accounts").UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		pc.logger.Printf("ResetPassword: failed to update password for %s: %v", email, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reset password",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Account not found",
		})
	}

	pc.logger.Printf("ResetPassword: password reset for %s", email)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset successfully",
	})
}
