// models/auth.go

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account holds a user's credentials in the accounts collection. The public
// profile lives in the realtime tree store keyed by UserID; the account only
// carries what the auth layer needs.
type Account struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"` // tree-store profile key
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"` // bcrypt hash
	GoogleID  string             `json:"googleId,omitempty" bson:"googleId,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type SignupRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Name           string `json:"name" validate:"required"`
	ProfilePicture string `json:"profilePicture,omitempty"` // base64 image
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

type GoogleAuthRequest struct {
	IDToken string `json:"idToken" validate:"required"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// LoginResponse carries the session token and the resolved profile.
type LoginResponse struct {
	Token           string `json:"token"`
	RememberMeToken string `json:"rememberMeToken,omitempty"`
	User            *User  `json:"user"`
}
