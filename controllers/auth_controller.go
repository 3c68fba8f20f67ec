package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/texty-app/texty_backend/config"
	"github.com/texty-app/texty_backend/middleware"
	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/services"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
	"github.com/texty-app/texty_backend/utils"
)

const rememberMeDuration = 30 * 24 * time.Hour

// AuthController contains authentication logic
type AuthController struct {
	DB       *mongo.Client
	Redis    *redis.Client
	Users    stores.UserStore
	Sessions *session.Manager
	Google   *services.GoogleAuthService
	logger   *log.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client, redisClient *redis.Client, users stores.UserStore, sessions *session.Manager) *AuthController {
	return &AuthController{
		DB:       db,
		Redis:    redisClient,
		Users:    users,
		Sessions: sessions,
		Google:   services.NewGoogleAuthService(),
		logger:   log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
	}
}

func (ac *AuthController) accounts() *mongo.Collection {
	return config.GetCollection(ac.DB, "accounts")
}

// Signup registers a new account and bootstraps the public profile
func (ac *AuthController) Signup(c echo.Context) error {
	var req models.SignupRequest
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Reject duplicate accounts up front; the unique index is the backstop
	count, err := ac.accounts().CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		ac.logger.Printf("Signup: failed to check existing account: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "An account with this email already exists",
		})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		ac.logger.Printf("Signup: failed to hash password: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	userID := uuid.NewString()

	profilePicture := ""
	if req.ProfilePicture != "" {
		normalized, err := utils.NormalizeImageBase64(req.ProfilePicture, "image/jpeg")
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid profile picture: " + err.Error(),
			})
		}
		profilePicture = normalized
	}

	user := models.NewUser(userID, email, req.Name, utils.GenerateUsername(req.Name), profilePicture)
	if err := ac.Users.SaveUser(ctx, user); err != nil {
		ac.logger.Printf("Signup: failed to save profile for %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create profile",
		})
	}

	now := time.Now()
	account := models.Account{
		UserID:    userID,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := ac.accounts().InsertOne(ctx, account); err != nil {
		ac.logger.Printf("Signup: failed to insert account for %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	token, err := middleware.GenerateJWT(userID, email)
	if err != nil {
		ac.logger.Printf("Signup: failed to generate token for %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	sess := ac.Sessions.Init(userID)
	sess.CurrentUser.Set(&user)

	ac.logger.Printf("Signup: created account %s (%s)", userID, email)
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created successfully",
		Data: models.LoginResponse{
			Token: token,
			User:  &user,
		},
	})
}

// Login authenticates an account and opens a session
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var account models.Account
	err := ac.accounts().FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid email or password",
			})
		}
		ac.logger.Printf("Login: database error for %s: %v", email, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Login failed",
		})
	}

	if !utils.CheckPassword(account.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	token, err := middleware.GenerateJWT(account.UserID, account.Email)
	if err != nil {
		ac.logger.Printf("Login: failed to generate token for %s: %v", account.UserID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	var rememberMeToken string
	if req.RememberMe && ac.Redis != nil {
		rememberMeToken, err = utils.GenerateRememberMeToken()
		if err == nil {
			err = utils.StoreRememberedCredentials(ac.Redis, rememberMeToken, utils.RememberedCredentials{
				Email:      account.Email,
				UserID:     account.UserID,
				ExpiresAt:  time.Now().Add(rememberMeDuration),
				DeviceInfo: c.Request().UserAgent(),
			}, rememberMeDuration)
		}
		if err != nil {
			// Remember-me is best effort; the login itself still succeeds
			ac.logger.Printf("Login: failed to store remember-me token for %s: %v", account.UserID, err)
			rememberMeToken = ""
		}
	}

	sess := ac.Sessions.Init(account.UserID)

	user, ok, err := ac.Users.GetUser(ctx, account.UserID)
	if err != nil || !ok {
		ac.logger.Printf("Login: profile missing for %s (ok=%v err=%v)", account.UserID, ok, err)
		user = models.User{UserID: account.UserID, Email: account.Email}
	}
	sess.CurrentUser.Set(&user)
	sess.Cache.Put(user)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token:           token,
			RememberMeToken: rememberMeToken,
			User:            &user,
		},
	})
}

// LoginWithRememberMe exchanges a remember-me token for a fresh session
func (ac *AuthController) LoginWithRememberMe(c echo.Context) error {
	var req struct {
		RememberMeToken string `json:"rememberMeToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil || req.RememberMeToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Remember me token is required",
		})
	}

	credentials, err := utils.RetrieveRememberedCredentials(ac.Redis, req.RememberMeToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired remember me token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	token, err := middleware.GenerateJWT(credentials.UserID, credentials.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	sess := ac.Sessions.Init(credentials.UserID)

	user, ok, err := ac.Users.GetUser(ctx, credentials.UserID)
	if err != nil || !ok {
		user = models.User{UserID: credentials.UserID, Email: credentials.Email}
	}
	sess.CurrentUser.Set(&user)
	sess.Cache.Put(user)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token:           token,
			RememberMeToken: req.RememberMeToken,
			User:            &user,
		},
	})
}

// Logout revokes the current token and tears down the session
func (ac *AuthController) Logout(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		expiry := time.Now().Add(30 * 24 * time.Hour)
		if result, err := utils.ValidateToken(authHeader[7:]); err == nil && result.ExpiresAt != nil {
			expiry = *result.ExpiresAt
		}
		middleware.BlacklistToken(authHeader[7:], expiry)
	}

	// Drop the remember-me token too if the client sent one
	var req struct {
		RememberMeToken string `json:"rememberMeToken,omitempty"`
	}
	if err := c.Bind(&req); err == nil && req.RememberMeToken != "" && ac.Redis != nil {
		if err := utils.RemoveRememberedCredentials(ac.Redis, req.RememberMeToken); err != nil {
			ac.logger.Printf("Logout: failed to remove remember-me token: %v", err)
		}
	}

	ac.Sessions.Teardown(userID)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// GoogleAuth signs a user in with a verified Google ID token, creating the
// account and profile on first sign-in.
func (ac *AuthController) GoogleAuth(c echo.Context) error {
	var req models.GoogleAuthRequest
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	identity, err := ac.Google.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		ac.logger.Printf("Google auth: token verification failed: %v", err)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Google authentication failed",
		})
	}

	email := strings.ToLower(identity.Email)

	var account models.Account
	err = ac.accounts().FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			ac.logger.Printf("Google auth: database error for %s: %v", email, err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Authentication failed",
			})
		}

		// First sign-in: create the account and bootstrap the profile
		userID := uuid.NewString()
		name := identity.Name
		if name == "" {
			name = strings.Split(email, "@")[0]
		}

		user := models.NewUser(userID, email, name, utils.GenerateUsername(name), "")
		if err := ac.Users.SaveUser(ctx, user); err != nil {
			ac.logger.Printf("Google auth: failed to save profile for %s: %v", userID, err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create profile",
			})
		}

		now := time.Now()
		account = models.Account{
			UserID:    userID,
			Email:     email,
			GoogleID:  identity.GoogleID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := ac.accounts().InsertOne(ctx, account); err != nil {
			ac.logger.Printf("Google auth: failed to insert account for %s: %v", userID, err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create account",
			})
		}
	} else if account.GoogleID != identity.GoogleID {
		update := bson.M{"$set": bson.M{"googleId": identity.GoogleID, "updatedAt": time.Now()}}
		if _, err := ac.accounts().UpdateOne(ctx, bson.M{"email": email}, update); err != nil {
			ac.logger.Printf("Google auth: failed to link Google ID for %s: %v", account.UserID, err)
		}
	}

	token, err := middleware.GenerateJWT(account.UserID, account.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	sess := ac.Sessions.Init(account.UserID)

	user, ok, err := ac.Users.GetUser(ctx, account.UserID)
	if err != nil || !ok {
		user = models.User{UserID: account.UserID, Email: account.Email}
	}
	sess.CurrentUser.Set(&user)
	sess.Cache.Put(user)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token: token,
			User:  &user,
		},
	})
}

// ValidateSession lets clients check whether their stored token is still usable
func (ac *AuthController) ValidateSession(c echo.Context) error {
	result, err := utils.ValidateTokenFromHeader(c.Request().Header.Get("Authorization"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to validate token",
		})
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnauthorized
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: result.Message,
		Data:    result,
	})
}

// UpdateFCMToken stores the device's push token on the profile
func (ac *AuthController) UpdateFCMToken(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req struct {
		FCMToken string `json:"fcmToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil || req.FCMToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "FCM token is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, ok, err := ac.Users.GetUser(ctx, userID)
	if err != nil || !ok {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	user.FCMToken = req.FCMToken
	if err := ac.Users.SaveUser(ctx, user); err != nil {
		ac.logger.Printf("UpdateFCMToken: failed to save profile for %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update FCM token",
		})
	}

	if sess := ac.Sessions.Get(userID); sess != nil {
		sess.Cache.Put(user)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "FCM token updated",
	})
}
