package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/services"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
	"github.com/texty-app/texty_backend/utils"
)

// UserController serves profiles and the follow graph
type UserController struct {
	Users    stores.UserStore
	Graph    *services.SocialGraphService
	Sessions *session.Manager
	logger   *log.Logger
}

// NewUserController creates a new user controller
func NewUserController(users stores.UserStore, graph *services.SocialGraphService, sessions *session.Manager) *UserController {
	return &UserController{
		Users:    users,
		Graph:    graph,
		Sessions: sessions,
		logger:   log.New(os.Stdout, "[USER] ", log.LstdFlags),
	}
}

// GetCurrentUser returns the caller's own profile
func (uc *UserController) GetCurrentUser(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	return uc.getUser(c, userID)
}

// GetUser returns a profile by ID, served from the session cache when warm
func (uc *UserController) GetUser(c echo.Context) error {
	targetID := c.Param("id")
	if targetID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "User ID is required",
		})
	}
	return uc.getUser(c, targetID)
}

func (uc *UserController) getUser(c echo.Context, targetID string) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sess := sessionFor(uc.Sessions, userID)
	user, err := sess.Cache.Resolve(ctx, targetID)
	if err != nil {
		if models.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, models.UserResponse{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		uc.logger.Printf("GetUser: failed to resolve %s: %v", targetID, err)
		return c.JSON(http.StatusInternalServerError, models.UserResponse{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load user",
		})
	}

	return c.JSON(http.StatusOK, models.UserResponse{
		Status:  http.StatusOK,
		Message: "User retrieved successfully",
		Data:    &user,
	})
}

// UpdateProfile patches the caller's profile fields
func (uc *UserController) UpdateProfile(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, ok, err := uc.Users.GetUser(ctx, userID)
	if err != nil || !ok {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Location != "" {
		user.Location = req.Location
	}
	if req.ProfilePicture != "" {
		normalized, err := utils.NormalizeImageBase64(req.ProfilePicture, "image/jpeg")
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid profile picture: " + err.Error(),
			})
		}
		user.ProfilePicture = normalized
	}
	if req.IsPrivate != nil {
		user.IsPrivate = *req.IsPrivate
	}

	if err := uc.Users.SaveUser(ctx, user); err != nil {
		uc.logger.Printf("UpdateProfile: failed to save %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update profile",
		})
	}

	sess := sessionFor(uc.Sessions, userID)
	sess.Cache.Put(user)
	sess.CurrentUser.Set(&user)

	return c.JSON(http.StatusOK, models.UserResponse{
		Status:  http.StatusOK,
		Message: "Profile updated successfully",
		Data:    &user,
	})
}

// SearchUsers returns every profile matching the q query parameter by
// name or username, excluding the caller. An empty query lists everyone.
func (uc *UserController) SearchUsers(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	query := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	users, err := uc.Users.ListUsers(ctx)
	if err != nil {
		uc.logger.Printf("SearchUsers: failed to list users: %v", err)
		return c.JSON(http.StatusInternalServerError, models.UsersResponse{
			Status:  http.StatusInternalServerError,
			Message: "Failed to search users",
		})
	}

	matched := make([]models.User, 0, len(users))
	for _, user := range users {
		if user.UserID == userID {
			continue
		}
		if query == "" ||
			strings.Contains(strings.ToLower(user.Name), query) ||
			strings.Contains(strings.ToLower(user.Username), query) {
			matched = append(matched, user)
		}
	}

	return c.JSON(http.StatusOK, models.UsersResponse{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data:    matched,
	})
}

// Follow adds the target to the caller's following list
func (uc *UserController) Follow(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	targetID := c.Param("id")
	if targetID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "User ID is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sess := sessionFor(uc.Sessions, userID)
	if err := uc.Graph.Follow(ctx, sess, targetID); err != nil {
		status := statusForError(err)
		return c.JSON(status, models.Response{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Followed successfully",
	})
}

// Unfollow removes the target from the caller's following list
func (uc *UserController) Unfollow(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	targetID := c.Param("id")
	if targetID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "User ID is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sess := sessionFor(uc.Sessions, userID)
	if err := uc.Graph.Unfollow(ctx, sess, targetID); err != nil {
		status := statusForError(err)
		return c.JSON(status, models.Response{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Unfollowed successfully",
	})
}

// Followers lists the resolved profiles following the given user
func (uc *UserController) Followers(c echo.Context) error {
	return uc.listGraph(c, uc.Graph.ListFollowers, "Followers retrieved successfully")
}

// Following lists the resolved profiles the given user follows
func (uc *UserController) Following(c echo.Context) error {
	return uc.listGraph(c, uc.Graph.ListFollowing, "Following retrieved successfully")
}

func (uc *UserController) listGraph(c echo.Context, list func(context.Context, *session.Session, string) ([]models.User, error), message string) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	targetID := c.Param("id")
	if targetID == "" {
		targetID = userID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sess := sessionFor(uc.Sessions, userID)
	users, err := list(ctx, sess, targetID)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.UsersResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.UsersResponse{
		Status:  http.StatusOK,
		Message: message,
		Data:    users,
	})
}

// ProfileQRCode returns a QR code linking to the user's public profile
func (uc *UserController) ProfileQRCode(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, ok, err := uc.Users.GetUser(ctx, userID)
	if err != nil || !ok {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	qrCode, err := utils.GenerateProfileQRCode(user.Username)
	if err != nil {
		uc.logger.Printf("ProfileQRCode: failed to generate QR for %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "QR code generated successfully",
		Data:    map[string]string{"qrCode": qrCode},
	})
}
