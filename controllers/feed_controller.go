package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/services"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
	"github.com/texty-app/texty_backend/utils"
)

const defaultPageSize = 20

// FeedController serves the global, following and per-user timelines
type FeedController struct {
	Feed     *services.FeedAssembler
	Users    stores.UserStore
	Sessions *session.Manager
	logger   *log.Logger
}

// NewFeedController creates a new feed controller
func NewFeedController(feed *services.FeedAssembler, users stores.UserStore, sessions *session.Manager) *FeedController {
	return &FeedController{
		Feed:     feed,
		Users:    users,
		Sessions: sessions,
		logger:   log.New(os.Stdout, "[FEED] ", log.LstdFlags),
	}
}

func feedParams(c echo.Context) (pageSize int, reset bool) {
	pageSize = defaultPageSize
	if raw := c.QueryParam("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	reset = c.QueryParam("reset") == "true"
	return pageSize, reset
}

// GlobalFeed returns the public timeline. The default load re-queries the
// newest page and merges it into what the session holds; older=true pages
// backwards from the oldest held post instead.
func (fc *FeedController) GlobalFeed(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	pageSize, reset := feedParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	sess := sessionFor(fc.Sessions, userID)
	var posts []models.Post
	if c.QueryParam("older") == "true" {
		posts, err = fc.Feed.LoadOlderGlobalPosts(ctx, sess, pageSize)
	} else {
		posts, err = fc.Feed.LoadGlobalFeed(ctx, sess, pageSize, reset)
	}
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostsResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostsResponse{
		Status:  http.StatusOK,
		Message: "Feed retrieved successfully",
		Data:    posts,
	})
}

// FollowingFeed returns posts from the accounts the caller follows. A
// partially assembled feed is returned with 206 when some author batches
// failed to load.
func (fc *FeedController) FollowingFeed(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	pageSize, reset := feedParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	sess := sessionFor(fc.Sessions, userID)

	current, ok, err := fc.Users.GetUser(ctx, userID)
	if err != nil {
		fc.logger.Printf("FollowingFeed: failed to load profile for %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, models.PostsResponse{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load following list",
		})
	}
	var followedIDs []string
	if ok {
		followedIDs = current.Following
	}

	posts, err := fc.Feed.LoadFollowingFeed(ctx, sess, pageSize, reset, followedIDs)
	if err != nil {
		if models.IsPartialBatch(err) {
			return c.JSON(http.StatusPartialContent, models.PostsResponse{
				Status:  http.StatusPartialContent,
				Message: err.Error(),
				Data:    posts,
			})
		}
		status := statusForError(err)
		return c.JSON(status, models.PostsResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostsResponse{
		Status:  http.StatusOK,
		Message: "Feed retrieved successfully",
		Data:    posts,
	})
}

// UserPosts returns the given user's own timeline
func (fc *FeedController) UserPosts(c echo.Context) error {
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

	pageSize, _ := feedParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	sess := sessionFor(fc.Sessions, userID)
	posts, err := fc.Feed.LoadUserPosts(ctx, sess, targetID, pageSize)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostsResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostsResponse{
		Status:  http.StatusOK,
		Message: "Posts retrieved successfully",
		Data:    posts,
	})
}
