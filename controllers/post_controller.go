package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/repositories"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/utils"
	"github.com/texty-app/texty_backend/websocket"
)

// PostController serves post CRUD, engagement and repost endpoints
type PostController struct {
	Posts    *repositories.PostRepository
	Sessions *session.Manager
	Hub      *websocket.Hub
	// Thumbnailer extracts a still frame from a video attachment
	Thumbnailer func(data, mediaType string) (string, error)
	logger      *log.Logger
}

// NewPostController creates a new post controller
func NewPostController(posts *repositories.PostRepository, sessions *session.Manager, hub *websocket.Hub) *PostController {
	return &PostController{
		Posts:       posts,
		Sessions:    sessions,
		Hub:         hub,
		Thumbnailer: utils.GenerateVideoThumbnail,
		logger:      log.New(os.Stdout, "[POST] ", log.LstdFlags),
	}
}

func (pc *PostController) authedSession(c echo.Context) (*session.Session, string, error) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return nil, "", err
	}
	return sessionFor(pc.Sessions, userID), userID, nil
}

// CreatePost publishes a new post authored by the caller
func (pc *PostController) CreatePost(c echo.Context) error {
	sess, _, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.PostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	// Normalize image attachments; videos are stored as sent, with a
	// first-frame thumbnail appended alongside
	var thumbnails []string
	for i, media := range req.MediaBase64 {
		mediaType := "image/jpeg"
		if i < len(req.MediaTypes) {
			mediaType = req.MediaTypes[i]
		}
		if err := utils.ValidateMediaType(mediaType); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		if utils.IsVideoType(mediaType) {
			thumbnail, err := pc.Thumbnailer(media, mediaType)
			if err != nil {
				pc.logger.Printf("CreatePost: video thumbnail failed: %v", err)
				continue
			}
			thumbnails = append(thumbnails, thumbnail)
			continue
		}
		normalized, err := utils.NormalizeImageBase64(media, mediaType)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid media attachment: " + err.Error(),
			})
		}
		req.MediaBase64[i] = normalized
	}
	for _, thumbnail := range thumbnails {
		req.MediaBase64 = append(req.MediaBase64, thumbnail)
		req.MediaTypes = append(req.MediaTypes, "image/jpeg")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	post, err := pc.Posts.Create(ctx, sess, req)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, models.PostResponse{
		Status:  http.StatusCreated,
		Message: "Post created successfully",
		Data:    &post,
	})
}

// GetPost returns a single post by ID
func (pc *PostController) GetPost(c echo.Context) error {
	sess, _, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	post, err := pc.Posts.Get(ctx, sess, c.Param("id"))
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostResponse{
		Status:  http.StatusOK,
		Message: "Post retrieved successfully",
		Data:    &post,
	})
}

// EditPost rewrites a post's content, keeping its edit history
func (pc *PostController) EditPost(c echo.Context) error {
	sess, userID, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	postID := c.Param("id")

	var req models.EditPostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// Only the author may edit
	existing, err := pc.Posts.Get(ctx, sess, postID)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}
	if existing.UserID != userID {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the author can edit this post",
		})
	}

	post, err := pc.Posts.Edit(ctx, sess, postID, req.Content, req.MediaBase64)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostResponse{
		Status:  http.StatusOK,
		Message: "Post updated successfully",
		Data:    &post,
	})
}

// DeletePost removes a post. Deleting an already-deleted post succeeds.
func (pc *PostController) DeletePost(c echo.Context) error {
	sess, userID, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	postID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	existing, err := pc.Posts.Get(ctx, sess, postID)
	if err == nil && existing.UserID != userID {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only the author can delete this post",
		})
	}

	if err := pc.Posts.Delete(ctx, sess, postID); err != nil {
		status := statusForError(err)
		return c.JSON(status, models.Response{
			Status:  status,
			Message: err.Error(),
		})
	}

	if pc.Hub != nil {
		pc.Hub.NotifyPostDeleted(userID, postID)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Post deleted successfully",
	})
}

// ToggleLike likes the post, or unlikes it when already liked
func (pc *PostController) ToggleLike(c echo.Context) error {
	sess, userID, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	post, err := pc.Posts.ToggleLike(ctx, sess, c.Param("id"), userID)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostResponse{
		Status:  http.StatusOK,
		Message: "Like toggled successfully",
		Data:    &post,
	})
}

// RecordView counts a view once per viewer
func (pc *PostController) RecordView(c echo.Context) error {
	sess, userID, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	post, err := pc.Posts.IncrementView(ctx, sess, c.Param("id"), userID)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostResponse{
		Status:  http.StatusOK,
		Message: "View recorded",
		Data:    &post,
	})
}

// AddComment attaches a comment, or a reply when parentCommentId is set
func (pc *PostController) AddComment(c echo.Context) error {
	sess, userID, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	postID := c.Param("id")

	var req models.CommentRequest
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

	var post models.Post
	if req.ParentCommentID != "" {
		post, err = pc.Posts.AddReply(ctx, sess, postID, userID, req.ParentCommentID, req.Content)
	} else {
		post, err = pc.Posts.AddComment(ctx, sess, postID, userID, req.Content)
	}
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, models.PostResponse{
		Status:  http.StatusCreated,
		Message: "Comment added successfully",
		Data:    &post,
	})
}

// DeleteComment removes the caller's own comment from a post
func (pc *PostController) DeleteComment(c echo.Context) error {
	sess, userID, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	post, err := pc.Posts.DeleteComment(ctx, sess, c.Param("id"), c.Param("commentId"), userID)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostResponse{
		Status:  http.StatusOK,
		Message: "Comment deleted",
		Data:    &post,
	})
}

// ToggleCommentLike likes or unlikes a top-level comment
func (pc *PostController) ToggleCommentLike(c echo.Context) error {
	sess, userID, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	post, err := pc.Posts.ToggleCommentLike(ctx, sess, c.Param("id"), c.Param("commentId"), userID)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.PostResponse{
		Status:  http.StatusOK,
		Message: "Comment like toggled successfully",
		Data:    &post,
	})
}

// Repost reshares a post, either as a plain retweet or a quote post
func (pc *PostController) Repost(c echo.Context) error {
	sess, userID, err := pc.authedSession(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	postID := c.Param("id")

	var req models.RepostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if req.RepostType == "" {
		req.RepostType = models.RepostTypeRetweet
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	post, err := pc.Posts.Repost(ctx, sess, postID, userID, req.RepostType, req.AdditionalComment)
	if err != nil {
		status := statusForError(err)
		return c.JSON(status, models.PostResponse{
			Status:  status,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, models.PostResponse{
		Status:  http.StatusCreated,
		Message: "Reposted successfully",
		Data:    &post,
	})
}

// IsReposted reports whether the caller has already retweeted the post
func (pc *PostController) IsReposted(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	reposted := pc.Posts.IsRepostedBy(ctx, c.Param("id"), userID)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Repost status retrieved",
		Data:    map[string]bool{"reposted": reposted},
	})
}
