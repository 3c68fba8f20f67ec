package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/texty-app/texty_backend/controllers"
	"github.com/texty-app/texty_backend/middleware"
)

// Controllers bundles everything the router needs
type Controllers struct {
	Auth          *controllers.AuthController
	Password      *controllers.PasswordController
	User          *controllers.UserController
	Post          *controllers.PostController
	Feed          *controllers.FeedController
	Notifications *controllers.NotificationController
}

// SetupRoutes registers all API endpoints
func SetupRoutes(e *echo.Echo, ctrl Controllers) {
	// Public auth routes
	auth := e.Group("/api/auth")
	auth.POST("/signup", ctrl.Auth.Signup)
	auth.POST("/login", ctrl.Auth.Login)
	auth.POST("/login/remember-me", ctrl.Auth.LoginWithRememberMe)
	auth.POST("/google", ctrl.Auth.GoogleAuth)
	auth.GET("/validate", ctrl.Auth.ValidateSession)
	auth.POST("/forgot-password", ctrl.Password.ForgotPassword)
	auth.POST("/reset-password", ctrl.Password.ResetPassword)

	// WebSocket endpoint; authentication happens via query token or an AUTH message
	e.GET("/ws", ctrl.Notifications.WebSocket)

	// Protected routes
	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	r.POST("/auth/logout", ctrl.Auth.Logout)
	r.PUT("/auth/fcm-token", ctrl.Auth.UpdateFCMToken)

	// Users and the follow graph
	r.GET("/users", ctrl.User.SearchUsers)
	r.GET("/users/me", ctrl.User.GetCurrentUser)
	r.PUT("/users/me", ctrl.User.UpdateProfile)
	r.GET("/users/me/qr", ctrl.User.ProfileQRCode)
	r.GET("/users/:id", ctrl.User.GetUser)
	r.POST("/users/:id/follow", ctrl.User.Follow)
	r.DELETE("/users/:id/follow", ctrl.User.Unfollow)
	r.GET("/users/:id/followers", ctrl.User.Followers)
	r.GET("/users/:id/following", ctrl.User.Following)

	// Posts
	r.POST("/posts", ctrl.Post.CreatePost)
	r.GET("/posts/:id", ctrl.Post.GetPost)
	r.PUT("/posts/:id", ctrl.Post.EditPost)
	r.DELETE("/posts/:id", ctrl.Post.DeletePost)
	r.POST("/posts/:id/like", ctrl.Post.ToggleLike)
	r.POST("/posts/:id/view", ctrl.Post.RecordView)
	r.POST("/posts/:id/comments", ctrl.Post.AddComment)
	r.DELETE("/posts/:id/comments/:commentId", ctrl.Post.DeleteComment)
	r.POST("/posts/:id/comments/:commentId/like", ctrl.Post.ToggleCommentLike)
	r.POST("/posts/:id/repost", ctrl.Post.Repost)
	r.GET("/posts/:id/reposted", ctrl.Post.IsReposted)

	// Feeds
	r.GET("/feed", ctrl.Feed.GlobalFeed)
	r.GET("/feed/following", ctrl.Feed.FollowingFeed)
	r.GET("/users/:id/posts", ctrl.Feed.UserPosts)

	// Notifications
	r.GET("/notifications", ctrl.Notifications.List)
	r.PUT("/notifications/:id/read", ctrl.Notifications.MarkRead)
}
