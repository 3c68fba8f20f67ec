package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/texty-app/texty_backend/config"
	"github.com/texty-app/texty_backend/controllers"
	"github.com/texty-app/texty_backend/middleware"
	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/repositories"
	"github.com/texty-app/texty_backend/routes"
	"github.com/texty-app/texty_backend/services"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
	"github.com/texty-app/texty_backend/utils"
	"github.com/texty-app/texty_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Backing stores. STORE_DRIVER=memory runs everything in-process for
	// local development without Firebase credentials.
	var (
		postStore   stores.PostStore
		userStore   stores.UserStore
		notifStore  stores.NotificationStore
		repostStore stores.RepostStore
	)
	if os.Getenv("STORE_DRIVER") == "memory" {
		log.Println("Using in-memory stores")
		postStore = stores.NewMemoryPostStore()
		memUsers := stores.NewMemoryUserStore()
		userStore = memUsers
		notifStore = memUsers
		repostStore = stores.NewMemoryRepostStore()
	} else {
		config.InitFirebase()

		ctx := context.Background()
		fsClient, err := config.FirestoreClient(ctx)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		rtdbClient, err := config.RTDBClient(ctx)
		if err != nil {
			log.Fatalf("Failed to create Realtime Database client: %v", err)
		}

		postStore = stores.NewFirestorePostStore(fsClient)
		rtdb := stores.NewRTDBStore(rtdbClient)
		userStore = rtdb
		notifStore = rtdb
		repostStore = stores.NewRTDBRepostStore(rtdbClient)
	}

	// Connect to Redis (OTP and remember-me)
	redisClient := config.ConnectRedis()

	// Connect to the accounts database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Core services
	sessions := session.NewManager(userStore)
	postRepo := repositories.NewPostRepository(postStore, repostStore)
	feed := services.NewFeedAssembler(postStore)
	graph := services.NewSocialGraphService(userStore, notifStore)
	notifications := services.NewNotificationService(notifStore)

	// Fan new-follower notifications out to connected and mobile clients
	graph.OnFollow = func(from, target models.User, n models.Notification) {
		if err := wsHub.NotifyUser(target.UserID, n); err != nil {
			log.Printf("Failed to push follow notification to %s: %v", target.UserID, err)
		}
		if target.FCMToken != "" {
			go func() {
				if err := utils.SendFollowPush(target, from); err != nil {
					log.Printf("Failed to send follow push to %s: %v", target.UserID, err)
				}
			}()
		}
	}

	// Create a new Echo instance
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}

	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Texty Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status": "healthy",
		})
	})

	// Controllers
	ctrl := routes.Controllers{
		Auth:          controllers.NewAuthController(client, redisClient, userStore, sessions),
		Password:      controllers.NewPasswordController(client, redisClient),
		User:          controllers.NewUserController(userStore, graph, sessions),
		Post:          controllers.NewPostController(postRepo, sessions, wsHub),
		Feed:          controllers.NewFeedController(feed, userStore, sessions),
		Notifications: controllers.NewNotificationController(notifications, wsHub),
	}
	routes.SetupRoutes(e, ctrl)

	// Prune revoked tokens in the background
	go middleware.CleanupBlacklist()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
