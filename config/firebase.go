package config

import (
	"context"
	"encoding/base64"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var FirebaseApp *firebase.App

// InitFirebase initializes the Firebase Admin SDK used for the posts
// document store (Firestore), the social-graph tree store (Realtime
// Database) and push delivery (FCM).
func InitFirebase() {
	ctx := context.Background()

	cfg := &firebase.Config{
		ProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		DatabaseURL: os.Getenv("FIREBASE_DATABASE_URL"),
	}

	// Check for base64 encoded credentials first
	if base64Creds := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); base64Creds != "" {
		log.Printf("Using Firebase credentials from base64 environment variable")
		decoded, err := base64.StdEncoding.DecodeString(base64Creds)
		if err != nil {
			log.Fatalf("Error decoding base64 credentials: %v", err)
		}

		app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsJSON(decoded))
		if err != nil {
			log.Fatalf("error initializing firebase app: %v\n", err)
		}
		FirebaseApp = app
		return
	}

	// Fallback to file-based credentials
	credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credFile == "" {
		log.Fatalf("Firebase credentials not found. Set GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_CREDENTIALS_BASE64")
	}

	log.Printf("Using Firebase credentials file: %s", credFile)
	app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsFile(credFile))
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
	}
	FirebaseApp = app
}

// FirestoreClient returns the document-store client for posts.
func FirestoreClient(ctx context.Context) (*firestore.Client, error) {
	return FirebaseApp.Firestore(ctx)
}

// RTDBClient returns the realtime tree-store client for users,
// notifications and reposts.
func RTDBClient(ctx context.Context) (*db.Client, error) {
	return FirebaseApp.Database(ctx)
}

// MessagingClient returns the FCM client for best-effort push delivery.
func MessagingClient(ctx context.Context) (*messaging.Client, error) {
	return FirebaseApp.Messaging(ctx)
}
