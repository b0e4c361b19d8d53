// Package firebase wraps the Firebase Admin SDK used to verify the ID
// tokens issued by the client-side login flow. The backend only ever
// consumes the verified UID.
package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"taskflow-backend/utilities"
)

var authClient *auth.Client

// Init builds the Firebase app from FIREBASE_CREDENTIALS_PATH and
// caches its auth client.
func Init() error {
	credentialsPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credentialsPath == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is not set")
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Auth(context.Background())
	if err != nil {
		return fmt.Errorf("failed to obtain Firebase auth client: %w", err)
	}

	authClient = client
	utilities.LogInfo("Firebase auth client initialized")
	return nil
}

// VerifyUserToken validates an ID token and returns the verified
// claims.
func VerifyUserToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if authClient == nil {
		return nil, fmt.Errorf("firebase auth client is not initialized")
	}
	token, err := authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	return token, nil
}
