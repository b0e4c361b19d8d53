package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"taskflow-backend/firebase"
	"taskflow-backend/utilities"
)

var db *sql.DB

// InitDB hands the shared connection pool to the handlers.
func InitDB(database *sql.DB) {
	db = database
}

type contextKey string

const userUIDKey contextKey = "userUID"

// AuthMiddleware verifies the Bearer ID token and puts the owner UID
// into the request context. No store operation runs for an
// unauthenticated caller.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authorization header missing"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		verifiedToken, err := firebase.VerifyUserToken(r.Context(), tokenString)
		if err != nil {
			utilities.LogError(err, "Token verification failed")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), userUIDKey, verifiedToken.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// userUID returns the authenticated owner identity set by
// AuthMiddleware.
func userUID(r *http.Request) (string, bool) {
	uid, ok := r.Context().Value(userUIDKey).(string)
	return uid, ok && uid != ""
}
