package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"taskflow-backend/handlers"
	"taskflow-backend/utilities"
)

func LoadRoutes() {
	r := mux.NewRouter()

	r.Use(handlers.LoggingMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// --- Task routes (protected) ---
	api.HandleFunc("/tasks", handlers.AuthMiddleware(handlers.ListTasksHandler)).Methods("GET")
	api.HandleFunc("/tasks", handlers.AuthMiddleware(handlers.CreateTaskHandler)).Methods("POST")
	api.HandleFunc("/tasks/stats", handlers.AuthMiddleware(handlers.TaskStatsHandler)).Methods("GET")
	api.HandleFunc("/tasks/{id}", handlers.AuthMiddleware(handlers.GetTaskHandler)).Methods("GET")
	api.HandleFunc("/tasks/{id}", handlers.AuthMiddleware(handlers.UpdateTaskHandler)).Methods("PUT")
	api.HandleFunc("/tasks/{id}", handlers.AuthMiddleware(handlers.DeleteTaskHandler)).Methods("DELETE")

	// --- Project routes (protected) ---
	api.HandleFunc("/projects", handlers.AuthMiddleware(handlers.ListProjectsHandler)).Methods("GET")
	api.HandleFunc("/projects", handlers.AuthMiddleware(handlers.CreateProjectHandler)).Methods("POST")
	api.HandleFunc("/projects/{id}", handlers.AuthMiddleware(handlers.GetProjectHandler)).Methods("GET")
	api.HandleFunc("/projects/{id}", handlers.AuthMiddleware(handlers.UpdateProjectHandler)).Methods("PUT")
	api.HandleFunc("/projects/{id}", handlers.AuthMiddleware(handlers.DeleteProjectHandler)).Methods("DELETE")

	// --- Analytics routes (protected) ---
	api.HandleFunc("/analytics/dashboard", handlers.AuthMiddleware(handlers.DashboardHandler)).Methods("GET")
	api.HandleFunc("/analytics/productivity", handlers.AuthMiddleware(handlers.ProductivityHandler)).Methods("GET")

	// CORS setup
	headers := gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})
	methods := gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	allowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if allowedOriginsEnv == "" {
		allowedOrigins = []string{"*"}
		utilities.LogInfo("CORS_ALLOWED_ORIGINS not set, allowing all origins ('*'). Set it for production.")
	} else {
		allowedOrigins = strings.Split(allowedOriginsEnv, ",")
	}
	origins := gorillahandlers.AllowedOrigins(allowedOrigins)

	handler := gorillahandlers.CORS(headers, methods, origins)(r)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	utilities.LogInfo("Server listening on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
