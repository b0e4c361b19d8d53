package main

import (
	"log"

	"github.com/joho/godotenv"

	"taskflow-backend/database"
	"taskflow-backend/firebase"
	"taskflow-backend/handlers"
	"taskflow-backend/models"
	"taskflow-backend/utilities"
)

func main() {
	utilities.InitLogger()

	if err := godotenv.Load(); err != nil {
		log.Fatal("Failed to load .env file")
	}

	db, err := database.ConnectPostgres()
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}

	// A project-delete cascade interrupted between its two statements
	// leaves tasks pointing at a project that no longer exists. The
	// sweep heals that on boot instead of masking it per request.
	if reaped, err := models.ReapOrphanTasks(db); err != nil {
		utilities.LogError(err, "Orphan task sweep failed")
	} else if reaped > 0 {
		utilities.LogInfo("Removed %d orphaned tasks left by an interrupted cascade", reaped)
	}

	if err := firebase.Init(); err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	handlers.InitDB(db)
	LoadRoutes()
}
