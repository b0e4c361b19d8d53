package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"taskflow-backend/utilities"
)

//go:embed schema.sql
var schemaSQL string

// ConnectPostgres opens a connection pool using the DB_* environment
// variables and verifies it with a ping.
func ConnectPostgres() (*sql.DB, error) {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		utilities.LogError(err, "Failed to open database connection")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		utilities.LogError(err, "Failed to reach database")
		return nil, err
	}

	utilities.LogInfo("Connected to PostgreSQL")
	return db, nil
}

// Migrate applies the embedded schema. Every statement is IF NOT
// EXISTS, so running it on every boot is safe.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
