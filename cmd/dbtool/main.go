package main

import (
	"database/sql"
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"last-mile-service/internal/adapters/store"
	"last-mile-service/internal/config"
	"last-mile-service/internal/platform/db"
)

// dbtool initializes the self-hosted Postgres schema and loads the
// seed clients and orders. Run it once before first server start.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pg, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	if err := initAndSeed(pg, cfg.SeedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(pg *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := store.InitSchema(pg); err != nil {
		return err
	}
	log.Println("Schema ready.")

	log.Println("Seeding database...")
	if err := store.SeedFromJSON(pg, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
