package main

import (
	"context"
	"database/sql"
	"flag"
	"log"

	"pharmacy-route-service/internal/adapters/repositories"
	"pharmacy-route-service/internal/config"
	"pharmacy-route-service/internal/platform/db"
)

func main() {
	config.Load()

	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/pharmacy.json"), "seed JSON file")
	schemaOnly := flag.Bool("schema-only", false, "create tables without seeding")
	flag.Parse()

	conn, dialect, err := open()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(context.Background(), conn, dialect, *seedPath, *schemaOnly); err != nil {
		log.Fatal(err)
	}
}

func open() (*sql.DB, db.Dialect, error) {
	if databaseURL := config.Get("DATABASE_URL", ""); databaseURL != "" {
		conn, err := db.Open(databaseURL)
		return conn, db.Postgres, err
	}

	conn, err := db.OpenSQLite(config.Get("DB_PATH", "data/app.db"))
	return conn, db.SQLite, err
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string, schemaOnly bool) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}
	log.Println("Schema ready.")

	if schemaOnly {
		return nil
	}

	log.Println("Seeding database...")
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
