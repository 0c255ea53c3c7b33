package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharmacy-route-service/internal/adapters/cache"
	"pharmacy-route-service/internal/adapters/directions"
	"pharmacy-route-service/internal/adapters/mapsurface"
	"pharmacy-route-service/internal/adapters/repositories"
	"pharmacy-route-service/internal/api"
	"pharmacy-route-service/internal/config"
	"pharmacy-route-service/internal/platform/db"
	"pharmacy-route-service/internal/ports"
	"pharmacy-route-service/internal/render"
	"pharmacy-route-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Google Maps, Redis) behind ports and starts the HTTP server.
func main() {
	config.Load()

	port := config.Get("PORT", "8080")

	conn, dialect, err := openDB()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	apiKey := config.Get("GOOGLE_MAPS_API_KEY", "")
	if apiKey == "" {
		log.Println("GOOGLE_MAPS_API_KEY is not set; routes will be shown unoptimized")
	}

	// Geocoding results persist in the database to avoid repeated API calls.
	geocodeCache := cache.NewSQLGeocodeCache(conn, dialect)
	google := directions.NewGoogleClient(directions.Config{
		APIKey:  apiKey,
		Timeout: config.Duration("OPTIMIZER_TIMEOUT", 5*time.Second),
		Region:  config.Get("GEOCODE_REGION", "co"),
	}, geocodeCache)

	var optimizer ports.RouteOptimizer = google
	if redisURL := config.Get("REDIS_URL", ""); redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.OpenRedis(ctx, redisURL)
		cancel()
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()

		routeCache := cache.NewRedisRouteCache(client, config.Duration("ROUTE_CACHE_TTL", 10*time.Minute))
		optimizer = directions.NewCachedOptimizer(google, routeCache)
		log.Println("Route cache enabled (redis)")
	}

	repo := repositories.NewSQLRepository(conn, dialect)
	deps := services.DashboardDeps{
		Orders:          repo,
		Couriers:        repo,
		Settings:        repo,
		Geocoder:        google,
		Assembler:       services.NewAssembler(optimizer, config.Int("OPTIMIZER_CONCURRENCY", 4)),
		FallbackAddress: config.Get("PHARMACY_ADDRESS", ""),
	}

	surface := mapsurface.New()
	renderer := render.New(surface)
	router := api.NewRouter(deps, renderer, surface)

	// Timeouts are tuned for cold-cache route planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening addr=:%s", port)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	case sig := <-stop:
		log.Printf("Shutting down signal=%s", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := renderer.Teardown(); err != nil && !errors.Is(err, render.ErrTornDown) {
		log.Printf("teardown map: %v", err)
	}
}

// openDB uses PostgreSQL when DATABASE_URL is set. Otherwise it opens a
// local SQLite file and seeds demo data on startup.
func openDB() (*sql.DB, db.Dialect, error) {
	if databaseURL := config.Get("DATABASE_URL", ""); databaseURL != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			return nil, "", err
		}
		return conn, db.Postgres, nil
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	conn, err := db.OpenSQLite(dbPath)
	if err != nil {
		return nil, "", err
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/pharmacy.json")
	if err := initAndSeed(conn, db.SQLite, seedPath); err != nil {
		_ = conn.Close()
		return nil, "", err
	}
	return conn, db.SQLite, nil
}

func initAndSeed(conn *sql.DB, dialect db.Dialect, seedPath string) error {
	ctx := context.Background()

	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
