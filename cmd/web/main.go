package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/lmoretti/highlander/internal/db"
	"github.com/lmoretti/highlander/internal/service"
	"github.com/lmoretti/highlander/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	adminKey := os.Getenv("ADMIN_KEY")
	if adminKey == "" {
		log.Fatal("ADMIN_KEY must be set")
	}

	dsn := os.Getenv("HIGHLANDER_DB")
	if dsn == "" {
		dsn = "highlander.db?_journal_mode=WAL"
	}

	database := db.InitDB(dsn)
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	cfg := service.DefaultConfig()
	clock := clockwork.NewRealClock()

	gameStore := store.NewGameStore(database)
	fixtureStore := store.NewFixtureStore(database)

	deadlines := service.NewDeadlineService(database, gameStore, clock, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deadlines.Run(ctx, time.Minute)

	router := newRouter(database, gameStore, fixtureStore, deadlines, cfg, adminKey)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	log.Println("Server starting on http://localhost" + addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal(err)
	}
}
