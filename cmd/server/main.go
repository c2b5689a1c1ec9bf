// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/biyoo/uno/internal/auth"
	"github.com/biyoo/uno/internal/cache"
	"github.com/biyoo/uno/internal/database"
	"github.com/biyoo/uno/internal/game"
	"github.com/biyoo/uno/internal/handlers"
	"github.com/biyoo/uno/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	journal, err := cache.Connect()
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer journal.Close()

	sessions := game.NewSessionStore(game.SessionConfig{
		Rules:   game.DefaultRules(),
		Stats:   database.NewLedger(),
		Journal: journal,
		Logger:  logger,
	})

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	// game websocket
	srv := handlers.NewGameServer(logger, sessions)

	mux.Handle("/game/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
