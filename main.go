package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ArgentumX/project-dotaboost-v2/internal/api"
	"github.com/ArgentumX/project-dotaboost-v2/internal/service"
	"github.com/ArgentumX/project-dotaboost-v2/internal/storage"
)

func main() {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	db := storage.MustDB(dbURL)
	defer db.Close()

	if err := storage.Migrate(context.Background(), db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	repo := storage.NewRepository(db)
	coordinator := service.NewCoordinator(repo)
	handler := api.NewHandler(coordinator, repo, secret)
	r := api.SetupRouter(handler, secret)

	log.Printf("Listening on :%s", port)
	_ = r.Run(":" + port)
}
