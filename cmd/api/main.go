package main

import (
	"context"
	"log"

	"bda-pipeline/internal/bootstrap"
	"bda-pipeline/internal/shared/config"
	"bda-pipeline/internal/shared/server"
	"bda-pipeline/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if err := db.RunMigrations(context.Background(), app.DB); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	r := app.Router

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
