package main

// Apply or inspect database migrations:
//   go run ./cmd/migrate [up|down|status|version]

import (
	"context"
	"flag"
	"log"
	"os"

	"bda-pipeline/internal/shared/config"
	"bda-pipeline/internal/shared/storage/db"
)

func main() {
	flag.Parse()
	command := db.MigrateUp
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg := config.Load()
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, command); err != nil {
		log.Printf("migrate %s: %v", command, err)
		os.Exit(1)
	}
}
