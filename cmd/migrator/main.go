package main

import (
	"log"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose"

	"github.com/UnknownOlympus/athena/internal/config"
	"github.com/UnknownOlympus/athena/internal/repository"
)

const migrationsDir = "migrations"

// main applies the employees table migrations. The optional first argument is a goose
// command (up, down, status, redo, version); it defaults to up.
func main() {
	cfg := config.MustLoad()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	dbpool, dbErr := repository.NewDatabase(
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Dbname)
	if dbErr != nil {
		log.Fatalf("Failed to connect to DB: %v", dbErr)
	}
	defer dbpool.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}

	dtb := stdlib.OpenDBFromPool(dbpool)
	if migrationErr := goose.Run(command, dtb, migrationsDir, os.Args[min(len(os.Args), 2):]...); migrationErr != nil {
		log.Fatalf("Migration %q failed: %v", command, migrationErr) //nolint:gocritic // pool is closed by process exit
	}

	log.Printf("✅ Migration %q applied successfully", command)
}
