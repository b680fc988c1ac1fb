// seed-reference-data loads the lookup tables the calculation engine depends
// on: transaction code rules, income document type rules, tax brackets,
// standard deductions and allowable expense standards. Seeding is idempotent
// per rule version, so re-running against a seeded database is a no-op.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/seed-reference-data -rule-version 2024.1
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
)

func main() {
	ruleVersion := flag.String("rule-version", "", "rule version to seed (default: RULE_VERSION env, else 2024.1)")
	migrate := flag.Bool("migrate", true, "run AutoMigrate before seeding")
	flag.Parse()

	version := strings.TrimSpace(*ruleVersion)
	if version == "" {
		version = strings.TrimSpace(os.Getenv("RULE_VERSION"))
	}
	if version == "" {
		version = "2024.1"
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if *migrate {
		models.MigrateTable()
	}

	if err := models.SeedReferenceData(ctx, version); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed reference data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded reference data for rule version %q\n", version)
}
