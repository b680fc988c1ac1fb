// case-recompute rebuilds the derived rows (CSED, tolling, projections,
// resolution) for one case or for every active case. Each case runs under the
// same redis lock as the API path, so a running service and this tool never
// recompute the same case concurrently.
//
// Usage (from backend directory):
//
//	go run ./cmd/case-recompute -case CASE-001
//	go run ./cmd/case-recompute -all
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/workflow"
)

func main() {
	caseNumber := flag.String("case", "", "case number to recompute")
	all := flag.Bool("all", false, "recompute every active case")
	flag.Parse()

	number := strings.TrimSpace(*caseNumber)
	if (number == "") != *all {
		fmt.Fprintln(os.Stderr, "exactly one of -case or -all is required")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if number != "" {
		if err := workflow.RecomputeCase(ctx, number); err != nil {
			fmt.Fprintf(os.Stderr, "recompute failed for %s: %v\n", number, err)
			os.Exit(1)
		}
		fmt.Printf("Recomputed case %s\n", number)
		return
	}

	cases, err := models.GetActiveCases(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list active cases: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, caseRecord := range cases {
		if err := workflow.RecomputeCase(ctx, caseRecord.CaseNumber); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "recompute failed for %s: %v\n", caseRecord.CaseNumber, err)
			continue
		}
		fmt.Printf("Recomputed case %s\n", caseRecord.CaseNumber)
	}

	fmt.Printf("Done: %d cases, %d failed\n", len(cases), failed)
	if failed > 0 {
		os.Exit(1)
	}
}
