package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"inksynth/internal/infra"
)

func main() {
	var downFlag int
	flag.IntVar(&downFlag, "down", 0, "revert this many migrations instead of applying pending ones")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	logger := infra.NewLogger(os.Getenv("APP_ENV")).With().Str("cmd", "migrate").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if downFlag > 0 {
		reverted, err := infra.Rollback(ctx, dbURL, logger, downFlag)
		if err != nil {
			exitWithError(err)
		}
		for _, name := range reverted {
			fmt.Printf("reverted %s\n", name)
		}
		return
	}

	applied, err := infra.Migrate(ctx, dbURL, logger)
	if err != nil {
		exitWithError(err)
	}
	if len(applied) == 0 {
		fmt.Println("database is up to date")
		return
	}
	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
