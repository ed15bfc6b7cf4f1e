package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"inksynth/internal/adapter/repo"
	"inksynth/internal/domain"
	"inksynth/internal/infra"
)

// userrole grants or lists profile roles directly in the user table. It is
// the only way to assign admin, which the profile API never accepts.
func main() {
	var (
		idFlag    string
		roleFlag  string
		listFlag  bool
		limitFlag int
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update")
	flag.StringVar(&roleFlag, "role", "admin", "role to assign or list (user, artist, admin)")
	flag.BoolVar(&listFlag, "list", false, "list users holding -role instead of updating")
	flag.IntVar(&limitFlag, "limit", 50, "maximum rows printed by -list")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	role := domain.ProfileRole(strings.TrimSpace(strings.ToLower(roleFlag)))
	if !role.IsKnown() {
		exitWithError(fmt.Errorf("unsupported role %q", roleFlag))
	}
	if !listFlag && userID == "" {
		exitWithError(errors.New("-id is required unless -list is set"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userrole").Logger()
	users := repo.NewUserDirectoryPG(infra.NewSQLRunner(pool, logger))

	if listFlag {
		holders, err := users.ListByRole(ctx, role, limitFlag)
		if err != nil {
			exitWithError(fmt.Errorf("failed to list users: %w", err))
		}
		if len(holders) == 0 {
			fmt.Printf("no users with role %s\n", role)
			return
		}
		for _, h := range holders {
			fmt.Printf("%s\t%s\t%s\n", h.ID, h.Role, h.Name)
		}
		return
	}

	metadata, err := users.SetRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			exitWithError(fmt.Errorf("user %s not found", userID))
		}
		exitWithError(fmt.Errorf("failed to update role: %w", err))
	}
	fmt.Printf("User %s updated to role %s\n", userID, role)
	fmt.Printf("public_metadata=%s\n", metadata)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
