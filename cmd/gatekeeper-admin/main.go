// Package main is the entry point for the Gatekeeper admin CLI.
// It works directly against the credential store, bypassing the HTTP API
// and its session checks; intended for operators with database access.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/config"
	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/pkg/crypto"
	"github.com/prn-tf/gatekeeper/internal/repository"
	"github.com/prn-tf/gatekeeper/internal/repository/postgres"
	"github.com/prn-tf/gatekeeper/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Gatekeeper Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "create-user":
		if err := createUser(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "list-users":
		if err := listUsers(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func createUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	username := fs.String("username", "", "username for the new account")
	password := fs.String("password", "", "password for the new account")
	role := fs.String("role", "user", "role: user, admin, or master")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		return fmt.Errorf("both -username and -password are required")
	}
	if !domain.Role(*role).Valid() {
		return fmt.Errorf("invalid role %q: must be user, admin, or master", *role)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.MustLoad(*configPath)
	repo, closeFn, err := openRepository(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeFn()

	passwordHash, err := crypto.HashPassword(*password, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	user := domain.NewUser(*username, passwordHash, domain.Role(*role))
	if err := repo.Create(ctx, user); err != nil {
		return err
	}

	fmt.Printf("Created user %q (id %d, role %s)\n", user.Username, user.ID, user.Role)
	return nil
}

func listUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.MustLoad(*configPath)
	repo, closeFn, err := openRepository(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeFn()

	users, err := repo.List(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%-6s %-30s %-8s %s\n", "ID", "USERNAME", "ROLE", "CREATED")
	for _, u := range users {
		fmt.Printf("%-6d %-30s %-8s %s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// openRepository opens the configured database backend. The CLI logs
// nothing beyond its own output, so repositories get a disabled logger.
func openRepository(ctx context.Context, cfg config.DatabaseConfig) (repository.UserRepository, func(), error) {
	logger := zerolog.Nop()

	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), func() { db.Close() }, nil

	default: // sqlite
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Path), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewUserRepository(db), func() { db.Close() }, nil
	}
}

func printUsage() {
	fmt.Println(`Gatekeeper Admin CLI

Usage:
  gatekeeper-admin <command> [arguments]

Commands:
  create-user   Create a user directly in the store
  list-users    List all users
  version       Print version information
  help          Show this help message

Examples:
  gatekeeper-admin create-user -username alice -password secret -role admin
  gatekeeper-admin list-users -config /etc/gatekeeper/config.yaml`)
}
