package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/config"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/fixtures"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/database"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/jwt"
	"github.com/cmlabs-hris/absence-workflow/internal/repository/postgresql"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		fmt.Println("Seeding requires STORE_DRIVER=postgres; the memory driver seeds itself at startup")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{MaxConns: 2, MinConns: 1})
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fmt.Println("Error applying schema:", err)
		os.Exit(1)
	}

	users, err := fixtures.SeedDemoUsers(ctx, postgresql.NewUserRepository(db), postgresql.NewTxManager(db), fixtures.DefaultDemoPassword)
	if err != nil {
		fmt.Println("Seeding failed:", err)
		os.Exit(1)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	fmt.Printf("Seeded %d demo users (password: %s)\n", len(users), fixtures.DefaultDemoPassword)
	for _, u := range users {
		token, _, err := JWTService.GenerateAccessToken(user.ActorFromUser(u))
		if err != nil {
			fmt.Printf("  %-24s %-10s token error: %v\n", u.Email, u.Role, err)
			continue
		}
		fmt.Printf("  %-24s %-10s %s\n", u.Email, u.Role, token)
	}
}
