package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"taskflow/domain/dto"
	"taskflow/domain/models"
	"taskflow/domain/repositories"
	"taskflow/infrastructure/mongodb"
	"taskflow/infrastructure/postgres"
	"taskflow/pkg/config"
)

// promote-admin เปลี่ยน role ของ user ตาม email
//
//	go run ./cmd/promote-admin -email someone@example.com
//	go run ./cmd/promote-admin -email someone@example.com -demote
func main() {
	email := flag.String("email", "", "email of the user to change")
	demote := flag.Bool("demote", false, "set role back to user")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, closeDB, err := openUserRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	defer closeDB()

	role := models.RoleAdmin
	if *demote {
		role = models.RoleUser
	}

	fmt.Println("===========================================")
	fmt.Printf("  Set role %q for %s\n", role, dto.NormalizeEmail(*email))
	fmt.Println("===========================================")

	user, err := users.GetByEmail(ctx, dto.NormalizeEmail(*email))
	if err != nil {
		log.Fatalf("User not found: %v", err)
	}

	if user.Role == role {
		fmt.Println("Nothing to do, role already set")
		return
	}

	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := users.Update(ctx, user.ID, user); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	fmt.Printf("✓ %s (%s) is now %s\n", user.Email, user.ID, role)
}

func openUserRepository(ctx context.Context, cfg *config.Config) (repositories.UserRepository, func(), error) {
	if cfg.UsesMongo() {
		client, db, err := mongodb.NewDatabase(ctx, mongodb.DatabaseConfig{
			URI:      cfg.Database.MongoURI,
			Database: cfg.Database.MongoDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return mongodb.NewUserRepository(db), func() { _ = client.Disconnect(context.Background()) }, nil
	}

	db, err := postgres.NewDatabase(postgres.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewUserRepository(db), func() { _ = postgres.Close(db) }, nil
}
