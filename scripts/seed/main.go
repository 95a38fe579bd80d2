package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/odyssey-erp/odyssey-todo/internal/app"
	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	"github.com/odyssey-erp/odyssey-todo/internal/tasks"
)

type demoUser struct {
	Email    string
	Password string
	Name     string
	Tasks    []string
}

var demoUsers = []demoUser{
	{
		Email:    "alice@example.com",
		Password: "alice123",
		Name:     "Alice",
		Tasks:    []string{"Buy groceries", "Book dentist appointment", "Water the plants"},
	},
	{
		Email:    "bob@example.com",
		Password: "bob123",
		Name:     "Bob",
		Tasks:    []string{"Renew passport", "Fix bike brakes"},
	},
}

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer stores.Close()

	hasher, err := auth.NewHasher(auth.HasherConfig{
		Method:     cfg.PasswordMethod,
		Iterations: cfg.PasswordIterations,
		SaltLength: cfg.PasswordSaltLength,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		log.Fatalf("init hasher: %v", err)
	}
	users := auth.NewService(stores.Users, hasher, nil)
	taskService := tasks.NewService(stores.Tasks, tasks.PolicyOwner)

	fmt.Printf("→ Seeding %s store...\n", cfg.StoreDriver)
	for _, du := range demoUsers {
		if err := seedUser(ctx, users, taskService, du); err != nil {
			log.Fatalf("seed %s: %v", du.Email, err)
		}
	}
	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedUser(ctx context.Context, users *auth.Service, taskService *tasks.Service, du demoUser) error {
	user, err := users.Register(ctx, auth.RegisterInput{Email: du.Email, Password: du.Password, Name: du.Name})
	if errors.Is(err, shared.ErrAlreadyRegistered) {
		fmt.Printf("  = %s already present, skipping\n", du.Email)
		return nil
	}
	if err != nil {
		return err
	}
	for _, description := range du.Tasks {
		if _, err := taskService.Create(ctx, user.Identity(), description); err != nil {
			return err
		}
	}
	fmt.Printf("  + %s with %d tasks\n", du.Email, len(du.Tasks))
	return nil
}
