package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/app/repositories"
	"github.com/shashiranjanraj/sehatly/config"
	"github.com/shashiranjanraj/sehatly/pkg/auth"
	"github.com/shashiranjanraj/sehatly/pkg/database"
)

// sehatly admin:create — create an admin account from the terminal.
// Admin accounts are never created through the public API.
var adminCreateCmd = &cobra.Command{
	Use:   "admin:create <email> <password> <name>",
	Short: "Create an admin account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, name := args[0], args[1], args[2]

		if err := config.Load(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := database.Connect(ctx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background()) //nolint:errcheck

		users := repositories.NewUserRepository()
		if _, err := users.FindByEmail(ctx, email); err == nil {
			return fmt.Errorf("an account with email %s already exists", email)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		admin := &models.User{
			Name:      name,
			Email:     email,
			Password:  hash,
			Role:      models.RoleAdmin,
			CreatedAt: time.Now(),
		}
		if err := users.Create(ctx, admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}

		fmt.Printf("Admin account created: %s (%s)\n", name, email)
		return nil
	},
}
