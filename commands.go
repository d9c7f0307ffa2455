package main

import (
	"fmt"
	"strings"

	"ministry-site/database"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/content"
	"ministry-site/internal/domain/users"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.AutoMigrate(database.DB); err != nil {
			return err
		}
		zap.L().Info("schema migrated")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store the default home layout as a page",
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, _ := cmd.Flags().GetString("slug")
		title, _ := cmd.Flags().GetString("title")
		publish, _ := cmd.Flags().GetBool("publish")

		layout, err := content.DefaultLayout()
		if err != nil {
			return err
		}
		if slug = strings.TrimSpace(slug); slug != "" {
			layout.Slug = slug
		}
		if title = strings.TrimSpace(title); title != "" {
			layout.Title = title
		}

		store := content.NewStore(database.DB)
		page, err := store.SeedPage(cmd.Context(), layout)
		if err != nil {
			return fmt.Errorf("seed %q: %w", layout.Slug, err)
		}
		if publish {
			status := content.StatusPublished
			if page, err = store.UpdatePage(cmd.Context(), page.ID, content.PagePatch{Status: &status}); err != nil {
				return err
			}
		}
		zap.L().Info("page seeded", zap.String("slug", page.Slug), zap.String("status", page.Status))
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a local account",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		email, _ := flags.GetString("email")
		password, _ := flags.GetString("password")
		name, _ := flags.GetString("name")
		lastname, _ := flags.GetString("lastname")
		role, _ := flags.GetString("role")

		if !access.ValidRole(role) {
			return fmt.Errorf("unknown role %q", role)
		}
		u, err := users.Create(cmd.Context(), database.DB, users.NewUser{
			Name:     name,
			Lastname: lastname,
			Email:    email,
			Password: password,
			Role:     role,
		})
		if err != nil {
			return err
		}
		zap.L().Info("user created", zap.Uint("id", u.ID), zap.String("email", u.Email), zap.String("role", u.Role))
		return nil
	},
}
