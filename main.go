package main

import (
	"fmt"
	"os"

	"ministry-site/config"
	"ministry-site/database"
	"ministry-site/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "ministry-site",
	Short:         "Church site with in-page editing",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()
		if _, err := logger.Init(); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return database.InitDB()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "Run auto-migration before serving")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	seedCmd.Flags().String("slug", "", "Slug of the seeded page (default: the layout's)")
	seedCmd.Flags().String("title", "", "Title of the seeded page")
	seedCmd.Flags().Bool("publish", false, "Publish the page right away")

	createUserCmd.Flags().String("email", "", "Login email (required)")
	createUserCmd.Flags().String("password", "", "Initial password (required)")
	createUserCmd.Flags().String("name", "", "First name")
	createUserCmd.Flags().String("lastname", "", "Last name")
	createUserCmd.Flags().String("role", "admin", "admin, editor, leader or member")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, createUserCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
