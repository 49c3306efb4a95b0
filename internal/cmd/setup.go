package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhtam/ordersight/internal/config"
	"github.com/minhtam/ordersight/internal/database"
)

var dropFirst bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up the MySQL schema for the raw order sources",
	Long: `Creates the source tables (channels, orders, items, data_import_log)
and the v_orders_summary view.

Only the four raw input sources are persisted; the reconciled dataset is
rebuilt from scratch on every refresh.`,
	RunE: setupSchema,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVar(&dropFirst, "drop-first", false, "Drop existing tables before creating")
}

func setupSchema(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 Setting up database schema...")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if dropFirst {
		fmt.Println("🗑️  Dropping existing tables...")
		if err := db.DropSchema(); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	fmt.Println("📋 Creating tables and views...")
	if err := db.Setup(); err != nil {
		return fmt.Errorf("failed to set up schema: %w", err)
	}

	fmt.Println("✅ Database setup complete!")
	return nil
}
