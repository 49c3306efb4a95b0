package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhtam/ordersight/internal/config"
	"github.com/minhtam/ordersight/internal/database"
	"github.com/minhtam/ordersight/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Ordersight API server",
	Long: `Start the Ordersight API server which provides:
- KPI metrics and revenue series over the reconciled order dataset
- CSV snapshot uploads with automatic backup rotation
- XLSX report export

With a database DSN configured the pipeline rebuilds from the MySQL copy,
otherwise it runs off the local CSV snapshots.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 Ordersight Starting...")

	fmt.Println("📝 Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var db *database.DB
	if cfg.DB.DSN != "" {
		fmt.Println("🔌 Connecting to database...")
		db, err = database.NewConnection(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		fmt.Println("✅ Database connected successfully")
	} else {
		fmt.Println("📂 No database configured, running off CSV snapshots")
	}

	fmt.Println("⚙️  Setting up server...")
	srv := server.NewServer(cfg, db)

	fmt.Printf("🌐 Starting server on %s...\n", cfg.Server.Addr)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
