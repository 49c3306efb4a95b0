package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhtam/ordersight/internal/config"
	"github.com/minhtam/ordersight/internal/database"
	"github.com/minhtam/ordersight/internal/ingest"
)

var statsLast int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show source table row counts and recent imports",
	RunE:  showStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsLast, "last", 10, "Number of recent imports to show")
}

func showStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store := ingest.NewStore(db)

	stats, err := store.TableStats()
	if err != nil {
		return fmt.Errorf("failed to read table stats: %w", err)
	}

	fmt.Println("📊 Source tables:")
	for _, table := range []string{"channels", "orders", "items"} {
		fmt.Printf("   %-10s %d rows\n", table, stats[table])
	}

	history, err := store.ImportHistory(statsLast)
	if err != nil {
		return fmt.Errorf("failed to read import history: %w", err)
	}

	if len(history) == 0 {
		fmt.Println("\n📭 No imports recorded yet")
		return nil
	}

	fmt.Printf("\n🗂  Last %d imports:\n", len(history))
	for _, rec := range history {
		fmt.Printf("   %s  %-8s  %-10s  %d rows  %s\n",
			rec.ImportDate.Format("2006-01-02 15:04:05"), rec.FileType, rec.Status, rec.RowsImported, rec.FileName)
	}

	return nil
}
