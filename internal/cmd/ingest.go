package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minhtam/ordersight/internal/config"
	"github.com/minhtam/ordersight/internal/database"
	"github.com/minhtam/ordersight/internal/ingest"
	"github.com/minhtam/ordersight/internal/loader"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <csv-file> <table>",
	Short: "Load a CSV snapshot into MySQL",
	Long: `Load a CSV snapshot into one of the source tables (channels, orders,
items) without clearing unrelated data. Orders upsert on order_id, channels
replace the dimension, items append.

Every import is recorded in the data_import_log table.`,
	Args: cobra.ExactArgs(2),
	RunE: ingestCSV,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func ingestCSV(cmd *cobra.Command, args []string) error {
	csvFile, table := args[0], args[1]

	fmt.Printf("📂 Loading %s...\n", csvFile)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	t := loader.Load(nil, csvFile, filepath.Base(csvFile))
	if t.Empty() {
		return fmt.Errorf("no rows loaded from %s", csvFile)
	}
	fmt.Printf("✅ Parsed %d rows\n", len(t.Rows))

	store := ingest.NewStore(db)
	fileName := filepath.Base(csvFile)

	var imported int
	switch table {
	case "channels":
		channels, err := loader.DecodeChannels(t)
		if err != nil {
			return fmt.Errorf("invalid channels file: %w", err)
		}
		imported, err = store.ImportChannels(channels, fileName)
		if err != nil {
			return err
		}
	case "orders":
		orders, err := loader.DecodeOrders(t)
		if err != nil {
			return fmt.Errorf("invalid orders file: %w", err)
		}
		imported, err = store.ImportOrders(orders, fileName)
		if err != nil {
			return err
		}
	case "items":
		items, err := loader.DecodeItems(t)
		if err != nil {
			return fmt.Errorf("invalid items file: %w", err)
		}
		imported, err = store.ImportItems(items, fileName)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported table %q (supported: channels, orders, items)", table)
	}

	fmt.Printf("📤 Imported %d rows into %s\n", imported, table)
	return nil
}
