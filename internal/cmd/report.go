package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/minhtam/ordersight/internal/config"
	"github.com/minhtam/ordersight/internal/database"
	"github.com/minhtam/ordersight/internal/ingest"
	"github.com/minhtam/ordersight/internal/kpi"
	"github.com/minhtam/ordersight/internal/models"
	"github.com/minhtam/ordersight/internal/report"
	"github.com/minhtam/ordersight/internal/warehouse"
)

var (
	reportOutput  string
	reportChannel string
	reportFrom    string
	reportTo      string
	reportFromDB  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an XLSX summary report",
	Long: `Run the full reconciliation pipeline and write the headline metrics,
the daily revenue trend, the per-channel distribution, and the row-level
detail into an XLSX workbook.

Filters compose with AND: --channel restricts to one channel name exactly,
--from/--to (both required to take effect) bound the order date inclusively.`,
	RunE: generateReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file (defaults to report.output config)")
	reportCmd.Flags().StringVar(&reportChannel, "channel", kpi.ChannelAll, "Channel name filter")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "End date (YYYY-MM-DD)")
	reportCmd.Flags().BoolVar(&reportFromDB, "from-db", false, "Rebuild from the MySQL copy instead of CSV snapshots")
}

func generateReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	output := reportOutput
	if output == "" {
		output = cfg.Report.Output
	}

	fmt.Println("🔄 Reconciling order sources...")
	var lines []models.OrderLine
	if reportFromDB {
		db, err := database.NewConnection(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		store := ingest.NewStore(db)
		orders, err := store.FetchOrders()
		if err != nil {
			return err
		}
		items, err := store.FetchItems()
		if err != nil {
			return err
		}
		channels, err := store.FetchChannels()
		if err != nil {
			return err
		}
		lines = warehouse.Reconcile(orders, nil, items, channels)
	} else {
		lines = warehouse.BuildFromFiles(&cfg.Data)
	}
	fmt.Printf("✅ Reconciled %d order lines\n", len(lines))

	analyzer := kpi.NewAnalyzer(lines)

	var dateRange []time.Time
	if reportFrom != "" && reportTo != "" {
		from, err := time.Parse("2006-01-02", reportFrom)
		if err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
		to, err := time.Parse("2006-01-02", reportTo)
		if err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
		dateRange = []time.Time{from, to}
	}
	analyzer = analyzer.Filter(reportChannel, dateRange)

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close()

	err = report.WriteSummary(f, analyzer.Metrics(), analyzer.DailyRevenue(), analyzer.ChannelDist(), analyzer.Rows())
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Printf("📊 Report written to %s\n", output)
	return nil
}
