package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ordersight",
	Short: "Ordersight - Orders Analytics Dashboard",
	Long: `Ordersight reconciles order exports from multiple sales channels into a
single canonical order-line dataset and computes the headline business KPIs
(revenue, AOV, return rate, cancellation rate, top product) over it.

It can run as an API server backed by CSV snapshots or a MySQL copy of the
same data, and export summary reports as XLSX workbooks.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
