package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/minhtam/ordersight/internal/models"
)

// WriteSummary writes the computed metrics, both series, and the row-level
// detail into an XLSX workbook. It is a pure consumer: every value arrives
// already computed, no formatting beyond cell placement happens here.
func WriteSummary(w io.Writer, m models.Metrics, daily []models.DatePoint, dist []models.ChannelPoint, rows []models.OrderLine) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeMetricsSheet(f, m); err != nil {
		return err
	}
	if err := writeDailySheet(f, daily); err != nil {
		return err
	}
	if err := writeChannelSheet(f, dist); err != nil {
		return err
	}
	if err := writeDetailSheet(f, rows); err != nil {
		return err
	}

	// Drop the default sheet so Summary comes first.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeMetricsSheet(f *excelize.File, m models.Metrics) error {
	sheet := "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	f.SetCellValue(sheet, "A1", "Metric")
	f.SetCellValue(sheet, "B1", "Value")

	f.SetCellValue(sheet, "A2", "Revenue")
	f.SetCellValue(sheet, "B2", m.Revenue.InexactFloat64())
	f.SetCellValue(sheet, "A3", "Return Rate (%)")
	f.SetCellValue(sheet, "B3", m.ReturnRate)
	f.SetCellValue(sheet, "A4", "Avg Order Value")
	f.SetCellValue(sheet, "B4", m.AvgOrderValue.InexactFloat64())
	f.SetCellValue(sheet, "A5", "Cancellation Rate (%)")
	f.SetCellValue(sheet, "B5", m.CancelRate)
	f.SetCellValue(sheet, "A6", "Top SKU")
	f.SetCellValue(sheet, "B6", m.TopSKU)

	return nil
}

func writeDailySheet(f *excelize.File, daily []models.DatePoint) error {
	sheet := "Daily Revenue"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	f.SetCellValue(sheet, "A1", "Date")
	f.SetCellValue(sheet, "B1", "Revenue")
	for i, p := range daily {
		f.SetCellValue(sheet, "A"+fmt.Sprint(i+2), p.Date.Format("2006-01-02"))
		f.SetCellValue(sheet, "B"+fmt.Sprint(i+2), p.Revenue.InexactFloat64())
	}

	return nil
}

func writeChannelSheet(f *excelize.File, dist []models.ChannelPoint) error {
	sheet := "Channels"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	f.SetCellValue(sheet, "A1", "Channel")
	f.SetCellValue(sheet, "B1", "Revenue")
	for i, p := range dist {
		f.SetCellValue(sheet, "A"+fmt.Sprint(i+2), p.Channel)
		f.SetCellValue(sheet, "B"+fmt.Sprint(i+2), p.Revenue.InexactFloat64())
	}

	return nil
}

func writeDetailSheet(f *excelize.File, rows []models.OrderLine) error {
	sheet := "Order Lines"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := []string{"Order ID", "Channel", "Order Date", "Status", "SKU", "Quantity", "Unit Price", "Line Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, r := range rows {
		channel := ""
		if r.ChannelName != nil {
			channel = *r.ChannelName
		}
		sku := ""
		if r.SKU != nil {
			sku = *r.SKU
		}

		values := []interface{}{
			r.OrderID,
			channel,
			r.OrderDate.Format("2006-01-02"),
			r.Status,
			sku,
			r.Quantity,
			r.UnitPrice.InexactFloat64(),
			r.LineTotal.InexactFloat64(),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return nil
}
