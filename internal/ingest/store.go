package ingest

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minhtam/ordersight/internal/database"
	"github.com/minhtam/ordersight/internal/models"
)

// Store loads typed CSV snapshots into MySQL and reads them back so the
// pipeline can rebuild from the database copy instead of flat files.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// ImportChannels replaces the channel dimension with the given rows.
func (s *Store) ImportChannels(channels []models.Channel, fileName string) (int, error) {
	if _, err := s.db.Exec("DELETE FROM channels"); err != nil {
		s.logImport(fileName, "channels", 0, models.ImportStatusFailed, err)
		return 0, fmt.Errorf("failed to clear channels: %w", err)
	}

	for _, ch := range channels {
		_, err := s.db.Exec(
			"INSERT INTO channels (channel_id, channel_name) VALUES (?, ?)",
			ch.ChannelID, ch.ChannelName,
		)
		if err != nil {
			s.logImport(fileName, "channels", 0, models.ImportStatusFailed, err)
			return 0, fmt.Errorf("failed to insert channel %d: %w", ch.ChannelID, err)
		}
	}

	s.logImport(fileName, "channels", len(channels), models.ImportStatusSuccess, nil)
	return len(channels), nil
}

// ImportOrders upserts order headers on order_id. Duplicate ids within the
// snapshot keep the last occurrence, matching the file being a point-in-time
// export where later rows supersede earlier ones.
func (s *Store) ImportOrders(orders []models.Order, fileName string) (int, error) {
	deduped := make(map[int64]models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		if _, ok := deduped[o.OrderID]; !ok {
			ids = append(ids, o.OrderID)
		}
		deduped[o.OrderID] = o
	}

	query := `
		INSERT INTO orders (order_id, channel_id, order_date, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			channel_id = VALUES(channel_id),
			order_date = VALUES(order_date),
			status = VALUES(status),
			updated_at = VALUES(updated_at)`

	for _, id := range ids {
		o := deduped[id]
		var updatedAt interface{}
		if o.UpdatedAt != nil {
			updatedAt = o.UpdatedAt.Format("2006-01-02 15:04:05")
		}
		_, err := s.db.Exec(query,
			o.OrderID, o.ChannelID, o.OrderDate.Format("2006-01-02"), o.Status, updatedAt,
		)
		if err != nil {
			s.logImport(fileName, "orders", 0, models.ImportStatusFailed, err)
			return 0, fmt.Errorf("failed to upsert order %d: %w", o.OrderID, err)
		}
	}

	s.logImport(fileName, "orders", len(ids), models.ImportStatusSuccess, nil)
	return len(ids), nil
}

// ImportItems appends item lines.
func (s *Store) ImportItems(items []models.Item, fileName string) (int, error) {
	for _, it := range items {
		_, err := s.db.Exec(
			"INSERT INTO items (order_id, sku, quantity, unit_price) VALUES (?, ?, ?, ?)",
			it.OrderID, it.SKU, it.Quantity, it.UnitPrice.StringFixed(2),
		)
		if err != nil {
			s.logImport(fileName, "items", 0, models.ImportStatusFailed, err)
			return 0, fmt.Errorf("failed to insert item for order %d: %w", it.OrderID, err)
		}
	}

	s.logImport(fileName, "items", len(items), models.ImportStatusSuccess, nil)
	return len(items), nil
}

// FetchOrders reads back all order headers.
func (s *Store) FetchOrders() ([]models.Order, error) {
	rows, err := s.db.Query(`
		SELECT order_id, channel_id, order_date, status, updated_at
		FROM orders
		ORDER BY order_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var orderDate string
		var updatedAt sql.NullString

		if err := rows.Scan(&o.OrderID, &o.ChannelID, &orderDate, &o.Status, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		o.OrderDate, err = time.Parse("2006-01-02", orderDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse order_date %q: %w", orderDate, err)
		}
		if updatedAt.Valid {
			ts, err := time.Parse("2006-01-02 15:04:05", updatedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse updated_at %q: %w", updatedAt.String, err)
			}
			o.UpdatedAt = &ts
		}

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// FetchItems reads back all item lines.
func (s *Store) FetchItems() ([]models.Item, error) {
	rows, err := s.db.Query(`
		SELECT order_id, COALESCE(sku, '') AS sku, quantity, unit_price
		FROM items
		ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		var unitPrice string

		if err := rows.Scan(&it.OrderID, &it.SKU, &it.Quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.UnitPrice, err = decimal.NewFromString(unitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to parse unit_price %q: %w", unitPrice, err)
		}

		items = append(items, it)
	}

	return items, rows.Err()
}

// FetchChannels reads back the channel dimension.
func (s *Store) FetchChannels() ([]models.Channel, error) {
	rows, err := s.db.Query(`
		SELECT channel_id, COALESCE(channel_name, '') AS channel_name
		FROM channels
		ORDER BY channel_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ChannelID, &ch.ChannelName); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}

// ImportHistory returns the most recent import log entries, newest first.
func (s *Store) ImportHistory(limit int) ([]models.ImportRecord, error) {
	rows, err := s.db.Query(`
		SELECT import_id, file_name, file_type, rows_imported, rows_failed,
		       import_date, import_status, COALESCE(error_message, '') AS error_message
		FROM data_import_log
		ORDER BY import_date DESC, import_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import log: %w", err)
	}
	defer rows.Close()

	var records []models.ImportRecord
	for rows.Next() {
		var rec models.ImportRecord
		var importDate string

		err := rows.Scan(&rec.ImportID, &rec.FileName, &rec.FileType,
			&rec.RowsImported, &rec.RowsFailed, &importDate, &rec.Status, &rec.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import record: %w", err)
		}
		rec.ImportDate, _ = time.Parse("2006-01-02 15:04:05", importDate)

		records = append(records, rec)
	}

	return records, rows.Err()
}

// TableStats returns the row count of each source table.
func (s *Store) TableStats() (map[string]int, error) {
	stats := make(map[string]int)
	for _, table := range []string{"channels", "orders", "items"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = count
	}
	return stats, nil
}

// logImport records the import in the audit log. A failed audit write is
// reported but never fails the import itself.
func (s *Store) logImport(fileName, fileType string, rowCount int, status string, cause error) {
	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}

	_, err := s.db.Exec(`
		INSERT INTO data_import_log (file_name, file_type, rows_imported, import_status, error_message)
		VALUES (?, ?, ?, ?, ?)`,
		fileName, fileType, rowCount, status, errMsg,
	)
	if err != nil {
		logrus.WithFields(logrus.Fields{"file": fileName, "type": fileType}).
			Warnf("failed to write import log: %v", err)
	}
}
