package database

// Setup creates the raw-source tables and the summary view. The reconciled
// dataset itself is never persisted, only the four raw inputs are, and they
// are re-reconciled from scratch on each load.
func (db *DB) Setup() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS channels (
		    channel_id INT,
		    channel_name VARCHAR(100),
		    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		    UNIQUE KEY uk_channel_id (channel_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS orders (
		    order_id INT,
		    channel_id INT,
		    order_date DATE,
		    status VARCHAR(50),
		    updated_at DATETIME NULL,
		    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		    UNIQUE KEY uk_order_id (order_id),
		    INDEX idx_channel_id (channel_id),
		    INDEX idx_order_date (order_date)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS items (
		    item_id INT AUTO_INCREMENT PRIMARY KEY,
		    order_id INT,
		    sku VARCHAR(50),
		    quantity INT,
		    unit_price DECIMAL(10, 2),
		    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		    INDEX idx_order_id (order_id),
		    INDEX idx_sku (sku)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS data_import_log (
		    import_id INT AUTO_INCREMENT PRIMARY KEY,
		    file_name VARCHAR(255),
		    file_type VARCHAR(50),
		    rows_imported INT,
		    rows_failed INT DEFAULT 0,
		    import_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		    import_status VARCHAR(50),
		    error_message LONGTEXT
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE OR REPLACE VIEW v_orders_summary AS
		 SELECT
		     o.order_id,
		     o.channel_id,
		     c.channel_name,
		     o.order_date,
		     o.status,
		     COUNT(i.item_id) AS item_count,
		     SUM(i.quantity * i.unit_price) AS order_total
		 FROM orders o
		 LEFT JOIN channels c ON o.channel_id = c.channel_id
		 LEFT JOIN items i ON o.order_id = i.order_id
		 GROUP BY o.order_id, o.channel_id, c.channel_name, o.order_date, o.status`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// CleanupData removes all source data (but keeps schema)
func (db *DB) CleanupData() error {
	queries := []string{
		"DELETE FROM items",
		"DELETE FROM orders",
		"DELETE FROM channels",
		"DELETE FROM data_import_log",
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// DropSchema removes all source tables and the summary view
func (db *DB) DropSchema() error {
	queries := []string{
		"DROP VIEW IF EXISTS v_orders_summary",
		"DROP TABLE IF EXISTS items",
		"DROP TABLE IF EXISTS orders",
		"DROP TABLE IF EXISTS channels",
		"DROP TABLE IF EXISTS data_import_log",
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
