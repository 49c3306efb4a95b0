package models

import "time"

// ImportRecord is one row of the data_import_log audit table.
type ImportRecord struct {
	ImportID     int64     `json:"import_id" db:"import_id"`
	FileName     string    `json:"file_name" db:"file_name"`
	FileType     string    `json:"file_type" db:"file_type"`
	RowsImported int       `json:"rows_imported" db:"rows_imported"`
	RowsFailed   int       `json:"rows_failed" db:"rows_failed"`
	ImportDate   time.Time `json:"import_date" db:"import_date"`
	Status       string    `json:"status" db:"import_status"`
	ErrorMessage string    `json:"error_message,omitempty" db:"error_message"`
}

const (
	ImportStatusSuccess = "success"
	ImportStatusFailed  = "failed"
)
