package db

import (
	"context"
	"database/sql"
	"fmt"

	"tableadmin/internal/utils"
)

// RecordsTable holds both record variants; the unused variant's columns stay NULL.
const RecordsTable = "records"

const recordsDDL = `
CREATE TABLE IF NOT EXISTS records (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	kind VARCHAR(16) NOT NULL DEFAULT 'item',
	amount DECIMAL(15,2) NOT NULL DEFAULT 0,
	status VARCHAR(16) NOT NULL DEFAULT 'Active',
	last_update DATETIME NOT NULL,
	last_name VARCHAR(255) NULL,
	first_name VARCHAR(255) NULL,
	email VARCHAR(255) NULL,
	website VARCHAR(255) NULL,
	reference_no VARCHAR(100) NULL,
	from_account VARCHAR(255) NULL,
	to_account VARCHAR(255) NULL,
	message_type VARCHAR(50) NULL,
	UNIQUE KEY uniq_reference_no (reference_no),
	KEY idx_status (status),
	KEY idx_last_update (last_update)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`

// lateColumns were added after the first schema; older tables get them on start.
var lateColumns = []struct{ name, ddl string }{
	{"website", "ALTER TABLE records ADD COLUMN website VARCHAR(255) NULL AFTER email"},
	{"message_type", "ALTER TABLE records ADD COLUMN message_type VARCHAR(50) NULL AFTER to_account"},
}

// EnsureRecordsTable creates the records table when the schema lacks it and
// adds missing late columns to an existing one.
func EnsureRecordsTable(ctx context.Context, conn *sql.DB) error {
	if !HasTable(ctx, conn, RecordsTable) {
		_, err := conn.ExecContext(ctx, recordsDDL)
		return err
	}
	for _, col := range lateColumns {
		if HasColumn(ctx, conn, RecordsTable, col.name) {
			continue
		}
		if _, err := conn.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
		utils.LogEvent("", "db", "migrate", "added column records."+col.name)
	}
	return nil
}
