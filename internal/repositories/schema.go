package repositories

import (
	"database/sql"
	"fmt"
	"strings"
)

// StructuralError means a required ledger table is missing or its
// columns don't match the expected schema. It is fatal: a run must
// abort before any write rather than compute from a partial snapshot.
type StructuralError struct {
	Ledger string
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error in ledger %q: %s", e.Ledger, e.Detail)
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS clients (
        id             TEXT PRIMARY KEY,
        email          TEXT NOT NULL,
        name           TEXT NOT NULL DEFAULT '',
        target_balance NUMERIC(12,2),
        status         TEXT NOT NULL DEFAULT 'ACTIVE',
        last_updated   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payments (
        id           TEXT PRIMARY KEY,
        client_email TEXT NOT NULL,
        amount       NUMERIC(12,2) NOT NULL,
        currency     TEXT NOT NULL DEFAULT 'USD',
        date         TIMESTAMPTZ NOT NULL,
        status       TEXT NOT NULL,
        payment_link TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS time_entries (
        id          BIGSERIAL PRIMARY KEY,
        date        TIMESTAMPTZ NOT NULL,
        client_id   TEXT NOT NULL,
        matter_id   TEXT NOT NULL DEFAULT '',
        lawyer_id   TEXT NOT NULL,
        hours       NUMERIC(8,3) NOT NULL,
        description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS lawyers (
        id     TEXT PRIMARY KEY,
        name   TEXT NOT NULL DEFAULT '',
        email  TEXT NOT NULL DEFAULT '',
        rate   NUMERIC(10,2) NOT NULL DEFAULT 0,
        status TEXT NOT NULL DEFAULT 'ACTIVE'
);

CREATE TABLE IF NOT EXISTS matters (
        id           TEXT PRIMARY KEY,
        client_id    TEXT NOT NULL,
        client_name  TEXT NOT NULL DEFAULT '',
        description  TEXT NOT NULL DEFAULT '',
        value        NUMERIC(12,2) NOT NULL DEFAULT 0,
        status       TEXT NOT NULL DEFAULT 'OPEN',
        created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
        last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS invoices (
        id           TEXT PRIMARY KEY,
        client_id    TEXT NOT NULL,
        client_email TEXT NOT NULL DEFAULT '',
        client_name  TEXT NOT NULL DEFAULT '',
        month        TEXT NOT NULL,
        total_hours  NUMERIC(8,3) NOT NULL DEFAULT 0,
        total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
        lawyer_ids   TEXT NOT NULL DEFAULT '',
        matter_ids   TEXT NOT NULL DEFAULT '',
        invoice_date TIMESTAMPTZ NOT NULL,
        status       TEXT NOT NULL DEFAULT 'DRAFT',
        UNIQUE (client_id, month)
);

CREATE TABLE IF NOT EXISTS low_balance_warnings (
        id             BIGSERIAL PRIMARY KEY,
        client_id      TEXT NOT NULL,
        client_email   TEXT NOT NULL DEFAULT '',
        client_name    TEXT NOT NULL DEFAULT '',
        balance        NUMERIC(12,2) NOT NULL,
        target_balance NUMERIC(12,2) NOT NULL,
        warned_at      TIMESTAMPTZ NOT NULL,
        cleared_at     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS settings (
        key         TEXT PRIMARY KEY,
        value       TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS processed_payments (
        payment_id   TEXT PRIMARY KEY,
        processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Seed rows for a fresh settings ledger. Values are left empty so the
// resolver applies its documented defaults until the firm edits them.
var defaultSettingRows = []struct {
	key, description string
}{
	{"Payment Link", "Base URL clients use to top up their retainer"},
	{"Default Currency", "Currency recorded on payments without one"},
	{"Low Balance Threshold", "Fallback alert threshold when a client has no target"},
	{"Daily Sync Time", "HH:MM time of the daily reconciliation run"},
	{"Email Notifications", "true/false: send low balance and digest emails"},
	{"Auto Generate Invoices", "true/false: generate invoices on the invoice day"},
	{"Invoice Day", "Day of month invoices are generated"},
	{"Summary Email Time", "HH:MM time of the daily summary email"},
}

// EnsureSchema creates missing ledger tables and seeds the recognized
// settings keys on first run.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	for _, row := range defaultSettingRows {
		const q = `
                INSERT INTO settings (key, value, description)
                VALUES ($1, '', $2)
                ON CONFLICT (key) DO NOTHING
        `
		if _, err := db.Exec(q, row.key, row.description); err != nil {
			return fmt.Errorf("seed setting %q: %w", row.key, err)
		}
	}
	return nil
}

// requiredColumns lists the header each ledger must carry. Extra
// columns are tolerated; missing ones abort the run.
var requiredColumns = map[string][]string{
	"clients":              {"id", "email", "name", "target_balance", "status", "last_updated"},
	"payments":             {"id", "client_email", "amount", "currency", "date", "status", "payment_link"},
	"time_entries":         {"date", "client_id", "matter_id", "lawyer_id", "hours", "description"},
	"lawyers":              {"id", "name", "email", "rate", "status"},
	"matters":              {"id", "client_id", "client_name", "description", "value", "status", "created_at", "last_updated"},
	"invoices":             {"id", "client_id", "client_email", "client_name", "month", "total_hours", "total_amount", "lawyer_ids", "matter_ids", "invoice_date", "status"},
	"low_balance_warnings": {"client_id", "client_email", "client_name", "balance", "target_balance", "warned_at", "cleared_at"},
	"settings":             {"key", "value", "description"},
	"processed_payments":   {"payment_id", "processed_at"},
}

// ValidateSchema checks every required ledger table and column before
// a snapshot is read.
func ValidateSchema(db *sql.DB) error {
	for table, cols := range requiredColumns {
		rows, err := db.Query(`
                        SELECT column_name FROM information_schema.columns
                        WHERE table_schema = current_schema() AND table_name = $1
                `, table)
		if err != nil {
			return fmt.Errorf("validate schema: %w", err)
		}
		present := map[string]bool{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return fmt.Errorf("validate schema: %w", err)
			}
			present[strings.ToLower(name)] = true
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("validate schema: %w", err)
		}
		if len(present) == 0 {
			return &StructuralError{Ledger: table, Detail: "table is missing"}
		}
		var missing []string
		for _, c := range cols {
			if !present[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			return &StructuralError{Ledger: table, Detail: "missing columns: " + strings.Join(missing, ", ")}
		}
	}
	return nil
}
