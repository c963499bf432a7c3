package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime maps DATETIME to time.Time; loc=UTC keeps archived
	// completion times comparable across terminals
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS receipts (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		order_id       BIGINT NOT NULL,
		order_code     VARCHAR(64) NOT NULL,
		staff_id       VARCHAR(64) NOT NULL,
		payment_method VARCHAR(16) NOT NULL,
		final_amount   DECIMAL(14,2) NOT NULL,
		payload        JSON NOT NULL,
		completed_at   DATETIME NOT NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_receipts_order_code (order_code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sale_incidents (
		id          CHAR(36) PRIMARY KEY,
		session_id  VARCHAR(64) NOT NULL,
		staff_id    VARCHAR(64) NOT NULL,
		order_id    BIGINT NOT NULL,
		order_code  VARCHAR(64) NOT NULL,
		trans_id    VARCHAR(64) NULL,
		kind        VARCHAR(32) NOT NULL,
		detail      TEXT NOT NULL,
		occurred_at DATETIME NOT NULL,
		resolved_at DATETIME NULL,
		resolved_by VARCHAR(64) NULL,
		KEY idx_sale_incidents_open (resolved_at, occurred_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the service owns.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
