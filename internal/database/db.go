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
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema is applied in order on every start. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS daily_capacity (
		date_key           CHAR(10)        NOT NULL,
		total_capacity     INT             NOT NULL,
		remaining_capacity INT             NOT NULL,
		reserved_pieces    INT             NOT NULL DEFAULT 0,
		version            BIGINT UNSIGNED NOT NULL DEFAULT 0,
		last_updated       DATETIME(6)     NOT NULL,
		created_at         DATETIME(6)     NOT NULL,
		PRIMARY KEY (date_key),
		CONSTRAINT chk_capacity_remaining CHECK (remaining_capacity >= 0 AND remaining_capacity <= total_capacity)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             CHAR(36)     NOT NULL,
		order_number   VARCHAR(16)  NOT NULL,
		date_key       CHAR(10)     NOT NULL,
		box_size       INT          NOT NULL,
		status         VARCHAR(16)  NOT NULL,
		customer_phone VARCHAR(32)  NOT NULL,
		customer_name  VARCHAR(255) NOT NULL,
		address        TEXT         NOT NULL,
		notes          TEXT         NOT NULL,
		city           VARCHAR(64)  NOT NULL,
		delivery_hours INT          NOT NULL,
		box_price      INT          NOT NULL,
		delivery_price INT          NOT NULL,
		total_price    INT          NOT NULL,
		flavors        JSON         NOT NULL,
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		cancelled_at   DATETIME(6)  NULL,
		PRIMARY KEY (id),
		KEY idx_orders_date (date_key, created_at),
		KEY idx_orders_number (order_number)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS customers (
		phone         VARCHAR(32)  NOT NULL,
		name          VARCHAR(255) NOT NULL,
		address       TEXT         NOT NULL,
		notes         TEXT         NOT NULL,
		order_count   INT          NOT NULL DEFAULT 0,
		last_order_at DATETIME(6)  NOT NULL,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		PRIMARY KEY (phone)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the daily_capacity, orders and customers tables when
// they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
