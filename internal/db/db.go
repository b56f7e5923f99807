package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	maxOpenConns = 10
	maxIdleConns = 2
	pingTimeout  = 5 * time.Second
)

// NewBunPostgresClient opens the account registry database. It does not connect.
func NewBunPostgresClient(connectionString string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connectionString)))

	db := bun.NewDB(sqldb, pgdialect.New())

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	return db
}

// Connect opens the database and verifies it is reachable.
func Connect(ctx context.Context, connectionString string) (*bun.DB, error) {
	db := NewBunPostgresClient(connectionString)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}
