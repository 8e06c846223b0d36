package destdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Package destdb writes report statement batches to the central accounting
// store. The whole batch for a run is one transaction: either every
// statement lands or none do.

type Client struct {
	db *sql.DB
}

// Open connects to the destination store. driver is a database/sql driver
// name (postgres for the central service).
func Open(driver, dsn string) (*Client, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open destination database: %w", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error { return c.db.Close() }

// Execute runs all statements inside a single transaction, rolling the whole
// batch back on the first failure.
func (c *Client) Execute(ctx context.Context, stmts []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for i, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
	}
	return tx.Commit()
}
