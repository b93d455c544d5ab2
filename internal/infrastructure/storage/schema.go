package storage

import (
	"context"
	_ "embed"
	"fmt"
)

// Schema creates the articles table and its indexes. Every statement is
// idempotent. The unique index on url backs the ON CONFLICT clause of
// InsertMany.
//
//go:embed schema.sql
var Schema string

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
