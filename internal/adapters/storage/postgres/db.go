package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

var (
	ErrNoEndpoint = errors.New("no database endpoint configured")
)

// Open abre un pool a Postgres usando pgx (database/sql) y hace ping.
// El ping se reintenta hasta retries veces con backoff exponencial.
func Open(ctx context.Context, dsn string, retries uint64) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoEndpoint
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// defaults razonables (ajustable luego)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	backoff := retry.WithMaxRetries(retries, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureCollection crea la tabla-documento de la colección si no existe.
// Cada fila es un documento JSONB identificado por id.
func EnsureCollection(ctx context.Context, db *sql.DB, collection string) error {
	table, err := tableName(collection)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+table+` (
			id  TEXT PRIMARY KEY,
			doc JSONB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure collection %s: %w", collection, err)
	}
	return nil
}

func tableName(collection string) (string, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return "", errors.New("collection name required")
	}
	return pgx.Identifier{collection}.Sanitize(), nil
}
