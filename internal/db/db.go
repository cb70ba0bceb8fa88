// Package db provides PostgreSQL-backed repository implementations for the
// hourly market-data cache. All repositories accept a DBTX interface that is
// satisfied by both *pgxpool.Pool (for normal queries) and pgx.Tx (for
// transactional execution), enabling clean transaction support.
//
// Storage convention: the cache tables store naive Europe/Helsinki wall-clock
// timestamps. Callers pass types.LocalNaive values at this boundary; the
// UTC conversion happens in exactly one place on each side of it.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"eprice/internal/config"
	"eprice/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool creates a pgx connection pool from the database configuration and
// verifies connectivity with a ping.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.AcquireTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// MissingHour identifies one hourly slot absent from a cache table, as the
// Helsinki-local calendar date and hour stored in the row schema.
type MissingHour struct {
	Date string // YYYY-MM-DD
	Hour int    // 0-23
}

// hourSeries is the generated hourly series CTE shared by the missing-hour
// queries. The diff runs as a left anti-join inside PostgreSQL so the full
// range is never materialized in application memory.
const hourSeries = `
	WITH hour_series AS (
		SELECT generate_series($1::timestamp, $2::timestamp, '1 hour'::interval) AS datetime
	)`

// truncateToHour drops minutes and smaller from a wall-clock value.
func truncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// scanMissingHours converts generated-series rows into (date, hour) pairs.
func scanMissingHours(rows pgx.Rows) ([]MissingHour, error) {
	var missing []MissingHour
	for rows.Next() {
		var dt time.Time
		if err := rows.Scan(&dt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan missing hour row", err)
		}
		missing = append(missing, MissingHour{
			Date: dt.Format("2006-01-02"),
			Hour: dt.Hour(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating missing hour rows", err)
	}
	return missing, nil
}
