package db

import (
	"context"
	"fmt"
	"time"

	"eprice/internal/types"
)

// PriceRepo provides data access for the porssisahko table, the hourly spot
// price cache. One row per hour slot; the datetime column is the unique key.
//
// Writes are first-writer-wins: ON CONFLICT DO NOTHING, never an update. A
// concurrent reconciliation upserting the same hour is therefore safe, and a
// later fetch can never overwrite an already-cached value.
type PriceRepo struct {
	db DBTX
}

// NewPriceRepo creates a new PriceRepo backed by the given database
// connection (pool or transaction).
func NewPriceRepo(db DBTX) *PriceRepo {
	return &PriceRepo{db: db}
}

const insertPriceSQL = `
	INSERT INTO porssisahko (datetime, date, year, month, day, hour, weekday, price, predicted)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (datetime) DO NOTHING`

// Insert stores one price point. The UTC instant is projected onto the
// Helsinki wall clock here, at the write boundary. Conflicting slots are
// silently ignored.
func (r *PriceRepo) Insert(ctx context.Context, p types.PricePoint, predicted bool) error {
	local := types.ToLocalNaive(p.StartDate)
	y, m, d := local.Date()
	dt := truncateToHour(local.DBValue())

	_, err := r.db.Exec(ctx, insertPriceSQL,
		dt,
		dt.Format("2006-01-02"),
		y, int(m), d,
		local.Hour(),
		local.Weekday(),
		p.Price,
		predicted,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB,
			fmt.Sprintf("failed to insert price row for %s", p.StartDate.Format("2006-01-02T15:04:05Z")), err)
	}
	return nil
}

// InsertBatch stores many price points with the same conflict policy. The
// batch is not atomic: each row is independently idempotent, so a partial
// failure leaves the cache valid and the remainder is picked up by the next
// reconciliation.
func (r *PriceRepo) InsertBatch(ctx context.Context, points []types.PricePoint) error {
	for _, p := range points {
		if err := r.Insert(ctx, p, false); err != nil {
			return err
		}
	}
	return nil
}

// GetRange returns cached rows whose local-naive datetime falls inside
// [start, end] inclusive, ascending. The read boundary reinterprets each
// stored wall clock back into a UTC-aware instant.
func (r *PriceRepo) GetRange(ctx context.Context, start, end types.LocalNaive) ([]types.PricePoint, error) {
	rows, err := r.db.Query(ctx,
		`SELECT datetime, price
		 FROM porssisahko
		 WHERE datetime BETWEEN $1 AND $2
		 ORDER BY datetime ASC`,
		start.DBValue(), end.DBValue(),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query price range", err)
	}
	defer rows.Close()

	var points []types.PricePoint
	for rows.Next() {
		var p types.PricePoint
		var dt time.Time
		if err := rows.Scan(&dt, &p.Price); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan price row", err)
		}
		p.StartDate = types.LocalNaiveFromDB(dt).UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating price rows", err)
	}

	return points, nil
}

// GetMissingHours returns the hourly slots between start and end (inclusive,
// 1-hour step) that have no stored row, as Helsinki-local (date, hour) pairs.
func (r *PriceRepo) GetMissingHours(ctx context.Context, start, end types.LocalNaive) ([]MissingHour, error) {
	rows, err := r.db.Query(ctx,
		hourSeries+`
		SELECT hs.datetime
		FROM hour_series hs
		LEFT JOIN porssisahko p ON hs.datetime = p.datetime
		WHERE p.datetime IS NULL
		ORDER BY hs.datetime ASC`,
		start.DBValue(), end.DBValue(),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query missing price hours", err)
	}
	defer rows.Close()

	return scanMissingHours(rows)
}
