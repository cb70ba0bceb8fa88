package db

import (
	"context"
	"fmt"
	"time"

	"eprice/internal/types"
)

// DatasetRepo provides data access for the fingrid table, the hourly cache
// for grid datasets (wind power, consumption, production). Rows are keyed by
// (datetime, dataset_id) with the same first-writer-wins conflict policy as
// the price cache.
type DatasetRepo struct {
	db DBTX
}

// NewDatasetRepo creates a new DatasetRepo backed by the given database
// connection (pool or transaction).
func NewDatasetRepo(db DBTX) *DatasetRepo {
	return &DatasetRepo{db: db}
}

const insertDatasetSQL = `
	INSERT INTO fingrid (datetime, date, year, month, day, hour, weekday, dataset_id, value, predicted)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (datetime, dataset_id) DO NOTHING`

// Insert stores one dataset point for the given series. Conflicting
// (datetime, dataset_id) slots are silently ignored.
func (r *DatasetRepo) Insert(ctx context.Context, datasetID int, p types.DataPoint, predicted bool) error {
	local := types.ToLocalNaive(p.StartTime)
	y, m, d := local.Date()
	dt := truncateToHour(local.DBValue())

	_, err := r.db.Exec(ctx, insertDatasetSQL,
		dt,
		dt.Format("2006-01-02"),
		y, int(m), d,
		local.Hour(),
		local.Weekday(),
		datasetID,
		p.Value,
		predicted,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB,
			fmt.Sprintf("failed to insert dataset %d row for %s", datasetID, p.StartTime.Format("2006-01-02T15:04:05Z")), err)
	}
	return nil
}

// InsertBatch stores many dataset points; each row is independently
// idempotent, so the batch is not required to be atomic.
func (r *DatasetRepo) InsertBatch(ctx context.Context, datasetID int, points []types.DataPoint) error {
	for _, p := range points {
		if err := r.Insert(ctx, datasetID, p, false); err != nil {
			return err
		}
	}
	return nil
}

// GetRange returns cached rows for one series whose local-naive datetime
// falls inside [start, end] inclusive, ascending. Each stored wall clock is
// reinterpreted back into a UTC-aware instant at this read boundary; EndTime
// is derived as StartTime + 1h since every slot is exactly one hour wide.
func (r *DatasetRepo) GetRange(ctx context.Context, start, end types.LocalNaive, datasetID int) ([]types.DataPoint, error) {
	rows, err := r.db.Query(ctx,
		`SELECT datetime, value
		 FROM fingrid
		 WHERE datetime BETWEEN $1 AND $2
		   AND dataset_id = $3
		 ORDER BY datetime ASC`,
		start.DBValue(), end.DBValue(), datasetID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query dataset range", err)
	}
	defer rows.Close()

	var points []types.DataPoint
	for rows.Next() {
		var p types.DataPoint
		var dt time.Time
		if err := rows.Scan(&dt, &p.Value); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan dataset row", err)
		}
		p.StartTime = types.LocalNaiveFromDB(dt).UTC()
		p.EndTime = p.StartTime.Add(time.Hour)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating dataset rows", err)
	}

	return points, nil
}

// GetMissingHours returns the hourly slots between start and end (inclusive,
// 1-hour step) with no stored row for the given series.
func (r *DatasetRepo) GetMissingHours(ctx context.Context, start, end types.LocalNaive, datasetID int) ([]MissingHour, error) {
	rows, err := r.db.Query(ctx,
		hourSeries+`
		SELECT hs.datetime
		FROM hour_series hs
		LEFT JOIN fingrid f ON hs.datetime = f.datetime AND f.dataset_id = $3
		WHERE f.datetime IS NULL
		ORDER BY hs.datetime ASC`,
		start.DBValue(), end.DBValue(), datasetID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query missing dataset hours", err)
	}
	defer rows.Close()

	return scanMissingHours(rows)
}
