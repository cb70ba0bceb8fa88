package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PingProbe is the database health probe registered on GET /health.
type PingProbe struct {
	pool *pgxpool.Pool
}

// NewPingProbe creates a PingProbe for the given pool.
func NewPingProbe(pool *pgxpool.Pool) *PingProbe {
	return &PingProbe{pool: pool}
}

// Name identifies the probe in the health response.
func (p *PingProbe) Name() string { return "database" }

// Check pings the database within the probe context's deadline.
func (p *PingProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
