package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DatabaseTarget is the label used for database results.
const DatabaseTarget = "database"

// PingDatabase opens a connection to databaseURL and pings it.
// An empty URL yields a skipped result.
func PingDatabase(ctx context.Context, databaseURL string, timeout time.Duration) Result {
	result := Result{Target: DatabaseTarget}
	if databaseURL == "" {
		result.Skipped = true
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		result.Err = fmt.Errorf("parse database url: %w", err)
		return result
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		result.Latency = time.Since(start)
		result.Err = fmt.Errorf("connect to %s: %w", cfg.Host, err)
		return result
	}
	defer conn.Close(context.Background())

	if err := conn.Ping(ctx); err != nil {
		result.Latency = time.Since(start)
		result.Err = fmt.Errorf("ping %s: %w", cfg.Host, err)
		return result
	}

	result.Latency = time.Since(start)
	result.Healthy = true
	return result
}
