package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TripChangesChannel is the NOTIFY channel the trips trigger publishes on.
// The payload is the changed trip id.
const TripChangesChannel = "trip_changes"

// PGChangeFeed turns Postgres NOTIFY events on TripChangesChannel into
// ChangeHandler calls. It holds one pooled connection while listening.
type PGChangeFeed struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	backoff time.Duration
}

var _ ChangeFeed = (*PGChangeFeed)(nil)

// NewPGChangeFeed returns a feed that reconnects after backoff on failure.
func NewPGChangeFeed(pool *pgxpool.Pool, logger *slog.Logger, backoff time.Duration) *PGChangeFeed {
	if backoff <= 0 {
		backoff = time.Second
	}
	return &PGChangeFeed{pool: pool, logger: logger, backoff: backoff}
}

func (f *PGChangeFeed) Run(ctx context.Context, handler ChangeHandler) error {
	for attempt := 0; ; attempt++ {
		err := f.listen(ctx, handler, attempt > 0)
		if ctx.Err() != nil {
			return nil
		}
		f.logger.Warn("trip change feed interrupted; reconnecting",
			slog.String("channel", TripChangesChannel),
			slog.Any("error", err),
			slog.Duration("backoff", f.backoff),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.backoff):
		}
	}
}

// listen holds a LISTEN session until it fails. NOTIFYs sent while no session
// was open are lost, so a reconnect reports AllTrips once listening resumes.
func (f *PGChangeFeed) listen(ctx context.Context, handler ChangeHandler, reconnect bool) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("repo.PGChangeFeed.listen: acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+TripChangesChannel); err != nil {
		return fmt.Errorf("repo.PGChangeFeed.listen: listen: %w", err)
	}
	f.logger.Info("trip change feed listening", slog.String("channel", TripChangesChannel))
	if reconnect {
		handler(ctx, AllTrips)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("repo.PGChangeFeed.listen: wait: %w", err)
		}
		id, err := uuid.Parse(n.Payload)
		if err != nil || id == AllTrips {
			f.logger.Warn("ignoring malformed trip change payload", slog.String("payload", n.Payload))
			continue
		}
		handler(ctx, id)
	}
}
