package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgx/v4"
)

var (
	ErrInsertFailed = errors.New("insert operation failed")
	ErrSelectFailed = errors.New("select operation failed")
)

// Delivery is one relayed pin and the response it drew. The relay
// records it best-effort after each send; a crash in between loses
// only history, never a pin.
type Delivery struct {
	PinID     string `db:"pin_id"`
	EventCode int    `db:"event_code"`
	EventTime int64  `db:"event_time"`
	Verb      string `db:"verb"`
	Response  string `db:"response"`
	RelayedAt int64  `db:"relayed_at"`
}

func (db *DB) Record(ctx context.Context, delivery Delivery) error {
	const fn = "DB:Record"
	_, err := db.pool.Exec(ctx, `
		INSERT INTO pin_deliveries (
			pin_id,
			event_code,
			event_time,
			verb,
			response,
			relayed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, delivery.PinID, delivery.EventCode, delivery.EventTime, delivery.Verb, delivery.Response, delivery.RelayedAt)
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrInsertFailed, err)
	}
	return nil
}

func (db *DB) LoadBetween(ctx context.Context, start, end int64) ([]Delivery, error) {
	const fn = "DB:LoadBetween"
	var deliveries []Delivery
	err := pgxscan.Select(ctx, db.pool, &deliveries, `
		SELECT
			pin_id,
			event_code,
			event_time,
			verb,
			response,
			relayed_at
		FROM pin_deliveries
		WHERE event_time >= $1
		AND event_time <= $2
		ORDER BY event_time ASC
	`, start, end)
	if err != nil {
		if err == pgx.ErrNoRows {
			return []Delivery{}, nil
		}
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrSelectFailed, err)
	}
	return deliveries, nil
}
