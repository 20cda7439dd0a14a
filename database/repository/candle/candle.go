// Package candle stores Kraken OHLC candles in the ohlc table
package candle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opa-project/opa/database"
	"github.com/opa-project/opa/log"
)

const (
	createSQLite = `CREATE TABLE IF NOT EXISTS ohlc (
	pair TEXT NOT NULL,
	interval_minutes INTEGER NOT NULL,
	ts INTEGER NOT NULL,
	open TEXT NOT NULL,
	high TEXT NOT NULL,
	low TEXT NOT NULL,
	close TEXT NOT NULL,
	vwap TEXT NOT NULL,
	volume TEXT NOT NULL,
	trades INTEGER NOT NULL,
	PRIMARY KEY (pair, interval_minutes, ts)
)`
	createPostgres = `CREATE TABLE IF NOT EXISTS ohlc (
	pair TEXT NOT NULL,
	interval_minutes BIGINT NOT NULL,
	ts BIGINT NOT NULL,
	open NUMERIC NOT NULL,
	high NUMERIC NOT NULL,
	low NUMERIC NOT NULL,
	close NUMERIC NOT NULL,
	vwap NUMERIC NOT NULL,
	volume NUMERIC NOT NULL,
	trades BIGINT NOT NULL,
	PRIMARY KEY (pair, interval_minutes, ts)
)`
	upsertCandle = `INSERT INTO ohlc (pair, interval_minutes, ts, open, high, low, close, vwap, volume, trades)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (pair, interval_minutes, ts) DO UPDATE SET
	open = excluded.open, high = excluded.high, low = excluded.low, close = excluded.close,
	vwap = excluded.vwap, volume = excluded.volume, trades = excluded.trades`
	selectSeries = `SELECT ts, open, high, low, close, vwap, volume, trades FROM ohlc
WHERE pair = ? AND interval_minutes = ? AND ts BETWEEN ? AND ?
ORDER BY ts`
	deleteSeries = `DELETE FROM ohlc WHERE pair = ? AND interval_minutes = ? AND ts BETWEEN ? AND ?`
)

// CreateTable creates the ohlc table when it does not exist
func CreateTable(ctx context.Context, db *database.Instance) error {
	con, err := db.GetSQL()
	if err != nil {
		return err
	}
	_, err = con.ExecContext(ctx, createStatement(db.Driver()))
	return err
}

func createStatement(driver string) string {
	if driver == database.DBPostgres {
		return createPostgres
	}
	return createSQLite
}

// Insert writes the candles of in within a single transaction, replacing
// any stored candle with the same pair, interval and timestamp. It returns
// the number of rows written.
func Insert(ctx context.Context, db *database.Instance, in *Item) (uint64, error) {
	if in == nil || len(in.Candles) == 0 {
		return 0, errNoCandleData
	}
	if in.Pair == "" || in.Interval <= 0 {
		return 0, errInvalidInput
	}
	con, err := db.GetSQL()
	if err != nil {
		return 0, err
	}
	driver := db.Driver()

	tx, err := con.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, createStatement(driver)); err != nil {
		return 0, rollback(tx, err)
	}
	stmt, err := tx.PrepareContext(ctx, database.Rebind(driver, upsertCandle))
	if err != nil {
		return 0, rollback(tx, err)
	}
	defer stmt.Close()

	var count uint64
	for i := range in.Candles {
		c := &in.Candles[i]
		res, err := stmt.ExecContext(ctx, in.Pair, in.Interval, c.Timestamp.Unix(),
			c.Open, c.High, c.Low, c.Close, c.VWAP, c.Volume, c.Count)
		if err != nil {
			return 0, rollback(tx, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, rollback(tx, err)
		}
		if n > 0 {
			count++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Debugf(log.DatabaseSys, "Inserted %d %s candles at %d minute interval", count, in.Pair, in.Interval)
	return count, nil
}

// Series returns the stored candles for pair and interval between start and
// end inclusive, oldest first
func Series(ctx context.Context, db *database.Instance, pair string, interval int64, start, end time.Time) (*Item, error) {
	if pair == "" || interval <= 0 || start.IsZero() || end.IsZero() {
		return nil, errInvalidInput
	}
	con, err := db.GetSQL()
	if err != nil {
		return nil, err
	}
	if err := CreateTable(ctx, db); err != nil {
		return nil, err
	}
	rows, err := con.QueryContext(ctx, database.Rebind(db.Driver(), selectSeries), pair, interval, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &Item{Pair: pair, Interval: interval}
	for rows.Next() {
		var (
			c  Candle
			ts int64
		)
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.VWAP, &c.Volume, &c.Count); err != nil {
			return nil, err
		}
		c.Timestamp = time.Unix(ts, 0).UTC()
		out.Candles = append(out.Candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out.Candles) == 0 {
		return nil, fmt.Errorf("%w: %s %d minute candles between %s and %s", ErrNoCandleDataFound, pair, interval, start.UTC(), end.UTC())
	}
	return out, nil
}

// DeleteCandles removes the stored candles spanning the timestamps in in
func DeleteCandles(ctx context.Context, db *database.Instance, in *Item) (uint64, error) {
	if in == nil || len(in.Candles) == 0 {
		return 0, errNoCandleData
	}
	if in.Pair == "" || in.Interval <= 0 {
		return 0, errInvalidInput
	}
	con, err := db.GetSQL()
	if err != nil {
		return 0, err
	}
	first, last := in.Candles[0].Timestamp, in.Candles[0].Timestamp
	for i := range in.Candles {
		if in.Candles[i].Timestamp.Before(first) {
			first = in.Candles[i].Timestamp
		}
		if in.Candles[i].Timestamp.After(last) {
			last = in.Candles[i].Timestamp
		}
	}
	res, err := con.ExecContext(ctx, database.Rebind(db.Driver(), deleteSeries), in.Pair, in.Interval, first.Unix(), last.Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil //nolint:gosec // RowsAffected is never negative here
}

func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		log.Errorf(log.DatabaseSys, "Rollback failed: %v", rbErr)
	}
	return err
}
