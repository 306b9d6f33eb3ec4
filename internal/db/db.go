// Package db opens the Postgres pool used by the hardened profile. The demo
// profile runs entirely on the in-memory stores and never calls Open.
package db

import (
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Open connects via the pgx stdlib driver and verifies the connection with a
// ping before handing the pool out.
func Open(dsn string) (*sqlx.DB, error) {
	pool, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxIdleConns)
	pool.SetConnMaxLifetime(connMaxLifetime)
	if err := pool.Ping(); err != nil {
		return nil, err
	}
	return pool, nil
}
