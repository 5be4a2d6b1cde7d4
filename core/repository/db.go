package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// DB wraps the warehouse connection pool.
type DB struct {
	*sql.DB
}

// NewDB opens and verifies a read-only connection to the run-history
// warehouse.
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db}, nil
}
