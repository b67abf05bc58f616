package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type DB struct {
	connection *sql.DB
}

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &DB{connection: db}, nil
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		log.Println("Error closing the database connection:", err)
	}
}

// EnsureSchema creates the city_jobs table when missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.connection.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS city_jobs (
			id              SERIAL PRIMARY KEY,
			city            TEXT NOT NULL,
			normalized_city TEXT NOT NULL UNIQUE,
			jobs            JSONB NOT NULL DEFAULT '[]'::jsonb,
			last_refreshed  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create city_jobs table: %w", err)
	}
	return nil
}

// ReplaceCityCollections replaces the entire stored job set with the given
// groups. A refresh is a full replace, not a merge: the source listing
// supersedes prior state, and replace semantics avoid stale entries. The
// delete and inserts run in one transaction so concurrent readers never
// observe a half-empty store.
func (db *DB) ReplaceCityCollections(ctx context.Context, groups []CityJobCollection) error {
	tx, err := db.connection.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM city_jobs`); err != nil {
		return fmt.Errorf("delete city_jobs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO city_jobs (city, normalized_city, jobs, last_refreshed)
		VALUES ($1, $2, $3::jsonb, $4)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, g := range groups {
		jobsJSON, err := json.Marshal(g.Jobs)
		if err != nil {
			return fmt.Errorf("marshal jobs for %q: %w", g.City, err)
		}
		if _, err := stmt.ExecContext(ctx, g.City, g.NormalizedCity, string(jobsJSON), now); err != nil {
			return fmt.Errorf("insert city %q: %w", g.City, err)
		}
	}

	return tx.Commit()
}

// CityCollection looks up the stored collection for a normalized city key.
// A missing city returns (nil, nil); that is a benign empty result, not an error.
func (db *DB) CityCollection(ctx context.Context, normalizedCity string) (*CityJobCollection, error) {
	row := db.connection.QueryRowContext(ctx, `
		SELECT city, normalized_city, jobs, last_refreshed
		FROM city_jobs
		WHERE normalized_city = $1`, normalizedCity)

	var c CityJobCollection
	var jobsJSON []byte
	if err := row.Scan(&c.City, &c.NormalizedCity, &jobsJSON, &c.LastRefreshed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(jobsJSON, &c.Jobs); err != nil {
		return nil, fmt.Errorf("unmarshal jobs for %q: %w", c.City, err)
	}

	return &c, nil
}

// Cities returns every stored city display name with its job count, for
// lightweight introspection endpoints.
func (db *DB) Cities(ctx context.Context) (map[string]int, error) {
	rows, err := db.connection.QueryContext(ctx, `
		SELECT city, jsonb_array_length(jobs) FROM city_jobs ORDER BY city`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var city string
		var count int
		if err := rows.Scan(&city, &count); err != nil {
			return nil, err
		}
		out[city] = count
	}
	return out, rows.Err()
}

// GetConnection returns the underlying database connection for advanced queries
func (db *DB) GetConnection() *sql.DB {
	return db.connection
}
