package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"listing-extractor/models"
)

// PostgresWriter persists accepted listings to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS extracted_listings (
			id            SERIAL PRIMARY KEY,
			address       TEXT        NOT NULL,
			city          TEXT        NOT NULL DEFAULT '',
			state         VARCHAR(2)  NOT NULL DEFAULT '',
			zip           VARCHAR(10) NOT NULL DEFAULT '',
			price         TEXT        NOT NULL DEFAULT '',
			bedrooms      TEXT        NOT NULL DEFAULT '',
			bathrooms     TEXT        NOT NULL DEFAULT '',
			square_feet   TEXT        NOT NULL DEFAULT '',
			status        TEXT        NOT NULL DEFAULT '',
			mls_id        TEXT        NOT NULL DEFAULT '',
			description   TEXT        NOT NULL DEFAULT '',
			title         TEXT        NOT NULL DEFAULT '',
			image_url     TEXT        NOT NULL DEFAULT '',
			image_urls    TEXT[]      NOT NULL DEFAULT '{}',
			property_type TEXT        NOT NULL DEFAULT '',
			year_built    TEXT        NOT NULL DEFAULT '',
			url           TEXT        UNIQUE NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_extracted_listings_state ON extracted_listings(state);
		CREATE INDEX IF NOT EXISTS idx_extracted_listings_city  ON extracted_listings(city);
	`)
	return err
}

// Write batch-inserts listings, skipping URLs already stored.
func (pw *PostgresWriter) Write(listings []*models.ExtractedListing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const insertColumns = 17

func (pw *PostgresWriter) insertBatch(batch []*models.ExtractedListing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*insertColumns)

	for idx, l := range batch {
		base := idx * insertColumns
		placeholders := make([]string, insertColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.Address, l.City, l.State, l.Zip,
			l.Price, l.Bedrooms, l.Bathrooms, l.SquareFeet,
			l.Status, l.MLSID, l.Description, l.Title,
			l.ImageURL, pq.Array(l.ImageURLs),
			l.PropertyType, l.YearBuilt, l.URL)
	}

	query := fmt.Sprintf(`
		INSERT INTO extracted_listings (
			address, city, state, zip,
			price, bedrooms, bathrooms, square_feet,
			status, mls_id, description, title,
			image_url, image_urls, property_type, year_built, url
		)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings, newest first.
func (pw *PostgresWriter) FetchAll() ([]*models.ExtractedListing, error) {
	rows, err := pw.db.Query(`
		SELECT address, city, state, zip,
		       price, bedrooms, bathrooms, square_feet,
		       status, mls_id, description, title,
		       image_url, image_urls, property_type, year_built, url
		FROM extracted_listings
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.ExtractedListing
	for rows.Next() {
		l := &models.ExtractedListing{}
		if err := rows.Scan(
			&l.Address, &l.City, &l.State, &l.Zip,
			&l.Price, &l.Bedrooms, &l.Bathrooms, &l.SquareFeet,
			&l.Status, &l.MLSID, &l.Description, &l.Title,
			&l.ImageURL, pq.Array(&l.ImageURLs),
			&l.PropertyType, &l.YearBuilt, &l.URL,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

var _ ListingWriter = (*PostgresWriter)(nil)
