package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yllada/mullvad-rotate/relay"
)

// ErrNoCache is returned by Load when nothing has been saved yet.
var ErrNoCache = errors.New("relay cache is empty")

const schema = `
CREATE TABLE IF NOT EXISTS relays (
	position           INTEGER PRIMARY KEY,
	hostname           TEXT,
	country_code       TEXT,
	city_code          TEXT,
	type               TEXT,
	active             INTEGER,
	owned              INTEGER,
	stboot             INTEGER,
	provider           TEXT,
	network_port_speed INTEGER
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);`

const fetchedAtKey = "fetched_at"

// Cache stores the last fetched relay list in a sqlite database.
// Absent fields are stored as NULL so they survive a round trip.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open relay cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize relay cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save replaces the cached list and records when it was fetched.
func (c *Cache) Save(ctx context.Context, records []relay.Record, fetchedAt time.Time) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM relays`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO relays (position, hostname, country_code, city_code,
		type, active, owned, stboot, provider, network_port_speed) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx, i,
			nullString(r.Hostname, r.Has(relay.FieldHostname)),
			nullString(r.CountryCode, r.Has(relay.FieldCountry)),
			nullString(r.CityCode, r.Has(relay.FieldCity)),
			nullString(string(r.Kind), r.Has(relay.FieldKind)),
			nullBool(r.Active, r.Has(relay.FieldActive)),
			nullBool(r.Owned, r.Has(relay.FieldOwned)),
			nullBool(r.Stboot, r.Has(relay.FieldStboot)),
			nullString(r.Provider, r.Has(relay.FieldProvider)),
			nullInt(r.Bandwidth, r.Has(relay.FieldBandwidth)),
		)
		if err != nil {
			return fmt.Errorf("failed to cache relay %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fetchedAtKey, fetchedAt.UnixNano()); err != nil {
		return err
	}
	return tx.Commit()
}

// Load returns the cached list in its original order and the time it
// was fetched. It returns ErrNoCache if Save was never called.
func (c *Cache) Load(ctx context.Context) ([]relay.Record, time.Time, error) {
	fetchedAt, err := c.FetchedAt(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	rows, err := c.db.QueryContext(ctx, `SELECT hostname, country_code, city_code, type, active,
		owned, stboot, provider, network_port_speed FROM relays ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var records []relay.Record
	for rows.Next() {
		var (
			hostname, country, city, kind, provider sql.NullString
			active, owned, stboot                   sql.NullBool
			bandwidth                               sql.NullInt64
		)
		if err := rows.Scan(&hostname, &country, &city, &kind, &active, &owned, &stboot, &provider, &bandwidth); err != nil {
			return nil, time.Time{}, err
		}

		var r relay.Record
		if hostname.Valid {
			r.Hostname, r.Present = hostname.String, r.Present|relay.FieldHostname
		}
		if country.Valid {
			r.CountryCode, r.Present = country.String, r.Present|relay.FieldCountry
		}
		if city.Valid {
			r.CityCode, r.Present = city.String, r.Present|relay.FieldCity
		}
		if kind.Valid {
			r.Kind, r.Present = relay.Kind(kind.String), r.Present|relay.FieldKind
		}
		if active.Valid {
			r.Active, r.Present = active.Bool, r.Present|relay.FieldActive
		}
		if owned.Valid {
			r.Owned, r.Present = owned.Bool, r.Present|relay.FieldOwned
		}
		if stboot.Valid {
			r.Stboot, r.Present = stboot.Bool, r.Present|relay.FieldStboot
		}
		if provider.Valid {
			r.Provider, r.Present = provider.String, r.Present|relay.FieldProvider
		}
		if bandwidth.Valid {
			r.Bandwidth, r.Present = int(bandwidth.Int64), r.Present|relay.FieldBandwidth
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	return records, fetchedAt, nil
}

// FetchedAt returns when the cached list was saved.
func (c *Cache) FetchedAt(ctx context.Context) (time.Time, error) {
	var nanos int64
	err := c.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, fetchedAtKey).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNoCache
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos), nil
}

func nullString(s string, valid bool) sql.NullString {
	return sql.NullString{String: s, Valid: valid}
}

func nullBool(b bool, valid bool) sql.NullBool {
	return sql.NullBool{Bool: b, Valid: valid}
}

func nullInt(n int, valid bool) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: valid}
}
