// Package survey validates survey form submissions and stores them in
// SQLite (default) or Postgres.
package survey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNoStore is returned by callers that were started without a database
var ErrNoStore = errors.New("survey store not available")

type dialect struct {
	driver string
	schema string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite3",
		schema: `CREATE TABLE IF NOT EXISTS form_data (
	id TEXT PRIMARY KEY,
	Age REAL NOT NULL,
	academic_level TEXT NOT NULL,
	Gender INTEGER NOT NULL,
	Country TEXT NOT NULL,
	avg_daily_usage_hours REAL NOT NULL,
	most_used_platform TEXT NOT NULL,
	sleep_hours_per_night REAL NOT NULL,
	relationship_status INTEGER NOT NULL,
	conflicts_over_social_media INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
)`,
	}
	postgresDialect = dialect{
		driver: "pgx",
		schema: `create table if not exists form_data (
	id uuid primary key,
	Age double precision not null,
	academic_level text not null,
	Gender integer not null,
	Country text not null,
	avg_daily_usage_hours double precision not null,
	most_used_platform text not null,
	sleep_hours_per_night double precision not null,
	relationship_status integer not null,
	conflicts_over_social_media integer not null,
	created_at timestamptz not null default now()
)`,
	}
)

// rebind rewrites ? placeholders to $n for Postgres
func (d dialect) rebind(q string) string {
	if d.driver != "pgx" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dialectFor(dsn string) dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgresDialect
	}
	return sqliteDialect
}

// Record is a stored submission
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Row       Row       `json:"-"`
}

// Store persists survey submissions
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to dsn and creates the form_data table if needed
func Open(ctx context.Context, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	d := dialectFor(dsn)

	if d.driver == "sqlite3" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d.driver == "sqlite3" {
		// one writer keeps SQLite from returning "database is locked"
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create form_data table: %w", err)
	}

	return &Store{db: db, dialect: d}, nil
}

// Driver reports the database/sql driver in use
func (s *Store) Driver() string {
	return s.dialect.driver
}

// Insert validates sub and stores it
func (s *Store) Insert(ctx context.Context, sub Submission) (Record, error) {
	row, err := sub.ToRow()
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Row:       row,
	}
	q := s.dialect.rebind(`
INSERT INTO form_data (
	id, Age, academic_level, Gender, Country, avg_daily_usage_hours,
	most_used_platform, sleep_hours_per_night,
	relationship_status, conflicts_over_social_media, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = s.db.ExecContext(ctx, q,
		rec.ID, row.Age, row.AcademicLevel, row.Gender, row.Country, row.AvgDailyUsageHours,
		row.MostUsedPlatform, row.SleepHoursPerNight,
		row.RelationshipStatus, row.ConflictsOverSocialMedia, rec.CreatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("failed to insert submission: %w", err)
	}
	return rec, nil
}

// Count returns the number of stored submissions
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM form_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return n, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
