package survey

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func boolPtr(v bool) *bool    { return &v }

func validSubmission() Submission {
	return Submission{
		Edad:               f64(21),
		NivelEstudios:      "Licenciatura",
		Genero:             "Femenino",
		Pais:               "México",
		HorasRedesSociales: f64(4.5),
		RedSocialFavorita:  "Instagram",
		HorasSueno:         f64(7),
		RelacionActual:     "Es complicado",
		ConflictosRedes:    boolPtr(true),
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "survey.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// loadRecord reads a stored submission back; sql.ErrNoRows when absent
func loadRecord(ctx context.Context, s *Store, id string) (Record, error) {
	q := s.dialect.rebind(`
SELECT id, Age, academic_level, Gender, Country, avg_daily_usage_hours,
	most_used_platform, sleep_hours_per_night,
	relationship_status, conflicts_over_social_media, created_at
FROM form_data WHERE id = ?`)

	var rec Record
	r := &rec.Row
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &r.Age, &r.AcademicLevel, &r.Gender, &r.Country, &r.AvgDailyUsageHours,
		&r.MostUsedPlatform, &r.SleepHoursPerNight,
		&r.RelationshipStatus, &r.ConflictsOverSocialMedia, &rec.CreatedAt,
	)
	return rec, err
}

func TestOpenCreatesSchema(t *testing.T) {
	store := openTestStore(t)
	assert.Equal(t, "sqlite3", store.Driver())

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestOpenEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestInsertAndReadBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec, err := store.Insert(ctx, validSubmission())
	require.NoError(t, err)

	_, err = uuid.Parse(rec.ID)
	require.NoError(t, err)

	got, err := loadRecord(ctx, store, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, Row{
		Age:                      21,
		AcademicLevel:            "Licenciatura",
		Gender:                   2,
		Country:                  "México",
		AvgDailyUsageHours:       4.5,
		MostUsedPlatform:         "Instagram",
		SleepHoursPerNight:       7,
		RelationshipStatus:       3,
		ConflictsOverSocialMedia: 1,
	}, got.Row)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInsertRejectsInvalid(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sub := validSubmission()
	sub.Edad = f64(15)

	_, err := store.Insert(ctx, sub)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestReadBackMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := loadRecord(context.Background(), store, uuid.New().String())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, "pgx", dialectFor("postgres://u@h/db").driver)
	assert.Equal(t, "pgx", dialectFor("postgresql://u@h/db").driver)
	assert.Equal(t, "sqlite3", dialectFor("./data/survey.db").driver)
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", postgresDialect.rebind(q))
}
