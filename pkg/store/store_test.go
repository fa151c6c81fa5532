package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/fenceline/pkg/fence"
)

var abc = []fence.LineID{fence.LineA, fence.LineB, fence.LineC}

func testRecord() fence.Record {
	return fence.Record{
		Loop: 42,
		Line: fence.LineB,
		Samples: []fence.Sample{
			{Line: fence.LineA, Digital: false, Raw: 12},
			{Line: fence.LineB, Digital: true, Raw: 640},
			{Line: fence.LineC, Digital: false, Raw: 0},
		},
		Vout:       2.5,
		Resistance: -4.25,
		Short:      0,
	}
}

func TestStoreInit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db, "", abc)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS data (id INTEGER PRIMARY KEY AUTOINCREMENT, loopcount INTEGER, active_line VARCHAR(1), digi_A INTEGER, digi_B INTEGER, digi_C INTEGER, raw_A INTEGER, raw_B INTEGER, raw_C INTEGER, vout REAL, resistance REAL, short_circuit INTEGER)")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db, "samples", abc)
	expectedQuery := regexp.QuoteMeta("INSERT INTO samples (loopcount, active_line, digi_A, digi_B, digi_C, raw_A, raw_B, raw_C, vout, resistance, short_circuit) VALUES (?,?,?,?,?,?,?,?,?,?,?)")
	mock.ExpectExec(expectedQuery).
		WithArgs(int64(42), "B", int64(0), int64(1), int64(0), int64(12), int64(640), int64(0), float64(2.5), float64(-4.25), int64(0)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Insert(context.Background(), testRecord()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsert_MissingLineIsNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := testRecord()
	rec.Samples = rec.Samples[:2]
	rec.Short = 2

	s := New(db, "", abc)
	mock.ExpectExec("INSERT INTO data").
		WithArgs(int64(42), "B", int64(0), int64(1), nil, int64(12), int64(640), nil, float64(2.5), float64(-4.25), int64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsert_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk full")
	mock.ExpectExec("INSERT INTO data").WillReturnError(boom)

	err = New(db, "", abc).Insert(context.Background(), testRecord())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "loop 42 line B")
}

func TestStoreName(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", New(db, "", abc).Name())
	assert.Equal(t, "postgres", New(db, "", abc, WithDriver("postgres")).Name())
	assert.Equal(t, "sqlite", New(db, "", abc, WithDriver("")).Name())
}
