package main

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/fenceline/pkg/fence"
	"github.com/itohio/fenceline/pkg/metrics"
	"github.com/itohio/fenceline/pkg/store"
)

func testRecord(short int) fence.Record {
	return fence.Record{
		Loop: 5,
		Line: fence.LineA,
		Samples: []fence.Sample{
			{Line: fence.LineA, Digital: true, Raw: 600},
			{Line: fence.LineB, Raw: 590},
			{Line: fence.LineC, Raw: 1},
		},
		Vout:       2.42,
		Resistance: 1,
		Short:      short,
	}
}

func TestRecorder_FansOut(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger, hook := test.NewNullLogger()
	promReg := prometheus.NewRegistry()
	r := &recorder{
		logger:  logger,
		store:   store.New(db, "", []fence.LineID{fence.LineA, fence.LineB, fence.LineC}),
		metrics: metrics.New(promReg),
	}

	mock.ExpectExec("INSERT INTO data").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO data").WillReturnError(errors.New("locked"))

	records := make(chan fence.Record, 2)
	records <- testRecord(2)
	records <- testRecord(0)
	close(records)
	r.run(context.Background(), records)

	assert.NoError(t, mock.ExpectationsWereMet())

	var warned, failed int
	for _, e := range hook.AllEntries() {
		switch e.Level {
		case logrus.WarnLevel:
			warned++
			assert.Equal(t, 2, e.Data["short"])
		case logrus.ErrorLevel:
			failed++
		}
	}
	assert.Equal(t, 1, warned)
	assert.Equal(t, 1, failed)

	gathered, err := testutil.GatherAndCount(promReg, "fence_records_total", "fence_alarms_total", "fence_store_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 3, gathered)
}

func TestRecorder_NoSinks(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := &recorder{logger: logger}
	r.handle(context.Background(), testRecord(0))
	assert.Empty(t, hook.AllEntries()) // debug is below the null logger's level
}
