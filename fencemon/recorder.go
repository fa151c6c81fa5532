package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itohio/fenceline/pkg/fence"
	"github.com/itohio/fenceline/pkg/metrics"
	"github.com/itohio/fenceline/pkg/panel"
	"github.com/itohio/fenceline/pkg/store"
)

// recorder fans records out to the log, the store, the metrics and the
// panel. Any of the last three may be nil.
type recorder struct {
	logger  logrus.FieldLogger
	store   *store.Store
	metrics *metrics.Metrics
	panel   *panel.Panel
}

// run consumes records until the channel is closed.
func (r *recorder) run(ctx context.Context, records <-chan fence.Record) {
	for rec := range records {
		r.handle(ctx, rec)
	}
}

func (r *recorder) handle(ctx context.Context, rec fence.Record) {
	entry := r.logger.WithFields(logrus.Fields{
		"loop":       rec.Loop,
		"line":       rec.Line.String(),
		"resistance": rec.Resistance,
		"band":       fence.Classify(rec.Resistance).String(),
	})
	if rec.Short > 0 {
		entry.WithField("short", rec.Short).Warn("short circuit")
	} else {
		entry.Debug("record")
	}

	if r.store != nil {
		start := time.Now()
		err := r.store.Insert(ctx, rec)
		if r.metrics != nil {
			r.metrics.ObserveStore(time.Since(start).Seconds(), err)
		}
		if err != nil {
			entry.WithError(err).Error("failed to store record")
		}
	}
	if r.metrics != nil {
		r.metrics.Observe(rec)
	}
	if r.panel != nil {
		r.panel.Update(rec)
	}
}
