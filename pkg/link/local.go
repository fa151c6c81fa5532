package link

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itohio/fenceline/pkg/fence"
)

// Local runs a fence.Monitor in-process against attached hardware and
// delivers its records like a serial device would.
type Local struct {
	reg      *fence.Registry
	cfg      fence.MonitorConfig
	hw       fence.Hardware
	sleep    fence.Sleeper
	interval time.Duration
	selfTest bool
	bufSize  int
	logger   logrus.FieldLogger

	beforeCycle func(loop uint32)
	transition  func(from, to fence.AlarmState)

	mu        sync.RWMutex
	records   chan fence.Record
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
}

// LocalOption configures a Local.
type LocalOption func(*Local)

// WithInterval paces cycles; zero runs them back to back.
func WithInterval(d time.Duration) LocalOption {
	return func(l *Local) { l.interval = d }
}

// WithMonitorSleeper replaces the monitor's sleeper.
func WithMonitorSleeper(s fence.Sleeper) LocalOption {
	return func(l *Local) { l.sleep = s }
}

// WithoutSelfTest skips the start-up self test.
func WithoutSelfTest() LocalOption {
	return func(l *Local) { l.selfTest = false }
}

// WithTransitions observes alarm state changes. It runs on the monitor
// goroutine.
func WithTransitions(fn func(from, to fence.AlarmState)) LocalOption {
	return func(l *Local) { l.transition = fn }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) LocalOption {
	return func(l *Local) { l.logger = logger }
}

// NewLocal creates a Local monitor over hw.
func NewLocal(reg *fence.Registry, cfg fence.MonitorConfig, hw fence.Hardware, opts ...LocalOption) *Local {
	l := &Local{
		reg:      reg,
		cfg:      cfg,
		hw:       hw,
		sleep:    fence.RealSleeper,
		selfTest: true,
		bufSize:  DefaultBufferSize,
		logger:   logrus.StandardLogger(),
		records:  make(chan fence.Record),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Connect starts the monitor loop.
func (l *Local) Connect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected {
		return ErrAlreadyConnected
	}

	records := make(chan fence.Record, l.bufSize)
	report := fence.ReporterFunc(func(rec fence.Record) {
		select {
		case records <- rec:
		default:
			l.logger.WithField("loop", rec.Loop).Warn("records channel full, dropping record")
		}
	})
	m := fence.NewMonitor(l.reg, l.cfg, l.hw, fence.WithSleeper(l.sleep), fence.WithReporter(report))
	if l.transition != nil {
		m.Detector().OnTransition = l.transition
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.records = records
	l.cancel = cancel
	l.done = make(chan struct{})
	l.connected = true

	go l.run(ctx, m, records, l.done)
	return nil
}

func (l *Local) run(ctx context.Context, m *fence.Monitor, records chan fence.Record, done chan struct{}) {
	defer close(done)
	defer close(records)

	if l.selfTest {
		m.SelfTest()
	}

	var tick <-chan time.Time
	if l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if ctx.Err() != nil {
			return
		}
		if l.beforeCycle != nil {
			l.beforeCycle(m.State().Loop)
		}
		m.Cycle()

		if tick == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-tick:
		}
	}
}

// Close stops the monitor after the cycle in progress and waits for it.
func (l *Local) Close() error {
	l.mu.Lock()
	if !l.connected {
		l.mu.Unlock()
		return nil
	}
	l.cancel()
	l.connected = false
	done := l.done
	l.mu.Unlock()

	<-done
	return nil
}

// Records returns the record channel.
func (l *Local) Records() <-chan fence.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records
}

// IsConnected returns whether the monitor loop is running.
func (l *Local) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}
