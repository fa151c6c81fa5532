package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/itohio/fenceline/pkg/config"
	"github.com/itohio/fenceline/pkg/fence"
	"github.com/itohio/fenceline/pkg/link"
	"github.com/itohio/fenceline/pkg/metrics"
	"github.com/itohio/fenceline/pkg/store"
)

func main() {
	var (
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3, /dev/ttyUSB0 or auto)")
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag     = flag.Bool("mock", false, "Use a simulated fence instead of the serial port")
		rpiFlag      = flag.Bool("rpi", false, "Run the monitor on this Raspberry Pi's GPIO")
		headlessFlag = flag.Bool("headless", false, "Run without the window")
		dbFlag       = flag.String("db", "", "Database DSN override (\"-\" disables the store)")
		metricsFlag  = flag.String("metrics", "", "Metrics listen address override (\"-\" disables metrics)")
		levelFlag    = flag.String("log-level", "", "Log level override (debug, info, warn, error, off)")
		listFlag     = flag.Bool("list-ports", false, "List serial ports and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	applyOverrides(cfg, *portFlag, *dbFlag, *metricsFlag, *levelFlag)

	logger := newLogger(cfg.Log.Level)

	if *listFlag {
		ports, err := link.Ports()
		if err != nil {
			logger.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return
	}

	kind := sourceSerial
	switch {
	case *mockFlag && *rpiFlag:
		logger.Fatal("-mock and -rpi are mutually exclusive")
	case *mockFlag:
		kind = sourceMock
	case *rpiFlag:
		kind = sourceRPi
	}

	reg, err := cfg.Registry()
	if err != nil {
		logger.Fatal(err)
	}

	rec := &recorder{logger: logger}

	if cfg.Store.DSN != "" {
		st, closeDB, err := openStore(cfg.Store, reg)
		if err != nil {
			logger.WithError(err).Fatal("failed to open store")
		}
		defer closeDB()
		rec.store = st
		logger.WithFields(logrus.Fields{"driver": cfg.Store.Driver, "dsn": cfg.Store.DSN}).Info("recording")
	}

	if cfg.Metrics.Listen != "" {
		promReg := prometheus.NewRegistry()
		rec.metrics = metrics.New(promReg)
		srv := serveMetrics(cfg.Metrics.Listen, promReg, logger)
		defer srv.Close()
	}

	logger.WithField("source", kind).Info("starting")

	if *headlessFlag {
		if err := runHeadless(cfg, kind, rec, logger); err != nil {
			logger.Fatal(err)
		}
		return
	}
	runGUI(cfg, *configFlag, kind, rec, logger)
}

func applyOverrides(cfg *config.Config, port, dsn, listen, level string) {
	if port != "" {
		cfg.Serial.Port = port
	}
	switch dsn {
	case "":
	case "-":
		cfg.Store.DSN = ""
	default:
		cfg.Store.DSN = dsn
	}
	switch listen {
	case "":
	case "-":
		cfg.Metrics.Listen = ""
	default:
		cfg.Metrics.Listen = listen
	}
	if level != "" {
		cfg.Log.Level = level
	}
}

// openStore opens the database and creates the table. Every registered line
// gets columns, in line id order.
func openStore(sc config.StoreConfig, reg *fence.Registry) (*store.Store, func(), error) {
	db, err := sql.Open(sc.Driver, sc.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", sc.Driver, err)
	}

	lines := make([]fence.LineID, 0, reg.Len())
	for _, l := range reg.Lines() {
		lines = append(lines, l.ID)
	}

	st := store.New(db, sc.Table, lines, store.WithDriver(sc.Driver))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Init(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, func() { db.Close() }, nil
}

func serveMetrics(addr string, g prometheus.Gatherer, logger logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server")
		}
	}()
	logger.WithField("listen", addr).Info("serving metrics")
	return srv
}

// runHeadless records until SIGINT/SIGTERM or until the source stops.
func runHeadless(cfg *config.Config, kind sourceKind, rec *recorder, logger logrus.FieldLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, err := openDevice(cfg, kind, nil, logger)
	if err != nil {
		return err
	}
	if err := dev.Connect(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// records still queued at shutdown are stored too
		rec.run(context.Background(), dev.Records())
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case <-done:
		logger.Warn("source stopped")
	}

	err = dev.Close()
	<-done
	return err
}
