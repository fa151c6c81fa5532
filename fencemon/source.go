package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/itohio/fenceline/pkg/config"
	"github.com/itohio/fenceline/pkg/fence"
	"github.com/itohio/fenceline/pkg/hw"
	"github.com/itohio/fenceline/pkg/link"
)

type sourceKind int

const (
	sourceSerial sourceKind = iota
	sourceMock
	sourceRPi
)

func (k sourceKind) String() string {
	switch k {
	case sourceMock:
		return "mock"
	case sourceRPi:
		return "rpi"
	}
	return "serial"
}

// boardDevice releases the board after its monitor has stopped.
type boardDevice struct {
	*link.Local
	board hw.Board
}

func (d *boardDevice) Close() error {
	return errors.Join(d.Local.Close(), d.board.Close())
}

// openDevice creates the record source. ind receives indicator output of
// monitors run in-process; nil selects the simulator's own strip for the
// mock and the log for the board.
func openDevice(cfg *config.Config, kind sourceKind, ind fence.Indicators, logger logrus.FieldLogger) (link.Device, error) {
	if kind == sourceSerial {
		port, err := resolvePort(cfg.Serial.Port, link.Ports)
		if err != nil {
			return nil, err
		}
		return link.NewSerial(port, cfg.Serial.Baud, link.DefaultBufferSize, logger), nil
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	mcfg := cfg.MonitorConfig()
	alarms := link.WithTransitions(func(from, to fence.AlarmState) {
		logger.WithFields(logrus.Fields{"from": from, "to": to}).Info("alarm state")
	})

	if kind == sourceMock {
		return link.NewMock(reg, mcfg, cfg.Mock, ind, logger, alarms), nil
	}

	board, err := hw.NewRPi(cfg.RPi, logger)
	if err != nil {
		return nil, fmt.Errorf("raspberry pi: %w", err)
	}
	if ind == nil {
		ind = hw.NewLogIndicators(logger)
	}
	local := link.NewLocal(reg, mcfg, fence.Composite{IO: board, Indicators: ind, Buzzer: board},
		link.WithLogger(logger), alarms)
	return &boardDevice{Local: local, board: board}, nil
}

// resolvePort returns port unless it is empty or "auto", in which case the
// only serial port present is used.
func resolvePort(port string, list func() ([]link.Port, error)) (string, error) {
	if port != "" && port != "auto" {
		return port, nil
	}

	ports, err := list()
	if err != nil {
		return "", err
	}
	switch len(ports) {
	case 0:
		return "", errors.New("no serial ports detected")
	case 1:
		return ports[0].Name, nil
	}

	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return "", fmt.Errorf("multiple serial ports detected, select one with -p: %s", strings.Join(names, ", "))
}
