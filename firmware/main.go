//go:build tinygo

//go:generate tinygo flash -target=arduino-nano

package main

import (
	"machine"

	"github.com/itohio/fenceline/pkg/fence"
	"github.com/itohio/fenceline/pkg/telemetry"
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	reg, err := fence.NewRegistry(fence.DefaultLines(), fence.DefaultOrder())
	if err != nil {
		println("registry:", err.Error())
		for {
		}
	}

	b := newBoard(reg.Lines())
	monitor := fence.NewMonitor(reg, fence.DefaultMonitorConfig(), b,
		fence.WithSleeper(b),
		fence.WithReporter(telemetry.NewWriter(machine.Serial)),
	)

	monitor.SelfTest()
	for {
		monitor.Cycle()
	}
}
