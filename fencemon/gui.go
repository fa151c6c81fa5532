package main

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/itohio/fenceline/pkg/config"
	"github.com/itohio/fenceline/pkg/fence"
	"github.com/itohio/fenceline/pkg/link"
	"github.com/itohio/fenceline/pkg/panel"
)

// appState holds the window state.
type appState struct {
	cfg        *config.Config
	configPath string
	kind       sourceKind
	logger     logrus.FieldLogger
	rec        *recorder

	window     fyne.Window
	connectBtn *widget.Button
	status     *widget.Label

	device link.Device
	done   chan struct{} // closed when the recorder goroutine exits
}

func runGUI(cfg *config.Config, configPath string, kind sourceKind, rec *recorder, logger logrus.FieldLogger) {
	reg, err := cfg.Registry()
	if err != nil {
		logger.Fatal(err)
	}

	application := app.NewWithID("com.itohio.fenceline")
	window := application.NewWindow("Fence Monitor")
	window.Resize(fyne.NewSize(640, 220))
	window.CenterOnScreen()

	rec.panel = panel.New(reg.Lines())
	state := &appState{
		cfg:        cfg,
		configPath: configPath,
		kind:       kind,
		logger:     logger,
		rec:        rec,
		window:     window,
	}

	window.SetContent(container.NewBorder(createToolbar(state), nil, nil, nil, rec.panel))
	window.SetOnClosed(func() { disconnect(state) })
	window.ShowAndRun()
}

func createToolbar(state *appState) fyne.CanvasObject {
	state.connectBtn = widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})
	if state.kind != sourceSerial {
		settingsBtn.Disable()
	}
	state.status = widget.NewLabel("Disconnected")

	return container.NewBorder(nil, nil,
		container.NewHBox(state.connectBtn, settingsBtn),
		nil,
		state.status,
	)
}

func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		disconnect(state)
		return
	}

	// in-process monitors light the panel tiles directly
	var ind fence.Indicators
	if state.kind != sourceSerial {
		ind = state.rec.panel
	}
	dev, err := openDevice(state.cfg, state.kind, ind, state.logger)
	if err == nil {
		err = dev.Connect()
	}
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect (%s): %w", state.kind, err), state.window)
		return
	}

	state.device = dev
	state.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		state.rec.run(context.Background(), dev.Records())
	}(state.done)

	state.connectBtn.SetIcon(theme.LogoutIcon())
	state.status.SetText("Connected: " + describe(state))
}

func disconnect(state *appState) {
	if state.device == nil {
		return
	}
	if err := state.device.Close(); err != nil {
		state.logger.WithError(err).Warn("close device")
	}
	<-state.done
	state.device = nil
	state.connectBtn.SetIcon(theme.LoginIcon())
	state.status.SetText("Disconnected")
}

func describe(state *appState) string {
	if state.kind == sourceSerial {
		return state.cfg.Serial.Port
	}
	return state.kind.String()
}

// showSettingsDialog lets the user pick the serial port. The choice is saved
// and an open connection is restarted on the new port.
func showSettingsDialog(state *appState) {
	ports, err := link.Ports()
	options := []string{}
	if err == nil {
		for _, p := range ports {
			options = append(options, p.Name)
		}
	}
	current := state.cfg.Serial.Port
	found := false
	for _, o := range options {
		if o == current {
			found = true
			break
		}
	}
	if !found && current != "" {
		options = append(options, current)
	}

	portSelect := widget.NewSelect(options, nil)
	if current != "" {
		portSelect.SetSelected(current)
	}

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
		},
		OnSubmit: func() {
			selected := portSelect.Selected
			if selected == "" || selected == state.cfg.Serial.Port {
				return
			}
			wasConnected := state.device != nil && state.device.IsConnected()

			state.cfg.Serial.Port = selected
			if err := state.cfg.Save(state.configPath); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
				return
			}
			if wasConnected {
				disconnect(state)
				handleConnect(state)
			}
		},
	}

	d := dialog.NewCustom("Settings", "Close", form, state.window)
	d.Resize(fyne.NewSize(400, 160))
	d.Show()
}
