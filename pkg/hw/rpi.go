//go:build linux && (arm || arm64) && !disablegpio

package hw

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/itohio/fenceline/pkg/config"
	"github.com/itohio/fenceline/pkg/fence"
)

// adcRange is the input range the ADS1115 is programmed for. The sense
// dividers never exceed the excitation supply.
const adcRange = 5 * physic.Volt

var adcChannels = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// RPi drives the fence from Raspberry Pi GPIO with an ADS1115 for the analog
// sense inputs.
type RPi struct {
	logger logrus.FieldLogger

	out    map[int]gpio.PinIO
	in     map[int]gpio.PinIO
	adc    map[int]analog.PinADC
	buzzer gpio.PinIO
	bus    i2c.BusCloser

	mu   sync.Mutex
	stop *time.Timer
}

// NewRPi opens the pins and converter described by cfg.
func NewRPi(cfg config.RPiConfig, logger logrus.FieldLogger) (_ Board, err error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}

	r := &RPi{
		logger: logger,
		out:    make(map[int]gpio.PinIO),
		in:     make(map[int]gpio.PinIO),
		adc:    make(map[int]analog.PinADC),
	}
	defer func() {
		if err != nil {
			if cerr := r.Close(); cerr != nil {
				logger.WithError(cerr).Warn("release board")
			}
		}
	}()

	for ch, name := range cfg.Excitation {
		p, err := pin(name)
		if err != nil {
			return nil, err
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("excitation %d on %s: %w", ch, name, err)
		}
		r.out[ch] = p
	}
	for ch, name := range cfg.Sense {
		p, err := pin(name)
		if err != nil {
			return nil, err
		}
		if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("sense %d on %s: %w", ch, name, err)
		}
		r.in[ch] = p
	}
	if cfg.Buzzer != "" {
		p, err := pin(cfg.Buzzer)
		if err != nil {
			return nil, err
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("buzzer on %s: %w", cfg.Buzzer, err)
		}
		r.buzzer = p
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", cfg.I2CBus, err)
	}
	r.bus = bus

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = cfg.ADCAddress
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("ads1115 at %#x: %w", cfg.ADCAddress, err)
	}
	for ch, input := range cfg.Analog {
		if input < 0 || input >= len(adcChannels) {
			return nil, fmt.Errorf("analog %d: ads1115 input %d out of range", ch, input)
		}
		p, err := dev.PinForChannel(adcChannels[input], adcRange, 860*physic.Hertz, ads1x15.BestQuality)
		if err != nil {
			return nil, fmt.Errorf("analog %d: %w", ch, err)
		}
		r.adc[ch] = p
	}

	logger.WithFields(logrus.Fields{
		"outputs": len(r.out),
		"inputs":  len(r.in),
		"analog":  len(r.adc),
	}).Info("raspberry pi board ready")
	return r, nil
}

func pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown gpio %q", name)
	}
	return p, nil
}

// SetOutput implements fence.IO.
func (r *RPi) SetOutput(channel int, high bool) {
	p, ok := r.out[channel]
	if !ok {
		return
	}
	if err := p.Out(gpio.Level(high)); err != nil {
		r.logger.WithError(err).WithField("channel", channel).Warn("set output")
	}
}

// ReadDigital implements fence.IO.
func (r *RPi) ReadDigital(channel int) bool {
	p, ok := r.in[channel]
	if !ok {
		return false
	}
	return p.Read() == gpio.High
}

// ReadAnalog implements fence.IO. Conversions are scaled to 0..1023.
func (r *RPi) ReadAnalog(channel int) int {
	p, ok := r.adc[channel]
	if !ok {
		return 0
	}
	s, err := p.Read()
	if err != nil {
		r.logger.WithError(err).WithField("channel", channel).Warn("read analog")
		return 0
	}
	raw := int(int64(s.V) * fence.FullScale / int64(adcRange))
	switch {
	case raw < 0:
		return 0
	case raw > fence.FullScale:
		return fence.FullScale
	}
	return raw
}

// Tone implements fence.Buzzer. It returns immediately; the tone is stopped
// by a timer.
func (r *RPi) Tone(freqHz int, d time.Duration) {
	if r.buzzer == nil || freqHz <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		r.stop.Stop()
	}
	if err := r.buzzer.PWM(gpio.DutyHalf, physic.Frequency(freqHz)*physic.Hertz); err != nil {
		r.logger.WithError(err).Warn("buzzer")
		return
	}
	r.stop = time.AfterFunc(d, func() {
		if err := r.buzzer.Out(gpio.Low); err != nil {
			r.logger.WithError(err).Warn("buzzer off")
		}
	})
}

// Close drives every output low and releases the converter.
func (r *RPi) Close() error {
	var errs []error
	r.mu.Lock()
	if r.stop != nil {
		r.stop.Stop()
	}
	r.mu.Unlock()
	if r.buzzer != nil {
		errs = append(errs, r.buzzer.Out(gpio.Low))
	}
	for _, p := range r.out {
		errs = append(errs, p.Out(gpio.Low))
	}
	for _, p := range r.in {
		errs = append(errs, p.Halt())
	}
	for _, p := range r.adc {
		errs = append(errs, p.Halt())
	}
	if r.bus != nil {
		errs = append(errs, r.bus.Close())
	}
	return errors.Join(errs...)
}
