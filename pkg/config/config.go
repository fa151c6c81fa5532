package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/fenceline/pkg/fence"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Monitor MonitorConfig `yaml:"monitor"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
	Mock    MockConfig    `yaml:"mock"`
	RPi     RPiConfig     `yaml:"rpi"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MonitorConfig contains the detection parameters and line wiring.
type MonitorConfig struct {
	BaseResistance float64       `yaml:"base_resistance"` // Ω, fixed divider resistor
	AlarmThreshold *int          `yaml:"alarm_threshold"` // raw units, nil = default
	AlertSequences *int          `yaml:"alert_sequences"` // nil = default, 0 = silent alarm
	SettleDelay    time.Duration `yaml:"settle_delay"`
	Lines          []LineConfig  `yaml:"lines"`
	Order          []string      `yaml:"order"` // excitation order, empty = by id
}

// LineConfig describes one fence line.
type LineConfig struct {
	ID                string  `yaml:"id"`
	Enabled           *bool   `yaml:"enabled"` // nil = enabled
	Excitation        int     `yaml:"excitation"`
	SenseDigital      int     `yaml:"sense_digital"`
	SenseAnalog       int     `yaml:"sense_analog"`
	Zone              int     `yaml:"zone"`
	CalibrationOffset float64 `yaml:"calibration_offset"`
	ReferenceVoltage  float64 `yaml:"reference_voltage"`
}

// StoreConfig selects the telemetry database.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"` // empty disables recording
	Table  string `yaml:"table"`
}

// MetricsConfig contains the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the endpoint
}

// LogConfig contains logging parameters.
type LogConfig struct {
	Level string `yaml:"level"` // logrus level name, or off/none
}

// MockConfig contains simulated device configuration.
type MockConfig struct {
	SampleRate       time.Duration `yaml:"sample_rate"`       // pause between cycles
	ShortProbability float64       `yaml:"short_probability"` // chance per cycle that a short starts
	ShortMinCycles   int           `yaml:"short_min_cycles"`
	ShortMaxCycles   int           `yaml:"short_max_cycles"`
	MaxResistance    float64       `yaml:"max_resistance"` // healthy lines are drawn from [0, max) Ω
	Seed             int64         `yaml:"seed"`           // 0 = time based
}

// RPiConfig maps fence channels onto Raspberry Pi pins. Keys are the channel
// numbers used in the line configuration.
type RPiConfig struct {
	Excitation map[int]string `yaml:"excitation"` // channel -> GPIO name
	Sense      map[int]string `yaml:"sense"`      // digital sense channel -> GPIO name
	Analog     map[int]int    `yaml:"analog"`     // analog channel -> ADS1115 input
	Buzzer     string         `yaml:"buzzer"`
	I2CBus     string         `yaml:"i2c_bus"` // empty = first bus
	ADCAddress uint16         `yaml:"adc_address"`
}

// Default returns a default configuration matching the reference board.
func Default() *Config {
	seq := fence.DefaultAlertSequences
	threshold := fence.DefaultAlarmThreshold
	cfg := &Config{
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0",
			Baud: 57600,
		},
		Monitor: MonitorConfig{
			BaseResistance: float64(fence.DefaultBaseResistance),
			AlarmThreshold: &threshold,
			AlertSequences: &seq,
			SettleDelay:    fence.DefaultSettleDelay,
			Order:          []string{"C", "B", "A"},
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "serial_output.db",
			Table:  "data",
		},
		Metrics: MetricsConfig{
			Listen: ":9108",
		},
		Log: LogConfig{
			Level: "info",
		},
		Mock: MockConfig{
			SampleRate:       100 * time.Millisecond,
			ShortProbability: 0.03,
			ShortMinCycles:   5,
			ShortMaxCycles:   12,
			MaxResistance:    6,
		},
		RPi: RPiConfig{
			Excitation: map[int]string{2: "GPIO17", 3: "GPIO27", 4: "GPIO22"},
			Sense:      map[int]string{2: "GPIO5", 3: "GPIO6", 4: "GPIO13"},
			Analog:     map[int]int{0: 0, 2: 1, 4: 2},
			Buzzer:     "GPIO18",
			ADCAddress: 0x48,
		},
	}
	for _, l := range fence.DefaultLines() {
		cfg.Monitor.Lines = append(cfg.Monitor.Lines, LineConfig{
			ID:                l.ID.String(),
			Excitation:        l.Excitation,
			SenseDigital:      l.SenseDigital,
			SenseAnalog:       l.SenseAnalog,
			Zone:              l.Zone,
			CalibrationOffset: float64(l.CalibrationOffset),
			ReferenceVoltage:  float64(l.ReferenceVoltage),
		})
	}
	return cfg
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values. The result is validated.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Lists and pin maps are replaced wholesale rather than merged.
	cfg.Monitor.Lines = nil
	cfg.Monitor.Order = nil
	cfg.RPi.Excitation = nil
	cfg.RPi.Sense = nil
	cfg.RPi.Analog = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Monitor.BaseResistance == 0 {
		c.Monitor.BaseResistance = def.Monitor.BaseResistance
	}
	if c.Monitor.AlarmThreshold == nil {
		c.Monitor.AlarmThreshold = def.Monitor.AlarmThreshold
	}
	if c.Monitor.AlertSequences == nil {
		c.Monitor.AlertSequences = def.Monitor.AlertSequences
	}
	if c.Monitor.SettleDelay == 0 {
		c.Monitor.SettleDelay = def.Monitor.SettleDelay
	}
	if len(c.Monitor.Lines) == 0 {
		c.Monitor.Lines = def.Monitor.Lines
		if len(c.Monitor.Order) == 0 {
			c.Monitor.Order = def.Monitor.Order
		}
	}

	if c.Store.Driver == "" {
		c.Store.Driver = def.Store.Driver
	}
	if c.Store.Table == "" {
		c.Store.Table = def.Store.Table
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.ShortMinCycles == 0 {
		c.Mock.ShortMinCycles = def.Mock.ShortMinCycles
	}
	if c.Mock.ShortMaxCycles == 0 {
		c.Mock.ShortMaxCycles = def.Mock.ShortMaxCycles
	}
	if c.Mock.MaxResistance == 0 {
		c.Mock.MaxResistance = def.Mock.MaxResistance
	}

	if c.RPi.Buzzer == "" {
		c.RPi.Buzzer = def.RPi.Buzzer
	}
	if c.RPi.ADCAddress == 0 {
		c.RPi.ADCAddress = def.RPi.ADCAddress
	}
	if len(c.RPi.Excitation) == 0 {
		c.RPi.Excitation = def.RPi.Excitation
	}
	if len(c.RPi.Sense) == 0 {
		c.RPi.Sense = def.RPi.Sense
	}
	if len(c.RPi.Analog) == 0 {
		c.RPi.Analog = def.RPi.Analog
	}
}

// Validate checks the parts of the configuration the monitor depends on.
func (c *Config) Validate() error {
	m := c.Monitor
	if len(m.Lines) == 0 {
		return fmt.Errorf("%w: no lines", ErrInvalid)
	}
	if m.AlarmThreshold != nil && (*m.AlarmThreshold < 0 || *m.AlarmThreshold > fence.FullScale) {
		return fmt.Errorf("%w: alarm_threshold %d outside 0..%d", ErrInvalid, *m.AlarmThreshold, fence.FullScale)
	}
	if m.AlertSequences != nil && *m.AlertSequences < 0 {
		return fmt.Errorf("%w: alert_sequences %d is negative", ErrInvalid, *m.AlertSequences)
	}
	if m.BaseResistance <= 0 {
		return fmt.Errorf("%w: base_resistance must be positive", ErrInvalid)
	}
	for _, l := range m.Lines {
		if _, err := fence.ParseLineID(l.ID); err != nil {
			return fmt.Errorf("%w: line id: %v", ErrInvalid, err)
		}
		if l.ReferenceVoltage <= 0 {
			return fmt.Errorf("%w: line %s reference_voltage must be positive", ErrInvalid, l.ID)
		}
	}
	if c.Mock.ShortMaxCycles < c.Mock.ShortMinCycles {
		return fmt.Errorf("%w: mock short_max_cycles < short_min_cycles", ErrInvalid)
	}
	if _, err := c.Registry(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Registry builds the fence line registry.
func (c *Config) Registry() (*fence.Registry, error) {
	lines := make([]fence.Line, 0, len(c.Monitor.Lines))
	for _, lc := range c.Monitor.Lines {
		id, err := fence.ParseLineID(lc.ID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fence.Line{
			ID:                id,
			Excitation:        lc.Excitation,
			SenseDigital:      lc.SenseDigital,
			SenseAnalog:       lc.SenseAnalog,
			Zone:              lc.Zone,
			CalibrationOffset: float32(lc.CalibrationOffset),
			ReferenceVoltage:  float32(lc.ReferenceVoltage),
		})
	}

	order := make([]fence.LineID, 0, len(c.Monitor.Order))
	for _, s := range c.Monitor.Order {
		id, err := fence.ParseLineID(s)
		if err != nil {
			return nil, err
		}
		order = append(order, id)
	}

	return fence.NewRegistry(lines, order)
}

// MonitorConfig builds the fence monitor settings.
func (c *Config) MonitorConfig() fence.MonitorConfig {
	mc := fence.MonitorConfig{
		BaseResistance: float32(c.Monitor.BaseResistance),
		AlarmThreshold: fence.DefaultAlarmThreshold,
		AlertSequences: fence.DefaultAlertSequences,
		SettleDelay:    c.Monitor.SettleDelay,
		Enabled:        make(map[fence.LineID]bool, len(c.Monitor.Lines)),
	}
	if c.Monitor.AlarmThreshold != nil {
		mc.AlarmThreshold = *c.Monitor.AlarmThreshold
	}
	if c.Monitor.AlertSequences != nil {
		mc.AlertSequences = *c.Monitor.AlertSequences
	}
	for _, lc := range c.Monitor.Lines {
		id, err := fence.ParseLineID(lc.ID)
		if err != nil {
			continue
		}
		mc.Enabled[id] = lc.Enabled == nil || *lc.Enabled
	}
	return mc
}
