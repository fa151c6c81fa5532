package hw

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/itohio/fenceline/pkg/fence"
)

// LogIndicators is a fence.Indicators that logs zone colour changes. It is
// used when the board has no indicator strip and no panel is shown.
type LogIndicators struct {
	logger logrus.FieldLogger

	mu     sync.Mutex
	staged map[int]fence.Color
	shown  map[int]fence.Color
}

var _ fence.Indicators = (*LogIndicators)(nil)

// NewLogIndicators creates a LogIndicators. A nil logger uses the standard
// logrus logger.
func NewLogIndicators(logger logrus.FieldLogger) *LogIndicators {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogIndicators{
		logger: logger,
		staged: make(map[int]fence.Color),
		shown:  make(map[int]fence.Color),
	}
}

// SetIndicator stages a colour.
func (l *LogIndicators) SetIndicator(zone int, c fence.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.staged[zone] = c
}

// Clear stages every known zone off.
func (l *LogIndicators) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for zone := range l.shown {
		l.staged[zone] = fence.Off
	}
	for zone := range l.staged {
		l.staged[zone] = fence.Off
	}
}

// Show logs every zone whose visible colour changes.
func (l *LogIndicators) Show() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for zone, c := range l.staged {
		if old, ok := l.shown[zone]; ok && old == c {
			continue
		}
		l.shown[zone] = c
		l.logger.WithFields(logrus.Fields{
			"zone":  zone,
			"color": ColorName(c),
		}).Info("indicator")
	}
}

// ColorName names the standard indicator colours.
func ColorName(c fence.Color) string {
	switch c {
	case fence.Off:
		return "off"
	case fence.Red:
		return "red"
	case fence.Amber:
		return "amber"
	case fence.Green:
		return "green"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
