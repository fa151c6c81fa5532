//go:build !(linux && (arm || arm64)) || disablegpio

package hw

import (
	"github.com/sirupsen/logrus"

	"github.com/itohio/fenceline/pkg/config"
)

// NewRPi is unavailable on this platform.
func NewRPi(config.RPiConfig, logrus.FieldLogger) (Board, error) {
	return nil, ErrUnsupported
}
