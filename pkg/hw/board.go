package hw

import (
	"errors"
	"io"

	"github.com/itohio/fenceline/pkg/fence"
)

// ErrUnsupported is returned by NewRPi when the binary was built without GPIO
// support.
var ErrUnsupported = errors.New("gpio not supported on this platform")

// Board is the pin side of a real controller. Indicators come from elsewhere.
type Board interface {
	fence.IO
	fence.Buzzer
	io.Closer
}
