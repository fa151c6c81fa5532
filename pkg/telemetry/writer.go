package telemetry

import (
	"io"
	"strconv"

	"github.com/itohio/fenceline/pkg/fence"
)

// Writer is a fence.Reporter that prints the telemetry stream: a loop banner
// at the start of each cycle, then the human block and the data record of
// each processed line.
type Writer struct {
	w   io.Writer
	buf []byte
	err error
}

var (
	_ fence.Reporter     = (*Writer)(nil)
	_ fence.CycleStarter = (*Writer)(nil)
)

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, 0, 256)}
}

// StartCycle prints the loop banner.
func (w *Writer) StartCycle(loop uint32) {
	b := append(w.buf[:0], " \n*********** Loop: "...)
	b = strconv.AppendUint(b, uint64(loop), 10)
	b = append(b, " **********"...)
	w.write(b)
}

// Report prints the record.
func (w *Writer) Report(rec fence.Record) {
	b := append(w.buf[:0], '\n')
	b = append(b, FormatHuman(rec)...)
	b = append(b, '\n')
	b = AppendData(b, rec)
	b = append(b, '\n')
	w.write(b)
}

// Err returns the first write error, if any. Reporting never stops the
// monitor, so errors are only remembered.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) write(b []byte) {
	w.buf = b
	if _, err := w.w.Write(b); err != nil && w.err == nil {
		w.err = err
	}
}
