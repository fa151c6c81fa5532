// Package telemetry renders monitor records as the line-oriented text stream
// sent over the serial port, and parses it back on the host.
//
// Every processed line produces a machine readable record
//
//	data:<loop>;<line>;<digitalA>;<digitalB>;<digitalC>;<rawA>;<rawB>;<rawC>;<vout>;<resistance>;<short>
//
// preceded by a free-form human readable block. Voltage and resistance carry
// two decimals. With N lines the record has 5+2N fields.
//
// The package stays free of third-party imports so that it also builds for
// the firmware.
package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/fenceline/pkg/fence"
)

// DataPrefix starts every machine readable record.
const DataPrefix = "data:"

var (
	ErrNotData   = errors.New("not a data record")
	ErrMalformed = errors.New("malformed data record")
)

// FormatData renders the machine readable record.
func FormatData(rec fence.Record) string {
	return string(AppendData(make([]byte, 0, 64), rec))
}

// AppendData appends the machine readable record to b.
func AppendData(b []byte, rec fence.Record) []byte {
	b = append(b, DataPrefix...)
	b = strconv.AppendUint(b, uint64(rec.Loop), 10)
	b = append(b, ';')
	b = append(b, byte(rec.Line))
	for _, s := range rec.Samples {
		b = append(b, ';')
		if s.Digital {
			b = append(b, '1')
		} else {
			b = append(b, '0')
		}
	}
	for _, s := range rec.Samples {
		b = append(b, ';')
		b = strconv.AppendInt(b, int64(s.Raw), 10)
	}
	b = append(b, ';')
	b = appendFixed(b, rec.Vout)
	b = append(b, ';')
	b = appendFixed(b, rec.Resistance)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(rec.Short), 10)
	return b
}

// FormatHuman renders the informational block for one record.
func FormatHuman(rec fence.Record) string {
	letter := rec.Line.String()

	var sb strings.Builder
	sb.WriteString(" \n ------- Line ")
	sb.WriteString(letter)
	sb.WriteString(" ------- \n")
	for _, s := range rec.Samples {
		sb.WriteString("Output ")
		sb.WriteString(s.Line.String())
		sb.WriteString(": ")
		if s.Digital {
			sb.WriteString("1\n")
		} else {
			sb.WriteString("0\n")
		}
	}
	sb.WriteString(" \n")
	for _, s := range rec.Samples {
		sb.WriteString("Raw ")
		sb.WriteString(s.Line.String())
		sb.WriteString(": ")
		sb.WriteString(strconv.Itoa(s.Raw))
		sb.WriteByte('\n')
	}
	sb.WriteString(" \n")
	sb.WriteString("Vout " + letter + ": ")
	sb.Write(appendFixed(nil, rec.Vout))
	sb.WriteString(" V\n")
	sb.WriteString("Resistance " + letter + ": ")
	sb.Write(appendFixed(nil, rec.Resistance))
	sb.WriteString(" Ω\n")
	sb.WriteString("----------------------")
	return sb.String()
}

// ParseData parses a machine readable record. Lines that do not start with
// DataPrefix return ErrNotData; sample columns are assigned to lines A, B, C...
func ParseData(line string) (fence.Record, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, DataPrefix) {
		return fence.Record{}, ErrNotData
	}

	fields := strings.Split(line[len(DataPrefix):], ";")
	n := len(fields) - 5
	if n < 2 || n%2 != 0 {
		return fence.Record{}, malformed("expected 5+2N fields, got %d", len(fields))
	}
	n /= 2

	loop, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return fence.Record{}, malformed("loop counter %q", fields[0])
	}
	id, err := fence.ParseLineID(fields[1])
	if err != nil {
		return fence.Record{}, malformed("line %q", fields[1])
	}

	rec := fence.Record{
		Loop:    uint32(loop),
		Line:    id,
		Samples: make([]fence.Sample, n),
	}
	for i := 0; i < n; i++ {
		rec.Samples[i].Line = fence.LineID('A' + i)

		d, err := strconv.Atoi(fields[2+i])
		if err != nil {
			return fence.Record{}, malformed("digital %q", fields[2+i])
		}
		rec.Samples[i].Digital = d != 0

		raw, err := strconv.Atoi(fields[2+n+i])
		if err != nil || raw < 0 || raw > fence.FullScale {
			return fence.Record{}, malformed("raw %q", fields[2+n+i])
		}
		rec.Samples[i].Raw = raw
	}
	if int(id-'A') >= n {
		return fence.Record{}, malformed("line %s outside %d sampled lines", id, n)
	}

	rest := fields[2+2*n:]
	vout, err := strconv.ParseFloat(strings.TrimSpace(rest[0]), 32)
	if err != nil {
		return fence.Record{}, malformed("vout %q", rest[0])
	}
	res, err := strconv.ParseFloat(strings.TrimSpace(rest[1]), 32)
	if err != nil {
		return fence.Record{}, malformed("resistance %q", rest[1])
	}
	short, err := strconv.Atoi(rest[2])
	if err != nil {
		return fence.Record{}, malformed("short status %q", rest[2])
	}
	rec.Vout = float32(vout)
	rec.Resistance = float32(res)
	rec.Short = short
	return rec, nil
}

func appendFixed(b []byte, v float32) []byte {
	return strconv.AppendFloat(b, float64(v), 'f', 2, 32)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
}
