// Package framesource reads and writes recorded frame sums as CSV with the
// columns red, green, blue, area and interval_ms. The header row is optional
// on input and always written on output.
package framesource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopulse/harmonic"
)

var ErrMalformedRecord = errors.New("malformed frame record")

var Header = []string{"red", "green", "blue", "area", "interval_ms"}

// Read parses every record from r.
func Read(r io.Reader) ([]harmonic.Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	reader.TrimLeadingSpace = true

	var frames []harmonic.Frame
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}

		if line == 1 && isHeader(record) {
			continue
		}

		frame, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		frames = append(frames, frame)
	}

	return frames, nil
}

func ReadFile(path string) ([]harmonic.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

// Write emits the header followed by one record per frame.
func Write(w io.Writer, frames []harmonic.Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}

	for _, f := range frames {
		record := []string{
			strconv.FormatUint(f.Red, 10),
			strconv.FormatUint(f.Green, 10),
			strconv.FormatUint(f.Blue, 10),
			strconv.FormatUint(f.Area, 10),
			strconv.FormatFloat(f.Interval, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func WriteFile(path string, frames []harmonic.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(f, frames); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func isHeader(record []string) bool {
	return record[0] == Header[0]
}

func parseRecord(record []string) (harmonic.Frame, error) {
	var sums [4]uint64
	for i := range sums {
		v, err := strconv.ParseUint(record[i], 10, 64)
		if err != nil {
			return harmonic.Frame{}, fmt.Errorf("column %s: %v", Header[i], err)
		}
		sums[i] = v
	}

	interval, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return harmonic.Frame{}, fmt.Errorf("column %s: %v", Header[4], err)
	}
	if interval < 0 {
		return harmonic.Frame{}, fmt.Errorf("column %s: negative interval %v", Header[4], interval)
	}

	return harmonic.Frame{
		Red:      sums[0],
		Green:    sums[1],
		Blue:     sums[2],
		Area:     sums[3],
		Interval: interval,
	}, nil
}
