// Package dataset reads measured I(q) curves from column text files.
//
// A file holds one point per line: q, I and σI separated by whitespace,
// commas or semicolons. Extra columns are ignored, blank lines and lines
// starting with '#' are skipped, and non-numeric lines before the first
// data row are taken as headers.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/katalvlaran/pofr/core"
)

var (
	// ErrFormat reports a malformed data line.
	ErrFormat = errors.New("dataset: malformed line")

	// ErrEmpty reports a file without any data row.
	ErrEmpty = errors.New("dataset: no data")
)

// Read parses a measurement from r and validates it.
func Read(r io.Reader) (*core.Measurement, error) {
	var q, iq, sig []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(c rune) bool {
			return c == ',' || c == ';' || c == ' ' || c == '\t'
		})
		vals, err := parseRow(fields)
		if err != nil {
			if len(q) == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%w %d: %v", ErrFormat, line, err)
		}
		q, iq, sig = append(q, vals[0]), append(iq, vals[1]), append(sig, vals[2])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read: %w", err)
	}
	if len(q) == 0 {
		return nil, ErrEmpty
	}

	return core.NewMeasurement(q, iq, sig)
}

func parseRow(fields []string) ([3]float64, error) {
	var out [3]float64
	if len(fields) < 3 {
		return out, fmt.Errorf("want q I err, got %d columns", len(fields))
	}
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}

	return out, nil
}

// Load reads the measurement stored at path.
func Load(path string) (*core.Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return m, nil
}

// Name returns the base name of path without its extension.
func Name(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
