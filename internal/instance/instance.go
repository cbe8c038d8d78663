// ============================================================================
// pcmax instance source
// ============================================================================
//
// Package: internal/instance
// File: instance.go
// Purpose: Reads and writes P||Cmax problem instances.
//
// Formats:
//   Text (default) - whitespace separated numbers:
//     <processor count>
//     <process count>
//     <duration 1>
//     ...
//     <duration n>
//
//   YAML / JSON (by file extension .yaml, .yml, .json):
//     processors: 3
//     durations: [1, 2, 4, 3]
//
//   The path "-" reads the text format from stdin.
//
// ============================================================================

package instance

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
	"gopkg.in/yaml.v3"
)

var (
	// ErrProcessCountMismatch means the declared process count differs from the
	// number of durations that follow it.
	ErrProcessCountMismatch = errors.New("instance: process count does not match durations")

	// ErrMalformed means the text format could not be parsed.
	ErrMalformed = errors.New("instance: malformed input")
)

// Load reads and validates an instance from path.
func Load(path string) (types.Instance, error) {
	if path == "-" {
		return Parse(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return types.Instance{}, fmt.Errorf("failed to open instance file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return Decode(f)
	default:
		return Parse(f)
	}
}

// Decode reads a YAML (or JSON) document.
func Decode(r io.Reader) (types.Instance, error) {
	var inst types.Instance
	if err := yaml.NewDecoder(r).Decode(&inst); err != nil && !errors.Is(err, io.EOF) {
		return types.Instance{}, fmt.Errorf("failed to parse instance YAML: %w", err)
	}
	if err := inst.Validate(); err != nil {
		return types.Instance{}, err
	}
	return inst, nil
}

// Parse reads the text format.
func Parse(r io.Reader) (types.Instance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	next := func(what string) (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("failed to read %s: %w", what, err)
			}
			return "", fmt.Errorf("%w: missing %s", ErrMalformed, what)
		}
		return scanner.Text(), nil
	}

	tok, err := next("processor count")
	if err != nil {
		return types.Instance{}, err
	}
	processors, err := strconv.Atoi(tok)
	if err != nil {
		return types.Instance{}, fmt.Errorf("%w: processor count %q", ErrMalformed, tok)
	}

	tok, err = next("process count")
	if err != nil {
		return types.Instance{}, err
	}
	count, err := strconv.Atoi(tok)
	if err != nil || count < 0 {
		return types.Instance{}, fmt.Errorf("%w: process count %q", ErrMalformed, tok)
	}

	durations := make([]float64, 0, count)
	for scanner.Scan() {
		d, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return types.Instance{}, fmt.Errorf("%w: duration %q", ErrMalformed, scanner.Text())
		}
		durations = append(durations, d)
	}
	if err := scanner.Err(); err != nil {
		return types.Instance{}, fmt.Errorf("failed to read durations: %w", err)
	}
	if len(durations) != count {
		return types.Instance{}, fmt.Errorf("%w: declared %d, found %d", ErrProcessCountMismatch, count, len(durations))
	}

	inst := types.Instance{Processors: processors, Durations: durations}
	if err := inst.Validate(); err != nil {
		return types.Instance{}, err
	}
	return inst, nil
}

// Write emits inst in the text format.
func Write(w io.Writer, inst types.Instance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n", inst.Processors, len(inst.Durations))
	for _, d := range inst.Durations {
		fmt.Fprintln(bw, strconv.FormatFloat(d, 'f', -1, 64))
	}
	return bw.Flush()
}

// Generate builds a random instance with integral durations in [min, max].
func Generate(rng *rand.Rand, processors, processes int, min, max int) (types.Instance, error) {
	if processors < 1 {
		return types.Instance{}, fmt.Errorf("%w: got %d", types.ErrNoProcessors, processors)
	}
	if processes < 0 {
		return types.Instance{}, fmt.Errorf("process count must not be negative: got %d", processes)
	}
	if min < 1 || max < min {
		return types.Instance{}, fmt.Errorf("%w: duration range [%d, %d]", types.ErrInvalidDuration, min, max)
	}

	durations := make([]float64, processes)
	for i := range durations {
		durations[i] = float64(min + rng.Intn(max-min+1))
	}
	return types.Instance{Processors: processors, Durations: durations}, nil
}
