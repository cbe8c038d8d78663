// Package report prints makespans as a run progresses.
package report

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/ChuLiYu/pcmax-genetic/internal/genetic"
)

// Console writes one makespan per line to out. In verbose mode every
// improvement is printed as it happens; otherwise only Final prints.
type Console struct {
	out     io.Writer
	verbose bool

	mu      sync.Mutex
	printed bool
}

var _ genetic.Observer = (*Console)(nil)

// NewConsole returns a reporter writing to out.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

// Generation is a no-op; the console only reports makespans.
func (c *Console) Generation(genetic.GenerationStats) {}

// Improved prints makespan when verbose.
func (c *Console) Improved(_ int, makespan float64) {
	if !c.verbose {
		return
	}
	c.write(makespan)
}

// Final prints the final makespan unless verbose mode already printed it.
func (c *Console) Final(makespan float64) {
	c.mu.Lock()
	printed := c.printed
	c.mu.Unlock()

	if c.verbose && printed {
		return
	}
	c.write(makespan)
}

func (c *Console) write(makespan float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, Format(makespan))
	c.printed = true
}

// Format renders a makespan without a trailing ".0" for integral values.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
