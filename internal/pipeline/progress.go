package pipeline

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProgressCallback receives page-processing progress during an order
// run.
type ProgressCallback interface {
	// OnStart is called once with the number of pages to process.
	OnStart(total int)

	// OnProgress is called after each page finishes.
	OnProgress(current, total int)

	// OnComplete is called when the run is finished.
	OnComplete()

	// OnError is called when a page fails.
	OnError(page int, err error)
}

// NoOpProgress implements ProgressCallback and does nothing. It is the
// default when no reporting is wanted.
type NoOpProgress struct{}

func (NoOpProgress) OnStart(total int)             {}
func (NoOpProgress) OnProgress(current, total int) {}
func (NoOpProgress) OnComplete()                   {}
func (NoOpProgress) OnError(page int, err error)   {}

// ConsoleProgress prints page progress lines to a writer.
type ConsoleProgress struct {
	writer io.Writer
	prefix string

	mu    sync.Mutex
	start time.Time
}

// NewConsoleProgress creates a console progress reporter. A nil writer
// defaults to stderr.
func NewConsoleProgress(writer io.Writer, prefix string) *ConsoleProgress {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgress{writer: writer, prefix: prefix}
}

func (c *ConsoleProgress) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
	_, _ = fmt.Fprintf(c.writer, "%sprocessing %d pages\n", c.prefix, total)
}

func (c *ConsoleProgress) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "%spage %d/%d (%.1f%%)\n",
		c.prefix, current, total, float64(current)/float64(total)*100)
}

func (c *ConsoleProgress) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "%sdone in %v\n", c.prefix, time.Since(c.start).Round(time.Millisecond))
}

func (c *ConsoleProgress) OnError(page int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "%spage %d failed: %v\n", c.prefix, page, err)
}
