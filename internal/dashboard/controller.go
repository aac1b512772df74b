package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/haledesignstudio/Pollen/internal/model"
	"github.com/haledesignstudio/Pollen/internal/pipeline"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks github.com/haledesignstudio/Pollen/internal/dashboard Source

var (
	// ErrSuperseded is returned by Fetch when a newer fetch started before
	// this one finished. Its result must be discarded.
	ErrSuperseded = errors.New("dashboard: fetch superseded by a newer request")
	// ErrClosed is returned by Fetch after Close.
	ErrClosed = errors.New("dashboard: controller closed")
)

// Result is one normalized fetch.
type Result struct {
	Generation uint64
	Dataset    model.Dataset
	Summary    model.Summary
	Cards      model.SummaryCards
	FetchedAt  time.Time
}

// Controller serializes fetches so only the most recent one can land.
type Controller struct {
	src Source
	now func() time.Time

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

// NewController returns a controller reading from src.
func NewController(src Source) *Controller {
	return &Controller{src: src, now: time.Now}
}

// Fetch cancels any in-flight fetch, loads fresh rows and normalizes them.
func (c *Controller) Fetch(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{}, ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	rows, err := c.src.FetchRows(ctx)

	c.mu.Lock()
	current := gen == c.gen && !c.closed
	if current {
		c.cancel = nil
	}
	c.mu.Unlock()

	if !current {
		return Result{Generation: gen}, ErrSuperseded
	}
	if err != nil {
		return Result{Generation: gen}, err
	}

	res := Build(rows)
	res.Generation = gen
	res.FetchedAt = c.now()
	return res, nil
}

// Generation returns the number of the most recently started fetch.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Close cancels any in-flight fetch. Later fetches fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.closed = true
}

// Build normalizes rows into a Result.
func Build(rows []model.RawRow) Result {
	ds := pipeline.Normalize(rows)
	s := pipeline.Summarize(ds)
	return Result{
		Dataset: ds,
		Summary: s,
		Cards:   pipeline.Cards(s),
	}
}

// Fallback is the result shown while no data could be loaded.
func Fallback() Result {
	return Build(nil)
}
