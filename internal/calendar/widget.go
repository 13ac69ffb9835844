package calendar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// DefaultFetchTimeout bounds a single availability fetch.
const DefaultFetchTimeout = 5 * time.Second

// ErrFetch wraps every availability fetch failure. Such failures are
// retryable through Calendar.Retry.
var ErrFetch = errors.New("availability fetch failed")

// Source supplies the bookable dates for a room category.
type Source interface {
	Fetch(ctx context.Context, room string) (Set, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, room string) (Set, error)

func (f SourceFunc) Fetch(ctx context.Context, room string) (Set, error) {
	return f(ctx, room)
}

// FetchOutcome classifies a finished fetch.
type FetchOutcome string

const (
	FetchOK    FetchOutcome = "ok"
	FetchError FetchOutcome = "error"
	// FetchStale marks a result that arrived after a newer fetch started and
	// was discarded.
	FetchStale FetchOutcome = "stale"
)

// FetchResult is reported to Options.OnFetch after every fetch.
type FetchResult struct {
	Room     string
	Outcome  FetchOutcome
	Duration time.Duration
	Err      error
}

// Options configures a Calendar.
type Options struct {
	// Location decides what "today" is. Defaults to UTC.
	Location     *time.Location
	FetchTimeout time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
	// OnRange is called once per completed range, outside the calendar lock.
	OnRange func(room string, r Range)
	OnFetch func(FetchResult)
}

// ViewState tells the renderer what to draw.
type ViewState string

const (
	ViewLoading ViewState = "loading"
	ViewError   ViewState = "error"
	ViewReady   ViewState = "ready"
)

// Cell is a classified grid cell.
type Cell struct {
	Date       Date   `json:"date"`
	Day        int    `json:"day"`
	InMonth    bool   `json:"in_month"`
	Status     Status `json:"status"`
	Selectable bool   `json:"selectable"`
}

// View is a rendered snapshot of the calendar.
type View struct {
	State     ViewState `json:"state"`
	Room      string    `json:"room"`
	Month     string    `json:"month"`
	Today     Date      `json:"today"`
	Phase     Phase     `json:"phase"`
	Selection Selection `json:"selection"`
	Cells     []Cell    `json:"cells,omitempty"`
	Error     string    `json:"error,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`
}

// Calendar is one availability widget. It owns its availability set and
// selection exclusively; nothing is shared between instances.
type Calendar struct {
	mu     sync.Mutex
	source Source
	opts   Options

	room   string
	avail  Set
	state  ViewState
	err    error
	token  uint64
	cancel context.CancelFunc
	sel    Selector
}

// New creates a calendar with no room; call SetRoom or Load to start.
func New(source Source, opts Options) *Calendar {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Calendar{source: source, opts: opts, state: ViewLoading}
}

// SetRoom switches the room category, clears the selection and starts a
// fetch that supersedes any in-flight one. The returned channel is closed
// once that fetch has been applied or discarded.
func (c *Calendar) SetRoom(ctx context.Context, room string) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
	c.sel.Reset()
	return c.startFetchLocked(ctx)
}

// Retry refetches availability for the current room. The selection is kept
// unless the new availability no longer contains one of its endpoints.
func (c *Calendar) Retry(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startFetchLocked(ctx)
}

// Load is SetRoom followed by waiting for the fetch. It returns the fetch
// error, if any.
func (c *Calendar) Load(ctx context.Context, room string) error {
	done := c.SetRoom(ctx, room)
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.Err()
}

func (c *Calendar) startFetchLocked(ctx context.Context) <-chan struct{} {
	if c.cancel != nil {
		c.cancel()
	}
	c.token++
	token, room := c.token, c.room
	c.state = ViewLoading
	c.avail = Set{}
	c.err = nil

	// The fetch outlives the request that triggered it.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.FetchTimeout)
	c.cancel = cancel

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		started := time.Now()
		set, err := c.source.Fetch(fetchCtx, room)
		c.apply(token, room, set, err, time.Since(started))
	}()
	return done
}

func (c *Calendar) apply(token uint64, room string, set Set, err error, elapsed time.Duration) {
	c.mu.Lock()
	var outcome FetchOutcome
	switch {
	case token != c.token:
		outcome = FetchStale
	case err != nil:
		outcome = FetchError
		c.state = ViewError
		c.err = fmt.Errorf("%w: room %s: %w", ErrFetch, room, err)
		c.cancel = nil
	default:
		outcome = FetchOK
		c.state = ViewReady
		c.avail = set
		c.cancel = nil
		// A refetch may have taken a selected date away.
		if !c.sel.Selection().AvailableIn(set) {
			c.sel.Reset()
		}
	}
	hook := c.opts.OnFetch
	c.mu.Unlock()

	if hook != nil {
		hook(FetchResult{Room: room, Outcome: outcome, Duration: elapsed, Err: err})
	}
}

// Room returns the active room category.
func (c *Calendar) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// Err returns the last fetch error, nil while loading or ready.
func (c *Calendar) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Selection returns the current endpoints.
func (c *Calendar) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Selection()
}

// Availability returns the current set and whether it is loaded.
func (c *Calendar) Availability() (Set, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avail, c.state == ViewReady
}

// Today returns the calendar's notion of today.
func (c *Calendar) Today() Date {
	return Today(c.opts.Now(), c.opts.Location)
}

// Select applies a click on d. Clicks on anything but a selectable cell of
// the current month are ignored; changed is false in that case. When the
// click completes a range it is returned and OnRange is invoked.
func (c *Calendar) Select(d Date) (changed bool, r Range, completed bool) {
	c.mu.Lock()
	if c.state != ViewReady {
		c.mu.Unlock()
		return false, Range{}, false
	}
	today := c.Today()
	day := Day{Date: d, InMonth: d.Year == today.Year && d.Month == today.Month}
	if !Selectable(day, Classify(d, today, c.avail, c.sel.Selection())) {
		c.mu.Unlock()
		return false, Range{}, false
	}
	r, completed = c.sel.Select(d)
	room, hook := c.room, c.opts.OnRange
	c.mu.Unlock()

	if completed && hook != nil {
		hook(room, r)
	}
	return true, r, completed
}

// View renders the current state. Rendering is pure: with unchanged
// availability, selection and date it yields identical output.
func (c *Calendar) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := c.Today()
	sel := c.sel.Selection()
	v := View{
		State:     c.state,
		Room:      c.room,
		Month:     today.Month.String() + " " + strconv.Itoa(today.Year),
		Today:     today,
		Phase:     sel.Phase(),
		Selection: sel,
	}
	switch c.state {
	case ViewError:
		v.Error = c.err.Error()
		v.Retryable = true
		return v
	case ViewLoading:
		return v
	}

	grid := BuildGrid(today)
	v.Cells = make([]Cell, len(grid))
	for i, day := range grid {
		status := Classify(day.Date, today, c.avail, sel)
		v.Cells[i] = Cell{
			Date:       day.Date,
			Day:        day.Date.Day,
			InMonth:    day.InMonth,
			Status:     status,
			Selectable: Selectable(day, status),
		}
	}
	return v
}
