package flow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sakif/codebin/internal/client"
)

// manualClock fires AfterFunc callbacks only when Advance moves past their deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// Advance moves time forward and runs due callbacks in deadline order,
// outside the clock's lock.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// recordingClipboard remembers everything written to it.
type recordingClipboard struct {
	mu     sync.Mutex
	writes []string
	err    error
}

func (c *recordingClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.writes = append(c.writes, text)
	return nil
}

func (c *recordingClipboard) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.writes) == 0 {
		return ""
	}
	return c.writes[len(c.writes)-1]
}

// fakeAPI implements Creator and Fetcher. When gate is non-nil every call
// blocks until a value is sent on it or the request context ends.
type fakeAPI struct {
	mu       sync.Mutex
	creates  []client.CreateRequest
	gets     []string
	createFn func(req client.CreateRequest) (*client.Snippet, error)
	getFn    func(id string) (*client.Snippet, error)
	gate     chan struct{}
	entered  chan struct{}
}

func (f *fakeAPI) wait(ctx context.Context) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) Create(ctx context.Context, req client.CreateRequest) (*client.Snippet, error) {
	f.mu.Lock()
	f.creates = append(f.creates, req)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.createFn != nil {
		return f.createFn(req)
	}
	return &client.Snippet{ID: "abc123"}, nil
}

func (f *fakeAPI) Get(ctx context.Context, id string) (*client.Snippet, error) {
	f.mu.Lock()
	f.gets = append(f.gets, id)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.getFn != nil {
		return f.getFn(id)
	}
	return &client.Snippet{ID: id, Title: "t-" + id, Code: "code", Language: "python"}, nil
}

func (f *fakeAPI) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func (f *fakeAPI) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gets)
}
