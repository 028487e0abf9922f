package flow

import (
	"sync"
	"time"
)

// CopyAckDuration is how long the "Copied!" acknowledgment stays up.
const CopyAckDuration = 2 * time.Second

// CopiedLabel replaces a copy button's label while the acknowledgment is up.
const CopiedLabel = "Copied!"

// Clipboard is where copied text goes. atotto/clipboard's WriteAll fits ClipboardFunc.
type Clipboard interface {
	WriteAll(text string) error
}

// ClipboardFunc adapts a plain function to Clipboard.
type ClipboardFunc func(text string) error

func (f ClipboardFunc) WriteAll(text string) error { return f(text) }

// Timer is the part of *time.Timer the copier needs.
type Timer interface {
	Stop() bool
}

// Clock schedules the acknowledgment revert. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Copier copies text and holds a transient acknowledgment.
//
// Every successful Copy raises the acknowledgment and (re)starts a single
// CopyAckDuration timer; when it fires the acknowledgment drops. Copying again
// while it is up restarts the interval, so it always drops exactly
// CopyAckDuration after the latest copy.
type Copier struct {
	mu     sync.Mutex
	clip   Clipboard
	clock  Clock
	copied bool
	seq    uint64
	timer  Timer
}

// NewCopier returns a copier writing to clip. A nil clock means wall time.
func NewCopier(clip Clipboard, clock Clock) *Copier {
	if clock == nil {
		clock = realClock{}
	}
	return &Copier{clip: clip, clock: clock}
}

// Copy writes text to the clipboard. On failure the acknowledgment is untouched.
func (c *Copier) Copy(text string) error {
	if c.clip == nil {
		return ErrNoClipboard
	}
	if err := c.clip.WriteAll(text); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.seq++
	seq := c.seq
	c.copied = true
	c.timer = c.clock.AfterFunc(CopyAckDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A stopped timer can still fire if it was already running; seq filters it.
		if c.seq == seq {
			c.copied = false
			c.timer = nil
		}
	})
	return nil
}

// Copied reports whether the acknowledgment is currently showing.
func (c *Copier) Copied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied
}

// Label returns CopiedLabel while the acknowledgment is up, idle otherwise.
func (c *Copier) Label(idle string) string {
	if c.Copied() {
		return CopiedLabel
	}
	return idle
}

// Stop cancels a pending revert and drops the acknowledgment immediately.
func (c *Copier) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
	c.copied = false
}
