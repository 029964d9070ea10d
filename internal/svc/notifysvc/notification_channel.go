package notifysvc

import (
	"context"
	"sync"
	"time"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/infra/logging"
)

// NotifyConfig contains configuration parameters for the notification channel.
type NotifyConfig struct {
	// DisplaySeconds is how long a message stays visible
	DisplaySeconds int64 `env:"DISPLAY_SECONDS" default:"4"`
}

// Timer is the subset of *time.Timer used by Channel.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

// Listener is called whenever the visible message changes.
// ok is false when the message was cleared.
type Listener func(msg domain.StatusMessage, ok bool)

// Channel shows a single transient status message.
type Channel struct {
	log       logging.Logger
	display   time.Duration
	afterFunc AfterFunc

	mu       sync.Mutex
	current  domain.StatusMessage
	visible  bool
	seq      uint64
	timer    Timer
	listener Listener
}

// NewChannel creates a Channel that clears messages with time.AfterFunc.
func NewChannel(cfg NotifyConfig) *Channel {
	return NewChannelWithScheduler(cfg, func(d time.Duration, f func()) Timer {
		return time.AfterFunc(d, f)
	})
}

// NewChannelWithScheduler creates a Channel that schedules clearing with afterFunc.
func NewChannelWithScheduler(cfg NotifyConfig, afterFunc AfterFunc) *Channel {
	return &Channel{
		log:       logging.GetLogger("svc.notifysvc.notification_channel"),
		display:   time.Duration(cfg.DisplaySeconds * int64(time.Second)),
		afterFunc: afterFunc,
	}
}

// Subscribe registers the listener informed about every change. It replaces
// any previous listener. The listener must not call back into the Channel.
func (c *Channel) Subscribe(listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listener = listener
}

// Notify shows msg immediately, replacing the visible message and cancelling
// its pending clear, and schedules msg to be cleared after the display window.
func (c *Channel) Notify(ctx context.Context, text string, kind domain.StatusKind) {
	msg := domain.StatusMessage{Text: text, Kind: kind}

	c.mu.Lock()

	if c.timer != nil {
		c.timer.Stop()
	}

	c.seq++
	seq := c.seq
	c.current, c.visible = msg, true
	c.timer = c.afterFunc(c.display, func() { c.expire(seq) })
	listener := c.listener

	c.mu.Unlock()

	level := logging.LevelInfo
	if kind == domain.StatusError {
		level = logging.LevelWarn
	}

	c.log.Log(ctx, level, "notify", logging.Group("status", "text", text, "kind", kind))

	if listener != nil {
		listener(msg, true)
	}
}

// expire clears the message shown by the Notify call numbered seq,
// unless a newer message replaced it.
func (c *Channel) expire(seq uint64) {
	c.mu.Lock()

	if seq != c.seq || !c.visible {
		c.mu.Unlock()

		return
	}

	c.current, c.visible = domain.StatusMessage{}, false
	c.timer = nil
	listener := c.listener

	c.mu.Unlock()

	if listener != nil {
		listener(domain.StatusMessage{}, false)
	}
}

// Current returns the visible message, if any.
func (c *Channel) Current() (domain.StatusMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current, c.visible
}

// Dismiss clears the visible message early.
func (c *Channel) Dismiss() {
	c.mu.Lock()
	seq := c.seq
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.expire(seq)
}
