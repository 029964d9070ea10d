package notifysvc_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/svc/notifysvc"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true

	return wasActive
}

// fakeScheduler records timers so tests can fire them explicitly.
type fakeScheduler struct {
	m      sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) notifysvc.Timer {
	s.m.Lock()
	defer s.m.Unlock()

	timer := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, timer)

	return timer
}

func (s *fakeScheduler) timer(t *testing.T, i int) *fakeTimer {
	t.Helper()

	s.m.Lock()
	defer s.m.Unlock()

	require.Greater(t, len(s.timers), i)

	return s.timers[i]
}

func setupTestChannel(t *testing.T) (*notifysvc.Channel, *fakeScheduler) {
	t.Helper()

	scheduler := &fakeScheduler{}
	channel := notifysvc.NewChannelWithScheduler(notifysvc.NotifyConfig{DisplaySeconds: 4}, scheduler.AfterFunc)

	return channel, scheduler
}

func TestChannel_NotifyAndExpire(t *testing.T) {
	t.Parallel()

	channel, scheduler := setupTestChannel(t)

	_, ok := channel.Current()
	assert.False(t, ok)

	channel.Notify(context.Background(), "Purchase successful!", domain.StatusSuccess)

	msg, ok := channel.Current()
	assert.True(t, ok)
	assert.Equal(t, domain.StatusMessage{Text: "Purchase successful!", Kind: domain.StatusSuccess}, msg)

	timer := scheduler.timer(t, 0)
	assert.Equal(t, 4*time.Second, timer.d)

	timer.f()

	_, ok = channel.Current()
	assert.False(t, ok)
}

func TestChannel_NewMessagePreemptsPendingClear(t *testing.T) {
	t.Parallel()

	channel, scheduler := setupTestChannel(t)
	ctx := context.Background()

	channel.Notify(ctx, "Purchase failed", domain.StatusError)
	channel.Notify(ctx, "Sweet added successfully!", domain.StatusSuccess)

	first := scheduler.timer(t, 0)
	second := scheduler.timer(t, 1)

	assert.True(t, first.stopped)
	assert.False(t, second.stopped)

	// the first timer's original deadline passes; a timer that already fired
	// before Stop must not clear the newer message either
	first.f()

	msg, ok := channel.Current()
	assert.True(t, ok)
	assert.Equal(t, "Sweet added successfully!", msg.Text)
	assert.Equal(t, domain.StatusSuccess, msg.Kind)

	second.f()

	_, ok = channel.Current()
	assert.False(t, ok)
}

func TestChannel_SubscribeAndDismiss(t *testing.T) {
	t.Parallel()

	channel, _ := setupTestChannel(t)

	type event struct {
		msg domain.StatusMessage
		ok  bool
	}

	var events []event

	channel.Subscribe(func(msg domain.StatusMessage, ok bool) {
		events = append(events, event{msg, ok})
	})

	channel.Notify(context.Background(), "Logged out successfully", domain.StatusSuccess)
	channel.Dismiss()
	channel.Dismiss()

	assert.Equal(t, []event{
		{domain.StatusMessage{Text: "Logged out successfully", Kind: domain.StatusSuccess}, true},
		{domain.StatusMessage{}, false},
	}, events)
}

func TestChannel_RealTimer(t *testing.T) {
	t.Parallel()

	channel := notifysvc.NewChannel(notifysvc.NotifyConfig{DisplaySeconds: 0})
	channel.Notify(context.Background(), "gone soon", domain.StatusSuccess)

	require.Eventually(t, func() bool {
		_, ok := channel.Current()

		return !ok
	}, time.Second, 5*time.Millisecond)
}
