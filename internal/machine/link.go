package machine

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/rs/zerolog"
)

// DefaultConnectDelay is how long a link searches before it comes online.
const DefaultConnectDelay = 1500 * time.Millisecond

// LinkStatus is the readiness of the simulated device link.
type LinkStatus string

const (
	LinkSearching LinkStatus = "searching"
	LinkOnline    LinkStatus = "online"
)

const eventConnected statekit.EventType = "CONNECTED"

type linkContext struct {
	onlineAt time.Time
	now      func() time.Time
}

func markOnline(c **linkContext, _ statekit.Event) {
	(*c).onlineAt = (*c).now()
}

func newLinkChart() (*statekit.MachineConfig[*linkContext], error) {
	return statekit.NewMachine[*linkContext]("device-link").
		WithInitial(statekit.StateID(LinkSearching)).
		WithContext(&linkContext{}).
		WithAction("markOnline", markOnline).
		State(statekit.StateID(LinkSearching)).
			On(eventConnected).Target(statekit.StateID(LinkOnline)).Do("markOnline").
			Done().
		State(statekit.StateID(LinkOnline)).
			Final().
			Done().
		Build()
}

var linkChart = mustChart(newLinkChart())

// Link simulates the connection handshake with the machine. It starts
// searching and goes online exactly once after the connect delay.
type Link struct {
	logger zerolog.Logger

	mu     sync.Mutex
	chart  *statekit.Interpreter[*linkContext]
	lc     *linkContext
	timer  *time.Timer
	ready  chan struct{}
	closed bool
}

// NewLink starts a link that comes online after delay. A negative delay
// uses DefaultConnectDelay.
func NewLink(delay time.Duration, logger zerolog.Logger) *Link {
	if delay < 0 {
		delay = DefaultConnectDelay
	}
	l := &Link{
		logger: logger,
		lc:     &linkContext{now: time.Now},
		ready:  make(chan struct{}),
	}
	l.chart = statekit.NewInterpreter(linkChart)
	l.chart.Start()
	l.chart.UpdateContext(func(c **linkContext) { *c = l.lc })

	l.mu.Lock()
	l.timer = time.AfterFunc(delay, l.connect)
	l.mu.Unlock()
	return l
}

func (l *Link) connect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.chart.Done() {
		return
	}
	l.chart.Send(statekit.Event{Type: eventConnected})
	close(l.ready)
	l.logger.Debug().Msg("machine link online")
}

// Status returns the current link status.
func (l *Link) Status() LinkStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LinkStatus(l.chart.State().Value)
}

// Online reports whether the link is online.
func (l *Link) Online() bool {
	return l.Status() == LinkOnline
}

// OnlineAt returns when the link came online.
func (l *Link) OnlineAt() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lc.onlineAt, !l.lc.onlineAt.IsZero()
}

// Ready is closed once the link is online. It never closes for a link that
// was closed while searching.
func (l *Link) Ready() <-chan struct{} {
	return l.ready
}

// Wait blocks until the link is online or ctx is done.
func (l *Link) Wait(ctx context.Context) error {
	select {
	case <-l.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops a pending handshake. An online link stays online.
func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.timer.Stop()
	l.chart.Stop()
}
