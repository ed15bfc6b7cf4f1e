// Package generator simulates tattoo design generation. Each call waits a
// fixed latency and then yields one placeholder artifact.
package generator

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inksynth/internal/domain"
)

// DefaultDelay is the simulated generation latency.
const DefaultDelay = 2 * time.Second

var (
	ErrEmptyPrompt = errors.New("generator: prompt is required")
	ErrClosed      = errors.New("generator: simulator closed")
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithDelay sets the fixed part of the simulated latency.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithJitter adds a uniformly distributed extra latency in [0, j).
func WithJitter(j time.Duration) Option {
	return func(s *Simulator) {
		if j > 0 {
			s.jitter = j
		}
	}
}

// WithIDFunc replaces the artifact id source.
func WithIDFunc(fn func() string) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithOnChange registers a callback invoked after every state change.
// It runs without the simulator lock held.
func WithOnChange(fn func()) Option {
	return func(s *Simulator) { s.onChange = fn }
}

// Simulator owns a generation history. It is safe for concurrent use.
type Simulator struct {
	delay    time.Duration
	jitter   time.Duration
	newID    func() string
	now      func() time.Time
	logger   zerolog.Logger
	onChange func()

	mu       sync.Mutex
	history  []domain.GeneratedArtifact
	inflight map[*Pending]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// New constructs a Simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		delay:    DefaultDelay,
		newID:    func() string { return "demo-gen-" + uuid.NewString() },
		now:      time.Now,
		logger:   zerolog.Nop(),
		inflight: make(map[*Pending]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pending is the handle of one in-flight generation.
type Pending struct {
	prompt string
	style  domain.Style

	done     chan struct{}
	cancel   chan struct{}
	once     sync.Once
	artifact domain.GeneratedArtifact
	err      error
}

// Done is closed once the generation completed or was cancelled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Cancel abandons the generation. It is a no-op after completion.
func (p *Pending) Cancel() {
	p.once.Do(func() { close(p.cancel) })
}

// Wait blocks until the generation finishes or ctx is done. When ctx ends
// first the generation is cancelled.
func (p *Pending) Wait(ctx context.Context) (domain.GeneratedArtifact, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		p.Cancel()
		<-p.done
	}
	return p.artifact, p.err
}

// Start begins a generation and returns immediately. IsGenerating reports
// true before Start returns.
func (s *Simulator) Start(prompt string, style domain.Style) (*Pending, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if !style.Valid() {
		return nil, domain.ErrUnknownStyle
	}

	p := &Pending{
		prompt: prompt,
		style:  style,
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.inflight[p] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug().Str("style", string(style)).Msg("generation started")
	s.changed()

	go s.run(p, s.latency())
	return p, nil
}

// Generate starts a generation and waits for it.
func (s *Simulator) Generate(ctx context.Context, prompt string, style domain.Style) (domain.GeneratedArtifact, error) {
	p, err := s.Start(prompt, style)
	if err != nil {
		return domain.GeneratedArtifact{}, err
	}
	return p.Wait(ctx)
}

func (s *Simulator) run(p *Pending, wait time.Duration) {
	defer s.wg.Done()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		s.complete(p)
	case <-p.cancel:
		s.abandon(p, context.Canceled)
	}
	s.changed()
	close(p.done)
}

func (s *Simulator) complete(p *Pending) {
	artifact := domain.GeneratedArtifact{
		ID:        s.newID(),
		URL:       PlaceholderURL(p.prompt, p.style),
		Prompt:    p.prompt,
		Style:     p.style,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	delete(s.inflight, p)
	s.history = append([]domain.GeneratedArtifact{artifact}, s.history...)
	s.mu.Unlock()

	p.artifact = artifact
	s.logger.Debug().Str("artifact_id", artifact.ID).Msg("generation completed")
}

func (s *Simulator) abandon(p *Pending, err error) {
	s.mu.Lock()
	delete(s.inflight, p)
	s.mu.Unlock()

	p.err = err
}

func (s *Simulator) latency() time.Duration {
	if s.jitter <= 0 {
		return s.delay
	}
	return s.delay + rand.N(s.jitter)
}

func (s *Simulator) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// IsGenerating reports whether any generation is in flight.
func (s *Simulator) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight) > 0
}

// History returns the artifacts, most recent first.
func (s *Simulator) History() []domain.GeneratedArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GeneratedArtifact(nil), s.history...)
}

// Clear empties the history. In-flight generations are unaffected.
func (s *Simulator) Clear() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	s.changed()
}

// Close cancels in-flight generations and waits for their goroutines.
func (s *Simulator) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := make([]*Pending, 0, len(s.inflight))
	for p := range s.inflight {
		pending = append(pending, p)
	}
	s.mu.Unlock()

	for _, p := range pending {
		p.Cancel()
	}
	s.wg.Wait()
}
