// Package demo composes the generator, the calibration panel and the
// catalog into the per-client demo session.
package demo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inksynth/internal/catalog"
	"inksynth/internal/domain"
	"inksynth/internal/generator"
	"inksynth/internal/machine"
)

// Options tune the simulated latencies of a session.
type Options struct {
	GenerationDelay  time.Duration
	GenerationJitter time.Duration
	ConnectDelay     time.Duration
	Logger           zerolog.Logger
}

// DefaultOptions mirror the latencies of the showcase.
func DefaultOptions() Options {
	return Options{
		GenerationDelay: generator.DefaultDelay,
		ConnectDelay:    machine.DefaultConnectDelay,
		Logger:          zerolog.Nop(),
	}
}

// State is a coherent snapshot of a session.
type State struct {
	ID              string                     `json:"id"`
	IsDemo          bool                       `json:"isDemo"`
	IsConnected     bool                       `json:"isConnected"`
	SelectedStyle   domain.Style               `json:"selectedStyle"`
	SelectedDesign  *domain.DemoDesign         `json:"selectedDesign"`
	IsGenerating    bool                       `json:"isGenerating"`
	Generated       []domain.GeneratedArtifact `json:"generatedDesigns"`
	MachineSettings domain.MachineSettings     `json:"machineSettings"`
	IsPrinting      bool                       `json:"isPrinting"`
	Link            machine.LinkStatus         `json:"link,omitempty"`
	CreatedAt       time.Time                  `json:"createdAt"`
}

// Session is the aggregate demo context of one client.
type Session struct {
	id        string
	createdAt time.Time
	catalog   *catalog.Catalog
	opts      Options
	logger    zerolog.Logger

	sim   *generator.Simulator
	panel *machine.Panel

	mu             sync.Mutex
	selectedStyle  domain.Style
	selectedDesign *domain.DemoDesign
	link           *machine.Link
	lastSeen       time.Time
	closed         bool
}

// NewSession builds a session over cat with a fresh simulator and panel.
func NewSession(cat *catalog.Catalog, opts Options) *Session {
	if cat == nil {
		cat = catalog.Default()
	}
	id := uuid.NewString()
	logger := opts.Logger.With().Str("session_id", id).Logger()
	now := time.Now().UTC()

	return &Session{
		id:        id,
		createdAt: now,
		catalog:   cat,
		opts:      opts,
		logger:    logger,
		sim: generator.New(
			generator.WithDelay(opts.GenerationDelay),
			generator.WithJitter(opts.GenerationJitter),
			generator.WithLogger(logger),
		),
		panel:         machine.NewPanel(machine.WithPanelLogger(logger)),
		selectedStyle: domain.DefaultStyle,
		lastSeen:      now,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Catalog exposes the read-only catalog.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Touch records activity for idle eviction.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SelectDesign selects a catalog design by id.
func (s *Session) SelectDesign(id string) (domain.DemoDesign, error) {
	d, ok := s.catalog.DesignByID(id)
	if !ok {
		return domain.DemoDesign{}, fmt.Errorf("design %q: %w", id, domain.ErrNotFound)
	}
	s.mu.Lock()
	s.selectedDesign = &d
	s.mu.Unlock()
	return d, nil
}

// ClearSelectedDesign drops the selection.
func (s *Session) ClearSelectedDesign() {
	s.mu.Lock()
	s.selectedDesign = nil
	s.mu.Unlock()
}

// SelectedDesign returns the selected design, if any.
func (s *Session) SelectedDesign() (domain.DemoDesign, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedDesign == nil {
		return domain.DemoDesign{}, false
	}
	return *s.selectedDesign, true
}

// SetSelectedStyle changes the style used when a generation names none.
func (s *Session) SetSelectedStyle(style domain.Style) error {
	if !style.Valid() {
		return fmt.Errorf("style %q: %w", style, domain.ErrUnknownStyle)
	}
	s.mu.Lock()
	s.selectedStyle = style
	s.mu.Unlock()
	return nil
}

// SelectedStyle returns the selected style.
func (s *Session) SelectedStyle() domain.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedStyle
}

func (s *Session) resolveStyle(style domain.Style) domain.Style {
	if style == "" {
		return s.SelectedStyle()
	}
	return style
}

// StartGeneration begins a generation without waiting. An empty style uses
// the selected style.
func (s *Session) StartGeneration(prompt string, style domain.Style) (*generator.Pending, error) {
	return s.sim.Start(prompt, s.resolveStyle(style))
}

// Generate runs a generation to completion.
func (s *Session) Generate(ctx context.Context, prompt string, style domain.Style) (domain.GeneratedArtifact, error) {
	return s.sim.Generate(ctx, prompt, s.resolveStyle(style))
}

// Generated returns the history, most recent first.
func (s *Session) Generated() []domain.GeneratedArtifact { return s.sim.History() }

// IsGenerating reports whether a generation is in flight.
func (s *Session) IsGenerating() bool { return s.sim.IsGenerating() }

// ClearGenerated empties the generation history.
func (s *Session) ClearGenerated() { s.sim.Clear() }

// MachineSettings returns the panel settings.
func (s *Session) MachineSettings() domain.MachineSettings { return s.panel.Settings() }

// UpdateMachineSettings merges a partial update into the panel settings.
func (s *Session) UpdateMachineSettings(patch machine.Patch) domain.MachineSettings {
	return s.panel.UpdateSettings(patch)
}

// ApplyCalibrationPreset applies a catalog calibration preset by id.
func (s *Session) ApplyCalibrationPreset(id string) (domain.MachineSettings, error) {
	p, ok := s.catalog.CalibrationPreset(id)
	if !ok {
		return domain.MachineSettings{}, fmt.Errorf("calibration preset %q: %w", id, domain.ErrNotFound)
	}
	return s.panel.ApplyPreset(p), nil
}

// TogglePrinting flips the print head.
func (s *Session) TogglePrinting() bool { return s.panel.TogglePrinting() }

// IsPrinting reports whether the print head is running.
func (s *Session) IsPrinting() bool { return s.panel.IsPrinting() }

// Matrix returns the needle matrix readout.
func (s *Session) Matrix() machine.Matrix { return s.panel.Matrix() }

// OnSettingsChange registers a listener for machine settings changes.
func (s *Session) OnSettingsChange(fn func(domain.MachineSettings)) (unsubscribe func()) {
	return s.panel.Subscribe(fn)
}

// MachineLink returns the device link, starting its handshake on first use.
func (s *Session) MachineLink() *machine.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.link == nil {
		s.link = machine.NewLink(s.opts.ConnectDelay, s.logger)
		if s.closed {
			s.link.Close()
		}
	}
	return s.link
}

// DesignsByStyle filters the catalog by style.
func (s *Session) DesignsByStyle(style domain.Style) []domain.DemoDesign {
	return s.catalog.DesignsByStyle(style)
}

// PopularDesigns returns the most popular catalog designs.
func (s *Session) PopularDesigns(limit int) []domain.DemoDesign {
	return s.catalog.PopularDesigns(limit)
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	st := State{
		ID:            s.id,
		IsDemo:        true,
		IsConnected:   true,
		SelectedStyle: s.selectedStyle,
		CreatedAt:     s.createdAt,
	}
	if s.selectedDesign != nil {
		d := *s.selectedDesign
		st.SelectedDesign = &d
	}
	link := s.link
	s.mu.Unlock()

	st.IsGenerating = s.sim.IsGenerating()
	st.Generated = s.sim.History()
	st.MachineSettings = s.panel.Settings()
	st.IsPrinting = s.panel.IsPrinting()
	if link != nil {
		st.Link = link.Status()
	}
	return st
}

// Close cancels pending generations and stops the machine timers.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	link := s.link
	s.mu.Unlock()

	s.sim.Close()
	s.panel.Close()
	if link != nil {
		link.Close()
	}
	s.logger.Debug().Msg("demo session closed")
}
