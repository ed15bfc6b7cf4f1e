// Package machine holds the calibration state of the simulated tattoo
// machine: its settings, the print head and the link to the device.
package machine

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/rs/zerolog"

	"inksynth/internal/domain"
)

const (
	stateIdle     statekit.StateID = "idle"
	statePrinting statekit.StateID = "printing"

	eventToggle statekit.EventType = "TOGGLE"
)

// Matrix readout values while the print head is running.
const (
	ActiveNeedles   = 1024
	PrintPressure   = 450
	HeadTemperature = 34
)

// printContext travels through the print head chart.
type printContext struct {
	runs  int
	since time.Time
	now   func() time.Time
}

func startRun(c **printContext, _ statekit.Event) {
	pc := *c
	pc.runs++
	pc.since = pc.now()
}

func endRun(c **printContext, _ statekit.Event) {
	(*c).since = time.Time{}
}

func newPrintChart() (*statekit.MachineConfig[*printContext], error) {
	return statekit.NewMachine[*printContext]("print-head").
		WithInitial(stateIdle).
		WithContext(&printContext{}).
		WithAction("startRun", startRun).
		WithAction("endRun", endRun).
		State(stateIdle).
			On(eventToggle).Target(statePrinting).Do("startRun").
			Done().
		State(statePrinting).
			On(eventToggle).Target(stateIdle).Do("endRun").
			Done().
		Build()
}

var printChart = mustChart(newPrintChart())

func mustChart[C any](cfg *statekit.MachineConfig[C], err error) *statekit.MachineConfig[C] {
	if err != nil {
		panic("machine: invalid statechart: " + err.Error())
	}
	return cfg
}

// Patch is a partial settings update. Nil fields are left unchanged.
type Patch struct {
	Voltage   *float64 `json:"voltage,omitempty"`
	Frequency *float64 `json:"frequency,omitempty"`
	Depth     *float64 `json:"depth,omitempty"`
}

// Empty reports whether the patch carries no field.
func (p Patch) Empty() bool {
	return p.Voltage == nil && p.Frequency == nil && p.Depth == nil
}

// Validate rejects values outside the machine bounds.
func (p Patch) Validate() error {
	if p.Voltage != nil {
		if err := domain.CheckBound("voltage", *p.Voltage, domain.VoltageBound); err != nil {
			return err
		}
	}
	if p.Frequency != nil {
		if err := domain.CheckBound("frequency", *p.Frequency, domain.FrequencyBound); err != nil {
			return err
		}
	}
	if p.Depth != nil {
		if err := domain.CheckBound("depth", *p.Depth, domain.DepthBound); err != nil {
			return err
		}
	}
	return nil
}

// Matrix is the haptic needle matrix readout.
type Matrix struct {
	Active        bool    `json:"active"`
	ActiveNeedles int     `json:"activeNeedles"`
	Intensity     float64 `json:"intensity"`
	PressureGrams int     `json:"pressureGrams"`
	TemperatureC  int     `json:"temperatureC"`
}

// PanelOption configures a Panel.
type PanelOption func(*Panel)

// WithPanelLogger attaches a logger.
func WithPanelLogger(l zerolog.Logger) PanelOption {
	return func(p *Panel) { p.logger = l }
}

// WithInitialSettings overrides the default settings. Values are clamped.
func WithInitialSettings(s domain.MachineSettings) PanelOption {
	return func(p *Panel) { p.settings = s.Clamp() }
}

// Panel is the calibration panel. It is safe for concurrent use.
type Panel struct {
	logger zerolog.Logger

	mu       sync.Mutex
	settings domain.MachineSettings
	head     *statekit.Interpreter[*printContext]
	pc       *printContext
	subs     map[int]func(domain.MachineSettings)
	nextSub  int
}

// NewPanel returns a panel at the default settings with the print head idle.
func NewPanel(opts ...PanelOption) *Panel {
	p := &Panel{
		logger:   zerolog.Nop(),
		settings: domain.DefaultMachineSettings(),
		pc:       &printContext{now: time.Now},
		subs:     make(map[int]func(domain.MachineSettings)),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.head = statekit.NewInterpreter(printChart)
	p.head.Start()
	p.head.UpdateContext(func(c **printContext) { *c = p.pc })
	return p
}

// Settings returns the current settings.
func (p *Panel) Settings() domain.MachineSettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// UpdateSettings merges patch into the current settings and clamps the
// result into the machine bounds.
func (p *Panel) UpdateSettings(patch Patch) domain.MachineSettings {
	p.mu.Lock()
	next := p.settings
	if patch.Voltage != nil {
		next.Voltage = *patch.Voltage
	}
	if patch.Frequency != nil {
		next.Frequency = *patch.Frequency
	}
	if patch.Depth != nil {
		next.Depth = *patch.Depth
	}
	return p.commitLocked(next.Clamp())
}

// ApplyPreset overwrites all three settings with the preset values.
func (p *Panel) ApplyPreset(preset domain.CalibrationPreset) domain.MachineSettings {
	p.mu.Lock()
	return p.commitLocked(preset.Settings().Clamp())
}

// commitLocked stores next, releases the lock and notifies subscribers when
// anything changed.
func (p *Panel) commitLocked(next domain.MachineSettings) domain.MachineSettings {
	changed := next != p.settings
	p.settings = next
	var listeners []func(domain.MachineSettings)
	if changed {
		listeners = make([]func(domain.MachineSettings), 0, len(p.subs))
		for _, fn := range p.subs {
			listeners = append(listeners, fn)
		}
	}
	p.mu.Unlock()

	if changed {
		p.logger.Debug().
			Float64("voltage", next.Voltage).
			Float64("frequency", next.Frequency).
			Float64("depth", next.Depth).
			Msg("machine.settings.changed")
	}
	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Subscribe registers fn for settings changes and returns a function that
// removes it.
func (p *Panel) Subscribe(fn func(domain.MachineSettings)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// TogglePrinting flips the print head and returns the new printing state.
func (p *Panel) TogglePrinting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.head.Send(statekit.Event{Type: eventToggle})
	return p.head.State().Value == statePrinting
}

// IsPrinting reports whether the print head is running.
func (p *Panel) IsPrinting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.head.State().Value == statePrinting
}

// PrintRuns counts how many times printing was started.
func (p *Panel) PrintRuns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pc.runs
}

// PrintingSince returns when the current print run started.
func (p *Panel) PrintingSince() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pc.since, !p.pc.since.IsZero()
}

// Matrix returns the needle matrix readout for the current state.
func (p *Panel) Matrix() Matrix {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := Matrix{
		Intensity:    p.settings.Frequency,
		TemperatureC: HeadTemperature,
	}
	if p.head.State().Value == statePrinting {
		m.Active = true
		m.ActiveNeedles = ActiveNeedles
		m.PressureGrams = PrintPressure
	}
	return m
}

// Close stops the print head chart.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.head.Stop()
}
