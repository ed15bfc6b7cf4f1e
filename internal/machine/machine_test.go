package machine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"inksynth/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr(v float64) *float64 { return &v }

func TestNewPanelDefaults(t *testing.T) {
	p := NewPanel()
	defer p.Close()

	if diff := cmp.Diff(domain.DefaultMachineSettings(), p.Settings()); diff != "" {
		t.Fatalf("Settings() mismatch (-want +got):\n%s", diff)
	}
	if p.IsPrinting() {
		t.Fatal("IsPrinting() = true, want false")
	}
}

func TestUpdateSettingsMergesPatch(t *testing.T) {
	p := NewPanel()
	defer p.Close()

	got := p.UpdateSettings(Patch{Voltage: ptr(10)})
	want := domain.MachineSettings{Voltage: 10, Frequency: 85, Depth: 1.2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("UpdateSettings() mismatch (-want +got):\n%s", diff)
	}
	if p.Settings() != want {
		t.Fatalf("Settings() = %+v, want %+v", p.Settings(), want)
	}
}

func TestUpdateSettingsClamps(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		want  domain.MachineSettings
	}{
		{"voltage high", Patch{Voltage: ptr(20)}, domain.MachineSettings{Voltage: 12, Frequency: 85, Depth: 1.2}},
		{"voltage low", Patch{Voltage: ptr(1)}, domain.MachineSettings{Voltage: 4, Frequency: 85, Depth: 1.2}},
		{"frequency negative", Patch{Frequency: ptr(-5)}, domain.MachineSettings{Voltage: 7.5, Frequency: 0, Depth: 1.2}},
		{"depth high", Patch{Depth: ptr(9)}, domain.MachineSettings{Voltage: 7.5, Frequency: 85, Depth: 4}},
		{"edges kept", Patch{Voltage: ptr(4), Frequency: ptr(150), Depth: ptr(0.1)}, domain.MachineSettings{Voltage: 4, Frequency: 150, Depth: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPanel()
			defer p.Close()
			if got := p.UpdateSettings(tt.patch); got != tt.want {
				t.Fatalf("UpdateSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPatchValidate(t *testing.T) {
	if err := (Patch{Voltage: ptr(12), Depth: ptr(0.1)}).Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	err := (Patch{Frequency: ptr(151)}).Validate()
	if !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("Validate() = %v, want ErrOutOfRange", err)
	}
	if !(Patch{}).Empty() {
		t.Fatal("Empty() = false for zero patch")
	}
}

func TestApplyPresetKeepsVoltageWhenEqual(t *testing.T) {
	p := NewPanel()
	defer p.Close()

	lining := domain.CalibrationPreset{ID: "preset-lining", Name: "Fine Lining", Voltage: 7.5, Frequency: 120, Depth: 1.0}
	got := p.ApplyPreset(lining)

	want := domain.MachineSettings{Voltage: 7.5, Frequency: 120, Depth: 1.0}
	if got != want {
		t.Fatalf("ApplyPreset() = %+v, want %+v", got, want)
	}
}

func TestTogglePrintingTwiceRestores(t *testing.T) {
	p := NewPanel()
	defer p.Close()

	if !p.TogglePrinting() {
		t.Fatal("first TogglePrinting() = false, want true")
	}
	if _, ok := p.PrintingSince(); !ok {
		t.Fatal("PrintingSince() not set while printing")
	}
	m := p.Matrix()
	if m.ActiveNeedles != ActiveNeedles || !m.Active || m.Intensity != 85 {
		t.Fatalf("Matrix() = %+v while printing", m)
	}

	if p.TogglePrinting() {
		t.Fatal("second TogglePrinting() = true, want false")
	}
	if p.IsPrinting() {
		t.Fatal("IsPrinting() = true after two toggles")
	}
	if m := p.Matrix(); m.ActiveNeedles != 0 || m.PressureGrams != 0 {
		t.Fatalf("Matrix() = %+v while idle", m)
	}
	if got := p.PrintRuns(); got != 1 {
		t.Fatalf("PrintRuns() = %d, want 1", got)
	}
}

func TestSubscribeNotifiesOnChange(t *testing.T) {
	p := NewPanel()
	defer p.Close()

	var mu sync.Mutex
	var seen []domain.MachineSettings
	unsubscribe := p.Subscribe(func(s domain.MachineSettings) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	p.UpdateSettings(Patch{Frequency: ptr(100)})
	p.UpdateSettings(Patch{Frequency: ptr(100)}) // no change
	unsubscribe()
	unsubscribe()
	p.UpdateSettings(Patch{Frequency: ptr(90)})

	mu.Lock()
	defer mu.Unlock()
	want := []domain.MachineSettings{{Voltage: 7.5, Frequency: 100, Depth: 1.2}}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestLinkGoesOnlineOnce(t *testing.T) {
	l := NewLink(5*time.Millisecond, zerolog.Nop())
	defer l.Close()

	if got := l.Status(); got != LinkSearching {
		t.Fatalf("Status() = %q, want %q", got, LinkSearching)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if got := l.Status(); got != LinkOnline {
		t.Fatalf("Status() = %q, want %q", got, LinkOnline)
	}
	first, ok := l.OnlineAt()
	if !ok {
		t.Fatal("OnlineAt() not set")
	}

	l.connect()
	again, _ := l.OnlineAt()
	if !again.Equal(first) {
		t.Fatalf("OnlineAt() changed from %v to %v", first, again)
	}
}

func TestLinkCloseWhileSearching(t *testing.T) {
	l := NewLink(time.Hour, zerolog.Nop())
	l.Close()
	l.Close()

	if got := l.Status(); got != LinkSearching {
		t.Fatalf("Status() = %q, want %q", got, LinkSearching)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() = %v, want deadline exceeded", err)
	}
}
