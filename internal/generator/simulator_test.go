package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"inksynth/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testDelay = 10 * time.Millisecond

func TestGenerateAddsOneArtifact(t *testing.T) {
	sim := New(WithDelay(testDelay))
	defer sim.Close()

	art, err := sim.Generate(context.Background(), "a koi fish", domain.StyleJapanese)
	require.NoError(t, err)

	history := sim.History()
	require.Len(t, history, 1)
	assert.Equal(t, art, history[0])
	assert.Equal(t, "a koi fish", history[0].Prompt)
	assert.Equal(t, domain.StyleJapanese, history[0].Style)
	assert.True(t, strings.HasPrefix(art.ID, "demo-gen-"), art.ID)
	assert.False(t, sim.IsGenerating())
}

func TestSequentialGenerationsOrderMostRecentFirst(t *testing.T) {
	sim := New(WithDelay(testDelay))
	defer sim.Close()

	first, err := sim.Generate(context.Background(), "first", domain.StyleTribal)
	require.NoError(t, err)
	second, err := sim.Generate(context.Background(), "second", domain.StyleMinimalist)
	require.NoError(t, err)

	history := sim.History()
	require.Len(t, history, 2)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestStartMarksGeneratingSynchronously(t *testing.T) {
	sim := New(WithDelay(time.Hour))
	defer sim.Close()

	require.False(t, sim.IsGenerating())
	p, err := sim.Start("dragon", domain.StyleCyberpunk)
	require.NoError(t, err)
	assert.True(t, sim.IsGenerating())

	p.Cancel()
	_, err = p.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, sim.IsGenerating())
	assert.Empty(t, sim.History())
}

func TestOverlappingGenerationsEachComplete(t *testing.T) {
	sim := New(WithDelay(testDelay))
	defer sim.Close()

	const n = 5
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			art, err := sim.Generate(context.Background(), fmt.Sprintf("prompt %d", i), domain.StyleGeometric)
			assert.NoError(t, err)
			ids[i] = art.ID
		}(i)
	}
	wg.Wait()

	history := sim.History()
	require.Len(t, history, n)
	seen := map[string]bool{}
	for _, a := range history {
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
	}
	for _, id := range ids {
		assert.True(t, seen[id])
	}
	assert.False(t, sim.IsGenerating())
}

func TestGenerateRespectsContext(t *testing.T) {
	sim := New(WithDelay(time.Hour))
	defer sim.Close()

	ctx, cancel := context.WithTimeout(context.Background(), testDelay)
	defer cancel()
	_, err := sim.Generate(ctx, "slow", domain.StyleWatercolor)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sim.History())
}

func TestStartRejectsInvalidInput(t *testing.T) {
	sim := New(WithDelay(testDelay))
	defer sim.Close()

	_, err := sim.Start("   ", domain.StyleTribal)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	_, err = sim.Start("ok", domain.Style("Baroque"))
	assert.ErrorIs(t, err, domain.ErrUnknownStyle)
	assert.False(t, sim.IsGenerating())
}

func TestClearKeepsInflight(t *testing.T) {
	sim := New(WithDelay(testDelay))
	defer sim.Close()

	_, err := sim.Generate(context.Background(), "one", domain.StyleTribal)
	require.NoError(t, err)

	p, err := sim.Start("two", domain.StyleTribal)
	require.NoError(t, err)
	sim.Clear()
	assert.Empty(t, sim.History())
	assert.True(t, sim.IsGenerating())

	_, err = p.Wait(context.Background())
	require.NoError(t, err)
	history := sim.History()
	require.Len(t, history, 1)
	assert.Equal(t, "two", history[0].Prompt)
}

func TestCloseCancelsInflight(t *testing.T) {
	sim := New(WithDelay(time.Hour))
	p, err := sim.Start("never", domain.StyleTribal)
	require.NoError(t, err)

	sim.Close()
	select {
	case <-p.Done():
	default:
		t.Fatal("pending generation should be finished after Close")
	}
	_, err = sim.Start("late", domain.StyleTribal)
	assert.True(t, errors.Is(err, ErrClosed))
	sim.Close()
}

func TestOnChangeFires(t *testing.T) {
	var calls atomic.Int32
	sim := New(WithDelay(testDelay), WithOnChange(func() { calls.Add(1) }))
	defer sim.Close()

	_, err := sim.Generate(context.Background(), "x", domain.StyleTribal)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCustomIDFunc(t *testing.T) {
	var n atomic.Int32
	sim := New(WithDelay(0), WithIDFunc(func() string { return fmt.Sprintf("id-%d", n.Add(1)) }))
	defer sim.Close()

	art, err := sim.Generate(context.Background(), "x", domain.StyleTribal)
	require.NoError(t, err)
	assert.Equal(t, "id-1", art.ID)
}

func TestPlaceholderURL(t *testing.T) {
	got := PlaceholderURL("A dragon with a very long prompt text", domain.StyleCyberpunk)
	assert.Equal(t, "https://placehold.co/400x400/0a0a1f/00f3ff?text=Cyberpunk%3A+A+dragon+with+a+very", got)

	short := PlaceholderURL("rose", domain.StyleTraditional)
	assert.Equal(t, "https://placehold.co/400x400/1a0a0f/ff3366?text=Traditional%3A+rose", short)
}
