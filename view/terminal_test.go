package view

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-flappy/flappy"
	"github.com/baldhumanity/neat-flappy/neat"
)

func newTestTerminal(t *testing.T, fps int, opts ...Option) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	cfg := flappy.DefaultConfig()
	cfg.View.FPS = fps
	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := New(screen, cfg, opts...)
	require.NoError(t, err)
	screen.SetSize(80, 24)
	t.Cleanup(term.Close)
	return term, screen
}

func row(screen tcell.Screen, y int) string {
	cols, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < cols; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func testSnapshot(t *testing.T) flappy.Snapshot {
	t.Helper()
	env := flappy.NewEnv(flappy.DefaultConfig(), rand.New(rand.NewSource(1)))
	var fitness float64
	env.Add(flappy.ControllerFunc(func(flappy.Observation) float64 { return 0 }), &fitness)
	s := env.Snapshot()
	s.Generation = 3
	s.Score = 2
	return s
}

func TestHandleEventChangesFPS(t *testing.T) {
	term, _ := newTestTerminal(t, 20)
	require.Equal(t, 20, term.FPS())

	term.HandleEvent(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	assert.Equal(t, 25, term.FPS())

	for i := 0; i < 10; i++ {
		term.HandleEvent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	}
	assert.Equal(t, 1, term.FPS(), "never below one frame per second")
}

func TestQuitKeys(t *testing.T) {
	keys := []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl),
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyRune, 'Q', tcell.ModNone),
	}
	for _, ev := range keys {
		term, _ := newTestTerminal(t, 1000)
		term.HandleEvent(ev)
		err := term.Frame(context.Background(), testSnapshot(t))
		assert.ErrorIs(t, err, ErrQuit)
	}
}

func TestDrawRendersWorld(t *testing.T) {
	term, screen := newTestTerminal(t, 20)

	term.Draw(testSnapshot(t))

	hud := row(screen, 23)
	assert.Contains(t, hud, "Generation: 3")
	assert.Contains(t, hud, "Score: 2")
	assert.Contains(t, hud, "Birds Alive: 1")
	assert.Contains(t, hud, "FPS: 20")

	// Bird at (100, 300) in a 400x600 world on an 80x23 play area.
	r, _, _, _ := screen.GetContent(20, 11)
	assert.Equal(t, '@', r)

	// Ground starts at y=500.
	r, _, _, _ = screen.GetContent(0, 22)
	assert.Equal(t, '▒', r)
}

func TestFrameWaitsForTick(t *testing.T) {
	term, _ := newTestTerminal(t, 100)

	start := time.Now()
	require.NoError(t, term.Frame(context.Background(), testSnapshot(t)))
	require.NoError(t, term.Frame(context.Background(), testSnapshot(t)))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFrameHonoursContext(t *testing.T) {
	term, _ := newTestTerminal(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := term.Frame(ctx, testSnapshot(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartPrompt(t *testing.T) {
	term, screen := newTestTerminal(t, 1000, WithStartPrompt())

	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, term.Frame(ctx, testSnapshot(t)))
	assert.Contains(t, row(screen, 23), "Generation: 3")
}

func TestStartPromptQuit(t *testing.T) {
	term, screen := newTestTerminal(t, 1000, WithStartPrompt())

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, term.Frame(ctx, testSnapshot(t)), ErrQuit)
}

func TestTerminalDrivesEvaluation(t *testing.T) {
	term, screen := newTestTerminal(t, 1000)

	env := flappy.NewEnv(flappy.DefaultConfig(), rand.New(rand.NewSource(1)))
	fall := flappy.ControllerFunc(func(flappy.Observation) float64 { return 0 })
	eval := flappy.NewEvaluator(env, func(*neat.Genome) (flappy.Controller, error) { return fall, nil },
		flappy.WithFrameSink(term), flappy.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	genomes := map[int]*neat.Genome{1: {Key: 1}}
	require.NoError(t, eval.Evaluate(context.Background(), genomes))

	assert.Equal(t, 14, eval.LastResult().Ticks)
	assert.Contains(t, row(screen, 23), "Birds Alive: 0")
}

func TestCloseReleasesBlockedReader(t *testing.T) {
	term, screen := newTestTerminal(t, 1000)

	// Nobody drains events, so the reader ends up blocked on a full queue.
	deadline := time.Now().Add(5 * time.Second)
	for len(term.events) < cap(term.events) {
		require.True(t, time.Now().Before(deadline), "event queue never filled")
		screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
		time.Sleep(time.Millisecond)
	}

	term.Close()
	select {
	case <-term.reader:
	case <-time.After(5 * time.Second):
		t.Fatal("event reader still running after Close")
	}
	term.Close()
}
