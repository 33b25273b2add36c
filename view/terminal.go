// Package view renders the flappy world in a terminal. It is a frame sink:
// the evaluator hands it a snapshot after every tick.
package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/baldhumanity/neat-flappy/flappy"
)

// ErrQuit is returned from Frame once the user asked to quit.
var ErrQuit = errors.New("view: quit requested")

var (
	styleBird   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	stylePipe   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleGround = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
	styleTop    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleBottom = tcell.StyleDefault.Foreground(tcell.ColorLime)
)

// Terminal draws snapshots on a tcell screen at a fixed frame rate. Up and
// Down change the rate; Esc, Ctrl-C and q quit.
type Terminal struct {
	screen      tcell.Screen
	world       *flappy.Config
	fps         int
	fpsStep     int
	drawLines   bool
	startPrompt bool

	ticker *time.Ticker
	events chan tcell.Event
	done   chan struct{}
	reader chan struct{} // closed when the event reader exits
	closed bool
	quit   bool
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithStartPrompt makes the first frame wait for a key press.
func WithStartPrompt() Option {
	return func(t *Terminal) { t.startPrompt = true }
}

// New initialises screen and returns a Terminal drawing a world described
// by cfg.
func New(screen tcell.Screen, cfg *flappy.Config, opts ...Option) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initialising screen: %w", err)
	}
	screen.HideCursor()

	t := &Terminal{
		screen:    screen,
		world:     cfg,
		fps:       max(1, cfg.View.FPS),
		fpsStep:   cfg.View.FPSStep,
		drawLines: cfg.View.DrawLines,
		events:    make(chan tcell.Event, 64),
		done:      make(chan struct{}),
		reader:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.ticker = time.NewTicker(t.interval())

	go func() {
		defer close(t.reader)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(t.events)
				return
			}
			select {
			case t.events <- ev:
			case <-t.done:
				return
			}
		}
	}()
	return t, nil
}

// Close stops pacing, releases the event reader and restores the terminal.
// It is safe to call more than once.
func (t *Terminal) Close() {
	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
	t.ticker.Stop()
	t.screen.Fini()
}

// FPS returns the current frame rate.
func (t *Terminal) FPS() int { return t.fps }

func (t *Terminal) interval() time.Duration {
	return time.Second / time.Duration(t.fps)
}

// HandleEvent applies one input event.
func (t *Terminal) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			t.quit = true
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			t.quit = true
		case ev.Key() == tcell.KeyUp:
			t.setFPS(t.fps + t.fpsStep)
		case ev.Key() == tcell.KeyDown:
			t.setFPS(t.fps - t.fpsStep)
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func (t *Terminal) setFPS(fps int) {
	fps = max(1, fps)
	if fps == t.fps {
		return
	}
	t.fps = fps
	t.ticker.Reset(t.interval())
}

// drainEvents handles queued input without blocking.
func (t *Terminal) drainEvents() {
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return
			}
			t.HandleEvent(ev)
		default:
			return
		}
	}
}

// Frame implements flappy.FrameSink. It draws s and then waits for the next
// frame slot.
func (t *Terminal) Frame(ctx context.Context, s flappy.Snapshot) error {
	if t.startPrompt {
		t.startPrompt = false
		if err := t.waitForKey(ctx); err != nil {
			return err
		}
	}

	t.drainEvents()
	if t.quit {
		return ErrQuit
	}
	t.Draw(s)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.ticker.C:
	}
	return nil
}

func (t *Terminal) waitForKey(ctx context.Context) error {
	t.screen.Clear()
	drawText(t.screen, 0, 0, styleHUD, "Press any key to start")
	t.screen.Show()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-t.events:
			if !ok {
				return ErrQuit
			}
			if _, isKey := ev.(*tcell.EventKey); isKey {
				t.HandleEvent(ev)
				if t.quit {
					return ErrQuit
				}
				return nil
			}
			t.HandleEvent(ev)
		}
	}
}

// Draw renders s scaled to the screen. The bottom row holds the HUD.
func (t *Terminal) Draw(s flappy.Snapshot) {
	t.screen.Clear()
	cols, rows := t.screen.Size()
	if cols <= 0 || rows <= 1 {
		t.screen.Show()
		return
	}
	m := mapper{
		cols:   cols,
		rows:   rows - 1,
		worldW: t.world.Screen.Width,
		worldH: t.world.Screen.Height,
	}

	for r := m.row(s.Ground.Y); r < m.rows; r++ {
		for c := 0; c < cols; c++ {
			t.screen.SetContent(c, r, '▒', nil, styleGround)
		}
	}

	for _, p := range s.Pipes {
		c0, c1 := m.col(p.X), m.col(p.X+p.Width)
		gapTop, gapBottom := m.row(p.GapTop()), m.row(p.GapBottom())
		groundRow := m.row(s.Ground.Y)
		for c := max(c0, 0); c < min(c1, cols); c++ {
			for r := 0; r < groundRow && r < m.rows; r++ {
				if r < gapTop || r >= gapBottom {
					t.screen.SetContent(c, r, '█', nil, stylePipe)
				}
			}
		}
	}

	if t.drawLines && len(s.Pipes) > 0 {
		p := s.Pipes[len(s.Pipes)-1]
		for _, b := range s.Birds {
			bc, br := m.col(b.X), m.row(b.Y)
			drawLine(t.screen, m, bc, br, m.col(p.X+p.Width), m.row(p.GapTop()), styleTop)
			drawLine(t.screen, m, bc, br, m.col(p.X+p.Width), m.row(p.GapBottom()), styleBottom)
		}
	}

	for _, b := range s.Birds {
		c, r := m.col(b.X), m.row(b.Y)
		if c >= 0 && c < cols && r >= 0 && r < m.rows {
			t.screen.SetContent(c, r, '@', nil, styleBird)
		}
	}

	hud := fmt.Sprintf(" Generation: %d  Score: %d  Birds Alive: %d  Tick: %d  FPS: %d ",
		s.Generation, s.Score, s.Alive, s.Tick, t.fps)
	for c := 0; c < cols; c++ {
		t.screen.SetContent(c, rows-1, ' ', nil, styleHUD)
	}
	drawText(t.screen, 0, rows-1, styleHUD, hud)
	t.screen.Show()
}

// mapper scales world coordinates to screen cells.
type mapper struct {
	cols, rows     int
	worldW, worldH int
}

func (m mapper) col(x int) int { return x * m.cols / m.worldW }
func (m mapper) row(y int) int { return y * m.rows / m.worldH }

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// drawLine plots a Bresenham line, clipped to the play area.
func drawLine(s tcell.Screen, m mapper, x0, y0, x1, y1 int, style tcell.Style) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if x0 >= 0 && x0 < m.cols && y0 >= 0 && y0 < m.rows {
			s.SetContent(x0, y0, '·', nil, style)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
