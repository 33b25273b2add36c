package flappy

import "math/rand"

// Pipe is a pair of pieces with a passable gap between them. Y is the top
// edge of the gap; the gap spans [Y, Y+Gap).
type Pipe struct {
	X, Y   int
	Gap    int
	Width  int
	Height int // height of each piece
	Speed  int
	Mode   ReachMode

	prevX int
}

// NewPipe spawns a pipe at the right edge with a random gap that fits
// between the top of the screen and the ground margin.
func NewPipe(cfg *Config, rng *rand.Rand) *Pipe {
	span := cfg.Screen.Height - cfg.Pipe.GroundMargin - cfg.Pipe.Gap
	return &Pipe{
		X:      cfg.Screen.Width,
		Y:      rng.Intn(span + 1),
		Gap:    cfg.Pipe.Gap,
		Width:  cfg.Pipe.Width,
		Height: cfg.Screen.Height,
		Speed:  cfg.Pipe.Speed,
		Mode:   cfg.Pipe.ReachMode,
		prevX:  cfg.Screen.Width,
	}
}

// Move scrolls the pipe left by one tick.
func (p *Pipe) Move() {
	p.prevX = p.X
	p.X -= p.Speed
}

// Reached reports whether the pipe's trailing edge arrived at column x on
// the last move.
func (p *Pipe) Reached(x int) bool {
	if p.Mode == ReachExact {
		return p.X+p.Width == x
	}
	return p.prevX+p.Width > x && p.X+p.Width <= x
}

// GapTop is the lowest point of the upper piece.
func (p *Pipe) GapTop() int { return p.Y }

// GapBottom is the highest point of the lower piece.
func (p *Pipe) GapBottom() int { return p.Y + p.Gap }

// TopRect is the upper piece.
func (p *Pipe) TopRect() Rect {
	return Rect{X: p.X, Y: p.Y - p.Height, W: p.Width, H: p.Height}
}

// BottomRect is the lower piece.
func (p *Pipe) BottomRect() Rect {
	return Rect{X: p.X, Y: p.Y + p.Gap, W: p.Width, H: p.Height}
}

// Collides reports whether r overlaps either piece.
func (p *Pipe) Collides(r Rect) bool {
	return p.TopRect().Overlaps(r) || p.BottomRect().Overlaps(r)
}
