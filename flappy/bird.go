package flappy

// Rect is an axis-aligned rectangle in screen coordinates (y grows down).
type Rect struct {
	X, Y, W, H int
}

// Overlaps reports whether r and o share any area. Rectangles that only touch
// along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Bird is the physical body of one population member.
type Bird struct {
	X, Y      int
	Size      int
	JumpPower int
	FallPower int
}

// NewBird places a bird at its starting position.
func NewBird(cfg *Config) *Bird {
	return &Bird{
		X:         cfg.BirdX(),
		Y:         cfg.BirdStartY(),
		Size:      cfg.Bird.Size,
		JumpPower: cfg.Bird.JumpPower,
		FallPower: cfg.Bird.FallPower,
	}
}

// Fall applies one tick of gravity.
func (b *Bird) Fall() {
	b.Y += b.FallPower
}

// Jump lifts the bird unless it is already at or above the top of the screen.
func (b *Bird) Jump() {
	if b.Y > 0 {
		b.Y -= b.JumpPower
	}
}

// Rect is the bird's collision box at its current position.
func (b *Bird) Rect() Rect {
	return Rect{X: b.X, Y: b.Y, W: b.Size, H: b.Size}
}
