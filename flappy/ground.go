package flappy

// Ground is the static lower boundary. Collision is a plain height check.
type Ground struct {
	Y int
}

// NewGround places the ground at the bottom of the screen.
func NewGround(cfg *Config) Ground {
	return Ground{Y: cfg.GroundY()}
}

// Hit reports whether the bird has sunk below the ground line.
func (g Ground) Hit(b *Bird) bool {
	return b.Y > g.Y
}
