package flappy

import (
	"math"
	"math/rand"
)

// State is the environment's lifecycle state.
type State int

const (
	// Running means at least one bird is alive, or birds are still being added.
	Running State = iota
	// GenerationComplete means every bird has crashed.
	GenerationComplete
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case GenerationComplete:
		return "generation_complete"
	default:
		return "unknown"
	}
}

// member binds a bird to its controller and the fitness it accumulates into.
type member struct {
	bird       *Bird
	controller Controller
	fitness    *float64
}

// Env is the shared world every bird of a generation flies through. It is not
// safe for concurrent use; a tick is a single sequential pass over all birds.
type Env struct {
	cfg *Config
	rng *rand.Rand

	members []member
	pipes   *PipeStream
	ground  Ground

	alive      int
	score      int
	generation int
	ticks      int
	state      State

	// score and ticks of the generation that finished last
	lastScore int
	lastTicks int
}

// NewEnv creates an empty environment. rng drives pipe placement; pass a
// seeded source for reproducible runs.
func NewEnv(cfg *Config, rng *rand.Rand) *Env {
	e := &Env{cfg: cfg, rng: rng}
	e.pipes = NewPipeStream(NewPipe(cfg, rng))
	e.ground = NewGround(cfg)
	return e
}

// SetGeneration sets the generation counter, e.g. to line it up with an
// engine resumed from a checkpoint. Later resets count up from n.
func (e *Env) SetGeneration(n int) { e.generation = n }

// Config returns the game configuration the environment was built with.
func (e *Env) Config() *Config { return e.cfg }

// Add spawns a bird for controller c. The fitness handle is zeroed and then
// credited and penalised in place while the bird flies.
func (e *Env) Add(c Controller, fitness *float64) {
	*fitness = 0
	e.members = append(e.members, member{
		bird:       NewBird(e.cfg),
		controller: c,
		fitness:    fitness,
	})
	e.alive = len(e.members)
	e.state = Running
}

// Step advances the world by one tick. It returns true when the tick killed
// the last bird; the environment has then already been reset for the next
// generation.
func (e *Env) Step() bool {
	e.ticks++
	e.movePipes()
	e.moveBirds()
	e.fallBirds()
	e.removeCrashed()

	if e.alive == 0 {
		e.state = GenerationComplete
		e.lastScore, e.lastTicks = e.score, e.ticks
		e.Reset()
		return true
	}
	return false
}

// movePipes scrolls the pipes and spawns a new one once the current pipe
// reaches the birds.
func (e *Env) movePipes() {
	e.pipes.MoveAll()
	if e.pipes.Current().Reached(e.cfg.BirdX()) {
		e.score++
		e.pipes.Push(NewPipe(e.cfg, e.rng))
	}
}

// moveBirds credits every live bird for surviving and lets its controller
// decide whether to jump. Decisions see the pre-fall position.
func (e *Env) moveBirds() {
	current := e.pipes.Current()
	for _, m := range e.members {
		*m.fitness += e.cfg.Fitness.SurvivalReward
		if m.controller.Decide(Observe(m.bird, current)) > e.cfg.Fitness.AscendThreshold {
			m.bird.Jump()
		}
	}
}

// fallBirds applies gravity to every live bird.
func (e *Env) fallBirds() {
	for _, m := range e.members {
		m.bird.Fall()
	}
}

// crashed reports whether b is below the ground or inside any pipe.
func (e *Env) crashed(b *Bird) bool {
	if e.ground.Hit(b) {
		return true
	}
	r := b.Rect()
	for _, p := range e.pipes.pipes {
		if p.Collides(r) {
			return true
		}
	}
	return false
}

// removeCrashed marks crashed birds during the scan and removes them in a
// single pass afterwards, penalising each exactly once.
func (e *Env) removeCrashed() {
	var dead []int
	for i, m := range e.members {
		if e.crashed(m.bird) {
			dead = append(dead, i)
		}
	}

	if len(dead) > 0 {
		kept := e.members[:0]
		next := 0
		for i, m := range e.members {
			if next < len(dead) && dead[next] == i {
				*m.fitness -= e.cfg.Fitness.CrashPenalty
				next++
				continue
			}
			kept = append(kept, m)
		}
		// Drop references held by the tail so removed controllers can be collected.
		for i := len(kept); i < len(e.members); i++ {
			e.members[i] = member{}
		}
		e.members = kept
	}
	e.alive = len(e.members)
}

// Reset clears the birds and starts the next generation with a fresh pipe.
func (e *Env) Reset() {
	e.members = nil
	e.alive = 0
	e.score = 0
	e.ticks = 0
	e.pipes = NewPipeStream(NewPipe(e.cfg, e.rng))
	e.ground = NewGround(e.cfg)
	e.generation++
}

// Done reports whether no bird is alive.
func (e *Env) Done() bool { return e.alive == 0 }

// State returns the lifecycle state. It stays GenerationComplete after the
// last bird crashes until the next bird is added.
func (e *Env) State() State { return e.state }

// Alive returns the number of live birds.
func (e *Env) Alive() int { return e.alive }

// Score returns the number of pipes reached this generation.
func (e *Env) Score() int { return e.score }

// Generation returns the number of completed generations.
func (e *Env) Generation() int { return e.generation }

// Ticks returns the number of ticks run in the current generation.
func (e *Env) Ticks() int { return e.ticks }

// LastScore returns the final score of the most recently completed generation.
func (e *Env) LastScore() int { return e.lastScore }

// LastTicks returns how many ticks the most recently completed generation ran.
func (e *Env) LastTicks() int { return e.lastTicks }

// Pipes returns the pipe stream.
func (e *Env) Pipes() *PipeStream { return e.pipes }

// Ground returns the lower boundary.
func (e *Env) Ground() Ground { return e.ground }

// Birds returns copies of the live birds in insertion order.
func (e *Env) Birds() []Bird {
	out := make([]Bird, len(e.members))
	for i, m := range e.members {
		out[i] = *m.bird
	}
	return out
}

// Snapshot is a read-only copy of the world for presentation layers.
type Snapshot struct {
	Birds       []Bird
	Pipes       []Pipe
	Ground      Ground
	Score       int
	Generation  int
	Alive       int
	Tick        int
	BestFitness float64
}

// Snapshot copies the current world state.
func (e *Env) Snapshot() Snapshot {
	s := Snapshot{
		Birds:       e.Birds(),
		Pipes:       make([]Pipe, 0, e.pipes.Len()),
		Ground:      e.ground,
		Score:       e.score,
		Generation:  e.generation,
		Alive:       e.alive,
		Tick:        e.ticks,
		BestFitness: math.Inf(-1),
	}
	for _, p := range e.pipes.pipes {
		s.Pipes = append(s.Pipes, *p)
	}
	for _, m := range e.members {
		s.BestFitness = math.Max(s.BestFitness, *m.fitness)
	}
	if len(e.members) == 0 {
		s.BestFitness = 0
	}
	return s
}
