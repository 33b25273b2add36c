package flappy

// MaxPipes is the number of pipes kept alive at once.
const MaxPipes = 2

// PipeStream is a bounded queue of pipes, oldest first. Pushing onto a full
// stream evicts the oldest pipe, which by then has scrolled off screen.
type PipeStream struct {
	pipes []*Pipe
}

// NewPipeStream seeds a stream with a single pipe.
func NewPipeStream(seed *Pipe) *PipeStream {
	s := &PipeStream{pipes: make([]*Pipe, 0, MaxPipes)}
	s.Push(seed)
	return s
}

// Push appends p, dropping the oldest pipe if the stream is full.
func (s *PipeStream) Push(p *Pipe) {
	if len(s.pipes) == MaxPipes {
		copy(s.pipes, s.pipes[1:])
		s.pipes = s.pipes[:MaxPipes-1]
	}
	s.pipes = append(s.pipes, p)
}

// MoveAll scrolls every pipe by one tick.
func (s *PipeStream) MoveAll() {
	for _, p := range s.pipes {
		p.Move()
	}
}

// Current is the most recently spawned pipe, the one birds react to.
func (s *PipeStream) Current() *Pipe {
	if len(s.pipes) == 0 {
		panic("flappy: Current called on empty pipe stream")
	}
	return s.pipes[len(s.pipes)-1]
}

// Len returns the number of active pipes.
func (s *PipeStream) Len() int { return len(s.pipes) }

// All returns the active pipes, oldest first. The slice is a copy; the pipes
// are shared.
func (s *PipeStream) All() []*Pipe {
	out := make([]*Pipe, len(s.pipes))
	copy(out, s.pipes)
	return out
}
