package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// checkpoint is the gob payload. The Config is not stored; it is supplied
// again on restore.
type checkpoint struct {
	Generation    int
	Population    map[int]*Genome
	Species       map[int]*Species
	SpeciesIndex  int
	NextGenomeKey int
	Ancestors     map[int][]int
	BestGenome    *Genome
}

// SaveCheckpoint writes the population to a gzip-compressed gob file.
// Generation is stored as given; pass the generation the saved population
// is about to be evaluated in.
func (p *Population) SaveCheckpoint(filePath string, generation int) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	data := checkpoint{
		Generation:    generation,
		Population:    p.Population,
		Species:       p.SpeciesSet.Species,
		SpeciesIndex:  p.SpeciesSet.Indexer,
		NextGenomeKey: p.Reproduction.NextGenomeKey,
		Ancestors:     p.Reproduction.Ancestors,
		BestGenome:    p.BestGenome,
	}
	if err := gob.NewEncoder(zw).Encode(data); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	return f.Close()
}

// RestoreCheckpoint rebuilds a Population from a checkpoint file using
// config for all parameters. Reporters are not restored.
func RestoreCheckpoint(filePath string, config *Config) (*Population, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", filePath, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint '%s': %w", filePath, err)
	}
	defer zr.Close()

	var data checkpoint
	if err := gob.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint '%s': %w", filePath, err)
	}
	if len(data.Population) == 0 {
		return nil, fmt.Errorf("checkpoint '%s' holds no genomes", filePath)
	}

	p, err := newPopulation(config)
	if err != nil {
		return nil, err
	}
	gc := &config.Genome

	// gob does not keep pointer identity; point species members back at
	// the population's genomes and re-link the shared config.
	maxNode := gc.NodeKeyIndex - 1
	relink := func(g *Genome) {
		g.Config = gc
		// gob drops empty maps.
		if g.Nodes == nil {
			g.Nodes = make(map[int]*NodeGene)
		}
		if g.Connections == nil {
			g.Connections = make(map[ConnectionKey]*ConnectionGene)
		}
		for k := range g.Nodes {
			maxNode = max(maxNode, k)
		}
	}
	for _, g := range data.Population {
		relink(g)
	}
	for _, s := range data.Species {
		if s.Representative != nil {
			relink(s.Representative)
		}
		if s.Members == nil {
			s.Members = make(map[int]*Genome)
		}
		for k := range s.Members {
			if g, ok := data.Population[k]; ok {
				s.Members[k] = g
			} else {
				delete(s.Members, k)
			}
		}
	}
	if data.BestGenome != nil {
		relink(data.BestGenome)
	}
	gc.NodeKeyIndex = maxNode + 1

	p.Population = data.Population
	p.Generation = data.Generation
	p.BestGenome = data.BestGenome
	p.SpeciesSet.Species = data.Species
	p.SpeciesSet.Indexer = data.SpeciesIndex
	p.SpeciesSet.GenomeToSpecies = make(map[int]int, len(data.Population))
	for sid, s := range data.Species {
		for k := range s.Members {
			p.SpeciesSet.GenomeToSpecies[k] = sid
		}
	}
	p.Reproduction.NextGenomeKey = data.NextGenomeKey
	if data.Ancestors != nil {
		p.Reproduction.Ancestors = data.Ancestors
	}
	return p, nil
}

// Checkpointer is a reporter that saves the population every Every
// generations and/or every Interval of wall time, whichever comes first.
// Files are named Prefix followed by the generation number.
type Checkpointer struct {
	BaseReporter

	Every    int
	Interval time.Duration
	Prefix   string

	pop           *Population
	current       int
	lastGen       int
	lastTime      time.Time
	lastSavedPath string
}

// NewCheckpointer creates a checkpointer for p. It does not register itself.
func NewCheckpointer(p *Population, every int, interval time.Duration, prefix string) *Checkpointer {
	if prefix == "" {
		prefix = "neat-checkpoint-"
	}
	return &Checkpointer{
		Every:    every,
		Interval: interval,
		Prefix:   prefix,
		pop:      p,
		lastGen:  p.Generation - 1,
		lastTime: time.Now(),
	}
}

// LastSaved returns the path of the most recent checkpoint, or "".
func (c *Checkpointer) LastSaved() string { return c.lastSavedPath }

func (c *Checkpointer) StartGeneration(generation int) {
	c.current = generation
}

func (c *Checkpointer) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	due := false
	if c.Interval > 0 && time.Since(c.lastTime) >= c.Interval {
		due = true
	}
	if c.Every > 0 && c.current-c.lastGen >= c.Every {
		due = true
	}
	if !due {
		return
	}

	path := fmt.Sprintf("%s%d", c.Prefix, c.current)
	// The population passed here is the one bred for the next generation.
	if err := c.pop.SaveCheckpoint(path, c.current+1); err != nil {
		c.pop.Reporters.Info("checkpoint failed", "path", path, "error", err)
		return
	}
	size := "unknown"
	if fi, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	c.pop.Reporters.Info("checkpoint saved", "path", path, "generation", c.current, "size", size)
	c.lastGen = c.current
	c.lastTime = time.Now()
	c.lastSavedPath = path
}
