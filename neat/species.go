package neat

import (
	"math"
	"sort"
)

// Species is a group of genomes within the compatibility threshold of its
// representative.
type Species struct {
	Key             int
	Created         int // generation the species appeared in
	LastImproved    int
	Representative  *Genome
	Members         map[int]*Genome
	Fitness         float64
	FitnessSet      bool // Fitness is valid for the current generation
	AdjustedFitness float64
	FitnessHistory  []float64
}

// NewSpecies creates an empty species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

// Update replaces the representative and the member set.
func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns member fitness values ordered by genome key.
func (s *Species) GetFitnesses() []float64 {
	keys := make([]int, 0, len(s.Members))
	for k := range s.Members {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fitnesses := make([]float64, len(keys))
	for i, k := range keys {
		fitnesses[i] = s.Members[k].Fitness
	}
	return fitnesses
}

// genomePair is an unordered pair of genome keys.
type genomePair struct{ a, b int }

// GenomeDistanceCache memoises Genome.Distance for one speciation pass.
type GenomeDistanceCache struct {
	distances    map[genomePair]float64
	Hits, Misses int
}

// NewGenomeDistanceCache creates an empty cache.
func NewGenomeDistanceCache() *GenomeDistanceCache {
	return &GenomeDistanceCache{distances: make(map[genomePair]float64)}
}

// Distance returns the distance between g1 and g2, computing it at most once.
func (dc *GenomeDistanceCache) Distance(g1, g2 *Genome) float64 {
	k := genomePair{g1.Key, g2.Key}
	if k.a > k.b {
		k.a, k.b = k.b, k.a
	}
	if d, ok := dc.distances[k]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := g1.Distance(g2)
	dc.distances[k] = d
	return d
}

// Values returns every distance computed so far.
func (dc *GenomeDistanceCache) Values() []float64 {
	out := make([]float64, 0, len(dc.distances))
	for _, d := range dc.distances {
		out = append(out, d)
	}
	return out
}

// SpeciesSet partitions a population into species.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Indexer         int // next species key
	Config          *SpeciesSetConfig

	reporters *ReporterSet
}

// NewSpeciesSet creates an empty set. reporters may be nil.
func NewSpeciesSet(config *SpeciesSetConfig, reporters *ReporterSet) *SpeciesSet {
	if reporters == nil {
		reporters = &ReporterSet{}
	}
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
		reporters:       reporters,
	}
}

// SortedKeys returns the species keys in ascending order.
func (ss *SpeciesSet) SortedKeys() []int {
	keys := make([]int, 0, len(ss.Species))
	for k := range ss.Species {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Speciate assigns every genome of population to a species. Each existing
// species first takes the closest unassigned genome as its new
// representative; the rest join the closest representative within the
// compatibility threshold or found a new species. Species left without a
// representative are dropped.
func (ss *SpeciesSet) Speciate(config *Config, population map[int]*Genome, generation int) {
	threshold := config.SpeciesSet.CompatibilityThreshold
	distances := NewGenomeDistanceCache()

	unspeciated := make([]int, 0, len(population))
	for k := range population {
		unspeciated = append(unspeciated, k)
	}
	sort.Ints(unspeciated)

	newReps := make(map[int]int)
	newMembers := make(map[int][]int)
	for _, sid := range ss.SortedKeys() {
		if len(unspeciated) == 0 {
			break
		}
		s := ss.Species[sid]
		best, bestDist := -1, math.Inf(1)
		for i, gid := range unspeciated {
			if d := distances.Distance(s.Representative, population[gid]); d < bestDist {
				best, bestDist = i, d
			}
		}
		rid := unspeciated[best]
		newReps[sid] = rid
		newMembers[sid] = []int{rid}
		unspeciated = append(unspeciated[:best], unspeciated[best+1:]...)
	}

	for _, gid := range unspeciated {
		g := population[gid]
		bestSid, bestDist := -1, math.Inf(1)
		for _, sid := range sortedIntKeys(newReps) {
			d := distances.Distance(population[newReps[sid]], g)
			if d < threshold && d < bestDist {
				bestSid, bestDist = sid, d
			}
		}
		if bestSid >= 0 {
			newMembers[bestSid] = append(newMembers[bestSid], gid)
			continue
		}
		sid := ss.Indexer
		ss.Indexer++
		newReps[sid] = gid
		newMembers[sid] = []int{gid}
	}

	species := make(map[int]*Species, len(newReps))
	ss.GenomeToSpecies = make(map[int]int, len(population))
	for sid, rid := range newReps {
		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, generation)
		}
		members := make(map[int]*Genome, len(newMembers[sid]))
		for _, gid := range newMembers[sid] {
			members[gid] = population[gid]
			ss.GenomeToSpecies[gid] = sid
		}
		s.Update(population[rid], members)
		species[sid] = s
	}
	ss.Species = species

	if d := distances.Values(); len(d) > 0 {
		ss.reporters.Info("genetic distance", "mean", Mean(d), "stdev", Stdev(d))
	}
}

// GetSpeciesID returns the species key of a genome.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	return sid, ok
}

// GetSpecies returns the species a genome belongs to.
func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	if !ok {
		return nil, false
	}
	s, ok := ss.Species[sid]
	return s, ok
}

func sortedIntKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
