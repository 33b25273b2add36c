package neat

import (
	"math"
	"sort"
)

// Reproduction creates new genomes: from scratch for the first generation,
// then by elitism, crossover and mutation within each surviving species.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int
	Ancestors     map[int][]int // genome key -> parent keys

	stagnation *Stagnation
	reporters  *ReporterSet
}

// NewReproduction creates a reproduction scheme. reporters may be nil.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation, reporters *ReporterSet) *Reproduction {
	if reporters == nil {
		reporters = &ReporterSet{}
	}
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		stagnation:    stagnation,
		reporters:     reporters,
	}
}

func (r *Reproduction) nextKey() int {
	k := r.NextGenomeKey
	r.NextGenomeKey++
	return k
}

// CreateNew builds n fresh genomes.
func (r *Reproduction) CreateNew(genomeConfig *GenomeConfig, n int) map[int]*Genome {
	genomes := make(map[int]*Genome, n)
	for i := 0; i < n; i++ {
		key := r.nextKey()
		g := NewGenome(key, genomeConfig)
		g.ConfigureNew()
		genomes[key] = g
		r.Ancestors[key] = nil
	}
	return genomes
}

// Reproduce returns the next generation. Stagnant species are reported and
// removed. When no species survive, speciesSet is emptied and the result is
// an empty map.
func (r *Reproduction) Reproduce(config *Config, speciesSet *SpeciesSet, popSize, generation int) map[int]*Genome {
	var all []float64
	var remaining []*Species
	for _, info := range r.stagnation.Update(speciesSet, generation) {
		if info.IsStagnant {
			r.reporters.SpeciesStagnant(info.SpeciesID, info.Species)
			continue
		}
		all = append(all, info.Species.GetFitnesses()...)
		remaining = append(remaining, info.Species)
	}
	if len(remaining) == 0 {
		speciesSet.Species = make(map[int]*Species)
		return map[int]*Genome{}
	}
	// Reproduction order does not depend on how fit a species is.
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].Key < remaining[j].Key })

	minFitness, maxFitness := MinFloat(all), MaxFloat(all)
	fitnessRange := math.Max(1.0, maxFitness-minFitness)
	adjusted := make([]float64, len(remaining))
	sizes := make([]int, len(remaining))
	for i, s := range remaining {
		s.AdjustedFitness = (Mean(s.GetFitnesses()) - minFitness) / fitnessRange
		adjusted[i] = s.AdjustedFitness
		sizes[i] = len(s.Members)
	}
	r.reporters.Info("average adjusted fitness", "value", Mean(adjusted))

	minSize := max(r.Config.MinSpeciesSize, r.Config.Elitism)
	spawnAmounts := ComputeSpawn(adjusted, sizes, popSize, minSize)

	population := make(map[int]*Genome, popSize)
	speciesSet.Species = make(map[int]*Species, len(remaining))
	for i, s := range remaining {
		spawn := max(spawnAmounts[i], r.Config.Elitism)

		old := make([]*Genome, 0, len(s.Members))
		for _, k := range sortedIntKeys(s.Members) {
			old = append(old, s.Members[k])
		}
		sort.SliceStable(old, func(a, b int) bool { return old[a].Fitness > old[b].Fitness })
		s.Members = make(map[int]*Genome)
		speciesSet.Species[s.Key] = s

		for _, g := range old[:min(r.Config.Elitism, len(old))] {
			population[g.Key] = g
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		cutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(old))))
		parents := old[:min(max(cutoff, 2), len(old))]

		for ; spawn > 0; spawn-- {
			p1 := parents[rng.Intn(len(parents))]
			p2 := parents[rng.Intn(len(parents))]
			key := r.nextKey()
			child := NewGenome(key, &config.Genome)
			child.ConfigureCrossover(p1, p2)
			child.Mutate()
			population[key] = child
			r.Ancestors[key] = []int{p1.Key, p2.Key}
		}
	}
	return population
}

// ComputeSpawn returns the offspring count per species. Each species moves
// halfway from its previous size towards its fitness-proportional share,
// then the counts are normalised to popSize. No species gets fewer than
// minSize, so the total may exceed popSize slightly.
func ComputeSpawn(adjusted []float64, previousSizes []int, popSize, minSize int) []int {
	sum := Sum(adjusted)
	spawn := make([]int, len(adjusted))
	total := 0
	for i, af := range adjusted {
		s := float64(minSize)
		if sum > 0 {
			s = math.Max(float64(minSize), af/sum*float64(popSize))
		}
		prev := previousSizes[i]
		d := (s - float64(prev)) * 0.5
		c := int(math.RoundToEven(d))
		n := prev
		switch {
		case c != 0:
			n += c
		case d > 0:
			n++
		case d < 0:
			n--
		}
		spawn[i] = n
		total += n
	}
	if total <= 0 {
		for i := range spawn {
			spawn[i] = minSize
		}
		return spawn
	}
	norm := float64(popSize) / float64(total)
	for i, n := range spawn {
		spawn[i] = max(minSize, int(math.RoundToEven(float64(n)*norm)))
	}
	return spawn
}
