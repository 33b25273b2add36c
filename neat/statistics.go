package neat

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
)

// StatisticsReporter keeps the best genome and per-species fitness of every
// generation for later analysis.
type StatisticsReporter struct {
	BaseReporter

	MostFitGenomes       []*Genome
	GenerationStatistics []map[int]map[int]float64 // species -> genome -> fitness
}

// NewStatisticsReporter creates an empty reporter.
func NewStatisticsReporter() *StatisticsReporter {
	return &StatisticsReporter{}
}

func (s *StatisticsReporter) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	s.MostFitGenomes = append(s.MostFitGenomes, best.Copy())

	stats := make(map[int]map[int]float64, len(species.Species))
	for sid, sp := range species.Species {
		m := make(map[int]float64, len(sp.Members))
		for gid, g := range sp.Members {
			m[gid] = g.Fitness
		}
		stats[sid] = m
	}
	s.GenerationStatistics = append(s.GenerationStatistics, stats)
}

// fitnessStat applies f to every generation's member fitness values.
func (s *StatisticsReporter) fitnessStat(f func([]float64) float64) []float64 {
	out := make([]float64, 0, len(s.GenerationStatistics))
	for _, stats := range s.GenerationStatistics {
		var scores []float64
		for _, members := range stats {
			for _, fit := range members {
				scores = append(scores, fit)
			}
		}
		sort.Float64s(scores)
		out = append(out, f(scores))
	}
	return out
}

// GetFitnessMean returns the mean member fitness per generation.
func (s *StatisticsReporter) GetFitnessMean() []float64 { return s.fitnessStat(Mean) }

// GetFitnessStdev returns the fitness standard deviation per generation.
func (s *StatisticsReporter) GetFitnessStdev() []float64 { return s.fitnessStat(Stdev) }

// GetFitnessMedian returns the median member fitness per generation.
func (s *StatisticsReporter) GetFitnessMedian() []float64 { return s.fitnessStat(Median) }

// BestGenome returns the fittest genome over all generations.
func (s *StatisticsReporter) BestGenome() *Genome {
	best := s.BestGenomes(1)
	if len(best) == 0 {
		return nil
	}
	return best[0]
}

// BestGenomes returns up to n genomes with the highest fitness, fittest
// first. A genome that was best in several generations appears once per
// generation.
func (s *StatisticsReporter) BestGenomes(n int) []*Genome {
	sorted := append([]*Genome(nil), s.MostFitGenomes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Fitness > sorted[j].Fitness })
	return sorted[:min(n, len(sorted))]
}

// GetSpeciesSizes returns, per generation, the member count of every species
// that has existed so far, 0 where a species was absent.
func (s *StatisticsReporter) GetSpeciesSizes() [][]int {
	maxSpecies := 0
	for _, stats := range s.GenerationStatistics {
		for sid := range stats {
			maxSpecies = max(maxSpecies, sid)
		}
	}
	out := make([][]int, len(s.GenerationStatistics))
	for i, stats := range s.GenerationStatistics {
		row := make([]int, maxSpecies)
		for sid, members := range stats {
			row[sid-1] = len(members)
		}
		out[i] = row
	}
	return out
}

// FitnessRecord is one row of fitness_history.csv.
type FitnessRecord struct {
	Generation int     `csv:"generation"`
	Best       float64 `csv:"best"`
	Mean       float64 `csv:"mean"`
	Stdev      float64 `csv:"stdev"`
}

// SpeciesRecord is one row of speciation.csv.
type SpeciesRecord struct {
	Generation int `csv:"generation"`
	Species    int `csv:"species"`
	Size       int `csv:"size"`
}

// FitnessRecords returns one row per generation.
func (s *StatisticsReporter) FitnessRecords() []FitnessRecord {
	mean, stdev := s.GetFitnessMean(), s.GetFitnessStdev()
	records := make([]FitnessRecord, len(s.MostFitGenomes))
	for i, g := range s.MostFitGenomes {
		records[i] = FitnessRecord{Generation: i, Best: g.Fitness, Mean: mean[i], Stdev: stdev[i]}
	}
	return records
}

// SpeciesRecords returns one row per generation and species present in it.
func (s *StatisticsReporter) SpeciesRecords() []SpeciesRecord {
	var records []SpeciesRecord
	for gen, stats := range s.GenerationStatistics {
		for _, sid := range sortedIntKeys(stats) {
			records = append(records, SpeciesRecord{Generation: gen, Species: sid, Size: len(stats[sid])})
		}
	}
	return records
}

// Save writes fitness_history.csv and speciation.csv into dir.
func (s *StatisticsReporter) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating statistics directory: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, "fitness_history.csv"), s.FitnessRecords()); err != nil {
		return err
	}
	return writeCSV(filepath.Join(dir, "speciation.csv"), s.SpeciesRecords())
}

func writeCSV[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&records, f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
