// Package neat implements NeuroEvolution of Augmenting Topologies. It
// evolves both the weights and the structure of neural networks.
//
// The engine follows neat-python (https://github.com/CodeReclaimers/neat-python)
// closely and reads the same INI configuration files.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config")
//	if err != nil {
//		log.Fatalf("loading config: %v", err)
//	}
//
//	pop, err := neat.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("creating population: %v", err)
//	}
//	pop.AddReporter(neat.NewStdOutReporter(true, nil))
//
//	winner, err := pop.Run(ctx, evalGenomes, 100)
//	if err != nil {
//		log.Fatalf("evolving: %v", err)
//	}
//	fmt.Println(winner)
//
// Random choices draw from a package-level source; call Seed for
// reproducible runs.
package neat
