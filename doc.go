// Package neatflappy trains neural-network pilots for a Flappy Bird style
// game with NEAT (NeuroEvolution of Augmenting Topologies).
//
// The module is split into:
//
//   - neat: the evolution engine, following neat-python's semantics and INI
//     configuration format, with checkpoints, statistics and YAML export.
//   - neat/nn: feed-forward phenotypes built from genomes.
//   - flappy: the game world and the evaluator that flies a whole
//     generation through one shared world and writes fitness back.
//   - store: run history in memory or SQLite (build tag sqlite).
//   - view: an optional terminal renderer.
//
// The command in examples/flappy wires them together:
//
//	go run ./examples/flappy -config examples/flappy/configs/flappy-config -view
package neatflappy
