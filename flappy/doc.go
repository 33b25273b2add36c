// Package flappy is the game harness: birds, pipes and ground in one shared
// world, and an Evaluator that flies a generation of genomes through it.
//
// Every bird of a generation lives in the same Env. A tick moves the pipes,
// lets each bird's controller decide whether to jump, applies gravity and
// then removes the birds that crashed. Survivors earn the survival reward
// each tick; a crash costs the crash penalty once. The generation ends when
// the last bird is gone.
package flappy
