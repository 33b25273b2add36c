package neat

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigINI = `
[NEAT]
fitness_criterion = max
fitness_threshold = 100
pop_size = 20
reset_on_extinction = False
no_fitness_termination = False

[DefaultGenome]
activation_default = sigmoid
activation_mutate_rate = 0.0
activation_options = sigmoid
aggregation_default = sum
aggregation_mutate_rate = 0.0
aggregation_options = sum
bias_init_mean = 0.0
bias_init_stdev = 1.0
bias_max_value = 30.0
bias_min_value = -30.0
bias_mutate_power = 0.5
bias_mutate_rate = 0.7
bias_replace_rate = 0.1
compatibility_disjoint_coefficient = 1.0
compatibility_weight_coefficient = 0.5
conn_add_prob = 0.5
conn_delete_prob = 0.5
enabled_default = True
enabled_mutate_rate = 0.01
feed_forward = True
initial_connection = full
node_add_prob = 0.2
node_delete_prob = 0.2
num_hidden = 0
num_inputs = 4
num_outputs = 1
response_init_mean = 1.0
response_init_stdev = 0.0
response_max_value = 30.0
response_min_value = -30.0
response_mutate_power = 0.0
response_mutate_rate = 0.0
response_replace_rate = 0.0
weight_init_mean = 0.0
weight_init_stdev = 1.0
weight_max_value = 30
weight_min_value = -30
weight_mutate_power = 0.5
weight_mutate_rate = 0.8
weight_replace_rate = 0.1

[DefaultSpeciesSet]
compatibility_threshold = 3.0

[DefaultStagnation]
species_fitness_func = max
max_stagnation = 20
species_elitism = 2

[DefaultReproduction]
elitism = 2
survival_threshold = 0.2
`

// testConfigText returns the test INI with each old/new pair substituted.
func testConfigText(t *testing.T, replace ...string) string {
	t.Helper()
	text := testConfigINI
	for i := 0; i+1 < len(replace); i += 2 {
		require.Contains(t, text, replace[i])
		text = strings.Replace(text, replace[i], replace[i+1], 1)
	}
	return text
}

func testConfig(t *testing.T, replace ...string) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(testConfigText(t, replace...)))
	require.NoError(t, err)
	return cfg
}

func TestParseConfig(t *testing.T) {
	cfg := testConfig(t)

	assert.Equal(t, 20, cfg.Neat.PopSize)
	assert.Equal(t, "max", cfg.Neat.FitnessCriterion)
	assert.False(t, cfg.Neat.ResetOnExtinction)
	assert.True(t, cfg.Genome.FeedForward, "Python style True")
	assert.Equal(t, []int{-1, -2, -3, -4}, cfg.Genome.InputKeys)
	assert.Equal(t, []int{0}, cfg.Genome.OutputKeys)
	assert.Equal(t, 1, cfg.Genome.NodeKeyIndex)
	assert.Equal(t, "full", cfg.Genome.ConnectionType)
	assert.Equal(t, 1.0, cfg.Genome.ConnectionFraction)
	assert.Equal(t, []string{"sigmoid"}, cfg.Genome.ActivationOptions)
	assert.Equal(t, 2, cfg.Stagnation.SpeciesElitism)
	assert.Equal(t, 2, cfg.Reproduction.Elitism)
	assert.Equal(t, 1, cfg.Reproduction.MinSpeciesSize, "default")
	assert.Equal(t, "default", cfg.Genome.StructuralMutationSurer, "default")
}

func TestParseConfigPartialConnection(t *testing.T) {
	cfg := testConfig(t, "initial_connection = full", "initial_connection = partial_direct 0.5")

	assert.Equal(t, "partial_direct", cfg.Genome.ConnectionType)
	assert.Equal(t, 0.5, cfg.Genome.ConnectionFraction)
}

func TestParseConfigStripsInlineComments(t *testing.T) {
	cfg := testConfig(t,
		"initial_connection = full", "initial_connection = full_direct # every input to every output",
		"activation_options = sigmoid", "activation_options = sigmoid tanh ; two choices",
	)

	assert.Equal(t, "full_direct", cfg.Genome.ConnectionType)
	assert.Equal(t, []string{"sigmoid", "tanh"}, cfg.Genome.ActivationOptions)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		wantErr  string
	}{
		{"partial without fraction", "initial_connection = full", "initial_connection = partial", "needs a connection fraction"},
		{"fraction out of range", "initial_connection = full", "initial_connection = partial_nodirect 1.5", "[0, 1]"},
		{"unknown connection type", "initial_connection = full", "initial_connection = everything", "invalid initial_connection"},
		{"zero population", "pop_size = 20", "pop_size = 0", "pop_size"},
		{"unknown activation", "activation_options = sigmoid", "activation_options = sigmoid wobble", "unknown activation"},
		{"unknown aggregation", "aggregation_options = sum", "aggregation_options = sum blend", "unknown aggregation"},
		{"bad probability", "conn_add_prob = 0.5", "conn_add_prob = 1.5", "conn_add_prob"},
		{"bad criterion", "fitness_criterion = max", "fitness_criterion = best", "fitness_criterion"},
		{"bad species fitness", "species_fitness_func = max", "species_fitness_func = best", "species_fitness_func"},
		{"inverted weight range", "weight_min_value = -30", "weight_min_value = 40", "weight_max_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(testConfigText(t, tt.old, tt.new)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("../examples/flappy/configs/flappy-config")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Neat.PopSize)
	assert.Equal(t, 4, cfg.Genome.NumInputs)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "failed to load config file")
}

func TestGetNewNodeKey(t *testing.T) {
	cfg := testConfig(t, "num_outputs = 1", "num_outputs = 3")

	assert.Equal(t, 3, cfg.Genome.GetNewNodeKey())
	assert.Equal(t, 4, cfg.Genome.GetNewNodeKey())
}
