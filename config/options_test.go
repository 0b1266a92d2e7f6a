package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/calmapf/config"
)

func validOptions() config.Options {
	return config.Options{
		MapFile:       "warehouse.map",
		CacheType:     config.CacheLRU,
		LookAhead:     3,
		DelayDeadline: 5,
		NumGoals:      100,
		NumAgents:     10,
		AgentCapacity: 2,
		GoalsGen:      config.GoalMK,
		GoalsM:        5,
		GoalsK:        2,
		RandomSeed:    1,
		TimeLimitSec:  1.0,
	}
}

func TestValidate_AcceptsWellFormedOptions(t *testing.T) {
	require.NoError(t, validOptions().Validate())
}

func TestValidate_AggregatesMultipleErrors(t *testing.T) {
	opts := validOptions()
	opts.MapFile = ""
	opts.LookAhead = 0
	opts.NumAgents = 1000

	err := opts.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "map_file")
	require.Contains(t, err.Error(), "look_ahead")
	require.Contains(t, err.Error(), "num_agents")
}

func TestValidate_MKRequiresMAndK(t *testing.T) {
	opts := validOptions()
	opts.GoalsM = 0
	require.Error(t, opts.Validate())
}

func TestValidate_RealRequiresDistFile(t *testing.T) {
	opts := validOptions()
	opts.GoalsGen = config.GoalReal
	opts.RealDistFile = ""
	require.Error(t, opts.Validate())
}

func TestValidate_UnknownCacheType(t *testing.T) {
	opts := validOptions()
	opts.CacheType = "BOGUS"
	require.Error(t, opts.Validate())
}
