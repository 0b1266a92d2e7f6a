// Package config defines the flat parameter surface the controller is
// built from, along with validation that turns a malformed combination of
// options into a single aggregated error rather than letting an invalid
// run start.
package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// CacheType selects the eviction policy backing the cache substrate, or
// disables the substrate entirely.
type CacheType string

const (
	CacheNone   CacheType = "NONE"
	CacheLRU    CacheType = "LRU"
	CacheFIFO   CacheType = "FIFO"
	CacheRandom CacheType = "RANDOM"
)

// GoalGeneration selects the demand generator used to fill each group's
// goal stream.
type GoalGeneration string

const (
	GoalMK    GoalGeneration = "MK"
	GoalZhang GoalGeneration = "Zhang"
	GoalReal  GoalGeneration = "Real"
)

// Options is the complete, flat configuration surface. It is passed by
// value into constructors; no component reaches back into Options
// for fields it was not handed explicitly at construction.
type Options struct {
	MapFile string `yaml:"map_file"`

	CacheType CacheType `yaml:"cache_type"`

	LookAhead     int `yaml:"look_ahead"`
	DelayDeadline int `yaml:"delay_deadline"`

	NumGoals      int `yaml:"num_goals"`
	NumAgents     int `yaml:"num_agents"`
	AgentCapacity int `yaml:"agent_capacity"`

	GoalsGen GoalGeneration `yaml:"goals_gen"`
	GoalsM   int            `yaml:"goals_m"`
	GoalsK   int            `yaml:"goals_k"`

	RealDistFile string `yaml:"real_dist_file"`

	RandomSeed    int64   `yaml:"random_seed"`
	TimeLimitSec  float64 `yaml:"time_limit_sec"`
	Optimization  bool    `yaml:"optimization"`
	DebugLog      bool    `yaml:"debug_log"`
	MetricsAddr   string  `yaml:"metrics_addr"`
	StepLogFile   string  `yaml:"step_log_file"`
	ThroughputLog string  `yaml:"throughput_log_file"`
	SummaryFile   string  `yaml:"summary_file"`
}

// ConfigError aggregates every validation failure found in one Options
// value, rather than stopping at the first one.
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string { return e.err.Error() }
func (e *ConfigError) Unwrap() error { return e.err }

// Validate checks every cross-field invariant in the configuration
// surface, returning a *ConfigError that aggregates all violations, or
// nil if opts is internally consistent.
func (opts Options) Validate() error {
	var result *multierror.Error

	if opts.MapFile == "" {
		result = multierror.Append(result, fmt.Errorf("map_file must be set"))
	}

	switch opts.CacheType {
	case CacheNone, CacheLRU, CacheFIFO, CacheRandom:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown cache_type %q", opts.CacheType))
	}

	if opts.LookAhead < 1 {
		result = multierror.Append(result, fmt.Errorf("look_ahead must be >= 1, got %d", opts.LookAhead))
	}
	if opts.DelayDeadline < 1 {
		result = multierror.Append(result, fmt.Errorf("delay_deadline must be >= 1, got %d", opts.DelayDeadline))
	}
	if opts.AgentCapacity < 1 {
		result = multierror.Append(result, fmt.Errorf("agent_capacity must be >= 1, got %d", opts.AgentCapacity))
	}
	if opts.NumAgents > opts.NumGoals {
		result = multierror.Append(result, fmt.Errorf("num_agents (%d) must not exceed num_goals (%d)", opts.NumAgents, opts.NumGoals))
	}

	switch opts.GoalsGen {
	case GoalMK:
		if opts.GoalsM < 1 || opts.GoalsK < 1 {
			result = multierror.Append(result, fmt.Errorf("goals_gen=MK requires goals_m >= 1 and goals_k >= 1, got m=%d k=%d", opts.GoalsM, opts.GoalsK))
		}
	case GoalZhang:
	case GoalReal:
		if opts.RealDistFile == "" {
			result = multierror.Append(result, fmt.Errorf("goals_gen=Real requires real_dist_file"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown goals_gen %q", opts.GoalsGen))
	}

	if opts.TimeLimitSec <= 0 {
		result = multierror.Append(result, fmt.Errorf("time_limit_sec must be > 0, got %v", opts.TimeLimitSec))
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		s := fmt.Sprintf("%d configuration error(s):", len(errs))
		for _, e := range errs {
			s += "\n  - " + e.Error()
		}
		return s
	}
	return &ConfigError{err: result}
}
