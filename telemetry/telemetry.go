// Package telemetry provides named, leveled loggers for each core
// component, mirroring the source's per-component spdlog loggers
// (cache_console, graph_console, instance_console) as hclog named
// sub-loggers instead.
package telemetry

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Loggers bundles one named sub-logger per component that logs.
type Loggers struct {
	Root       hclog.Logger
	Cache      hclog.Logger
	Grid       hclog.Logger
	GoalStream hclog.Logger
	AgentState hclog.Logger
	Instance   hclog.Logger
}

// New builds a Loggers set writing to os.Stderr, at Debug level if debug
// is true and Info otherwise.
func New(debug bool) Loggers {
	level := hclog.Info
	if debug {
		level = hclog.Debug
	}
	root := hclog.New(&hclog.LoggerOptions{
		Name:   "calmapf",
		Level:  level,
		Output: os.Stderr,
	})
	return Loggers{
		Root:       root,
		Cache:      root.Named("cache"),
		Grid:       root.Named("grid"),
		GoalStream: root.Named("goalstream"),
		AgentState: root.Named("agentstate"),
		Instance:   root.Named("instance"),
	}
}
