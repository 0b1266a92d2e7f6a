// Command controller runs one lifelong MAPD task-assignment simulation:
// it parses the configured warehouse map, builds the per-group cache and
// goal stream, seeds the agent population, and drives the planner loop
// one tick at a time until every agent's goal quota is exhausted or the
// configured time limit expires.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/calmapf/agentstate"
	"github.com/IvanBrykalov/calmapf/cache"
	"github.com/IvanBrykalov/calmapf/config"
	"github.com/IvanBrykalov/calmapf/goalstream"
	"github.com/IvanBrykalov/calmapf/grid"
	"github.com/IvanBrykalov/calmapf/instance"
	metricsprom "github.com/IvanBrykalov/calmapf/metrics/prom"
	"github.com/IvanBrykalov/calmapf/planner"
	"github.com/IvanBrykalov/calmapf/policy"
	"github.com/IvanBrykalov/calmapf/policy/fifo"
	"github.com/IvanBrykalov/calmapf/policy/lru"
	"github.com/IvanBrykalov/calmapf/policy/random"
	"github.com/IvanBrykalov/calmapf/report"
	"github.com/IvanBrykalov/calmapf/telemetry"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := telemetry.New(opts.DebugLog)

	if err := run(opts, log); err != nil {
		log.Root.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// parseFlags builds an Options value from the command line, optionally
// overlaid on a YAML file named by -config (following the teacher's
// stdlib-flag CLI shape; -config is the one addition this controller
// needs that the bench command did not).
func parseFlags(args []string) (config.Options, error) {
	fs := flag.NewFlagSet("controller", flag.ContinueOnError)

	configFile := fs.String("config", "", "YAML config file; flags below override its fields when set")

	mapFile := fs.String("map", "", "warehouse map file")
	cacheType := fs.String("cache_type", "LRU", "cache substrate: NONE | LRU | FIFO | RANDOM")
	lookAhead := fs.Int("look_ahead", 5, "goal-stream look-ahead window")
	delayDeadline := fs.Int("delay_deadline", 10, "goal-stream starvation bound")
	numGoals := fs.Int("num_goals", 1000, "goal quota per agent")
	numAgents := fs.Int("num_agents", 10, "agent population")
	agentCapacity := fs.Int("agent_capacity", 1, "deliverable copies seeded per cache insert")
	goalsGen := fs.String("goals_gen", "MK", "goal generator: MK | Zhang | Real")
	goalsM := fs.Int("goals_m", 5, "MK generator window size")
	goalsK := fs.Int("goals_k", 2, "MK generator distinct-goal budget")
	realDistFile := fs.String("real_dist_file", "", "CSV of empirical goal frequencies (goals_gen=Real)")
	randomSeed := fs.Int64("seed", 1, "PRNG seed")
	timeLimitSec := fs.Float64("time_limit_sec", 60, "wall-clock budget for the run")
	optimization := fs.Bool("optimization", true, "enable opportunistic mid-route cache insert")
	debugLog := fs.Bool("debug", false, "verbose logging")
	metricsAddr := fs.String("metrics_addr", "", "serve Prometheus metrics at addr; empty disables")
	stepLogFile := fs.String("step_log", "", "per-tick step log path; empty disables")
	throughputLog := fs.String("throughput_log", "", "throughput log path; empty disables")
	summaryFile := fs.String("summary", "", "CSV summary output path; empty disables")

	if err := fs.Parse(args); err != nil {
		return config.Options{}, err
	}

	opts := config.Options{
		MapFile:       *mapFile,
		CacheType:     config.CacheType(*cacheType),
		LookAhead:     *lookAhead,
		DelayDeadline: *delayDeadline,
		NumGoals:      *numGoals,
		NumAgents:     *numAgents,
		AgentCapacity: *agentCapacity,
		GoalsGen:      config.GoalGeneration(*goalsGen),
		GoalsM:        *goalsM,
		GoalsK:        *goalsK,
		RealDistFile:  *realDistFile,
		RandomSeed:    *randomSeed,
		TimeLimitSec:  *timeLimitSec,
		Optimization:  *optimization,
		DebugLog:      *debugLog,
		MetricsAddr:   *metricsAddr,
		StepLogFile:   *stepLogFile,
		ThroughputLog: *throughputLog,
		SummaryFile:   *summaryFile,
	}

	if *configFile != "" {
		base, err := config.LoadYAML(*configFile)
		if err != nil {
			return config.Options{}, err
		}
		opts = overlayFlags(base, fs, opts)
	}
	return opts, nil
}

// overlayFlags returns base with every flag the user explicitly set on
// the command line applied on top, so -config and individual flags can be
// combined (flags win).
func overlayFlags(base config.Options, fs *flag.FlagSet, explicit config.Options) config.Options {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	merged := base
	if set["map"] {
		merged.MapFile = explicit.MapFile
	}
	if set["cache_type"] {
		merged.CacheType = explicit.CacheType
	}
	if set["look_ahead"] {
		merged.LookAhead = explicit.LookAhead
	}
	if set["delay_deadline"] {
		merged.DelayDeadline = explicit.DelayDeadline
	}
	if set["num_goals"] {
		merged.NumGoals = explicit.NumGoals
	}
	if set["num_agents"] {
		merged.NumAgents = explicit.NumAgents
	}
	if set["agent_capacity"] {
		merged.AgentCapacity = explicit.AgentCapacity
	}
	if set["goals_gen"] {
		merged.GoalsGen = explicit.GoalsGen
	}
	if set["goals_m"] {
		merged.GoalsM = explicit.GoalsM
	}
	if set["goals_k"] {
		merged.GoalsK = explicit.GoalsK
	}
	if set["real_dist_file"] {
		merged.RealDistFile = explicit.RealDistFile
	}
	if set["seed"] {
		merged.RandomSeed = explicit.RandomSeed
	}
	if set["time_limit_sec"] {
		merged.TimeLimitSec = explicit.TimeLimitSec
	}
	if set["optimization"] {
		merged.Optimization = explicit.Optimization
	}
	if set["debug"] {
		merged.DebugLog = explicit.DebugLog
	}
	if set["metrics_addr"] {
		merged.MetricsAddr = explicit.MetricsAddr
	}
	if set["step_log"] {
		merged.StepLogFile = explicit.StepLogFile
	}
	if set["throughput_log"] {
		merged.ThroughputLog = explicit.ThroughputLog
	}
	if set["summary"] {
		merged.SummaryFile = explicit.SummaryFile
	}
	return merged
}

func run(opts config.Options, log telemetry.Loggers) error {
	f, err := os.Open(opts.MapFile)
	if err != nil {
		return errors.Wrap(err, "controller: opening map file")
	}
	defer f.Close()
	g, err := grid.Parse(f)
	if err != nil {
		return errors.Wrap(err, "controller: parsing map file")
	}
	log.Grid.Info("loaded map", "width", g.Width, "height", g.Height, "groups", g.Groups, "type", g.Type.String())

	rng := rand.New(rand.NewSource(opts.RandomSeed))

	reg := prometheus.NewRegistry()
	var cacheMetrics cache.Metrics = cache.NoopMetrics{}
	if opts.MetricsAddr != "" {
		cacheMetrics = metricsprom.New(reg, "calmapf", "cache", nil)
	}

	caches, err := buildCaches(opts, g, cacheMetrics)
	if err != nil {
		return err
	}
	streams, err := buildStreams(opts, g, rng)
	if err != nil {
		return err
	}

	ports := make([]*grid.Vertex, g.Groups)
	for i, ps := range g.PortsByGroup {
		if len(ps) == 0 {
			return errors.Errorf("controller: group %d has no unloading port", i)
		}
		ports[i] = ps[0]
	}

	groupOf := instance.AssignAgentGroup(opts.NumAgents, g.Groups)
	starts := instance.RandomStart(g, opts.NumAgents, rng)

	goalsPerAgent := opts.NumGoals
	agents := make([]*agentstate.Agent, opts.NumAgents)
	for i := range agents {
		group := groupOf[i]
		// With no cache substrate there is nothing to reorder ahead of:
		// draw the plain FIFO head, matching stepWithoutCache's later draws.
		lookAhead := opts.LookAhead
		var lookup goalstream.CacheLookup
		if caches != nil {
			lookup = caches[group]
		} else {
			lookAhead = 1
		}
		first := streams[group].NextGoal(lookAhead, opts.DelayDeadline, lookup)
		agents[i] = agentstate.NewAgent(i, group, starts[i], first, goalsPerAgent)
	}

	inst := &instance.Instance{
		Graph:         g,
		Caches:        caches,
		Streams:       streams,
		Ports:         ports,
		Agents:        agents,
		LookAhead:     opts.LookAhead,
		DelayDeadline: opts.DelayDeadline,
		Optimization:  opts.Optimization,
	}

	stepLog, err := report.OpenStepLogger(opts.StepLogFile)
	if err != nil {
		return err
	}
	defer stepLog.Close()
	throughputLog, err := report.OpenThroughputLogger(opts.ThroughputLog, opts)
	if err != nil {
		return err
	}
	defer throughputLog.Close()
	summary := report.NewSummaryWriter(opts.SummaryFile)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.TimeLimitSec*float64(time.Second)))
	defer cancel()

	eg, egCtx := errgroup.WithContext(ctx)
	if opts.MetricsAddr != "" {
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		eg.Go(func() error {
			log.Root.Info("serving metrics", "addr", opts.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-egCtx.Done()
			return srv.Close()
		})
	}

	var solver planner.Solver = planner.StraightLineSolver{}
	eg.Go(func() error {
		return driveLoop(egCtx, inst, solver, opts, log, stepLog, throughputLog, summary)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		summary.WriteFailure(opts)
		return err
	}
	return nil
}

// driveLoop runs the planner tick by tick until every agent has exhausted
// its goal quota or ctx's deadline fires, logging step and throughput
// samples and writing the final summary row.
func driveLoop(ctx context.Context, inst *instance.Instance, solver planner.Solver, opts config.Options, log telemetry.Loggers, stepLog *report.StepLogger, throughputLog *report.ThroughputLogger, summary *report.SummaryWriter) error {
	tick := 0
	totalDelivered := 0
	for {
		if ctx.Err() != nil {
			log.Instance.Warn("time limit reached before every agent's quota was exhausted", "tick", tick)
			summary.WriteFailure(opts)
			return nil
		}
		if allDone(inst.Agents) {
			break
		}

		starts := make(grid.Config, len(inst.Agents))
		goals := make(grid.Config, len(inst.Agents))
		for i, a := range inst.Agents {
			starts[i] = a.Position
			goals[i] = a.Goal
		}

		traj, err := solver.Solve(ctx, starts, goals, opts.TimeLimitSec)
		if err != nil {
			return errors.Wrap(err, "controller: planner step failed")
		}
		subSteps := len(traj) - 1
		if subSteps < 1 {
			subSteps = 1
		}
		terminal := traj[len(traj)-1]

		delivered := inst.Tick(terminal, subSteps)
		totalDelivered += delivered
		tick++

		stepLog.Logf("tick=%d delivered=%d cache_hit_rate=%.4f", tick, delivered, inst.CacheHitRate())
		throughputLog.SampleAt(tick, float64(totalDelivered)/float64(tick))
	}

	throughputLog.Final(totalDelivered, tick)
	return summary.WriteSuccess(opts, inst.CacheHitRate(), tick, inst.Percentiles())
}

func allDone(agents []*agentstate.Agent) bool {
	for _, a := range agents {
		if a.RemainGoals > 0 {
			return false
		}
	}
	return true
}

func buildCaches(opts config.Options, g *grid.Graph, metrics cache.Metrics) ([]*cache.Group, error) {
	if opts.CacheType == config.CacheNone {
		return nil, nil
	}
	factory, err := evictionFactory(opts, rand.New(rand.NewSource(opts.RandomSeed+1)))
	if err != nil {
		return nil, err
	}
	caches := make([]*cache.Group, g.Groups)
	for i := 0; i < g.Groups; i++ {
		cells := g.CacheCellsByGroup[i]
		if len(cells) == 0 {
			return nil, errors.Errorf("controller: group %d has no cache cells but cache_type=%s", i, opts.CacheType)
		}
		caches[i] = cache.NewGroup(i, cells, opts.AgentCapacity, factory, metrics)
	}
	return caches, nil
}

func evictionFactory(opts config.Options, rng *rand.Rand) (policy.Factory, error) {
	switch opts.CacheType {
	case config.CacheLRU:
		return lru.New(), nil
	case config.CacheFIFO:
		return fifo.New(), nil
	case config.CacheRandom:
		return random.New(rng), nil
	default:
		return nil, errors.Errorf("controller: unknown cache_type %q", opts.CacheType)
	}
}

func buildStreams(opts config.Options, g *grid.Graph, rng *rand.Rand) ([]*goalstream.Stream, error) {
	var frequencies []float64
	if opts.GoalsGen == config.GoalReal {
		f, err := os.Open(opts.RealDistFile)
		if err != nil {
			return nil, errors.Wrap(err, "controller: opening real_dist_file")
		}
		defer f.Close()
		frequencies, err = goalstream.LoadRealFrequencies(f)
		if err != nil {
			return nil, errors.Wrap(err, "controller: parsing real_dist_file")
		}
	}

	streams := make([]*goalstream.Stream, g.Groups)
	for i := 0; i < g.Groups; i++ {
		cargo := g.CargoByGroup[i]
		if len(cargo) == 0 {
			return nil, errors.Errorf("controller: group %d has no cargo cells", i)
		}
		switch opts.GoalsGen {
		case config.GoalMK:
			streams[i] = goalstream.NewMKStream(i, cargo, opts.NumGoals, opts.GoalsM, opts.GoalsK, rng)
		case config.GoalZhang:
			streams[i] = goalstream.NewZhangStream(i, cargo, opts.NumGoals, rng)
		case config.GoalReal:
			streams[i] = goalstream.NewRealStream(i, cargo, opts.NumGoals, frequencies, rng)
		default:
			return nil, errors.Errorf("controller: unknown goals_gen %q", opts.GoalsGen)
		}
	}
	return streams, nil
}
