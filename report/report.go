// Package report implements the three append-only output sinks the
// controller writes: a per-tick step log, a throughput log sampled every
// 200 ticks, and a CSV summary row, following the append-only file
// sinks of the run driver this system was distilled from.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/IvanBrykalov/calmapf/config"
)

// StepLogger appends one free-form line per tick. It is a thin wrapper
// over an append-only file, mirroring the original's per-tick debug
// trace sink.
type StepLogger struct {
	w io.Writer
	c io.Closer
}

// OpenStepLogger opens (creating if necessary, appending if not) the step
// log file at path. An empty path disables logging (writes are
// discarded).
func OpenStepLogger(path string) (*StepLogger, error) {
	if path == "" {
		return &StepLogger{w: io.Discard}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("report: opening step log: %w", err)
	}
	return &StepLogger{w: f, c: f}, nil
}

func (l *StepLogger) Logf(format string, args ...any) {
	fmt.Fprintf(l.w, format+"\n", args...)
}

func (l *StepLogger) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}

// ThroughputLogger appends one comma-separated throughput sample every
// 200 ticks (matching the original's throughput_index_cnt += 200 loop),
// and a final overall-throughput value when Final is called.
type ThroughputLogger struct {
	w           io.Writer
	c           io.Closer
	sampleEvery int
	nextSample  int
}

// OpenThroughputLogger opens the throughput log at path (see
// OpenStepLogger for the empty-path behavior) and writes a header row
// describing the run.
func OpenThroughputLogger(path string, opts config.Options) (*ThroughputLogger, error) {
	if path == "" {
		return &ThroughputLogger{w: io.Discard, sampleEvery: 200}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("report: opening throughput log: %w", err)
	}
	fmt.Fprintf(f, "%s,%s,%d,%d,%s,%d,%d,%d\n",
		opts.MapFile, opts.CacheType, opts.LookAhead, opts.DelayDeadline,
		opts.GoalsGen, opts.NumGoals, opts.NumAgents, opts.RandomSeed)
	return &ThroughputLogger{w: f, c: f, sampleEvery: 200, nextSample: 200}, nil
}

// SampleAt appends one throughput reading for every 200-tick boundary
// crossed since the last call, following the original's "backfill every
// 200 ticks up to makespan" loop.
func (l *ThroughputLogger) SampleAt(makespan int, throughput float64) {
	for ; l.nextSample < makespan; l.nextSample += l.sampleEvery {
		fmt.Fprintf(l.w, "%v,", throughput)
	}
}

// Final appends the run's overall throughput and a trailing newline.
func (l *ThroughputLogger) Final(totalGoals, makespan int) {
	throughput := float64(totalGoals) / float64(makespan)
	fmt.Fprintf(l.w, "%v\n", throughput)
}

func (l *ThroughputLogger) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}

// SummaryWriter appends one CSV row per run: the main configuration
// fields (map, cache type, look-ahead, delay deadline, generator, goal
// and agent counts, seed, m, k) plus
// either the achieved cache hit rate, makespan, and P0/P50/P99 step
// percentiles, or a failure marker.
type SummaryWriter struct {
	path string
}

// NewSummaryWriter targets path for summary rows (created on first
// write if missing).
func NewSummaryWriter(path string) *SummaryWriter { return &SummaryWriter{path: path} }

// WriteSuccess appends a success row: configuration, cache hit rate,
// makespan, and the P0/P50/P99 step percentiles (indices 0, 2, 6 of the
// {0,25,50,75,90,95,99,100} percentile vector).
func (s *SummaryWriter) WriteSuccess(opts config.Options, cacheHitRate float64, makespan int, percentiles []int) error {
	if s.path == "" {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: opening summary file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := append(s.configFields(opts),
		strconv.FormatFloat(cacheHitRate, 'f', -1, 64),
		strconv.Itoa(makespan),
		strconv.Itoa(percentiles[0]),
		strconv.Itoa(percentiles[2]),
		strconv.Itoa(percentiles[6]),
	)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("report: writing summary row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// WriteFailure appends a failure row: configuration followed by the
// literal marker "fail to solve".
func (s *SummaryWriter) WriteFailure(opts config.Options) error {
	if s.path == "" {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: opening summary file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := append(s.configFields(opts), "fail to solve")
	if err := w.Write(row); err != nil {
		return fmt.Errorf("report: writing failure row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (s *SummaryWriter) configFields(opts config.Options) []string {
	return []string{
		opts.MapFile,
		string(opts.CacheType),
		strconv.Itoa(opts.LookAhead),
		strconv.Itoa(opts.DelayDeadline),
		string(opts.GoalsGen),
		strconv.Itoa(opts.NumGoals),
		strconv.Itoa(opts.NumAgents),
		strconv.FormatInt(opts.RandomSeed, 10),
		strconv.Itoa(opts.GoalsM),
		strconv.Itoa(opts.GoalsK),
	}
}
