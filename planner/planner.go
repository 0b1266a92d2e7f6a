// Package planner defines the external collaborator interface for the
// conflict-free one-tick path planner. Computing actual collision-free
// trajectories is out of scope for this core (see the purpose and scope
// notes on external collaborators); this package only specifies the call
// site contract and a trivial in-package stepper used to exercise it in
// tests.
package planner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/IvanBrykalov/calmapf/grid"
)

// ErrNoSolution is returned (wrapped with call-site context via
// github.com/pkg/errors) when Solve could not find a conflict-free
// advance within its deadline.
var ErrNoSolution = errors.New("planner: no solution found within deadline")

// Solver produces a conflict-free one-tick advance: given the current
// physical configuration and the agents' current navigation targets, it
// returns a sequence of intermediate configurations (the tick-local
// trajectory) ending at the point every agent either reached its goal or
// the deadline expired, whichever came first.
type Solver interface {
	Solve(ctx context.Context, starts, goals grid.Config, deadline float64) ([]grid.Config, error)
}

// StraightLineSolver is a minimal, deliberately non-optimal Solver: each
// agent advances directly to its goal in a single sub-step, with no
// collision avoidance whatsoever. It exists to give the rest of the core
// something to drive against in tests and small examples; it is not a
// MAPF solver and must never be used for anything but exercising the
// task-assignment core end to end.
type StraightLineSolver struct{}

func (StraightLineSolver) Solve(ctx context.Context, starts, goals grid.Config, deadline float64) ([]grid.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "planner: context cancelled before solving")
	}
	if len(starts) != len(goals) {
		return nil, errors.Errorf("planner: starts/goals length mismatch (%d vs %d)", len(starts), len(goals))
	}
	end := append(grid.Config(nil), goals...)
	return []grid.Config{starts, end}, nil
}
