package report_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/calmapf/config"
	"github.com/IvanBrykalov/calmapf/report"
)

func testOpts() config.Options {
	return config.Options{
		MapFile:       "warehouse.map",
		CacheType:     config.CacheLRU,
		LookAhead:     3,
		DelayDeadline: 5,
		NumGoals:      100,
		NumAgents:     10,
		GoalsGen:      config.GoalMK,
		GoalsM:        5,
		GoalsK:        2,
		RandomSeed:    7,
	}
}

func TestSummaryWriter_SuccessRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	w := report.NewSummaryWriter(path)
	require.NoError(t, w.WriteSuccess(testOpts(), 0.42, 1000, []int{1, 2, 3, 4, 5, 6, 7, 8}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "warehouse.map")
	require.Contains(t, string(data), "1000")
}

func TestSummaryWriter_FailureRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	w := report.NewSummaryWriter(path)
	require.NoError(t, w.WriteFailure(testOpts()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "fail to solve")
}

func TestThroughputLogger_SamplesEvery200Ticks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "throughput.csv")
	l, err := report.OpenThroughputLogger(path, testOpts())
	require.NoError(t, err)
	l.SampleAt(450, 2.5)
	l.Final(100, 450)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "2.5,2.5,")
}

func TestStepLogger_DiscardsWhenPathEmpty(t *testing.T) {
	l, err := report.OpenStepLogger("")
	require.NoError(t, err)
	l.Logf("tick %d", 1)
	require.NoError(t, l.Close())
}
