package goalstream

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// LoadRealFrequencies reads a historical-demand CSV (one header line,
// non-negative integer product id in the first column of every following
// row) and returns the empirical frequency of each product id as
// frequencies[id] = count(id)/total, for every id from 0 up to the
// largest id seen. Ids never observed have frequency 0. The caller pads
// or truncates the result to the size of its own cargo set before
// drawing from it.
func LoadRealFrequencies(r io.Reader) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("goalstream: empty real-distribution file")
		}
		return nil, fmt.Errorf("goalstream: reading header: %w", err)
	}

	counts := make(map[int]int)
	total := 0
	largest := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("goalstream: reading real-distribution row: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		id, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("goalstream: invalid product id %q: %w", record[0], err)
		}
		if id < 0 {
			return nil, fmt.Errorf("goalstream: negative product id %d", id)
		}
		counts[id]++
		total++
		if id > largest {
			largest = id
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("goalstream: real-distribution file has no data rows")
	}

	frequencies := make([]float64, largest+1)
	for id, c := range counts {
		frequencies[id] = float64(c) / float64(total)
	}
	return frequencies, nil
}
