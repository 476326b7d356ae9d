// Package export writes solution tables and the progress log to files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/posched/core/progress"
	"github.com/kilianp07/posched/core/solution"
)

// WriteJSON writes the whole solution to w in JSON format.
func WriteJSON(w io.Writer, sol *solution.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sol)
}

// WriteAssignmentsCSV writes one row per (job, position, index).
func WriteAssignmentsCSV(w io.Writer, rows []solution.Assignment) error {
	return writeCSV(w, []string{"job", "unit", "phase", "position", "index", "tick", "time"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Job, r.Unit, r.Phase, r.Position, strconv.Itoa(r.Index), strconv.Itoa(r.Tick), r.Time}
	})
}

// WriteMovementsCSV writes one row per unit movement. Pattern positions are
// joined with ';'.
func WriteMovementsCSV(w io.Writer, rows []solution.Movement) error {
	return writeCSV(w, []string{"unit", "index", "tick", "time", "from", "to", "from_positions", "to_positions"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Unit, strconv.Itoa(r.Index), strconv.Itoa(r.Tick), r.Time, r.From, r.To,
			strings.Join(r.FromPositions, ";"), strings.Join(r.ToPositions, ";")}
	})
}

// WritePatternsCSV writes one row per chosen pattern.
func WritePatternsCSV(w io.Writer, rows []solution.PatternChoice) error {
	return writeCSV(w, []string{"job", "unit", "index", "tick", "time", "pattern", "positions"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Job, r.Unit, strconv.Itoa(r.Index), strconv.Itoa(r.Tick), r.Time, r.Pattern, strings.Join(r.Positions, ";")}
	})
}

// WritePositionMovementsCSV writes one row per position movement.
func WritePositionMovementsCSV(w io.Writer, rows []solution.PositionMovement) error {
	return writeCSV(w, []string{"position", "index", "tick", "time"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Position, strconv.Itoa(r.Index), strconv.Itoa(r.Tick), r.Time}
	})
}

// WriteProgressCSV writes the progress log.
func WriteProgressCSV(w io.Writer, recs []progress.Record) error {
	return writeCSV(w, []string{"iteration", "timestamp", "elapsed_ms", "objective", "bound"}, len(recs), func(i int) []string {
		r := recs[i]
		return []string{strconv.Itoa(r.Iteration), r.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatInt(r.ElapsedMS, 10), strconv.FormatInt(r.Objective, 10), strconv.FormatInt(r.Bound, 10)}
	})
}

func writeCSV(w io.Writer, header []string, n int, row func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDir writes the solution into dir. Format "json" produces a single
// solution.json; "csv" produces one file per table. Progress records, when
// given, are written as progress.csv and progress.html.
func WriteDir(dir, format string, sol *solution.Solution, recs []progress.Record) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	switch format {
	case "", "json":
		if err := write("solution.json", func(w io.Writer) error { return WriteJSON(w, sol) }); err != nil {
			return written, err
		}
	case "csv":
		tables := []struct {
			name string
			fn   func(io.Writer) error
		}{
			{"assignments.csv", func(w io.Writer) error { return WriteAssignmentsCSV(w, sol.Assignments) }},
			{"movements.csv", func(w io.Writer) error { return WriteMovementsCSV(w, sol.Movements) }},
			{"patterns.csv", func(w io.Writer) error { return WritePatternsCSV(w, sol.Patterns) }},
			{"position_movements.csv", func(w io.Writer) error { return WritePositionMovementsCSV(w, sol.PositionMovements) }},
		}
		for _, t := range tables {
			if err := write(t.name, t.fn); err != nil {
				return written, err
			}
		}
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	if len(recs) > 0 {
		if err := write("progress.csv", func(w io.Writer) error { return WriteProgressCSV(w, recs) }); err != nil {
			return written, err
		}
		if err := write("progress.html", func(w io.Writer) error { return RenderProgressChart(w, "Solve progress", recs) }); err != nil {
			return written, err
		}
	}
	return written, nil
}
