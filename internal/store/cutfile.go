package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/optistoch/sddp/pkg/core"
)

// WriteCuts writes every cut in the graph as one comma-separated line:
// stage, markov index, intercept, then the coefficients. The format is
// stable so external tools can inspect it and ReadCuts can restart from it.
func WriteCuts(w io.Writer, g *core.PolicyGraph) error {
	bw := bufio.NewWriter(w)
	for _, stage := range g.Stages {
		for _, sp := range stage.Subproblems {
			if sp.Oracle == nil {
				continue
			}
			for _, cut := range sp.Oracle.ActiveCuts() {
				fmt.Fprintf(bw, "%d,%d,%s", stage.Index, sp.MarkovIndex, formatFloat(cut.Intercept))
				for _, c := range cut.Coefficients {
					fmt.Fprintf(bw, ",%s", formatFloat(c))
				}
				if _, err := bw.WriteString("\n"); err != nil {
					return err
				}
			}
		}
	}
	return bw.Flush()
}

// ReadCuts loads a cut file into the graph's oracles, so a solve can resume
// from a previous run's approximation. Lines must match the graph: unknown
// stage or markov indices and coefficient-dimension mismatches are
// validation errors.
func ReadCuts(r io.Reader, g *core.PolicyGraph) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) < 3 {
			return core.Validationf("cut file line %d: want at least stage, markov, intercept", line)
		}
		stage, err := strconv.Atoi(fields[0])
		if err != nil || stage < 0 || stage >= len(g.Stages) {
			return core.Validationf("cut file line %d: bad stage %q", line, fields[0])
		}
		markov, err := strconv.Atoi(fields[1])
		if err != nil || markov < 0 || markov >= len(g.Stages[stage].Subproblems) {
			return core.Validationf("cut file line %d: bad markov index %q", line, fields[1])
		}
		vals := make([]float64, len(fields)-2)
		for i, f := range fields[2:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return core.Validationf("cut file line %d: bad value %q", line, f)
			}
			vals[i] = v
		}
		sp := g.Stages[stage].Subproblems[markov]
		if sp.Oracle == nil {
			return core.Validationf("cut file line %d: stage %d markov %d has no oracle", line, stage, markov)
		}
		cut, err := core.NewCut(vals[0], vals[1:], len(sp.States))
		if err != nil {
			return core.Validationf("cut file line %d: %v", line, err)
		}
		if err := sp.Oracle.AddCut(cut); err != nil {
			return err
		}
	}
	return sc.Err()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
