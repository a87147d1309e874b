package e2e

import (
	"bytes"
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/optistoch/sddp/internal/examples"
	"github.com/optistoch/sddp/internal/logging"
	"github.com/optistoch/sddp/internal/store"
	"github.com/optistoch/sddp/pkg/config"
	"github.com/optistoch/sddp/pkg/core"
	"github.com/optistoch/sddp/pkg/linear"
	"github.com/optistoch/sddp/pkg/risk"
	"github.com/optistoch/sddp/pkg/solver"
)

// allThermalCost is the cost of meeting every stage's demand from the
// thermal unit alone: 150 * (50 + 100 + 150). No policy can cost more.
const allThermalCost = 45000.0

func hydroSettings(maxIter int) config.Settings {
	s := config.Default()
	s.MaxIterations = maxIter
	s.Stalling = config.Stalling{Iterations: 5, Rtol: 1e-6}
	s.Seed = 20240817
	return s
}

func solveHydro(measure core.RiskMeasure, settings config.Settings) (*core.PolicyGraph, solver.Result) {
	GinkgoHelper()
	graph, err := examples.HydroGraph(3, measure)
	Expect(err).NotTo(HaveOccurred())

	s, err := solver.New(graph, linear.NewService(), settings, solver.WithLogger(logging.NewTestLogger()))
	Expect(err).NotTo(HaveOccurred())
	res, err := s.Solve(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return graph, res
}

var _ = Describe("hydro-thermal scheduling", func() {
	Context("serial solve", func() {
		It("converges to a stable positive bound", func() {
			_, res := solveHydro(risk.Expectation{}, hydroSettings(60))

			Expect(res.Iterations).To(BeNumerically(">", 0))
			Expect(res.Bound).To(BeNumerically(">", 0))
			Expect(res.Bound).To(BeNumerically("<", allThermalCost))
			Expect(res.Log).To(HaveLen(res.Iterations))
		})

		It("improves the bound monotonically", func() {
			_, res := solveHydro(risk.Expectation{}, hydroSettings(40))

			for i := 1; i < len(res.Log); i++ {
				Expect(res.Log[i].Bound).To(BeNumerically(">=", res.Log[i-1].Bound-1e-9),
					"cuts are append-only, so the deterministic bound cannot regress")
			}
		})

		It("is reproducible for a fixed seed", func() {
			_, first := solveHydro(risk.Expectation{}, hydroSettings(25))
			_, second := solveHydro(risk.Expectation{}, hydroSettings(25))

			Expect(second.Iterations).To(Equal(first.Iterations))
			for i := range first.Log {
				Expect(second.Log[i].Bound).To(Equal(first.Log[i].Bound))
				Expect(second.Log[i].Simulated).To(Equal(first.Log[i].Simulated))
			}
		})

		It("logs Monte-Carlo rounds when simulation is enabled", func() {
			settings := hydroSettings(30)
			// Run the full iteration budget so the cadence fires.
			settings.Stalling = config.Stalling{}
			settings.Simulation = config.Simulation{
				Frequency:  10,
				Min:        20,
				Step:       20,
				Max:        60,
				Confidence: 0.95,
			}
			_, res := solveHydro(risk.Expectation{}, settings)

			var rounds int
			for _, rec := range res.Log {
				if rec.Simulations > 0 {
					rounds++
					Expect(rec.Simulations).To(BeNumerically(">=", settings.Simulation.Min))
					Expect(rec.SimLower).To(BeNumerically("<=", rec.SimUpper))
				}
			}
			Expect(rounds).To(BeNumerically(">", 0))
		})
	})

	Context("risk measures", func() {
		It("prices tail protection above the risk-neutral policy", func() {
			_, neutral := solveHydro(risk.Expectation{}, hydroSettings(60))

			avar, err := risk.NewAVaR(0.3)
			Expect(err).NotTo(HaveOccurred())
			_, averse := solveHydro(avar, hydroSettings(60))

			Expect(averse.Bound).To(BeNumerically(">=", neutral.Bound-1e-6))
		})
	})

	Context("asynchronous solve", func() {
		It("reaches a bound consistent with the serial run", func() {
			_, serial := solveHydro(risk.Expectation{}, hydroSettings(60))

			settings := hydroSettings(60)
			settings.Stalling = config.Stalling{}
			settings.Async = true
			settings.Workers = 4
			_, async := solveHydro(risk.Expectation{}, settings)

			Expect(async.Status).To(Equal(solver.StatusIterationLimit))
			Expect(async.Iterations).To(Equal(60))
			Expect(async.Bound).To(BeNumerically(">", 0))
			// Both approximate the same optimum from below.
			Expect(async.Bound).To(BeNumerically("~", serial.Bound, 0.05*serial.Bound))
		})
	})

	Context("artifacts", func() {
		It("restarts from a written cut file without losing the bound", func() {
			graph, res := solveHydro(risk.Expectation{}, hydroSettings(30))

			var buf bytes.Buffer
			Expect(store.WriteCuts(&buf, graph)).To(Succeed())

			restored, err := examples.HydroGraph(3, risk.Expectation{})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.ReadCuts(&buf, restored)).To(Succeed())

			settings := hydroSettings(1)
			settings.Stalling = config.Stalling{}
			s, err := solver.New(restored, linear.NewService(), settings)
			Expect(err).NotTo(HaveOccurred())
			resumed, err := s.Solve(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(resumed.Bound).To(BeNumerically(">=", res.Bound-1e-6),
				"the loaded cuts carry the previous approximation forward")
		})

		It("archives run logs to SQLite", func() {
			graph, res := solveHydro(risk.Expectation{}, hydroSettings(15))

			archive, err := store.Open(filepath.Join(GinkgoT().TempDir(), "runs.db"))
			Expect(err).NotTo(HaveOccurred())
			defer archive.Close()

			id, err := archive.BeginRun(graph)
			Expect(err).NotTo(HaveOccurred())
			Expect(archive.FinishRun(graph, res.Status.String())).To(Succeed())

			n, err := archive.IterationCount(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(len(res.Log)))
		})
	})
})
