package dispatch_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/vortsim/internal/dispatch"
	"github.com/san-kum/vortsim/internal/dynamo"
	"github.com/san-kum/vortsim/internal/method"
	"github.com/san-kum/vortsim/internal/modes"
	"github.com/san-kum/vortsim/internal/physics"
)

type memStore struct {
	mu   sync.Mutex
	runs map[string]*dynamo.RunRecord
}

func (s *memStore) Save(rec *dynamo.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[rec.RunID] = rec
	return nil
}

func (s *memStore) SaveConvergence(string, []dynamo.ConvergenceSample) error { return nil }

func (s *memStore) Load(runID string) (*dynamo.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.runs[runID]; ok {
		return rec, nil
	}
	return nil, &dynamo.Error{Code: dynamo.CodeRunNotFound, Op: "load", Message: runID}
}

func smallConfig() dynamo.SimulationConfig {
	return dynamo.SimulationConfig{
		Nx: 16, Ny: 16, Lx: 10, Ly: 10,
		Dt: 0.01, Tfinal: 0.05, Nu: 1e-4,
		IC: physics.ICSpec{Kind: physics.LambOseen},
	}
}

var _ = Describe("Dispatcher", func() {
	var (
		store *memStore
		d     *dispatch.Dispatcher
		steps int
		rc    dynamo.RunContext
	)

	BeforeEach(func() {
		store = &memStore{runs: make(map[string]*dynamo.RunRecord)}
		d = dispatch.New(store, nil)
		steps = 0
		rc = dynamo.RunContext{Progress: func(dynamo.Progress) { steps++ }}
	})

	Context("finite difference evolution", func() {
		It("is supported and runs to completion", func() {
			out, err := d.Dispatch(context.Background(), dispatch.Request{
				Method: "FD", Mode: "evolution", Config: smallConfig(), RunContext: rc,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Support).To(Equal(dispatch.Supported))
			Expect(out.Experimental).To(BeFalse())
			Expect(out.Evolution).NotTo(BeNil())
			Expect(out.Evolution.Series).To(HaveLen(6))
			Expect(out.Phase()).To(Equal(modes.Done))
			Expect(steps).To(Equal(5))
		})

		It("persists when asked and plots the stored run", func() {
			rc.SaveData = true
			out, err := d.Dispatch(context.Background(), dispatch.Request{
				Method: "finite_difference", Mode: "run", Config: smallConfig(), RunContext: rc, RunID: "r1",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.runs).To(HaveKey("r1"))

			plot, err := d.Dispatch(context.Background(), dispatch.Request{Mode: "plot", RunID: "r1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(plot.Plot.Record.Final).To(Equal(out.Evolution.Final))
		})
	})

	Context("finite volume convergence", func() {
		It("is blocked before any simulation step", func() {
			out, err := d.Dispatch(context.Background(), dispatch.Request{
				Method: "finite_volume", Mode: "convergence", Config: smallConfig(), RunContext: rc,
				Convergence: modes.ConvergenceOptions{Meshes: []int{16, 32}},
			})
			Expect(err).To(MatchError(dynamo.ErrBlocked))
			code, ok := dynamo.CodeOf(err)
			Expect(ok).To(BeTrue())
			Expect(code).To(Equal(dynamo.CodeBlocked))
			Expect(out.Support).To(Equal(dispatch.Blocked))
			Expect(out.Convergence).To(BeNil())
			Expect(steps).To(BeZero())
		})
	})

	Context("experimental pairs", func() {
		It("flags the outcome and surfaces the stub failure", func() {
			var notified []method.Kind
			d.OnExperimental = func(k method.Kind, _ dynamo.Mode) { notified = append(notified, k) }

			out, err := d.Dispatch(context.Background(), dispatch.Request{
				Method: "fft", Mode: "evolve", Config: smallConfig(), RunContext: rc,
			})
			Expect(err).To(MatchError(dynamo.ErrNotImplemented))
			Expect(out.Experimental).To(BeTrue())
			Expect(notified).To(Equal([]method.Kind{method.Spectral}))
			Expect(out.Phase()).To(Equal(modes.Failed))
			Expect(steps).To(BeZero())
		})
	})

	Context("invalid requests", func() {
		It("rejects unknown methods and modes as configuration errors", func() {
			_, err := d.Dispatch(context.Background(), dispatch.Request{Method: "lbm", Mode: "evolution"})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))

			_, err = d.Dispatch(context.Background(), dispatch.Request{Method: "fd", Mode: "animate"})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("reports a missing run when plotting", func() {
			_, err := d.Dispatch(context.Background(), dispatch.Request{Method: "fv", Mode: "visualize", RunID: "nope"})
			Expect(err).To(MatchError(dynamo.ErrRunNotFound))
		})
	})
})

var _ = DescribeTable("ParseMode",
	func(in string, want dynamo.Mode) {
		got, err := dispatch.ParseMode(in)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	},
	Entry("evolution", "Evolution", dynamo.ModeEvolution),
	Entry("single", "single", dynamo.ModeEvolution),
	Entry("grid_convergence", "grid_convergence", dynamo.ModeConvergence),
	Entry("refinement", "Refinement", dynamo.ModeConvergence),
	Entry("parameter-sweep", "parameter-sweep", dynamo.ModeParameterSweep),
	Entry("ParameterSweep", "ParameterSweep", dynamo.ModeParameterSweep),
	Entry("plots", "plots", dynamo.ModePlotting),
)

var _ = DescribeTable("DefaultPolicy",
	func(k method.Kind, mode dynamo.Mode, want dispatch.Support) {
		Expect(dispatch.DefaultPolicy().Check(k, mode)).To(Equal(want))
	},
	Entry("fd evolution", method.FiniteDifference, dynamo.ModeEvolution, dispatch.Supported),
	Entry("fd sweep", method.FiniteDifference, dynamo.ModeParameterSweep, dispatch.Supported),
	Entry("spectral convergence", method.Spectral, dynamo.ModeConvergence, dispatch.Experimental),
	Entry("fv evolution", method.FiniteVolume, dynamo.ModeEvolution, dispatch.Experimental),
	Entry("fv convergence", method.FiniteVolume, dynamo.ModeConvergence, dispatch.Blocked),
	Entry("fv sweep", method.FiniteVolume, dynamo.ModeParameterSweep, dispatch.Blocked),
	Entry("fv plotting", method.FiniteVolume, dynamo.ModePlotting, dispatch.Supported),
	Entry("unknown kind", method.Kind("lbm"), dynamo.ModeEvolution, dispatch.Blocked),
)
