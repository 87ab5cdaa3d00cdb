package modes

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// fakeMethod is a cheap stand-in whose energy diagnostic echoes cfg.Nu so
// tests can tell which configuration produced a record.
type fakeMethod struct {
	inits    atomic.Int64
	advances atomic.Int64
	failNu   float64
	nanAt    int
}

func newFake() *fakeMethod { return &fakeMethod{failNu: math.NaN()} }

func (f *fakeMethod) Name() string { return "fake" }

func (f *fakeMethod) Initialize(cfg dynamo.SimulationConfig) (*dynamo.SimulationState, error) {
	f.inits.Add(1)
	return &dynamo.SimulationState{Omega: dynamo.NewField(2, 2), Psi: dynamo.NewField(2, 2)}, nil
}

func (f *fakeMethod) Advance(st *dynamo.SimulationState, cfg dynamo.SimulationConfig) (*dynamo.SimulationState, error) {
	f.advances.Add(1)
	if cfg.Nu == f.failNu {
		return nil, fmt.Errorf("fake failure at nu=%g", cfg.Nu)
	}
	step := st.Step + 1
	return &dynamo.SimulationState{
		Omega: st.Omega.Clone(),
		Psi:   st.Psi.Clone(),
		T:     float64(step) * cfg.Dt,
		Step:  step,
	}, nil
}

func (f *fakeMethod) Diagnostics(st *dynamo.SimulationState, cfg dynamo.SimulationConfig) (dynamo.Diagnostics, error) {
	d := dynamo.Diagnostics{
		Time:         st.T,
		Step:         st.Step,
		MaxVorticity: 1 + st.T,
		Energy:       cfg.Nu,
		Enstrophy:    1,
	}
	if f.nanAt > 0 && st.Step >= f.nanAt {
		d.MaxVorticity = math.NaN()
	}
	return d, nil
}

type memStore struct {
	mu          sync.Mutex
	runs        map[string]*dynamo.RunRecord
	convergence map[string][]dynamo.ConvergenceSample
}

func newMemStore() *memStore {
	return &memStore{
		runs:        make(map[string]*dynamo.RunRecord),
		convergence: make(map[string][]dynamo.ConvergenceSample),
	}
}

func (s *memStore) Save(rec *dynamo.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[rec.RunID] = rec
	return nil
}

func (s *memStore) SaveConvergence(runID string, samples []dynamo.ConvergenceSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convergence[runID] = samples
	return nil
}

func (s *memStore) Load(runID string) (*dynamo.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, &dynamo.Error{Code: dynamo.CodeRunNotFound, Op: "load", Message: runID}
	}
	return rec, nil
}
