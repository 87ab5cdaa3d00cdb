package dynamo

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Snapshot is a copy of the vorticity and streamfunction fields at one step.
type Snapshot struct {
	Time  float64 `json:"time"`
	Step  int     `json:"step"`
	Omega *Field  `json:"omega"`
	Psi   *Field  `json:"psi"`
}

// RunRecord is everything persisted for one completed evolution run.
type RunRecord struct {
	RunID     string           `json:"run_id"`
	Mode      Mode             `json:"mode"`
	Method    string           `json:"method"`
	Config    SimulationConfig `json:"config"`
	Final     Diagnostics      `json:"final"`
	Wall      time.Duration    `json:"wall"`
	CreatedAt time.Time        `json:"created_at"`

	Series    []Diagnostics `json:"-"`
	Snapshots []Snapshot    `json:"-"`
}

// jsonFloat encodes NaN and ±Inf as null, which encoding/json rejects.
// null decodes back to NaN.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = jsonFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type diagnosticsJSON struct {
	Time         jsonFloat `json:"time"`
	Step         int       `json:"step"`
	MaxVorticity jsonFloat `json:"max_vorticity"`
	Energy       jsonFloat `json:"energy"`
	Enstrophy    jsonFloat `json:"enstrophy"`
	CFL          jsonFloat `json:"cfl"`
}

func (d Diagnostics) MarshalJSON() ([]byte, error) {
	return json.Marshal(diagnosticsJSON{
		Time:         jsonFloat(d.Time),
		Step:         d.Step,
		MaxVorticity: jsonFloat(d.MaxVorticity),
		Energy:       jsonFloat(d.Energy),
		Enstrophy:    jsonFloat(d.Enstrophy),
		CFL:          jsonFloat(d.CFL),
	})
}

func (d *Diagnostics) UnmarshalJSON(b []byte) error {
	var v diagnosticsJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = Diagnostics{
		Time:         float64(v.Time),
		Step:         v.Step,
		MaxVorticity: float64(v.MaxVorticity),
		Energy:       float64(v.Energy),
		Enstrophy:    float64(v.Enstrophy),
		CFL:          float64(v.CFL),
	}
	return nil
}
