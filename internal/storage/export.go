package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/vortsim/internal/dynamo"
)

type ExportData struct {
	RunID       string                     `json:"run_id"`
	Mode        dynamo.Mode                `json:"mode"`
	Method      string                     `json:"method"`
	Config      dynamo.SimulationConfig    `json:"config"`
	Steps       int                        `json:"steps"`
	WallSeconds float64                    `json:"wall_seconds"`
	Final       dynamo.Diagnostics         `json:"final"`
	Series      []dynamo.Diagnostics       `json:"series"`
	Convergence []dynamo.ConvergenceSample `json:"convergence,omitempty"`
}

func newExportData(rec *dynamo.RunRecord) ExportData {
	steps := len(rec.Series) - 1
	if steps < 0 {
		steps = 0
	}
	return ExportData{
		RunID:       rec.RunID,
		Mode:        rec.Mode,
		Method:      rec.Method,
		Config:      rec.Config,
		Steps:       steps,
		WallSeconds: rec.Wall.Seconds(),
		Final:       rec.Final,
		Series:      rec.Series,
	}
}

// ExportJSON writes rec with its full diagnostics series as indented JSON.
func ExportJSON(w io.Writer, rec *dynamo.RunRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(rec))
}

// ExportCSV writes the diagnostics series of rec in the diagnostics.csv layout.
func ExportCSV(w io.Writer, rec *dynamo.RunRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(diagnosticsHeader); err != nil {
		return err
	}
	for _, d := range rec.Series {
		row := []string{
			formatFloat(d.Time),
			strconv.Itoa(d.Step),
			formatFloat(d.MaxVorticity),
			formatFloat(d.Energy),
			formatFloat(d.Enstrophy),
			formatFloat(d.CFL),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export loads runID and writes it in the given format ("json" or "csv").
// Convergence runs also carry their sample table in JSON.
func (s *Store) Export(w io.Writer, runID, format string) error {
	rec, err := s.Load(runID)
	if err != nil {
		return err
	}
	switch format {
	case "", "json":
		data := newExportData(rec)
		if rec.Mode == dynamo.ModeConvergence {
			if data.Convergence, err = s.LoadConvergence(runID); err != nil {
				return err
			}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case "csv":
		return ExportCSV(w, rec)
	}
	return dynamo.Invalidf("storage.export", "unknown export format %q (want json or csv)", format)
}
