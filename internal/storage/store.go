package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/san-kum/vortsim/internal/dynamo"
)

const (
	metadataFile    = "metadata.json"
	diagnosticsFile = "diagnostics.csv"
	snapshotsFile   = "snapshots.cbor"
	convergenceFile = "convergence.csv"
)

var diagnosticsHeader = []string{"time", "step", "max_vorticity", "energy", "enstrophy", "cfl"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) runDir(runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return "", dynamo.Invalidf("storage", "invalid run id %q", runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

// Save writes the metadata, the diagnostics series and, when present, the
// snapshot set of rec. Snapshots are CBOR so non-finite field values survive.
func (s *Store) Save(rec *dynamo.RunRecord) error {
	dir, err := s.runDir(rec.RunID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), rec); err != nil {
		return err
	}
	if err := writeSeries(filepath.Join(dir, diagnosticsFile), rec.Series); err != nil {
		return err
	}
	if len(rec.Snapshots) > 0 {
		data, err := cbor.Marshal(rec.Snapshots)
		if err != nil {
			return fmt.Errorf("encode snapshots: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, snapshotsFile), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// SaveConvergence writes the sample table of a convergence study as its own
// run so it can be listed next to evolution runs.
func (s *Store) SaveConvergence(runID string, samples []dynamo.ConvergenceSample) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	meta := dynamo.RunRecord{RunID: runID, Mode: dynamo.ModeConvergence, CreatedAt: time.Now()}
	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(dir, convergenceFile))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"n", "h", "qoi", "wall_seconds"}); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.Itoa(smp.N),
			formatFloat(smp.H),
			formatFloat(smp.QoI),
			formatFloat(smp.Wall.Seconds()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored run, newest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]dynamo.RunRecord, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []dynamo.RunRecord{}, nil
		}
		return nil, err
	}

	runs := make([]dynamo.RunRecord, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.LoadMetadata(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

// Load returns the full record of runID, including its series and snapshots.
func (s *Store) Load(runID string) (*dynamo.RunRecord, error) {
	rec, err := s.LoadMetadata(runID)
	if err != nil {
		return nil, err
	}
	if rec.Series, err = s.LoadSeries(runID); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if rec.Snapshots, err = s.LoadSnapshots(runID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) LoadMetadata(runID string) (*dynamo.RunRecord, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &dynamo.Error{Code: dynamo.CodeRunNotFound, Op: "storage.load", Message: runID, Err: err}
		}
		return nil, err
	}

	var rec dynamo.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}
	return &rec, nil
}

func (s *Store) LoadSeries(runID string) ([]dynamo.Diagnostics, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, diagnosticsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readSeries(file)
}

// LoadSnapshots returns the stored snapshots, or nil when the run kept none.
func (s *Store) LoadSnapshots(runID string) ([]dynamo.Snapshot, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, snapshotsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snaps []dynamo.Snapshot
	if err := cbor.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("decode %s snapshots: %w", runID, err)
	}
	return snaps, nil
}

func (s *Store) LoadConvergence(runID string) ([]dynamo.ConvergenceSample, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, convergenceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &dynamo.Error{Code: dynamo.CodeRunNotFound, Op: "storage.load_convergence", Message: runID, Err: err}
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]dynamo.ConvergenceSample, 0, len(records))
	for i, r := range records {
		if i == 0 {
			continue
		}
		if len(r) != 4 {
			return nil, fmt.Errorf("convergence row %d: expected 4 fields, got %d", i, len(r))
		}
		n, err := strconv.Atoi(r[0])
		if err != nil {
			return nil, fmt.Errorf("convergence row %d: %w", i, err)
		}
		vals, err := parseFloats(r[1:])
		if err != nil {
			return nil, fmt.Errorf("convergence row %d: %w", i, err)
		}
		out = append(out, dynamo.ConvergenceSample{
			N:    n,
			H:    vals[0],
			QoI:  vals[1],
			Wall: time.Duration(vals[2] * float64(time.Second)),
		})
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, series []dynamo.Diagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportCSV(file, &dynamo.RunRecord{Series: series})
}

func readSeries(r io.Reader) ([]dynamo.Diagnostics, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(diagnosticsHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Diagnostics{}, nil
	}

	series := make([]dynamo.Diagnostics, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		rec := records[i]
		step, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("diagnostics row %d: %w", i, err)
		}
		vals, err := parseFloats([]string{rec[0], rec[2], rec[3], rec[4], rec[5]})
		if err != nil {
			return nil, fmt.Errorf("diagnostics row %d: %w", i, err)
		}
		series = append(series, dynamo.Diagnostics{
			Time:         vals[0],
			Step:         step,
			MaxVorticity: vals[1],
			Energy:       vals[2],
			Enstrophy:    vals[3],
			CFL:          vals[4],
		})
	}
	return series, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
