package export

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/vortsim/internal/dynamo"
)

func TestFieldSVG(t *testing.T) {
	f := dynamo.NewField(2, 2)
	f.Set(0, 0, 1)
	f.Set(0, 1, -1)
	f.Set(1, 0, math.NaN())

	svg := FieldSVG(f, 4)
	require.True(t, strings.HasPrefix(svg, "<?xml"))
	require.Equal(t, 5, strings.Count(svg, "<rect"))
	require.Contains(t, svg, `fill="#ff0000"`)
	require.Contains(t, svg, `fill="#0000ff"`)
	require.Contains(t, svg, `fill="#808080"`)
	// row 0 is drawn at the bottom
	require.Contains(t, svg, `<rect x="0.0" y="4.0" width="4.0" height="4.0" fill="#ff0000"/>`)
}

func TestFieldSVGEmpty(t *testing.T) {
	require.Empty(t, FieldSVG(nil, 4))
}

func TestSeriesSVG(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{1, math.NaN(), 3, 2}

	svg := SeriesSVG(xs, ys, 100, 50, "#fff")
	require.Contains(t, svg, `stroke="#fff"`)
	require.Equal(t, 2, strings.Count(svg, " L"))

	require.Empty(t, SeriesSVG([]float64{0}, []float64{1}, 100, 50, "#fff"))
}

func TestRunSVG(t *testing.T) {
	rec := &dynamo.RunRecord{RunID: "r"}
	_, err := RunSVG(rec)
	require.Error(t, err)
	code, ok := dynamo.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, dynamo.CodeInvalidConfig, code)

	rec.Series = []dynamo.Diagnostics{{Time: 0, MaxVorticity: 1}, {Time: 1, MaxVorticity: 0.5}}
	svg, err := RunSVG(rec)
	require.NoError(t, err)
	require.Contains(t, svg, "<path")

	omega := dynamo.NewField(4, 4)
	rec.Snapshots = []dynamo.Snapshot{{Omega: omega}}
	svg, err = RunSVG(rec)
	require.NoError(t, err)
	require.Equal(t, 17, strings.Count(svg, "<rect"))
}
