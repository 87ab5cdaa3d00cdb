package physics

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"strings"

	"github.com/mjibson/go-dsp/fft"
)

// Kind names an initial vorticity profile.
type Kind string

const (
	StretchedGaussian  Kind = "stretched_gaussian"
	LambOseen          Kind = "lamb_oseen"
	Rankine            Kind = "rankine"
	LambDipole         Kind = "lamb_dipole"
	TaylorGreen        Kind = "taylor_green"
	Turbulence         Kind = "turbulence"
	EllipticalGaussian Kind = "elliptical_gaussian"
	Gaussian           Kind = "gaussian"
	VortexPair         Kind = "vortex_pair"
	MultiGaussian      Kind = "multi_gaussian"
)

// first zero of J1
const besselJ1Zero = 3.8317059702075125

var defaultCoeffs = map[Kind][]float64{
	StretchedGaussian:  {1, 1, 0.5, 0},
	LambOseen:          {1, 1},
	Rankine:            {1, 1},
	LambDipole:         {1, 1},
	TaylorGreen:        {1, 1},
	Turbulence:         {1, 4},
	EllipticalGaussian: {1, 1.5, 0.75},
	Gaussian:           {1, 1},
	VortexPair:         {1, 0.5, 2},
	MultiGaussian:      {1, 0.5},
}

var kindAliases = map[string]Kind{
	"stretched":          StretchedGaussian,
	"stretchedgaussian":  StretchedGaussian,
	"lamboseen":          LambOseen,
	"oseen":              LambOseen,
	"rankine":            Rankine,
	"lambdipole":         LambDipole,
	"dipole":             LambDipole,
	"chaplygin":          LambDipole,
	"taylorgreen":        TaylorGreen,
	"tg":                 TaylorGreen,
	"turbulence":         Turbulence,
	"random":             Turbulence,
	"elliptical":         EllipticalGaussian,
	"ellipticalgaussian": EllipticalGaussian,
	"ellipticalvortex":   EllipticalGaussian,
	"gaussian":           Gaussian,
	"single":             Gaussian,
	"gaussianblob":       Gaussian,
	"vortexpair":         VortexPair,
	"pair":               VortexPair,
	"multigaussian":      MultiGaussian,
	"multi":              MultiGaussian,
	"multivortex":        MultiGaussian,
}

// Kinds lists the catalog in a stable order.
func Kinds() []Kind {
	return []Kind{
		StretchedGaussian, LambOseen, Rankine, LambDipole, TaylorGreen,
		Turbulence, EllipticalGaussian, Gaussian, VortexPair, MultiGaussian,
	}
}

func normalizeName(s string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "", "–", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// ParseKind resolves a profile name case-insensitively ("Lamb-Oseen",
// "lamb_oseen" and "lamb oseen" are the same kind).
func ParseKind(name string) (Kind, error) {
	if k, ok := kindAliases[normalizeName(name)]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown initial condition %q", name)
}

// DefaultCoeffs returns a copy of the default coefficient vector of k.
func DefaultCoeffs(k Kind) []float64 {
	return append([]float64(nil), defaultCoeffs[k]...)
}

// ICSpec selects an initial condition and its coefficients.
type ICSpec struct {
	Kind     Kind      `yaml:"kind" json:"kind"`
	Coeffs   []float64 `yaml:"coeffs,omitempty" json:"coeffs,omitempty"`
	Vortices int       `yaml:"vortices,omitempty" json:"vortices,omitempty"`
	Pattern  Pattern   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Seed     int64     `yaml:"seed,omitempty" json:"seed,omitempty"`
}

func (s ICSpec) Validate() error {
	if _, ok := defaultCoeffs[s.Kind]; !ok {
		return fmt.Errorf("unknown initial condition %q", s.Kind)
	}
	if len(s.Coeffs) > len(defaultCoeffs[s.Kind]) {
		return fmt.Errorf("%s takes at most %d coefficients, got %d", s.Kind, len(defaultCoeffs[s.Kind]), len(s.Coeffs))
	}
	for i, c := range s.Coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%s coefficient %d is not finite", s.Kind, i)
		}
	}
	if s.Vortices < 0 {
		return fmt.Errorf("vortex count must be non-negative, got %d", s.Vortices)
	}
	if s.Pattern != "" {
		if _, err := ParsePattern(string(s.Pattern)); err != nil {
			return err
		}
	}
	return nil
}

// Coeff returns coefficient i, falling back to the kind's default.
func (s ICSpec) Coeff(i int) float64 {
	if i < len(s.Coeffs) {
		return s.Coeffs[i]
	}
	if d := defaultCoeffs[s.Kind]; i < len(d) {
		return d[i]
	}
	return 0
}

func (s ICSpec) Clone() ICSpec {
	out := s
	out.Coeffs = append([]float64(nil), s.Coeffs...)
	return out
}

// WithCoeff returns a copy with coefficient i set, padding with defaults.
func (s ICSpec) WithCoeff(i int, v float64) ICSpec {
	out := s.Clone()
	for len(out.Coeffs) <= i {
		out.Coeffs = append(out.Coeffs, s.Coeff(len(out.Coeffs)))
	}
	out.Coeffs[i] = v
	return out
}

// Evaluate samples the profile on the grid spanned by x (columns) and y
// (rows), domain lx×ly centred on the origin. The result is row-major with
// len(y) rows of len(x) values.
func Evaluate(spec ICSpec, x, y []float64, lx, ly float64) ([]float64, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	nx, ny := len(x), len(y)
	out := make([]float64, nx*ny)

	switch spec.Kind {
	case TaylorGreen:
		taylorGreen(spec, x, y, lx, ly, out)
		return out, nil
	case Turbulence:
		turbulence(spec, nx, ny, out)
		return out, nil
	case VortexPair:
		g, sigma, d := spec.Coeff(0), spec.Coeff(1), spec.Coeff(2)
		pair := []blob{{x0: -d / 2, gamma: g}, {x0: d / 2, gamma: -g}}
		for _, b := range pair {
			accumulate(out, x, y, lx, ly, b.x0, b.y0, func(dx, dy float64) float64 {
				return b.gamma * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			})
		}
		return out, nil
	}

	profile := singleProfile(spec)
	n := spec.Vortices
	pattern := spec.Pattern
	if spec.Kind == MultiGaussian && n <= 1 {
		n = 4
	}
	if pattern == "" {
		pattern = PatternSingle
		if n > 1 {
			pattern = PatternGrid
		}
	}
	rng := rand.New(rand.NewSource(spec.Seed))
	positions := Disperse(n, pattern, lx, ly, 0, rng)
	scale := 1.0
	if len(positions) > 1 {
		scale = 1 / float64(len(positions))
	}
	for _, p := range positions {
		accumulate(out, x, y, lx, ly, p.X, p.Y, func(dx, dy float64) float64 {
			return scale * profile(dx, dy)
		})
	}
	return out, nil
}

type blob struct {
	x0, y0, gamma float64
}

func singleProfile(spec ICSpec) func(dx, dy float64) float64 {
	switch spec.Kind {
	case LambOseen:
		gamma, rc := spec.Coeff(0), spec.Coeff(1)
		peak := gamma / (math.Pi * rc * rc)
		return func(dx, dy float64) float64 {
			return peak * math.Exp(-(dx*dx+dy*dy)/(rc*rc))
		}
	case Rankine:
		gamma, radius := spec.Coeff(0), spec.Coeff(1)
		core := gamma / (math.Pi * radius * radius)
		return func(dx, dy float64) float64 {
			if dx*dx+dy*dy <= radius*radius {
				return core
			}
			return 0
		}
	case LambDipole:
		u, a := spec.Coeff(0), spec.Coeff(1)
		k := besselJ1Zero / a
		denom := math.J0(k * a)
		return func(dx, dy float64) float64 {
			r := math.Hypot(dx, dy)
			if r >= a || r == 0 {
				return 0
			}
			return -2 * u * k * math.J1(k*r) / denom * (dy / r)
		}
	case StretchedGaussian:
		g, a, b, theta := spec.Coeff(0), spec.Coeff(1), spec.Coeff(2), spec.Coeff(3)
		sin, cos := math.Sincos(theta)
		return func(dx, dy float64) float64 {
			xr := dx*cos + dy*sin
			yr := -dx*sin + dy*cos
			return g * math.Exp(-(xr*xr/(a*a) + yr*yr/(b*b)))
		}
	case EllipticalGaussian:
		g, a, b := spec.Coeff(0), spec.Coeff(1), spec.Coeff(2)
		return func(dx, dy float64) float64 {
			return g * math.Exp(-(dx*dx/(a*a) + dy*dy/(b*b)))
		}
	default:
		g, sigma := spec.Coeff(0), spec.Coeff(1)
		return func(dx, dy float64) float64 {
			return g * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
		}
	}
}

// accumulate adds f evaluated at the minimum-image offset from (x0, y0).
func accumulate(out, x, y []float64, lx, ly, x0, y0 float64, f func(dx, dy float64) float64) {
	nx := len(x)
	for j, yj := range y {
		dy := wrap(yj-y0, ly)
		row := out[j*nx : (j+1)*nx]
		for i, xi := range x {
			row[i] += f(wrap(xi-x0, lx), dy)
		}
	}
}

func wrap(d, l float64) float64 {
	return d - l*math.Round(d/l)
}

func taylorGreen(spec ICSpec, x, y []float64, lx, ly float64, out []float64) {
	amp, mode := spec.Coeff(0), spec.Coeff(1)
	harmonics := spec.Vortices
	if harmonics < 1 {
		harmonics = 1
	}
	nx := len(x)
	for h := 1; h <= harmonics; h++ {
		kx := 2 * math.Pi * mode * float64(h) / lx
		ky := 2 * math.Pi * mode * float64(h) / ly
		a := amp * (kx*kx + ky*ky) / float64(h*h)
		for j, yj := range y {
			sy := math.Sin(ky * (yj + ly/2))
			for i, xi := range x {
				out[j*nx+i] += a * math.Sin(kx*(xi+lx/2)) * sy
			}
		}
	}
}

// turbulence synthesizes a random multi-scale field from a band-limited
// spectrum peaked at wavenumber index kPeak, normalized to max |ω| = amp.
func turbulence(spec ICSpec, nx, ny int, out []float64) {
	amp, kPeak := spec.Coeff(0), spec.Coeff(1)
	if kPeak <= 0 {
		kPeak = 1
	}
	rng := rand.New(rand.NewSource(spec.Seed))

	spectrum := make([][]complex128, ny)
	for j := range spectrum {
		spectrum[j] = make([]complex128, nx)
		l := float64(signedIndex(j, ny))
		for i := range spectrum[j] {
			k := float64(signedIndex(i, nx))
			kappa := math.Hypot(k, l)
			if kappa == 0 {
				continue
			}
			mag := kappa * math.Exp(-(kappa/kPeak)*(kappa/kPeak))
			spectrum[j][i] = cmplx.Rect(mag, 2*math.Pi*rng.Float64())
		}
	}

	field := fft.IFFT2(spectrum)
	peak := 0.0
	for j := range field {
		for i := range field[j] {
			v := real(field[j][i])
			out[j*nx+i] = v
			peak = math.Max(peak, math.Abs(v))
		}
	}
	if peak == 0 {
		return
	}
	for i := range out {
		out[i] *= amp / peak
	}
}

// signedIndex maps an FFT bin to its signed frequency.
func signedIndex(i, n int) int {
	if i > n/2 {
		return i - n
	}
	return i
}
