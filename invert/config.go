package invert

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/gridsolve/krylov"
	"gonum.org/v1/gonum/floats"
)

// Defaults applied by Session.Setup for zero-valued Config fields.
const (
	DefaultMethod        = "gmres"
	DefaultRelTol        = 1e-8
	DefaultMaxIterations = 10000
	DefaultRestart       = 30
)

// minRelTol is the backend's machine epsilon floor for tolerances.
const minRelTol = 1.0 / (1 << 53)

// Config tunes a solver session. The zero value selects the defaults noted
// on each field, so Config{} is a working configuration.
type Config struct {
	// Method picks the backend solver: "gmres", "cg" or "bicgstab".
	// "cg" requires a symmetric positive definite operator. If empty,
	// DefaultMethod is used.
	Method string

	// RelTol is the relative residual tolerance the solve must reach. If
	// zero, DefaultRelTol is used.
	RelTol float64

	// MaxIterations caps the backend iterations; exceeding the cap fails
	// the solve. If zero, DefaultMaxIterations is used.
	MaxIterations int

	// Restart is the gmres restart length. It may exceed the system
	// size; the iteration then stops when the Krylov space saturates.
	// On a distributed grid it must be the same on every rank. If zero,
	// DefaultRestart is used.
	Restart int

	// Dot is the global inner product for distributed grids, see
	// grid.Dot for the bridge from a communicator. If nil, the serial
	// dot product is used and the session is single-process.
	Dot func(x, y []float64) float64

	// MaxAll reduces a local maximum to the global maximum across the
	// ranks sharing the grid, used by Verify. A communicator's MaxAll
	// method value fits directly. If nil, the local value stands.
	MaxAll func(v float64) float64

	// Metrics receives this session's timings. If nil, DefaultMetrics is
	// used.
	Metrics *Metrics
}

func (cfg Config) withDefaults() Config {
	if cfg.Method == "" {
		cfg.Method = DefaultMethod
	}
	if cfg.RelTol == 0 {
		cfg.RelTol = DefaultRelTol
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Restart == 0 {
		cfg.Restart = DefaultRestart
	}
	if cfg.Dot == nil {
		cfg.Dot = floats.Dot
	}
	if cfg.MaxAll == nil {
		cfg.MaxAll = func(v float64) float64 { return v }
	}
	if cfg.Metrics == nil {
		cfg.Metrics = DefaultMetrics
	}
	return cfg
}

// validate runs after withDefaults, so zero values are already resolved.
func (cfg Config) validate() error {
	if _, ok := methods[cfg.Method]; !ok {
		return fmt.Errorf("invert: unknown method %q, have %s",
			cfg.Method, strings.Join(MethodNames(), ", "))
	}
	if cfg.RelTol < minRelTol || cfg.RelTol >= 1 {
		return fmt.Errorf("invert: relative tolerance %g outside [%g, 1)", cfg.RelTol, minRelTol)
	}
	if cfg.MaxIterations < 1 {
		return fmt.Errorf("invert: iteration cap %d not positive", cfg.MaxIterations)
	}
	if cfg.Restart < 1 {
		return fmt.Errorf("invert: gmres restart %d not positive", cfg.Restart)
	}
	return nil
}

// methods maps configuration names to backend constructors. Restart is
// passed through untouched so that every rank of a distributed session
// builds the same inner iteration.
var methods = map[string]func(cfg Config) krylov.Method{
	"cg": func(Config) krylov.Method {
		return &krylov.CG{}
	},
	"bicgstab": func(Config) krylov.Method {
		return &krylov.BiCGSTAB{}
	},
	"gmres": func(cfg Config) krylov.Method {
		return &krylov.GMRES{Restart: cfg.Restart}
	},
}

// MethodNames lists the configurable backend methods, sorted.
func MethodNames() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigFromOptions builds a Config from a flat option set, consuming only
// the keys carrying the given prefix so that independent sessions can read
// disjoint namespaces out of one map. With prefix "invert_" the recognized
// keys are invert_method, invert_rtol, invert_maxits and invert_restart;
// unset keys keep their zero-value defaults. Unknown prefixed keys and
// malformed values are errors. Method names are validated later, at Setup.
func ConfigFromOptions(prefix string, opts map[string]string) (Config, error) {
	var cfg Config
	for key, val := range opts {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		var err error
		switch strings.TrimPrefix(key, prefix) {
		case "method":
			cfg.Method = val
		case "rtol":
			cfg.RelTol, err = strconv.ParseFloat(val, 64)
		case "maxits":
			cfg.MaxIterations, err = strconv.Atoi(val)
		case "restart":
			cfg.Restart, err = strconv.Atoi(val)
		default:
			return Config{}, fmt.Errorf("invert: unknown option %q", key)
		}
		if err != nil {
			return Config{}, fmt.Errorf("invert: option %q: %w", key, err)
		}
	}
	return cfg, nil
}
