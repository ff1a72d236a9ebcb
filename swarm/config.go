package swarm

import (
	"fmt"
	"math"

	"github.com/MichaelDuPlessis/velocity-evolver"
	"github.com/MichaelDuPlessis/velocity-evolver/mesh"
)

// Config holds the optional swarm settings shared by every run of an
// experiment.  The zero value flies in continuous space with each speed
// limit equal to its bound's width.
type Config struct {
	// Vmax is one speed limit applied to every dimension.  It takes
	// precedence over VmaxScale.
	Vmax float64 `yaml:"vmax"`
	// VmaxScale limits each dimension's speed to this fraction of its
	// bound's width.
	VmaxScale float64 `yaml:"vmax_scale"`
	// GridStep snaps particle positions to a grid with this spacing.
	GridStep float64 `yaml:"grid_step"`
	// GridRotation rotates the grid's first two axes, in radians.
	GridRotation float64 `yaml:"grid_rotation"`
}

func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"vmax":          c.Vmax,
		"vmax_scale":    c.VmaxScale,
		"grid_step":     c.GridStep,
		"grid_rotation": c.GridRotation,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("swarm %v must be finite, got %v", name, v)
		}
		if v < 0 && name != "grid_rotation" {
			return fmt.Errorf("swarm %v must not be negative, got %v", name, v)
		}
	}
	return nil
}

// Options translates c into iterator options for a run over bounds.  Each
// call builds a fresh grid, so the result must not be shared between runs.
func (c Config) Options(bounds []optim.Bound) []Option {
	var opts []Option
	switch {
	case c.Vmax > 0:
		opts = append(opts, VmaxAll(c.Vmax))
	case c.VmaxScale > 0:
		vmax := vmaxfrombounds(bounds)
		for i := range vmax {
			vmax[i] *= c.VmaxScale
		}
		opts = append(opts, Vmax(vmax))
	}
	if c.GridStep > 0 {
		grid := &mesh.Infinite{Step: c.GridStep}
		if c.GridRotation != 0 {
			grid.Basis = mesh.Rotation(len(bounds), c.GridRotation)
		}
		opts = append(opts, Mesh(grid))
	}
	return opts
}
