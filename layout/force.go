package layout

import (
	"math"

	"archboard/diagram"
)

// Force simulation constants. Tuned for spacing in the same coordinate range
// the other algorithms produce (~200 units between neighbors).
const (
	forceRepulsion  = 60000.0 // inverse-square repulsion between every pair
	forceSpring     = 0.01    // attraction per unit distance along edges
	forceCenterPull = 0.001   // weak pull toward the global center
	forceDamping    = 0.85    // velocity damping per step
	forceMaxStep    = 60.0    // velocity clamp, keeps early steps stable
)

// ForceLayout runs a fixed-step force-directed simulation: inverse-square
// repulsion between all pairs, spring attraction along edges, and a weak pull
// toward a global center. The iteration count is the termination condition;
// there is no convergence detection and no randomness.
type ForceLayout struct {
	opts Options
}

// NewForceLayout creates a force-directed layout with the given options.
func NewForceLayout(opts Options) *ForceLayout {
	return &ForceLayout{opts: opts.withDefaults()}
}

// Name returns the name of this layout algorithm.
func (f *ForceLayout) Name() string {
	return string(Force)
}

// Layout runs the simulation and returns the settled positions. Given the
// same input positions and iteration count the output is identical.
func (f *ForceLayout) Layout(nodes []diagram.Node, edges []diagram.Edge) ([]diagram.Node, error) {
	result := diagram.CloneNodes(nodes)
	if len(result) < 2 {
		return result, nil
	}

	usable := validEdges(nodes, edges)

	pos := make([]diagram.Point, len(result))
	vel := make([]diagram.Point, len(result))
	for i, n := range result {
		pos[i] = n.Position
		if !pos[i].Finite() {
			pos[i] = diagram.Point{}
		}
	}
	separateCoincident(pos)

	index := make(map[string]int, len(result))
	for i, n := range result {
		index[n.ID] = i
	}

	center := f.opts.Center
	if center == (diagram.Point{}) {
		center = centroid(pos)
	}

	force := make([]diagram.Point, len(result))
	for step := 0; step < f.opts.Iterations; step++ {
		for i := range force {
			force[i] = diagram.Point{}
		}

		// Pairwise repulsion.
		for i := range pos {
			for j := range pos {
				if i == j {
					continue
				}
				dx := pos[i].X - pos[j].X
				dy := pos[i].Y - pos[j].Y
				distSq := dx*dx + dy*dy
				if distSq < 1 {
					distSq = 1
				}
				dist := math.Sqrt(distSq)
				push := forceRepulsion / distSq
				force[i].X += dx / dist * push
				force[i].Y += dy / dist * push
			}
		}

		// Spring attraction along edges, proportional to distance.
		for _, e := range usable {
			a, b := index[e.Source], index[e.Target]
			dx := pos[b].X - pos[a].X
			dy := pos[b].Y - pos[a].Y
			force[a].X += dx * forceSpring
			force[a].Y += dy * forceSpring
			force[b].X -= dx * forceSpring
			force[b].Y -= dy * forceSpring
		}

		// Weak centering.
		for i := range pos {
			force[i].X += (center.X - pos[i].X) * forceCenterPull
			force[i].Y += (center.Y - pos[i].Y) * forceCenterPull
		}

		// Integrate with damping; no convergence check, the step count is
		// the termination condition.
		for i := range pos {
			vel[i].X = (vel[i].X + force[i].X) * forceDamping
			vel[i].Y = (vel[i].Y + force[i].Y) * forceDamping
			if speed := math.Hypot(vel[i].X, vel[i].Y); speed > forceMaxStep {
				scale := forceMaxStep / speed
				vel[i].X *= scale
				vel[i].Y *= scale
			}
			pos[i].X += vel[i].X
			pos[i].Y += vel[i].Y
		}
	}

	for i := range result {
		result[i].Position = pos[i]
	}
	return result, nil
}

// separateCoincident nudges nodes sharing an exact position apart by an
// index-derived offset so repulsion has a direction to act along. The nudge
// is a function of slice order only, keeping the simulation deterministic.
func separateCoincident(pos []diagram.Point) {
	seen := make(map[diagram.Point]int)
	for i, p := range pos {
		count := seen[p]
		seen[p] = count + 1
		if count > 0 {
			pos[i].X += float64(count) * 7
			pos[i].Y += float64(count) * 3
		}
	}
}

func centroid(pos []diagram.Point) diagram.Point {
	var c diagram.Point
	for _, p := range pos {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(pos))
	c.Y /= float64(len(pos))
	return c
}
