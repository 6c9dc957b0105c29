package pipeline

/* project.go contains the projection step: turn a 3D photon sample into a
flat-sky event list along a chosen line of sight, applying the cosmological
and Doppler energy shifts and, optionally, foreground absorption. */

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/xphoton/xphoton/lib/units"
	"github.com/xphoton/xphoton/lib/xlog"
)

// EventExt is the file extension of event-list files.
const EventExt = ".xev"

// ProjectRequest parameterizes one projection run.
type ProjectRequest struct {
	// Name is the output name; the event list is written to Name + EventExt.
	Name string
	// Axis is the line of sight, pointing from the source toward the
	// observer. It doesn't need to be normalized.
	Axis [3]float64
	// North optionally orients the sky plane; the zero vector picks a
	// default perpendicular to Axis.
	North [3]float64
	// Sky is the (RA, Dec) center of the projected events in degrees.
	Sky [2]float64
	// NH is the foreground neutral hydrogen column in 10^22 cm**-2, and
	// Absorb the model that applies it. NH = 0 or a nil Absorb skips
	// absorption.
	NH     float64
	Absorb AbsorptionModel
}

// Axis returns the unit line-of-sight vector for one of the named coordinate
// axes, "x", "y", or "z".
func Axis(name string) ([3]float64, error) {
	switch name {
	case "x":
		return [3]float64{1, 0, 0}, nil
	case "y":
		return [3]float64{0, 1, 0}, nil
	case "z":
		return [3]float64{0, 0, 1}, nil
	}
	return [3]float64{}, fmt.Errorf("The axis '%s' isn't recognized. The "+
		"named axes are 'x', 'y', and 'z'; anything else needs an explicit "+
		"vector.", name)
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(a [3]float64) ([3]float64, bool) {
	norm := math.Sqrt(dot(a, a))
	if norm == 0 {
		return a, false
	}
	return [3]float64{a[0] / norm, a[1] / norm, a[2] / norm}, true
}

// skyBasis returns the unit line-of-sight vector and the east and north unit
// vectors spanning the sky plane.
func skyBasis(axis, north [3]float64) (n, east, up [3]float64, err error) {
	n, ok := normalize(axis)
	if !ok {
		return n, east, up, fmt.Errorf("The line-of-sight axis can't be " +
			"the zero vector.")
	}

	if north == ([3]float64{}) {
		// Default to "z is up" unless looking along z.
		north = [3]float64{0, 0, 1}
		if math.Abs(n[2]) > 0.999 {
			north = [3]float64{0, 1, 0}
		}
	}
	// Remove the line-of-sight component so up spans the sky plane.
	d := dot(north, n)
	up = [3]float64{north[0] - d*n[0], north[1] - d*n[1], north[2] - d*n[2]}
	if up, ok = normalize(up); !ok {
		return n, east, up, fmt.Errorf("The north vector can't be parallel " +
			"to the line of sight.")
	}
	east = cross(up, n)
	return n, east, up, nil
}

// ProjectPhotons projects a photon sample onto the sky plane and writes the
// event list to req.Name + EventExt, returning the surviving event count.
//
// Each cell's photons land at the same (RA, Dec): the cell's offset from the
// sample's centroid, divided by the angular-diameter distance. Energies pick
// up the first-order Doppler shift from the cell's line-of-sight velocity and
// the cosmological 1/(1+z) factor. A nil logger disables logging.
func ProjectPhotons(
	s *Sample, req *ProjectRequest, log *zap.Logger,
) (events int, err error) {
	if log == nil {
		log = xlog.Nop()
	}
	n, east, up, err := skyBasis(req.Axis, req.North)
	if err != nil {
		return 0, err
	}
	dL, err := LuminosityDistance(s.Redshift)
	if err != nil {
		return 0, err
	}
	dA := dL / ((1 + s.Redshift) * (1 + s.Redshift))

	total := 0
	for i := range s.NumPhotons {
		total += int(s.NumPhotons[i])
	}
	if total != len(s.Energies) || len(s.Position) != len(s.NumPhotons) ||
		len(s.Velocity) != len(s.NumPhotons) {
		return 0, fmt.Errorf("The sample '%s' is inconsistent: %d cells, %d "+
			"velocities, photon counts summing to %d, and %d energies.",
			s.Name, len(s.Position), len(s.Velocity), total, len(s.Energies))
	}

	center := [3]float64{}
	for i := range s.Position {
		for k := 0; k < 3; k++ {
			center[k] += s.Position[i][k]
		}
	}
	if len(s.Position) > 0 {
		for k := 0; k < 3; k++ {
			center[k] /= float64(len(s.Position))
		}
	}

	e := &EventList{
		Name:     req.Name,
		RunID:    s.RunID,
		Redshift: s.Redshift,
		Area:     s.Area,
		Exposure: s.Exposure,
		Sky:      req.Sky,
	}
	degPerRad := 180 / math.Pi
	j := 0
	for i := range s.Position {
		dx := [3]float64{
			s.Position[i][0] - center[0],
			s.Position[i][1] - center[1],
			s.Position[i][2] - center[2],
		}
		// RA runs east, so an eastward offset decreases it.
		ra := req.Sky[0] - dot(dx, east)*units.MpcCm/dA*degPerRad
		dec := req.Sky[1] + dot(dx, up)*units.MpcCm/dA*degPerRad

		// Cells moving toward the observer blueshift their photons.
		shift := (1 + dot(s.Velocity[i], n)/units.CLight) / (1 + s.Redshift)
		for k := 0; k < int(s.NumPhotons[i]); k++ {
			e.RA = append(e.RA, ra)
			e.Dec = append(e.Dec, dec)
			e.Energy = append(e.Energy, s.Energies[j]*shift)
			j++
		}
	}
	if req.Absorb != nil && req.NH > 0 {
		keep := req.Absorb.Transmit(e.Energy, req.NH)
		if len(keep) != len(e.Energy) {
			return 0, fmt.Errorf("The absorption model '%s' returned %d "+
				"flags for %d photons.", req.Absorb.Name(), len(keep),
				len(e.Energy))
		}
		nKept := 0
		for i := range keep {
			if keep[i] {
				e.RA[nKept] = e.RA[i]
				e.Dec[nKept] = e.Dec[i]
				e.Energy[nKept] = e.Energy[i]
				nKept++
			}
		}
		log.Info("applied foreground absorption",
			zap.String("model", req.Absorb.Name()),
			zap.Float64("n_H", req.NH),
			zap.Int("absorbed", len(keep)-nKept),
		)
		e.RA, e.Dec, e.Energy = e.RA[:nKept], e.Dec[:nKept], e.Energy[:nKept]
	}

	if err := WriteEvents(req.Name+EventExt, e); err != nil {
		return 0, err
	}
	log.Info("wrote event list",
		zap.String("file", req.Name+EventExt),
		zap.String("run_id", e.RunID),
		zap.Int("events", e.Len()),
	)
	return e.Len(), nil
}
