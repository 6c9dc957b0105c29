package pipeline

/* photons.go contains the photon-generation step: select a spatial region
and particle filter, evaluate the fields the source model needs, run the
model, and persist the resulting photon sample. */

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xphoton/xphoton/lib/dataset"
	"github.com/xphoton/xphoton/lib/region"
	"github.com/xphoton/xphoton/lib/source"
	"github.com/xphoton/xphoton/lib/xlog"
)

// SampleExt is the file extension of photon-sample files.
const SampleExt = ".xph"

// SampleRequest parameterizes one photon-generation run.
type SampleRequest struct {
	// Name is the output name; the sample is written to Name + SampleExt.
	Name string
	// Region selects the spatial subset of the dataset.
	Region region.Region
	// FilterName optionally names a registered particle filter (e.g.
	// "hot_gas") applied on top of the region. Empty means no filter.
	FilterName string
	// Redshift places the source; it need not match the dataset's own
	// redshift (a snapshot can be observed "from" any distance).
	Redshift float64
	// Area is the collecting area in cm**2 and Exposure the exposure time
	// in s.
	Area, Exposure float64
	// Params parameterizes the source model.
	Params source.Params
}

// Sample is a photon sample in memory: the positions and velocities of the
// cells/particles that emitted, the per-cell photon counts, and the
// concatenated rest-frame photon energies.
type Sample struct {
	Name  string
	RunID string

	Redshift, Area, Exposure float64

	// Position is in Mpc, Velocity in cm/s. Both have one entry per
	// emitting cell.
	Position, Velocity [][3]float64
	// NumPhotons has one entry per emitting cell; Energies holds
	// sum(NumPhotons) rest-frame energies in keV, cell by cell.
	NumPhotons []uint32
	Energies   []float64
}

// TotalPhotons returns the number of photons in the sample.
func (s *Sample) TotalPhotons() int { return len(s.Energies) }

// Cells returns the number of emitting cells/particles in the sample.
func (s *Sample) Cells() int { return len(s.Position) }

// MakePhotons runs the photon-generation step and writes the sample to
// req.Name + SampleExt. It returns the photon and emitting-cell counts. A
// nil logger disables logging.
func MakePhotons(
	ds *dataset.Dataset, req *SampleRequest, model SourceModel,
	log *zap.Logger,
) (photons, cells int, err error) {
	if log == nil {
		log = xlog.Nop()
	}
	if req.Region == nil {
		return 0, 0, fmt.Errorf("The photon-generation request '%s' has no "+
			"region.", req.Name)
	}
	if req.Params == nil {
		return 0, 0, fmt.Errorf("The photon-generation request '%s' has no "+
			"source model parameters.", req.Name)
	}
	if err := req.Params.Validate(); err != nil {
		return 0, 0, err
	}

	norm, err := SpectralNorm(req.Area, req.Exposure, req.Redshift)
	if err != nil {
		return 0, 0, err
	}

	ev := ds.Evaluator()
	mask, err := region.Mask(req.Region, ev, "gas")
	if err != nil {
		return 0, 0, err
	}

	if req.FilterName != "" {
		filt, err := ds.Filters().Get(req.FilterName)
		if err != nil {
			return 0, 0, err
		}
		fMask, err := filt.Mask(ev)
		if err != nil {
			return 0, 0, err
		}
		for i := range mask {
			mask[i] = mask[i] && fMask[i]
		}
	}

	idx := []int{}
	for i := range mask {
		if mask[i] {
			idx = append(idx, i)
		}
	}
	log.Info("selected source population",
		zap.String("name", req.Name),
		zap.String("region", req.Region.String()),
		zap.String("filter", req.FilterName),
		zap.Int("selected", len(idx)),
		zap.Int("total", ds.Count()),
	)

	sub := ev.Select(idx)

	if err := model.Setup(ds, req.Redshift, norm); err != nil {
		return 0, 0, err
	}
	out, err := model.Sample(sub)
	if err != nil {
		return 0, 0, err
	}
	if err := out.Check(sub.Count()); err != nil {
		return 0, 0, err
	}

	x, err := sub.Vecs("gas", "position")
	if err != nil {
		return 0, 0, err
	}
	v, err := sub.Vecs("gas", "velocity")
	if err != nil {
		return 0, 0, err
	}

	// Keep only the cells that actually emitted.
	s := &Sample{
		Name:     req.Name,
		RunID:    uuid.NewString(),
		Redshift: req.Redshift,
		Area:     req.Area,
		Exposure: req.Exposure,
		Energies: out.Energies,
	}
	for i := range out.NumPhotons {
		if out.NumPhotons[i] == 0 {
			continue
		}
		s.Position = append(s.Position, x[i])
		s.Velocity = append(s.Velocity, v[i])
		s.NumPhotons = append(s.NumPhotons, uint32(out.NumPhotons[i]))
	}

	if err := WriteSample(req.Name+SampleExt, s); err != nil {
		return 0, 0, err
	}
	log.Info("wrote photon sample",
		zap.String("file", req.Name+SampleExt),
		zap.String("run_id", s.RunID),
		zap.Int("photons", s.TotalPhotons()),
		zap.Int("cells", s.Cells()),
	)
	return s.TotalPhotons(), s.Cells(), nil
}

// WriteSample writes a photon sample to fname.
func WriteSample(fname string, s *Sample) error {
	hd := &fileHeader{
		N:        int64(s.Cells()),
		Redshift: s.Redshift,
		Area:     s.Area,
		Exposure: s.Exposure,
	}
	names := []string{"position", "velocity", "num_photons", "energy"}
	datas := []interface{}{s.Position, s.Velocity, s.NumPhotons, s.Energies}
	blocks := make([]block, len(names))
	for i := range names {
		b, err := blockOf(names[i], datas[i])
		if err != nil {
			return err
		}
		blocks[i] = b
	}
	return writeBlockFile(fname, hd, s.Name, s.RunID, blocks)
}

// LoadSample reads a photon sample written by WriteSample.
func LoadSample(fname string) (*Sample, error) {
	hd, name, runID, blocks, err := readBlockFile(fname)
	if err != nil {
		return nil, err
	}

	s := &Sample{
		Name:     name,
		RunID:    runID,
		Redshift: hd.Redshift,
		Area:     hd.Area,
		Exposure: hd.Exposure,
	}
	var ok bool
	if s.Position, ok = blocks["position"].([][3]float64); !ok {
		return nil, badSampleBlock(fname, "position")
	}
	if s.Velocity, ok = blocks["velocity"].([][3]float64); !ok {
		return nil, badSampleBlock(fname, "velocity")
	}
	if s.NumPhotons, ok = blocks["num_photons"].([]uint32); !ok {
		return nil, badSampleBlock(fname, "num_photons")
	}
	if s.Energies, ok = blocks["energy"].([]float64); !ok {
		return nil, badSampleBlock(fname, "energy")
	}

	total := 0
	for i := range s.NumPhotons {
		total += int(s.NumPhotons[i])
	}
	if total != len(s.Energies) {
		return nil, fmt.Errorf("The sample file %s is inconsistent: its "+
			"photon counts sum to %d, but it stores %d energies.",
			fname, total, len(s.Energies))
	}
	return s, nil
}

func badSampleBlock(fname, name string) error {
	return fmt.Errorf("The file %s is not a photon sample: the block "+
		"'%s' is missing or has the wrong type.", fname, name)
}
