package pipeline

/* events.go contains the event-list type and its post-processing: loading,
spectrum extraction, image binning, and the SIMPUT hand-off to external
instrument simulators. */

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
)

// EventList is a projected photon sample: one sky position and observed
// energy per event, plus the run parameters carried along from the sample.
type EventList struct {
	Name  string
	RunID string

	Redshift, Area, Exposure float64
	// Sky is the (RA, Dec) center in degrees.
	Sky [2]float64

	// RA and Dec are in degrees, Energy in keV (observer frame).
	RA, Dec, Energy []float64
}

// Len returns the number of events.
func (e *EventList) Len() int { return len(e.Energy) }

// WriteEvents writes an event list to fname.
func WriteEvents(fname string, e *EventList) error {
	if len(e.RA) != len(e.Energy) || len(e.Dec) != len(e.Energy) {
		return fmt.Errorf("The event list '%s' is misaligned: %d RAs, %d "+
			"Decs, and %d energies.", e.Name, len(e.RA), len(e.Dec),
			len(e.Energy))
	}
	hd := &fileHeader{
		N:        int64(e.Len()),
		Redshift: e.Redshift,
		Area:     e.Area,
		Exposure: e.Exposure,
		SkyRA:    e.Sky[0],
		SkyDec:   e.Sky[1],
	}
	names := []string{"ra", "dec", "energy"}
	datas := []interface{}{e.RA, e.Dec, e.Energy}
	blocks := make([]block, len(names))
	for i := range names {
		b, err := blockOf(names[i], datas[i])
		if err != nil {
			return err
		}
		blocks[i] = b
	}
	return writeBlockFile(fname, hd, e.Name, e.RunID, blocks)
}

// LoadEvents reads an event list written by WriteEvents.
func LoadEvents(fname string) (*EventList, error) {
	hd, name, runID, blocks, err := readBlockFile(fname)
	if err != nil {
		return nil, err
	}

	e := &EventList{
		Name:     name,
		RunID:    runID,
		Redshift: hd.Redshift,
		Area:     hd.Area,
		Exposure: hd.Exposure,
		Sky:      [2]float64{hd.SkyRA, hd.SkyDec},
	}
	var ok bool
	if e.RA, ok = blocks["ra"].([]float64); !ok {
		return nil, badEventBlock(fname, "ra")
	}
	if e.Dec, ok = blocks["dec"].([]float64); !ok {
		return nil, badEventBlock(fname, "dec")
	}
	if e.Energy, ok = blocks["energy"].([]float64); !ok {
		return nil, badEventBlock(fname, "energy")
	}
	if len(e.RA) != len(e.Energy) || len(e.Dec) != len(e.Energy) {
		return nil, fmt.Errorf("The event file %s is misaligned: %d RAs, "+
			"%d Decs, and %d energies.", fname, len(e.RA), len(e.Dec),
			len(e.Energy))
	}
	return e, nil
}

func badEventBlock(fname, name string) error {
	return fmt.Errorf("The file %s is not an event list: the block '%s' "+
		"is missing or has the wrong type.", fname, name)
}

// Spectrum bins the observed energies into nbins equal-width channels over
// [emin, emax) keV and returns the channel midpoints and the count rates in
// counts/s. Events outside the band are dropped.
func (e *EventList) Spectrum(
	emin, emax float64, nbins int,
) (energies, rates []float64, err error) {
	if emin <= 0 || emax <= emin {
		return nil, nil, fmt.Errorf("The spectral band (%g, %g) keV is "+
			"invalid: it needs 0 < emin < emax.", emin, emax)
	}
	if nbins < 1 {
		return nil, nil, fmt.Errorf("A spectrum needs at least one channel, "+
			"got %d.", nbins)
	}
	if e.Exposure <= 0 {
		return nil, nil, fmt.Errorf("The event list '%s' has a non-positive "+
			"exposure, %g s, so count rates are undefined.", e.Name, e.Exposure)
	}

	edges := floats.Span(make([]float64, nbins+1), emin, emax)
	counts := make([]float64, nbins)
	width := (emax - emin) / float64(nbins)
	for _, en := range e.Energy {
		if en < emin || en >= emax {
			continue
		}
		i := int((en - emin) / width)
		if i == nbins {
			i--
		}
		counts[i]++
	}

	energies = make([]float64, nbins)
	for i := range energies {
		energies[i] = (edges[i] + edges[i+1]) / 2
		counts[i] /= e.Exposure
	}
	return energies, counts, nil
}

// WriteSpectrum extracts a spectrum and writes it to fname as a two-column
// text table of channel midpoint (keV) and count rate (counts/s).
func (e *EventList) WriteSpectrum(
	fname string, emin, emax float64, nbins int,
) error {
	energies, rates, err := e.Spectrum(emin, emax, nbins)
	if err != nil {
		return err
	}
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer fp.Close()

	fmt.Fprintf(fp, "# energy(keV) rate(counts/s)\n")
	for i := range energies {
		fmt.Fprintf(fp, "%.6g %.6g\n", energies[i], rates[i])
	}
	return nil
}

// Image bins the events in the band [emin, emax) keV onto an npix x npix
// grid of counts covering fov degrees on a side, centered on the event
// list's sky center. Pixels run RA-major: pixel (i, j) is counts[i*npix+j],
// with i along Dec and j along RA.
func (e *EventList) Image(
	emin, emax, fov float64, npix int,
) (counts []float64, err error) {
	if emin <= 0 || emax <= emin {
		return nil, fmt.Errorf("The image band (%g, %g) keV is invalid: it "+
			"needs 0 < emin < emax.", emin, emax)
	}
	if fov <= 0 {
		return nil, fmt.Errorf("The field of view must be positive, got %g "+
			"degrees.", fov)
	}
	if npix < 1 {
		return nil, fmt.Errorf("An image needs at least one pixel on a "+
			"side, got %d.", npix)
	}

	counts = make([]float64, npix*npix)
	dPix := fov / float64(npix)
	ra0 := e.Sky[0] + fov/2
	dec0 := e.Sky[1] - fov/2
	for k := range e.Energy {
		if e.Energy[k] < emin || e.Energy[k] >= emax {
			continue
		}
		// RA increases leftward on the sky, so the pixel index runs against
		// it. Floor, not truncate: an offset in (-1, 0) pixels is outside
		// the field, not in column 0.
		j := int(math.Floor((ra0 - e.RA[k]) / dPix))
		i := int(math.Floor((e.Dec[k] - dec0) / dPix))
		if i < 0 || i >= npix || j < 0 || j >= npix {
			continue
		}
		counts[i*npix+j]++
	}
	return counts, nil
}

// WriteImage bins an image and writes it to fname as a text grid, one
// Dec row per line.
func (e *EventList) WriteImage(
	fname string, emin, emax, fov float64, npix int,
) error {
	counts, err := e.Image(emin, emax, fov, npix)
	if err != nil {
		return err
	}
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer fp.Close()

	fmt.Fprintf(fp, "# %d x %d counts image, %g deg field of view, "+
		"(%g, %g) keV\n", npix, npix, fov, emin, emax)
	for i := 0; i < npix; i++ {
		for j := 0; j < npix; j++ {
			if j > 0 {
				fmt.Fprintf(fp, " ")
			}
			fmt.Fprintf(fp, "%g", counts[i*npix+j])
		}
		fmt.Fprintf(fp, "\n")
	}
	return nil
}

// WriteSimput hands the event list to a SIMPUT serializer under the given
// file prefix. The serializer owns the encoding; this is the boundary
// external instrument simulators pick the events up from.
func (e *EventList) WriteSimput(w SimputWriter, prefix string) error {
	if w == nil {
		return fmt.Errorf("The event list '%s' can't be serialized: no "+
			"SIMPUT writer was supplied.", e.Name)
	}
	return w.WritePhotonList(prefix, e.Name, e)
}
