package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xphoton/xphoton/lib/pipeline"
)

var (
	spectrumOut   string
	spectrumEmin  float64
	spectrumEmax  float64
	spectrumNbins int
)

// spectrumCmd extracts a spectrum from an event list
var spectrumCmd = &cobra.Command{
	Use:   "spectrum [events]",
	Short: "Extract a count-rate spectrum from an event list",
	Long: `Bins the observed energies of a .xev event list into equal-width
channels and writes a two-column text table of channel midpoint (keV) and
count rate (counts/s).

Example:
  xphoton spectrum run1_events.xev --out run1_spec.dat --emin 0.5 --emax 7`,
	Args: cobra.ExactArgs(1),
	RunE: runSpectrum,
}

func init() {
	f := spectrumCmd.Flags()
	f.StringVar(&spectrumOut, "out", "spectrum.dat", "output table file")
	f.Float64Var(&spectrumEmin, "emin", 0.5, "lower band edge in keV")
	f.Float64Var(&spectrumEmax, "emax", 7.0, "upper band edge in keV")
	f.IntVar(&spectrumNbins, "nbins", 100, "number of spectral channels")
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	e, err := pipeline.LoadEvents(args[0])
	if err != nil {
		return err
	}
	err = e.WriteSpectrum(spectrumOut, spectrumEmin, spectrumEmax,
		spectrumNbins)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote a %d-channel spectrum of %d events to %s.\n",
		spectrumNbins, e.Len(), spectrumOut)
	return nil
}
