package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xphoton/xphoton/lib/pipeline"
)

var (
	imageOut  string
	imageEmin float64
	imageEmax float64
	imageFov  float64
	imageNpix int
)

// imageCmd bins an event list into a counts image
var imageCmd = &cobra.Command{
	Use:   "image [events]",
	Short: "Bin an event list into a counts image",
	Long: `Bins the events of a .xev event list in an energy band onto a
square pixel grid centered on the event list's sky center, and writes the
counts as a text grid, one Dec row per line.

Example:
  xphoton image run1_events.xev --out run1_img.dat --fov 0.5 --npix 256`,
	Args: cobra.ExactArgs(1),
	RunE: runImage,
}

func init() {
	f := imageCmd.Flags()
	f.StringVar(&imageOut, "out", "image.dat", "output grid file")
	f.Float64Var(&imageEmin, "emin", 0.5, "lower band edge in keV")
	f.Float64Var(&imageEmax, "emax", 7.0, "upper band edge in keV")
	f.Float64Var(&imageFov, "fov", 1.0, "field of view in degrees")
	f.IntVar(&imageNpix, "npix", 256, "pixels per side")
}

func runImage(cmd *cobra.Command, args []string) error {
	e, err := pipeline.LoadEvents(args[0])
	if err != nil {
		return err
	}
	err = e.WriteImage(imageOut, imageEmin, imageEmax, imageFov, imageNpix)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote a %dx%d image of %d events to %s.\n",
		imageNpix, imageNpix, e.Len(), imageOut)
	return nil
}
