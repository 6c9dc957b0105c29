package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xphoton/xphoton/lib/pipeline"
)

var (
	projectOut  string
	projectAxis string
	projectRA   float64
	projectDec  float64
)

// projectCmd projects a photon sample onto the sky
var projectCmd = &cobra.Command{
	Use:   "project [sample]",
	Short: "Project a photon sample onto the sky plane",
	Long: `Projects a .xph photon sample along a line of sight and writes the
resulting .xev event list.

Projection flattens each particle's photons onto a single sky position,
applies the particle's line-of-sight Doppler shift, and redshifts every
energy by 1/(1+z).

Examples:
  xphoton project run1.xph --out run1_events
  xphoton project run1.xph --out run1_events --axis x --ra 30 --dec 45`,
	Args: cobra.ExactArgs(1),
	RunE: runProject,
}

func init() {
	f := projectCmd.Flags()
	f.StringVar(&projectOut, "out", "events",
		"output name; the events are written to <out>"+pipeline.EventExt)
	f.StringVar(&projectAxis, "axis", "z", "line-of-sight axis: x, y, or z")
	f.Float64Var(&projectRA, "ra", 30.0, "sky-center RA in degrees")
	f.Float64Var(&projectDec, "dec", 45.0, "sky-center Dec in degrees")
}

func runProject(cmd *cobra.Command, args []string) error {
	s, err := pipeline.LoadSample(args[0])
	if err != nil {
		return err
	}

	axis, err := pipeline.Axis(projectAxis)
	if err != nil {
		return err
	}
	req := &pipeline.ProjectRequest{
		Name: projectOut,
		Axis: axis,
		Sky:  [2]float64{projectRA, projectDec},
	}

	events, err := pipeline.ProjectPhotons(s, req, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d events to %s.\n", events,
		projectOut+pipeline.EventExt)
	return nil
}
