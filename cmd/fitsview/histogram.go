package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fitsview/pkg/render"
)

func newHistogramCommand(opts *globalOptions) *cobra.Command {
	var (
		output string
		unit   int
		bins   int
		width  int
		height int
		vmin   float64
		vmax   float64
	)

	cmd := &cobra.Command{
		Use:   "histogram <file>",
		Short: "Plot the histogram of a data unit with the display range marked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("bins") {
				cfg.Histogram.Bins = bins
			}
			if f.Changed("width") {
				cfg.Histogram.Width = width
			}
			if f.Changed("height") {
				cfg.Histogram.Height = height
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			s, err := openSession(cfg, args[0], unit)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(s.Histogram()) == 0 {
				return fmt.Errorf("unit %d has no finite samples to plot", s.Unit())
			}

			lo, hi := s.DisplayState().Vmin, s.DisplayState().Vmax
			if f.Changed("vmin") {
				lo = vmin
			}
			if f.Changed("vmax") {
				hi = vmax
			}
			if err := s.SetRange(lo, hi); err != nil {
				return err
			}

			plot, err := render.NewHistogramPlot(s.Histogram(), cfg.Histogram.Width, cfg.Histogram.Height)
			if err != nil {
				return err
			}
			m := s.Markers()
			out := render.WithFormat(output, cfg.Render.Format)
			if err := render.Save(plot.WithMarkers(m.Vmin, m.Vmax), out, cfg.Render.JPEGQuality); err != nil {
				return err
			}

			lower, upper := s.Histogram().Range()
			fmt.Fprintf(cmd.OutOrStdout(), "%d bins over %.6g .. %.6g, %d samples\n",
				len(s.Histogram()), lower, upper, s.Histogram().Total())
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", out)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&output, "output", "o", "histogram", "Output image")
	fl.IntVarP(&unit, "unit", "u", -1, "Data unit index (default: first unit with data)")
	fl.IntVar(&bins, "bins", 0, "Number of bins (default from config)")
	fl.IntVar(&width, "width", 0, "Plot width in pixels (default from config)")
	fl.IntVar(&height, "height", 0, "Plot height in pixels (default from config)")
	fl.Float64Var(&vmin, "vmin", 0, "Lower marker (default: auto-scaled)")
	fl.Float64Var(&vmax, "vmax", 0, "Upper marker (default: auto-scaled)")
	return cmd
}
