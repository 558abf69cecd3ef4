package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fitsview/pkg/display"
	"fitsview/pkg/source"
)

func newInfoCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "List the data units of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := source.OpenFITS(path)
			if err != nil {
				return err
			}
			defer src.Close()

			out := cmd.OutOrStdout()
			if fi, err := os.Stat(path); err == nil {
				fmt.Fprintf(out, "File: %s\n", fi.Name())
				fmt.Fprintf(out, "Size: %.2f MB\n", float64(fi.Size())/(1024*1024))
			}
			units := src.Units()
			fmt.Fprintf(out, "Units: %d\n\n", len(units))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tNAME\tKIND\tSHAPE\tTYPE")
			for _, u := range units {
				shape, dtype := "-", "-"
				if u.HasData() {
					shape = fmt.Sprint(u.Shape)
					dtype = u.DType.String()
				}
				name := u.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.Index, name, u.Kind, shape, dtype)
			}
			return tw.Flush()
		},
	}
}

func newHeaderCommand(opts *globalOptions) *cobra.Command {
	var unit int

	cmd := &cobra.Command{
		Use:   "header <file>",
		Short: "Print the header of a data unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.OpenFITS(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			text, err := src.MetadataText(unit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().IntVarP(&unit, "unit", "u", 0, "Data unit index")
	return cmd
}

func newStatsCommand(opts *globalOptions) *cobra.Command {
	var unit int

	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Print statistics and the auto-scaled range of a data unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			s, err := openSession(cfg, args[0], unit)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			switch res := s.Result().(type) {
			case display.HeaderOnly:
				fmt.Fprintf(out, "Unit %d has no data\n", res.Unit.Index)
				return nil
			case display.Described:
				fmt.Fprintln(out, res.Summary.Summary)
				return nil
			}

			st, err := s.Stats()
			if err != nil {
				return err
			}
			fmt.Fprint(out, st)

			clipped, err := s.AutoScale()
			if err != nil {
				return err
			}
			ds := s.DisplayState()
			fmt.Fprintf(out, "Display range: %.6g to %.6g (%.1f%% of pixels clipped)\n",
				ds.Vmin, ds.Vmax, clipped*100)
			return nil
		},
	}
	cmd.Flags().IntVarP(&unit, "unit", "u", -1, "Data unit index (default: first unit with data)")
	return cmd
}
