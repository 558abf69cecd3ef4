// Command fitsview inspects and renders the data units of FITS files.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"fitsview/internal/models"
	"fitsview/pkg/config"
	"fitsview/pkg/display"
	"fitsview/pkg/source"
)

// options shared by every command
type globalOptions struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("fitsview: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "fitsview",
		Short:         "Inspect and render FITS images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "fitsview.yaml", "Configuration file (defaults are used if it does not exist)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log session activity to stderr")

	root.AddCommand(
		newInfoCommand(opts),
		newHeaderCommand(opts),
		newStatsCommand(opts),
		newRenderCommand(opts),
		newHistogramCommand(opts),
		newInitCommand(opts),
	)
	return root
}

// loadConfig reads the configuration named by --config.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// openSession opens path and selects unit. A negative unit selects the
// first unit that holds samples.
func openSession(cfg *config.Config, path string, unit int) (*display.Session, error) {
	logger := log.New(io.Discard, "", 0)
	if cfg.Output.Verbose {
		logger = log.New(os.Stderr, "fitsview: ", log.LstdFlags)
	}

	src, err := source.OpenFITS(path)
	if err != nil {
		return nil, err
	}

	s := display.NewSession(cfg, display.WithLogger(logger))
	if err := s.Open(src); err != nil {
		src.Close()
		return nil, err
	}

	if unit < 0 {
		unit = firstDataUnit(src.Units())
	}
	if unit != s.Unit() {
		if _, err := s.SelectUnit(unit); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func firstDataUnit(units []models.UnitInfo) int {
	for _, u := range units {
		if u.Kind == models.Image {
			return u.Index
		}
	}
	return 0
}

func newInitCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(opts.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", opts.configPath)
			return nil
		},
	}
}
