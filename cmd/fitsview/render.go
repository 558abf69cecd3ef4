package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"fitsview/pkg/config"
	"fitsview/pkg/display"
	"fitsview/pkg/render"
	"fitsview/pkg/scaling"
)

// watchDebounce is how long the input must stay quiet before re-rendering.
const watchDebounce = 200 * time.Millisecond

type renderOptions struct {
	output    string
	unit      int
	mode      string
	colorMap  string
	invert    bool
	vmin      float64
	vmax      float64
	low       float64
	high      float64
	rotate    int
	flipH     bool
	flipV     bool
	grayscale bool
	slice     []int
	allSlices bool
	zoom      int
	watch     bool
}

func newRenderCommand(opts *globalOptions) *cobra.Command {
	ro := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a data unit to an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := ro.applyConfig(cmd, cfg); err != nil {
				return err
			}

			path := args[0]
			if ro.output == "" {
				ro.output = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			ro.output = render.WithFormat(ro.output, cfg.Render.Format)

			run := func() error {
				written, err := ro.render(cmd, cfg, path)
				if err != nil {
					return err
				}
				for _, w := range written {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", w)
				}
				return nil
			}

			if err := run(); err != nil {
				return err
			}
			if !ro.watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watch(ctx, path, cmd.OutOrStdout(), cmd.ErrOrStderr(), func() {
				if err := run(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Render failed: %v\n", err)
				}
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ro.output, "output", "o", "", "Output image (.png, .jpg, .tif, .bmp, .gif)")
	f.IntVarP(&ro.unit, "unit", "u", -1, "Data unit index (default: first unit with data)")
	f.StringVarP(&ro.mode, "mode", "m", "", "Scaling mode: linear, log, sqrt, asinh")
	f.StringVarP(&ro.colorMap, "cmap", "c", "", "Color map name, append _r to reverse")
	f.BoolVar(&ro.invert, "invert", false, "Reverse the color map")
	f.Float64Var(&ro.vmin, "vmin", 0, "Lower display bound (default: auto-scaled)")
	f.Float64Var(&ro.vmax, "vmax", 0, "Upper display bound (default: auto-scaled)")
	f.Float64Var(&ro.low, "low", 0, "Lower auto-scale percentile")
	f.Float64Var(&ro.high, "high", 0, "Upper auto-scale percentile")
	f.IntVarP(&ro.rotate, "rotate", "r", 0, "Rotation angle in degrees (-360 to 360)")
	f.BoolVar(&ro.flipH, "flip-h", false, "Flip horizontally")
	f.BoolVar(&ro.flipV, "flip-v", false, "Flip vertically")
	f.BoolVar(&ro.grayscale, "grayscale", false, "Convert RGB images to luminosity")
	f.IntSliceVar(&ro.slice, "slice", nil, "Plane indices along the leading axes of a cube")
	f.BoolVar(&ro.allSlices, "all-slices", false, "Write every plane along the first axis of a cube")
	f.IntVar(&ro.zoom, "zoom", 1, "Integer enlargement factor")
	f.BoolVarP(&ro.watch, "watch", "w", false, "Re-render whenever the input file changes")

	return cmd
}

// applyConfig merges explicit flags into cfg and validates the result.
func (ro *renderOptions) applyConfig(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Display.ScalingMode = ro.mode
	}
	if f.Changed("cmap") {
		cfg.Display.ColorMap = ro.colorMap
	}
	if f.Changed("invert") {
		cfg.Display.Invert = ro.invert
	}
	if f.Changed("low") {
		cfg.AutoScale.PercentileLow = ro.low
	}
	if f.Changed("high") {
		cfg.AutoScale.PercentileHigh = ro.high
	}
	if ro.rotate < -360 || ro.rotate > 360 {
		return fmt.Errorf("rotation angle must be between -360 and 360, got %d", ro.rotate)
	}
	if ro.zoom < 1 {
		return fmt.Errorf("zoom must be at least 1, got %d", ro.zoom)
	}
	return cfg.Validate()
}

// render opens the file fresh, applies every option in order and writes
// the output. It returns the paths written.
func (ro *renderOptions) render(cmd *cobra.Command, cfg *config.Config, path string) ([]string, error) {
	s, err := openSession(cfg, path, ro.unit)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	switch res := s.Result().(type) {
	case display.HeaderOnly:
		return nil, fmt.Errorf("unit %d has no data to render", res.Unit.Index)
	case display.Described:
		return nil, fmt.Errorf("unit %d is not an image:\n%s", res.Unit.Index, res.Summary.Summary)
	}

	if ro.grayscale {
		if err := s.ToGrayscale(); err != nil {
			return nil, err
		}
	}
	if ro.slice != nil {
		if err := s.SetSlice(ro.slice); err != nil {
			return nil, err
		}
	}
	if ro.rotate != 0 {
		if err := s.Rotate(ro.rotate); err != nil {
			return nil, err
		}
	}
	if ro.flipH {
		if err := s.FlipHorizontal(); err != nil {
			return nil, err
		}
	}
	if ro.flipV {
		if err := s.FlipVertical(); err != nil {
			return nil, err
		}
	}

	if err := s.SetScalingMode(scaling.Mode(cfg.Display.ScalingMode)); err != nil {
		return nil, err
	}

	if ro.allSlices {
		axes := s.SliceAxes()
		if axes == nil {
			return nil, fmt.Errorf("unit %d is not a cube", s.Unit())
		}
		return ro.renderSequence(cmd, s, axes, cfg)
	}

	if err := ro.calibrate(cmd, s); err != nil {
		return nil, err
	}
	img, err := ro.image(s)
	if err != nil {
		return nil, err
	}
	if err := render.Save(img, ro.output, cfg.Render.JPEGQuality); err != nil {
		return nil, err
	}
	return []string{ro.output}, nil
}

// renderSequence writes one image per plane along the first leading axis.
// Remaining leading axes stay at the selected or middle index.
func (ro *renderOptions) renderSequence(cmd *cobra.Command, s *display.Session, axes []int, cfg *config.Config) ([]string, error) {
	indices := make([]int, len(axes))
	for i, n := range axes {
		indices[i] = n / 2
		if i < len(ro.slice) {
			indices[i] = ro.slice[i]
		}
	}

	images := make([]image.Image, 0, axes[0])
	for p := 0; p < axes[0]; p++ {
		indices[0] = p
		if err := s.SetSlice(indices); err != nil {
			return nil, err
		}
		if err := ro.calibrate(cmd, s); err != nil {
			return nil, err
		}
		img, err := ro.image(s)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	ext := filepath.Ext(ro.output)
	dir := strings.TrimSuffix(ro.output, ext)
	return render.SaveSequence(images, dir, "slice", strings.TrimPrefix(ext, "."), cfg.Render.JPEGQuality)
}

// calibrate sets the display range from the flags, auto-scaling the
// bounds that were not given.
func (ro *renderOptions) calibrate(cmd *cobra.Command, s *display.Session) error {
	clipped, err := s.AutoScale()
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if !f.Changed("vmin") && !f.Changed("vmax") {
		ds := s.DisplayState()
		fmt.Fprintf(cmd.OutOrStdout(), "Auto-scaled to %.6g .. %.6g (%.1f%% of pixels clipped)\n",
			ds.Vmin, ds.Vmax, clipped*100)
		return nil
	}

	vmin, vmax := s.DisplayState().Vmin, s.DisplayState().Vmax
	if f.Changed("vmin") {
		vmin = ro.vmin
	}
	if f.Changed("vmax") {
		vmax = ro.vmax
	}
	return s.SetRange(vmin, vmax)
}

func (ro *renderOptions) image(s *display.Session) (image.Image, error) {
	frame, err := s.Frame()
	if err != nil {
		return nil, err
	}
	img, err := render.Image(frame)
	if err != nil {
		return nil, err
	}
	return render.Scale(img, ro.zoom), nil
}

// watch calls fn after path is written or replaced, until ctx is done.
// Events are debounced so a file written in several chunks renders once.
// Status goes to stdout and watcher errors to stderr.
func watch(ctx context.Context, path string, stdout, stderr io.Writer, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are noticed
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Watching %s for changes (Ctrl+C to stop)\n", path)

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				debounce.Reset(watchDebounce)
			}

		case <-debounce.C:
			fn()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "Watch error: %v\n", err)
		}
	}
}
