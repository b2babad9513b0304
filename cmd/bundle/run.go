package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/bundle"
	"github.com/gogpu/bundle/preview"
	"github.com/gogpu/bundle/trackio"
)

var errNoTracks = errors.New("no tracks found")

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bundle the tracks of a directory",
		Long: `Run loads every file of --input as one track, resamples and clusters
the tracks, runs the bundling simulation and writes one CSV per bundled
track to --output.

Parameters come from --config (a JSON tuning file) over the built-in
defaults; --backend, --seed and --estimate override the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBundle(cmd, v)
		},
	}

	cmd.Flags().AddFlagSet(runFlags())
	return cmd
}

// runFlags declares the run flags. Each one is also read from the
// environment as BUNDLE_<NAME>.
func runFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("input", "", "Directory of track files (required)")
	flags.String("output", "", "Directory for bundled track CSVs (required)")
	flags.String("preview", "", "Write a PNG preview of the result to this path")
	flags.String("config", "", "JSON tuning file")
	flags.String("backend", "", "Compute backend (software, wgpu); empty picks the first available")
	flags.Uint64("seed", 0, "Seed for reproducible clustering")
	flags.Bool("estimate", false, "Derive radius and cluster count from the input extent")
	return flags
}

func runBundle(cmd *cobra.Command, v *viper.Viper) error {
	input, output := v.GetString("input"), v.GetString("output")
	if input == "" || output == "" {
		return errors.New("--input and --output are required")
	}

	cfg := bundle.EmptyTuningConfig()
	if path := v.GetString("config"); path != "" {
		var err error
		if cfg, err = bundle.LoadTuningConfig(path); err != nil {
			return err
		}
	}
	opts := cfg.Options()
	if name := v.GetString("backend"); name != "" {
		opts = append(opts, bundle.WithBackendName(name))
	}
	if v.IsSet("seed") {
		opts = append(opts, bundle.WithSeed(v.GetUint64("seed")))
	}
	if v.GetBool("estimate") {
		opts = append(opts, bundle.WithEstimatedParams())
	}

	tracks, err := trackio.LoadDir(input)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%s: %w", input, errNoTracks)
	}

	start := time.Now()
	eb, err := bundle.New(tracks, opts...)
	if err != nil {
		return err
	}
	if err := eb.Bundle(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	res := eb.Result()
	bundled := res.BundledTracks()
	if err := trackio.WriteDir(output, bundled); err != nil {
		return err
	}

	points := 0
	for _, t := range bundled {
		points += t.Len()
	}
	p := message.NewPrinter(language.English)
	summary := p.Sprintf("%d tracks, %d points, %d clusters", res.Len(), points, eb.Assignment().Clusters())

	if path := v.GetString("preview"); path != "" {
		o := preview.DefaultOptions()
		o.Clusters = res.TrackClusters()
		o.Ghost = res.OriginalTracks()
		o.Caption = summary
		img, err := preview.Render(bundled, o)
		if err != nil {
			return err
		}
		if err := preview.SavePNG(path, img); err != nil {
			return err
		}
	}

	p.Fprintf(cmd.OutOrStdout(), "bundled %s in %v\n", summary, elapsed.Round(time.Millisecond))
	return nil
}
