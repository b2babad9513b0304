package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/bundle"
	"github.com/gogpu/bundle/compute"
)

const envPrefix = "BUNDLE"

// newRootCmd builds the command tree around a fresh viper instance, so
// every invocation sees only its own flags and environment.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "bundle",
		Short:        "Edge-bundle 3D polyline tracks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return setDefaultSlog(cmd, v)
		},
	}
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(newRunCmd(v), newBackendsCmd())
	return root
}

// setDefaultSlog installs a text handler on stderr at the configured level
// and routes the engine's logs through it.
func setDefaultSlog(cmd *cobra.Command, v *viper.Viper) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	bundle.SetLogger(logger)
	return nil
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List registered compute backends in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range compute.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
