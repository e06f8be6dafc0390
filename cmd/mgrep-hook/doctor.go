package main

import (
	"context"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/mgrep-hook/pkg/binaries"
	"github.com/jingkaihe/mgrep-hook/pkg/config"
	"github.com/jingkaihe/mgrep-hook/pkg/mgrep"
	"github.com/jingkaihe/mgrep-hook/pkg/presenter"
)

var errNotReady = errors.New("mgrep-hook would skip every Grep call")

func newDoctorCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check whether the hook can run mgrep",
		Long: `Report the effective configuration, whether the mgrep token file exists and
which mgrep invocation would be used. Exits non-zero when the hook would skip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cfgErr := loadConfig(cmd)
			p := presenter.NewWithOptions(cmd.OutOrStdout(), cmd.ErrOrStderr(), presenter.DetectColorMode())
			p.SetQuiet(quiet)
			return runDoctor(cmd.Context(), p, cfg, cfgErr, binaries.NewResolver(cfg.Bin, cfg.PluginRoot))
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only report failures; the exit status tells the result")
	return cmd
}

func runDoctor(ctx context.Context, p presenter.Presenter, cfg config.Config, cfgErr error, resolver *binaries.Resolver) error {
	ready := true

	p.Section("Configuration")
	p.Field("log file", cfg.LogFile)
	p.Field("log level", cfg.LogLevel)
	p.Field("max results", strconv.Itoa(cfg.MaxResults))
	p.Field("timeout", cfg.Timeout.String())
	p.Field("store", cfg.Store)
	if cfgErr != nil {
		p.Warning(cfgErr.Error())
	}
	if cfg.Disabled {
		p.Warning(config.EnvVar(config.KeyDisable) + " is set; the hook is disabled")
		ready = false
	}
	p.Separator()

	p.Section("Credentials")
	p.Field("token file", cfg.TokenFile)
	if _, err := os.Stat(cfg.TokenFile); err != nil || cfg.TokenFile == "" {
		p.Warning("token file not found; run `mgrep login`")
		ready = false
	} else {
		p.Success("token file found")
	}
	p.Separator()

	p.Section("Binary")
	inv, err := resolver.Resolve(ctx)
	if err != nil {
		p.Warning(err.Error())
		p.Info("Install mgrep on PATH, or point " + config.EnvVar(config.KeyBin) + " at it.")
		ready = false
	} else {
		p.Field("source", string(inv.Source))
		p.Field("command", mgrep.Command{Args: inv.Prefix}.String())
		p.Success("mgrep resolved")
	}

	if !ready {
		return errNotReady
	}
	return nil
}
