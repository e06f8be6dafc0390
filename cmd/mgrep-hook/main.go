// Command mgrep-hook is a PreToolUse hook that answers Grep tool calls with
// mgrep semantic search results.
package main

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jingkaihe/mgrep-hook/pkg/config"
	"github.com/jingkaihe/mgrep-hook/pkg/hooks"
	"github.com/jingkaihe/mgrep-hook/pkg/logger"
	"github.com/jingkaihe/mgrep-hook/pkg/presenter"
)

const (
	flagConfig    = "config"
	flagLogFile   = "log-file"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

func newRootCmd(exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mgrep-hook",
		Short: "Replace Grep tool calls with mgrep semantic search",
		Long: `mgrep-hook is run by the host before every tool call. For Grep calls it runs
mgrep, writes a deny decision carrying the results to stderr and exits 2.
Any other call, or any failure, exits 0 without output so the original call proceeds.`,
		Args:               cobra.ArbitraryArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, _ []string) error {
			*exitCode = runHook(cmd, cmd.InOrStdin(), cmd.ErrOrStderr())
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagConfig, config.DefaultFilePath(), "Optional YAML config file")
	flags.String(flagLogFile, "", "Log file (overrides "+config.EnvVar(config.KeyLogFile)+")")
	flags.String(flagLogLevel, "", "Log level (overrides "+config.EnvVar(config.KeyLogLevel)+")")
	flags.String(flagLogFormat, "", "Log format, fmt or json (overrides "+config.EnvVar(config.KeyLogFormat)+")")

	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig builds the configuration. Changed flags win over the
// environment, which wins over the optional config file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v := config.NewViper()
	if err := bindChangedFlags(v, cmd.Flags(), map[string]string{
		config.KeyLogFile:   flagLogFile,
		config.KeyLogLevel:  flagLogLevel,
		config.KeyLogFormat: flagLogFormat,
	}); err != nil {
		return config.Default(), err
	}

	path, _ := cmd.Flags().GetString(flagConfig)
	fileErr := config.ReadFile(v, path)

	cfg, err := config.Load(v)
	if fileErr != nil {
		err = multierror.Append(fileErr, err).ErrorOrNil()
	}
	return cfg, err
}

// bindChangedFlags binds only flags given on the command line, so an unset
// flag never hides the environment.
func bindChangedFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "failed to bind --%s", name)
		}
	}
	return nil
}

// runHook handles one host invocation and returns the exit status. It must
// not write anything but the response to stderr.
func runHook(cmd *cobra.Command, stdin io.Reader, stderr io.Writer) int {
	cfg, cfgErr := loadConfig(cmd)

	levelErr := logger.Setup(cfg.LogFile, cfg.LogLevel, cfg.LogFormat)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, logger.G(ctx).WithField("invocation_id", uuid.NewString()))
	log := logger.G(ctx)

	if levelErr != nil {
		log.WithError(levelErr).Warn("invalid log level, using info")
	}
	if cfgErr != nil {
		log.WithError(cfgErr).Warn("configuration problems, using defaults")
	}

	shutdown := initTracing(ctx, cfg)
	defer shutdown()

	return hooks.NewHandler(cfg).Run(ctx, stdin, stderr)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	exitCode := hooks.ExitAllow
	root := newRootCmd(&exitCode)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		presenter.NewWithOptions(stdout, stderr, presenter.DetectColorMode()).Error(err, "")
		return 1
	}
	return exitCode
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
