package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kubev2v/asset-launcher/internal/catalog"
	"github.com/kubev2v/asset-launcher/internal/config"
	"github.com/kubev2v/asset-launcher/pkg/launcher"
)

type rootOptions struct {
	configFile string
	service    string
	asset      string
	assetsRoot string
	bootstrap  string
	logLevel   string
	workers    int

	env     *viper.Viper
	created []*launcher.Helper
}

func newRootOptions() *rootOptions {
	return &rootOptions{env: viper.New()}
}

// execute runs the command line, reporting a failure on stderr. The helpers created
// by the command are closed on every path.
func execute(ctx context.Context, opts *rootOptions, args []string, stdout, stderr io.Writer) error {
	defer func() {
		opts.close()
		_ = zap.L().Sync()
	}()

	root := newRootCommand(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return err
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "asset-launcher",
		Short:         "Bring integration test assets up and down",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(opts.logLevel)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "assets.yaml", "Assets file")
	flags.StringVar(&opts.service, "service", "", "Service under test, instead of the assets file")
	flags.StringVar(&opts.asset, "asset", "", "Asset name, instead of the assets file")
	flags.StringVar(&opts.assetsRoot, "assets-root", "", "Directory holding the compose files of --asset")
	flags.StringVar(&opts.bootstrap, "bootstrap", "", "Bootstrap service of --asset (default sync)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level")
	flags.IntVar(&opts.workers, "workers", 4, "Assets handled concurrently")
	bindEnvironmentFlags(flags, opts.env)

	root.AddCommand(
		newUpCommand(opts),
		newDownCommand(opts),
		newPortCommand(opts),
		newExecCommand(opts),
		newLogsCommand(opts),
		newStatusCommand(opts),
		newAuthMockCommand(),
	)
	return root
}

// bindEnvironmentFlags exposes the ASSET_TEST_* switches as flags. Flags win over
// the environment.
func bindEnvironmentFlags(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("no-pull", false, "Do not pull images before launching")
	flags.Bool("keep-containers", false, "Do not remove containers on teardown")
	flags.Bool("logs", false, "Dump container logs on teardown")
	flags.String("logs-dir", "", "Directory of the log dumps")
	flags.String("engine", config.EngineCLI, "Container engine backend: cli or api")

	for key, flag := range map[string]string{
		"no_pull":         "no-pull",
		"keep_containers": "keep-containers",
		"logs_enabled":    "logs",
		"logs_dir":        "logs-dir",
		"engine":          "engine",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

func setupLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// assets resolves the assets named on the command line.
func (o *rootOptions) assets(names []string) ([]launcher.Asset, error) {
	if o.asset != "" || o.service != "" {
		if len(names) > 0 {
			return nil, fmt.Errorf("asset names cannot be combined with --service/--asset")
		}
		return []launcher.Asset{{Service: o.service, Name: o.asset, Root: o.assetsRoot, Bootstrap: o.bootstrap}}, nil
	}

	path, err := filepath.Abs(o.configFile)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no assets file %s, use --config or --service/--asset: %w", path, err)
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	return c.Resolve(names...)
}

// singleAsset resolves one asset, named by the first argument unless given by flags.
func (o *rootOptions) singleAsset(args []string) (launcher.Asset, []string, error) {
	var names []string
	if o.asset == "" && o.service == "" {
		if len(args) == 0 {
			return launcher.Asset{}, nil, fmt.Errorf("asset name required")
		}
		names, args = args[:1], args[1:]
	}
	assets, err := o.assets(names)
	if err != nil {
		return launcher.Asset{}, nil, err
	}
	return assets[0], args, nil
}

func (o *rootOptions) helpers(assets []launcher.Asset) ([]*launcher.Helper, error) {
	env, err := config.LoadEnvironmentFrom(o.env)
	if err != nil {
		return nil, err
	}
	zap.S().Named("cli").Debugw("environment", "env", env.DebugMap())

	helpers := make([]*launcher.Helper, 0, len(assets))
	for _, a := range assets {
		h, err := launcher.New(a, launcher.WithEnvironment(env))
		if err != nil {
			return nil, err
		}
		helpers = append(helpers, h)
	}
	o.created = append(o.created, helpers...)
	return helpers, nil
}

func (o *rootOptions) close() {
	for _, h := range o.created {
		if err := h.Close(); err != nil {
			zap.S().Named("cli").Debugw("failed to close helper", "project", h.Project().Name(), "error", err)
		}
	}
	o.created = nil
}

func (o *rootOptions) helper(args []string) (*launcher.Helper, []string, error) {
	a, rest, err := o.singleAsset(args)
	if err != nil {
		return nil, nil, err
	}
	helpers, err := o.helpers([]launcher.Asset{a})
	if err != nil {
		return nil, nil, err
	}
	return helpers[0], rest, nil
}
