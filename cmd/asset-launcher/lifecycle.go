package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kubev2v/asset-launcher/pkg/launcher"
	"github.com/kubev2v/asset-launcher/pkg/scheduler"
	"github.com/kubev2v/asset-launcher/pkg/wait"
)

func newUpCommand(opts *rootOptions) *cobra.Command {
	var (
		waitPorts   []int
		waitTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "up [asset...]",
		Short: "Launch assets, all of the assets file by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := opts.assets(args)
			if err != nil {
				return err
			}
			helpers, err := opts.helpers(assets)
			if err != nil {
				return err
			}

			var strategy wait.Strategy = wait.NoWait{}
			if len(waitPorts) > 0 {
				strategy = wait.PortsReady{Ports: waitPorts, Timeout: waitTimeout}
			}

			return forEach(cmd, opts.workers, helpers, "up", func(ctx context.Context, h *launcher.Helper) error {
				if err := h.Launch(ctx); err != nil {
					return err
				}
				return strategy.Wait(ctx, h)
			})
		},
	}
	cmd.Flags().IntSliceVar(&waitPorts, "wait-port", nil, "Internal ports of the service under test to wait for")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 60*time.Second, "How long to wait for ports")
	return cmd
}

func newDownCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "down [asset...]",
		Short: "Tear assets down, all of the assets file by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := opts.assets(args)
			if err != nil {
				return err
			}
			helpers, err := opts.helpers(assets)
			if err != nil {
				return err
			}
			return forEach(cmd, opts.workers, helpers, "down", func(ctx context.Context, h *launcher.Helper) error {
				return h.Stop(ctx)
			})
		},
	}
}

// forEach runs fn for every helper on a bounded pool and reports one line per asset.
func forEach(cmd *cobra.Command, workers int, helpers []*launcher.Helper, verb string, fn func(context.Context, *launcher.Helper) error) error {
	s := scheduler.New[*launcher.Helper](workers)
	defer s.Close()

	futures := make([]*scheduler.Future[*launcher.Helper], 0, len(helpers))
	for _, h := range helpers {
		futures = append(futures, s.Submit(h.Project().Name(), func(ctx context.Context) (*launcher.Helper, error) {
			return h, fn(ctx, h)
		}))
	}

	var errs []error
	out := cmd.OutOrStdout()
	for _, r := range scheduler.AwaitAll(cmd.Context(), futures...) {
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", color.RedString("✗"), r.Name, r.Err)
			errs = append(errs, fmt.Errorf("%s %s: %w", verb, r.Name, r.Err))
			continue
		}
		fmt.Fprintf(out, "%s %s %s\n", color.GreenString("✓"), r.Name, verb)
	}
	return errors.Join(errs...)
}
