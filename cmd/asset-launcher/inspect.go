package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kubev2v/asset-launcher/pkg/launcher"
)

type serviceFlags struct {
	service    string
	privileged bool
	since      string
}

func (f serviceFlags) options() []launcher.CallOption {
	var opts []launcher.CallOption
	if f.service != "" {
		opts = append(opts, launcher.Service(f.service))
	}
	if f.privileged {
		opts = append(opts, launcher.Privileged())
	}
	if f.since != "" {
		opts = append(opts, launcher.Since(f.since))
	}
	return opts
}

func newPortCommand(opts *rootOptions) *cobra.Command {
	var sf serviceFlags
	cmd := &cobra.Command{
		Use:   "port [asset] <internal-port>",
		Short: "Print the host port published for an internal port",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, rest, err := opts.helper(args)
			if err != nil {
				return err
			}
			if len(rest) != 1 {
				return fmt.Errorf("expected one internal port, got %d arguments", len(rest))
			}
			internal, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", rest[0], err)
			}

			port, err := h.ServicePort(cmd.Context(), internal, sf.options()...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), port)
			return nil
		},
	}
	cmd.Flags().StringVar(&sf.service, "target", "", "Service to inspect instead of the service under test")
	return cmd
}

func newExecCommand(opts *rootOptions) *cobra.Command {
	var sf serviceFlags
	cmd := &cobra.Command{
		Use:   "exec [asset] -- <command>...",
		Short: "Run a command in a service container",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash < 0 || dash == len(args) {
				return fmt.Errorf("command required after --")
			}
			h, _, err := opts.helper(args[:dash])
			if err != nil {
				return err
			}

			result, err := h.ExecOrFail(cmd.Context(), args[dash:], sf.options()...)
			cmd.OutOrStdout().Write(result.Stdout)
			cmd.ErrOrStderr().Write(result.Stderr)
			return err
		},
	}
	cmd.Flags().StringVar(&sf.service, "target", "", "Service to run the command in")
	cmd.Flags().BoolVar(&sf.privileged, "privileged", false, "Run the command privileged")
	return cmd
}

func newLogsCommand(opts *rootOptions) *cobra.Command {
	var sf serviceFlags
	cmd := &cobra.Command{
		Use:   "logs [asset]",
		Short: "Print the logs of every container, or of one service",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _, err := opts.helper(args)
			if err != nil {
				return err
			}

			if sf.service == "" {
				logs, err := h.LogContainers(cmd.Context())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(logs)
				return err
			}

			logs, err := h.ServiceLogs(cmd.Context(), sf.options()...)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), logs)
			return nil
		},
	}
	cmd.Flags().StringVar(&sf.service, "target", "", "Only print the logs of this service")
	cmd.Flags().StringVar(&sf.since, "since", "", "Only print logs newer than a timestamp or duration, with --target")
	return cmd
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var sf serviceFlags
	cmd := &cobra.Command{
		Use:   "status [asset]",
		Short: "Print the state and published ports of a service container",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _, err := opts.helper(args)
			if err != nil {
				return err
			}

			info, err := h.ServiceStatus(cmd.Context(), sf.options()...)
			if err != nil {
				return err
			}

			state := color.GreenString(info.State.Status)
			switch {
			case info.State.Paused:
				state = color.YellowString(info.State.Status)
			case !info.State.Running:
				state = color.RedString("%s (exit %d)", info.State.Status, info.State.ExitCode)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint(strings.TrimPrefix(info.Name, "/")), state)
			fmt.Fprintf(out, "  image: %s\n", info.Image)
			for internal, bindings := range info.Ports {
				for _, b := range bindings {
					fmt.Fprintf(out, "  %s -> %s:%s\n", internal, b.HostIP, b.HostPort)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sf.service, "target", "", "Service to inspect instead of the service under test")
	return cmd
}
