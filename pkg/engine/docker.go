package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/kubev2v/asset-launcher/pkg/runner"
)

// APIEngine talks to the docker daemon API for inspection and state changes.
// Exec, copy and logs still go through the command line client.
type APIEngine struct {
	*CLIEngine
	cli *client.Client
}

var _ Engine = &APIEngine{}

func NewAPIEngine(r runner.Runner, binary string) (*APIEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &APIEngine{
		CLIEngine: NewCLIEngine(r, binary),
		cli:       cli,
	}, nil
}

func (a *APIEngine) Inspect(ctx context.Context, id string) (*ContainerInfo, error) {
	c, err := a.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", id, err)
	}
	if c.ContainerJSONBase == nil {
		return nil, fmt.Errorf("empty inspect response for %s", id)
	}

	info := &ContainerInfo{
		ID:    c.ID,
		Name:  strings.TrimPrefix(c.Name, "/"),
		Ports: map[string][]PortBinding{},
	}
	if c.Config != nil {
		info.Image = c.Config.Image
	}
	if c.State != nil {
		info.State = ContainerState{
			Status:    c.State.Status,
			Running:   c.State.Running,
			Paused:    c.State.Paused,
			ExitCode:  c.State.ExitCode,
			StartedAt: c.State.StartedAt,
		}
	}
	if c.NetworkSettings != nil {
		for port, bindings := range c.NetworkSettings.Ports {
			for _, b := range bindings {
				info.Ports[string(port)] = append(info.Ports[string(port)], PortBinding{HostIP: b.HostIP, HostPort: b.HostPort})
			}
		}
	}
	return info, nil
}

func (a *APIEngine) Start(ctx context.Context, id string) error {
	if err := a.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", id, err)
	}
	return nil
}

func (a *APIEngine) Stop(ctx context.Context, id string, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	if err := a.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &seconds}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", id, err)
	}
	return nil
}

func (a *APIEngine) Restart(ctx context.Context, id string) error {
	if err := a.cli.ContainerRestart(ctx, id, container.StopOptions{}); err != nil {
		return fmt.Errorf("failed to restart container %s: %w", id, err)
	}
	return nil
}

func (a *APIEngine) Kill(ctx context.Context, id string, signal string) error {
	if err := a.cli.ContainerKill(ctx, id, signal); err != nil {
		return fmt.Errorf("failed to kill container %s: %w", id, err)
	}
	return nil
}

func (a *APIEngine) Pause(ctx context.Context, id string) error {
	if err := a.cli.ContainerPause(ctx, id); err != nil {
		return fmt.Errorf("failed to pause container %s: %w", id, err)
	}
	return nil
}

func (a *APIEngine) Unpause(ctx context.Context, id string) error {
	if err := a.cli.ContainerUnpause(ctx, id); err != nil {
		return fmt.Errorf("failed to unpause container %s: %w", id, err)
	}
	return nil
}

func (a *APIEngine) Close() error {
	return a.cli.Close()
}
