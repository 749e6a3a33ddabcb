package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
	"github.com/kubev2v/asset-launcher/pkg/runner"
)

// CLIEngine drives the engine through its command line client.
type CLIEngine struct {
	binary string
	runner runner.Runner
}

var _ Engine = &CLIEngine{}

func NewCLIEngine(r runner.Runner, binary string) *CLIEngine {
	if binary == "" {
		binary = "docker"
	}
	return &CLIEngine{binary: binary, runner: r}
}

type inspectDocument struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Config struct {
		Image string `json:"Image"`
	} `json:"Config"`
	State struct {
		Status    string `json:"Status"`
		Running   bool   `json:"Running"`
		Paused    bool   `json:"Paused"`
		ExitCode  int    `json:"ExitCode"`
		StartedAt string `json:"StartedAt"`
	} `json:"State"`
	NetworkSettings struct {
		Ports map[string][]struct {
			HostIP   string `json:"HostIp"`
			HostPort string `json:"HostPort"`
		} `json:"Ports"`
	} `json:"NetworkSettings"`
}

func (c *CLIEngine) Inspect(ctx context.Context, id string) (*ContainerInfo, error) {
	result, err := c.control(ctx, "inspect", "--type", "container", id)
	if err != nil {
		return nil, err
	}

	var docs []inspectDocument
	if err := json.Unmarshal(result.Stdout, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode inspect output of %s: %w", id, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("empty inspect output for %s", id)
	}

	d := docs[0]
	info := &ContainerInfo{
		ID:    d.ID,
		Name:  strings.TrimPrefix(d.Name, "/"),
		Image: d.Config.Image,
		State: ContainerState{
			Status:    d.State.Status,
			Running:   d.State.Running,
			Paused:    d.State.Paused,
			ExitCode:  d.State.ExitCode,
			StartedAt: d.State.StartedAt,
		},
		Ports: make(map[string][]PortBinding, len(d.NetworkSettings.Ports)),
	}
	for port, bindings := range d.NetworkSettings.Ports {
		for _, b := range bindings {
			info.Ports[port] = append(info.Ports[port], PortBinding{HostIP: b.HostIP, HostPort: b.HostPort})
		}
	}
	return info, nil
}

func (c *CLIEngine) Start(ctx context.Context, id string) error {
	_, err := c.control(ctx, "start", id)
	return err
}

func (c *CLIEngine) Stop(ctx context.Context, id string, timeout time.Duration) error {
	_, err := c.control(ctx, "stop", "--time", strconv.Itoa(int(timeout.Seconds())), id)
	return err
}

func (c *CLIEngine) Restart(ctx context.Context, id string) error {
	_, err := c.control(ctx, "restart", id)
	return err
}

func (c *CLIEngine) Kill(ctx context.Context, id string, signal string) error {
	if signal == "" {
		_, err := c.control(ctx, "kill", id)
		return err
	}
	_, err := c.control(ctx, "kill", "--signal", signal, id)
	return err
}

func (c *CLIEngine) Pause(ctx context.Context, id string) error {
	_, err := c.control(ctx, "pause", id)
	return err
}

func (c *CLIEngine) Unpause(ctx context.Context, id string) error {
	_, err := c.control(ctx, "unpause", id)
	return err
}

func (c *CLIEngine) Exec(ctx context.Context, id string, command []string, privileged bool) (runner.Result, error) {
	args := []string{"exec"}
	if privileged {
		args = append(args, "--privileged")
	}
	args = append(args, id)
	return c.run(ctx, append(args, command...)...)
}

func (c *CLIEngine) CopyTo(ctx context.Context, id string, src, dst string) (runner.Result, error) {
	return c.run(ctx, "cp", src, id+":"+dst)
}

func (c *CLIEngine) CopyFrom(ctx context.Context, id string, src, dst string) (runner.Result, error) {
	return c.run(ctx, "cp", id+":"+src, dst)
}

func (c *CLIEngine) Logs(ctx context.Context, id string, since string) (runner.Result, error) {
	args := []string{"logs", id}
	if since != "" {
		args = append(args, "--since="+since)
	}
	return c.run(ctx, args...)
}

func (c *CLIEngine) run(ctx context.Context, args ...string) (runner.Result, error) {
	argv := append([]string{c.binary}, args...)
	return c.runner.Run(ctx, argv, true)
}

// control runs a command whose non-zero exit is an error for the caller.
func (c *CLIEngine) control(ctx context.Context, args ...string) (runner.Result, error) {
	result, err := c.run(ctx, args...)
	if err != nil {
		return result, err
	}
	if !result.Success() {
		return result, srvErrors.NewCommandFailedError(append([]string{c.binary}, args...), result.Stdout, result.Stderr, result.ExitCode)
	}
	return result, nil
}
