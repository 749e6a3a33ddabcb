package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"

	"github.com/kubev2v/asset-launcher/pkg/runner"
)

// Engine is the subset of container engine operations used by the launcher.
// Containers are addressed by identifier.
type Engine interface {
	Inspect(ctx context.Context, id string) (*ContainerInfo, error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string, timeout time.Duration) error
	Restart(ctx context.Context, id string) error
	Kill(ctx context.Context, id string, signal string) error
	Pause(ctx context.Context, id string) error
	Unpause(ctx context.Context, id string) error
	Exec(ctx context.Context, id string, command []string, privileged bool) (runner.Result, error)
	CopyTo(ctx context.Context, id string, src, dst string) (runner.Result, error)
	CopyFrom(ctx context.Context, id string, src, dst string) (runner.Result, error)
	Logs(ctx context.Context, id string, since string) (runner.Result, error)
}

type ContainerInfo struct {
	ID    string                   `json:"id"`
	Name  string                   `json:"name"`
	Image string                   `json:"image"`
	State ContainerState           `json:"state"`
	Ports map[string][]PortBinding `json:"ports"`
}

type ContainerState struct {
	Status    string `json:"status"`
	Running   bool   `json:"running"`
	Paused    bool   `json:"paused"`
	ExitCode  int    `json:"exit_code"`
	StartedAt string `json:"started_at"`
}

type PortBinding struct {
	HostIP   string `json:"host_ip"`
	HostPort string `json:"host_port"`
}

// PublishedPort returns the host port bound to the internal tcp port of the container.
// IPv4 bindings are preferred: the port must be combined with 127.0.0.1, not localhost,
// since localhost may resolve to an IPv6 address bound to another port.
func PublishedPort(info *ContainerInfo, internal int) (int, bool) {
	if info == nil {
		return 0, false
	}
	port, err := nat.NewPort("tcp", strconv.Itoa(internal))
	if err != nil {
		return 0, false
	}

	bindings := info.Ports[string(port)]
	for _, b := range bindings {
		if strings.Contains(b.HostIP, ":") {
			continue
		}
		if p, err := strconv.Atoi(b.HostPort); err == nil {
			return p, true
		}
	}
	for _, b := range bindings {
		if p, err := strconv.Atoi(b.HostPort); err == nil {
			return p, true
		}
	}
	return 0, false
}
