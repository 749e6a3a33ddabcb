package compose

import (
	"context"
	"fmt"
	"strings"
	"sync"

	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
	"github.com/kubev2v/asset-launcher/pkg/runner"
)

// ProjectName returns the compose project namespace of a (service, asset) pair.
func ProjectName(service, asset string) string {
	return service + "_" + asset
}

// Project issues compose commands scoped to one project name and one set of files.
type Project struct {
	name    string
	files   []string
	command []string
	runner  runner.Runner

	once    sync.Once
	options []string
}

func NewProject(r runner.Runner, command []string, name string, files ...string) *Project {
	return &Project{
		name:    name,
		files:   files,
		command: command,
		runner:  r,
	}
}

func (p *Project) Name() string {
	return p.name
}

func (p *Project) Files() []string {
	return p.files
}

// Remove tears down every container of the project and its volumes.
// It succeeds when there is nothing to remove.
func (p *Project) Remove(ctx context.Context) (runner.Result, error) {
	return p.run(ctx, true, "down", "--timeout", "0", "--volumes")
}

// Pull refreshes images. Pull failures of single images are ignored.
func (p *Project) Pull(ctx context.Context) (runner.Result, error) {
	return p.run(ctx, true, "pull", "--ignore-pull-failures")
}

// Run runs service to completion and returns a LaunchFailedError when it exits non-zero.
func (p *Project) Run(ctx context.Context, service string) (runner.Result, error) {
	result, err := p.run(ctx, true, "run", "--rm", service)
	if err != nil {
		return result, err
	}
	if !result.Success() {
		return result, srvErrors.NewLaunchFailedError(result.Stdout, result.Stderr, result.ExitCode)
	}
	return result, nil
}

func (p *Project) Kill(ctx context.Context) (runner.Result, error) {
	return p.run(ctx, true, "kill")
}

func (p *Project) Stop(ctx context.Context) (runner.Result, error) {
	return p.run(ctx, true, "stop")
}

// Logs returns the aggregated logs of every container of the project.
func (p *Project) Logs(ctx context.Context) ([]byte, error) {
	result, err := p.run(ctx, false, "logs", "--no-color")
	if err != nil {
		return nil, err
	}
	return result.Stdout, nil
}

// ContainerID resolves the single container of service. Nothing is cached:
// containers are recreated by restarts and relaunches.
func (p *Project) ContainerID(ctx context.Context, service string) (string, error) {
	result, err := p.run(ctx, false, "ps", "-aq", service)
	if err != nil {
		return "", err
	}
	if !result.Success() {
		return "", srvErrors.NewCommandFailedError(p.argv("ps", "-aq", service), result.Stdout, result.Stderr, result.ExitCode)
	}

	var ids []string
	for _, line := range strings.Split(string(result.Stdout), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}

	switch len(ids) {
	case 0:
		return "", srvErrors.NewServiceNotFoundError(service)
	case 1:
		return ids[0], nil
	default:
		return "", srvErrors.NewAmbiguousServiceError(service, ids)
	}
}

func (p *Project) run(ctx context.Context, captureStderr bool, args ...string) (runner.Result, error) {
	result, err := p.runner.Run(ctx, p.argv(args...), captureStderr)
	if err != nil {
		return result, fmt.Errorf("compose %s for project %s: %w", args[0], p.name, err)
	}
	return result, nil
}

func (p *Project) argv(args ...string) []string {
	p.once.Do(func() {
		p.options = []string{"--ansi", "never", "--project-name", p.name}
		for _, f := range p.files {
			p.options = append(p.options, "--file", f)
		}
	})

	argv := make([]string, 0, len(p.command)+len(p.options)+len(args))
	argv = append(argv, p.command...)
	argv = append(argv, p.options...)
	return append(argv, args...)
}
