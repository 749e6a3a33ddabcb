package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kubev2v/asset-launcher/pkg/engine"
	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
	"github.com/kubev2v/asset-launcher/pkg/runner"
)

const (
	defaultStopTimeout     = 10 * time.Second
	defaultDatabaseService = "postgres"
)

type callOptions struct {
	service    string
	privileged bool
	since      string
	signal     string
	timeout    time.Duration
}

// CallOption tunes a per-service operation.
type CallOption func(*callOptions)

// Service targets another service of the project than the service under test.
func Service(name string) CallOption {
	return func(o *callOptions) { o.service = name }
}

func Privileged() CallOption {
	return func(o *callOptions) { o.privileged = true }
}

// Since limits logs to entries newer than a timestamp or a relative duration such as "10m".
func Since(since string) CallOption {
	return func(o *callOptions) { o.since = since }
}

// Signal makes RestartService deliver a signal to the container before restarting it.
func Signal(sig string) CallOption {
	return func(o *callOptions) { o.signal = sig }
}

func StopTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

func (h *Helper) callOptions(defaultService string, opts []CallOption) callOptions {
	o := callOptions{service: defaultService, timeout: defaultStopTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ContainerID resolves the container of the service under test, or of the service
// given with the Service option.
func (h *Helper) ContainerID(ctx context.Context, opts ...CallOption) (string, error) {
	o := h.callOptions(h.asset.Service, opts)
	return h.project.ContainerID(ctx, o.service)
}

func (h *Helper) resolve(ctx context.Context, opts []CallOption) (string, callOptions, error) {
	return h.resolveDefault(ctx, h.asset.Service, opts)
}

func (h *Helper) resolveDefault(ctx context.Context, service string, opts []CallOption) (string, callOptions, error) {
	o := h.callOptions(service, opts)
	id, err := h.project.ContainerID(ctx, o.service)
	return id, o, err
}

func (h *Helper) ServiceStatus(ctx context.Context, opts ...CallOption) (*engine.ContainerInfo, error) {
	id, _, err := h.resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	return h.engine.Inspect(ctx, id)
}

// ServicePort returns the host port published for the internal tcp port of a service.
// The port is to be combined with 127.0.0.1.
func (h *Helper) ServicePort(ctx context.Context, internal int, opts ...CallOption) (int, error) {
	id, o, err := h.resolve(ctx, opts)
	if err != nil {
		return 0, err
	}
	info, err := h.engine.Inspect(ctx, id)
	if err != nil {
		return 0, err
	}
	port, ok := engine.PublishedPort(info, internal)
	if !ok {
		return 0, srvErrors.NewPortNotPublishedError(o.service, internal)
	}
	return port, nil
}

// RestartService restarts the container of a service. With the Signal option, the
// signal is delivered first.
func (h *Helper) RestartService(ctx context.Context, opts ...CallOption) error {
	id, o, err := h.resolve(ctx, opts)
	if err != nil {
		return err
	}
	if o.signal != "" {
		h.log.Debugw("signaling service", "service", o.service, "signal", o.signal)
		if err := h.engine.Kill(ctx, id, o.signal); err != nil {
			return err
		}
	}
	h.log.Debugw("restarting service", "service", o.service)
	return h.engine.Restart(ctx, id)
}

func (h *Helper) StartService(ctx context.Context, opts ...CallOption) error {
	id, _, err := h.resolve(ctx, opts)
	if err != nil {
		return err
	}
	return h.engine.Start(ctx, id)
}

func (h *Helper) StopService(ctx context.Context, opts ...CallOption) error {
	id, o, err := h.resolve(ctx, opts)
	if err != nil {
		return err
	}
	return h.engine.Stop(ctx, id, o.timeout)
}

func (h *Helper) PauseService(ctx context.Context, opts ...CallOption) error {
	id, _, err := h.resolve(ctx, opts)
	if err != nil {
		return err
	}
	return h.engine.Pause(ctx, id)
}

func (h *Helper) UnpauseService(ctx context.Context, opts ...CallOption) error {
	id, _, err := h.resolve(ctx, opts)
	if err != nil {
		return err
	}
	return h.engine.Unpause(ctx, id)
}

// Exec runs command inside a service container and returns its output whatever the
// exit code.
func (h *Helper) Exec(ctx context.Context, command []string, opts ...CallOption) (runner.Result, error) {
	id, o, err := h.resolve(ctx, opts)
	if err != nil {
		return runner.Result{}, err
	}
	return h.engine.Exec(ctx, id, command, o.privileged)
}

// ExecOrFail is Exec returning a CommandFailedError when the command exits non-zero.
func (h *Helper) ExecOrFail(ctx context.Context, command []string, opts ...CallOption) (runner.Result, error) {
	result, err := h.Exec(ctx, command, opts...)
	if err != nil {
		return result, err
	}
	if !result.Success() {
		return result, srvErrors.NewCommandFailedError(command, result.Stdout, result.Stderr, result.ExitCode)
	}
	return result, nil
}

// CopyTo copies a host path into a service container.
func (h *Helper) CopyTo(ctx context.Context, src, dst string, opts ...CallOption) (runner.Result, error) {
	id, _, err := h.resolve(ctx, opts)
	if err != nil {
		return runner.Result{}, err
	}
	return h.engine.CopyTo(ctx, id, src, dst)
}

// CopyFrom copies a path of a service container to the host.
func (h *Helper) CopyFrom(ctx context.Context, src, dst string, opts ...CallOption) (runner.Result, error) {
	id, _, err := h.resolve(ctx, opts)
	if err != nil {
		return runner.Result{}, err
	}
	return h.engine.CopyFrom(ctx, id, src, dst)
}

// CopyAcross copies a path from one service container to another through a
// temporary host directory.
func (h *Helper) CopyAcross(ctx context.Context, srcService, src, dstService, dst string) error {
	staging, err := os.MkdirTemp("", "asset-copy-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	local := filepath.Join(staging, filepath.Base(src))
	if err := copyResult(h.CopyFrom(ctx, src, local, Service(srcService))); err != nil {
		return err
	}
	return copyResult(h.CopyTo(ctx, local, dst, Service(dstService)))
}

func copyResult(result runner.Result, err error) error {
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("copy failed (code %d): %s", result.ExitCode, strings.TrimSpace(string(result.Stderr)))
	}
	return nil
}

// ServiceLogs returns the logs of a single service container.
func (h *Helper) ServiceLogs(ctx context.Context, opts ...CallOption) (string, error) {
	id, o, err := h.resolve(ctx, opts)
	if err != nil {
		return "", err
	}
	result, err := h.engine.Logs(ctx, id, o.since)
	if err != nil {
		return "", err
	}
	return string(result.Stdout), nil
}

// DatabaseLogs returns the logs of the database service with continuation lines
// folded into the statement they belong to.
func (h *Helper) DatabaseLogs(ctx context.Context, opts ...CallOption) (string, error) {
	id, o, err := h.resolveDefault(ctx, defaultDatabaseService, opts)
	if err != nil {
		return "", err
	}
	result, err := h.engine.Logs(ctx, id, o.since)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(result.Stdout), "\n\t", " "), nil
}

// CountDatabaseLogs counts the database log lines, continuation lines folded.
func (h *Helper) CountDatabaseLogs(ctx context.Context, opts ...CallOption) (int, error) {
	logs, err := h.DatabaseLogs(ctx, opts...)
	if err != nil {
		return 0, err
	}
	return len(strings.Split(logs, "\n")), nil
}

// MarkLogsStart writes a timestamped marker to the output of the service container,
// so that its logs can be matched with a test.
func (h *Helper) MarkLogsStart(ctx context.Context, test string, opts ...CallOption) error {
	return h.markLogs(ctx, "TEST START: "+test, opts)
}

func (h *Helper) MarkLogsEnd(ctx context.Context, test string, opts ...CallOption) error {
	return h.markLogs(ctx, "TEST END: "+test, opts)
}

func (h *Helper) markLogs(ctx context.Context, marker string, opts []CallOption) error {
	command := []string{"/bin/bash", "-c", markCommand(marker)}
	_, err := h.ExecOrFail(ctx, command, append([]CallOption{Privileged()}, opts...)...)
	if err != nil {
		h.log.Warnw("failed to mark logs", "marker", marker, "error", err)
	}
	return err
}

func markCommand(marker string) string {
	return fmt.Sprintf(`(date +"%%F %%T.%%N " | tr -d "\n" && echo "============= %s =================" ) &> /proc/1/fd/1`,
		strings.ReplaceAll(marker, `"`, `'`))
}

// collectCoverage copies coverage data out of the service under test container,
// which is kept until the end of the teardown.
func (h *Helper) collectCoverage(ctx context.Context) (string, error) {
	id, err := h.project.ContainerID(ctx, h.asset.Service)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(h.env.CoverageDir, h.project.Name()+"-"+h.asset.Service)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	if err := copyResult(h.engine.CopyFrom(ctx, id, h.env.CoverageSource, dst)); err != nil {
		return "", err
	}
	return dst, nil
}
