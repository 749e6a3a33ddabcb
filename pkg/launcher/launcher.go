package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/creasty/defaults"
	"go.uber.org/zap"

	"github.com/kubev2v/asset-launcher/internal/config"
	"github.com/kubev2v/asset-launcher/pkg/compose"
	"github.com/kubev2v/asset-launcher/pkg/engine"
	"github.com/kubev2v/asset-launcher/pkg/runner"
)

type State string

const (
	// StateUnmanaged - containers are managed externally, Launch and Stop do nothing
	StateUnmanaged State = "unmanaged"
	// StateDown - no container of the project is expected to run
	StateDown State = "down"
	// StateStarting - removing, pulling and running the bootstrap service
	StateStarting State = "starting"
	// StateUp - the bootstrap service exited zero
	StateUp State = "up"
	// StateTearingDown - killing or stopping containers and collecting diagnostics
	StateTearingDown State = "tearing_down"
)

type Option func(*Helper)

func WithRunner(r runner.Runner) Option {
	return func(h *Helper) { h.runner = r }
}

func WithEngine(e engine.Engine) Option {
	return func(h *Helper) { h.engine = e }
}

func WithEnvironment(env *config.Environment) Option {
	return func(h *Helper) { h.env = env }
}

func WithLogDir(d *LogDir) Option {
	return func(h *Helper) { h.logDir = d }
}

// Helper brings the containers of an asset up and down around a test run and
// gives the test access to them.
type Helper struct {
	asset   Asset
	env     *config.Environment
	runner  runner.Runner
	engine  engine.Engine
	project *compose.Project
	logDir  *LogDir
	log     *zap.SugaredLogger

	mu    sync.Mutex
	state State
}

func New(asset Asset, opts ...Option) (*Helper, error) {
	if err := defaults.Set(&asset); err != nil {
		return nil, err
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}

	h := &Helper{asset: asset}
	for _, opt := range opts {
		opt(h)
	}

	if h.env == nil {
		env, err := config.LoadEnvironment()
		if err != nil {
			return nil, err
		}
		h.env = env
	} else if err := h.env.Validate(); err != nil {
		return nil, err
	}

	if h.runner == nil {
		h.runner = runner.NewExecRunner()
	}
	if h.engine == nil {
		e, err := newEngine(h.env, h.runner)
		if err != nil {
			return nil, err
		}
		h.engine = e
	}
	if h.logDir == nil {
		h.logDir = SharedLogDir(h.env.LogsDir)
	}

	h.project = compose.NewProject(h.runner, h.env.ComposeArgv(), asset.ProjectName(), asset.Files(h.env.OverrideExtra)...)
	h.log = zap.S().Named("launcher").With("project", h.project.Name())

	h.state = StateDown
	if !h.env.ContainerManagementEnabled() {
		h.state = StateUnmanaged
	}
	return h, nil
}

func newEngine(env *config.Environment, r runner.Runner) (engine.Engine, error) {
	if env.Engine == config.EngineAPI {
		return engine.NewAPIEngine(r, env.DockerBinary)
	}
	return engine.NewCLIEngine(r, env.DockerBinary), nil
}

func (h *Helper) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Helper) setState(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}

func (h *Helper) unmanaged() bool {
	if h.State() == StateUnmanaged {
		h.log.Debug("container management disabled")
		return true
	}
	return false
}

func (h *Helper) Asset() Asset {
	return h.asset
}

func (h *Helper) Project() *compose.Project {
	return h.project
}

// Launch removes leftovers of a previous run, pulls images and runs the bootstrap
// service to completion. When the bootstrap service fails, every container is killed
// and diagnostics are collected before the LaunchFailedError is returned.
func (h *Helper) Launch(ctx context.Context) error {
	if h.unmanaged() {
		return nil
	}
	h.setState(StateStarting)

	h.log.Debug("removing containers")
	if _, err := h.project.Remove(ctx); err != nil {
		h.setState(StateDown)
		return err
	}

	if h.env.NoPull {
		h.log.Debug("not pulling containers")
	} else {
		h.log.Debug("pulling containers")
		if _, err := h.project.Pull(ctx); err != nil {
			h.log.Warnw("failed to pull containers", "error", err)
		}
	}

	h.log.Debugw("starting containers", "bootstrap", h.asset.Bootstrap)
	if _, err := h.project.Run(ctx, h.asset.Bootstrap); err != nil {
		h.log.Errorw("failed to start containers", "error", err)
		if tdErr := h.teardown(ctx, false); tdErr != nil {
			h.log.Warnw("teardown after failed start", "error", tdErr)
		}
		return err
	}

	h.setState(StateUp)
	h.log.Debug("containers started")
	return nil
}

// Stop tears the project down. Containers are stopped gracefully when coverage is
// collected, so that they get to flush coverage data, and killed otherwise.
func (h *Helper) Stop(ctx context.Context) error {
	if h.unmanaged() {
		return nil
	}
	return h.teardown(ctx, h.env.Coverage)
}

// Use launches the asset, calls fn and always stops the asset afterwards.
func (h *Helper) Use(ctx context.Context, fn func(h *Helper) error) error {
	if err := h.Launch(ctx); err != nil {
		return err
	}
	err := fn(h)
	return errors.Join(err, h.Stop(ctx))
}

func (h *Helper) teardown(ctx context.Context, graceful bool) error {
	h.setState(StateTearingDown)
	defer h.setState(StateDown)

	var errs []error
	if graceful {
		h.log.Debug("stopping containers")
		if _, err := h.project.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	} else {
		h.log.Debug("killing containers")
		if _, err := h.project.Kill(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	h.maybeDumpLogs(ctx)
	h.maybeCollectCoverage(ctx)

	if h.env.KeepContainers {
		h.log.Debug("keeping containers")
	} else if _, err := h.project.Remove(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases the engine client. Containers are left as they are.
func (h *Helper) Close() error {
	if c, ok := h.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// LogContainers returns the aggregated logs of every container of the project.
func (h *Helper) LogContainers(ctx context.Context) ([]byte, error) {
	return h.project.Logs(ctx)
}

// Diagnostics never fail the caller: errors are logged and swallowed so they
// cannot mask the error that triggered the teardown.
func (h *Helper) maybeDumpLogs(ctx context.Context) {
	if !h.env.LogsEnabled {
		return
	}
	if name, err := h.dumpLogs(ctx); err != nil {
		h.log.Warnw("failed to dump container logs", "error", err)
	} else {
		h.log.Debugw("container logs dumped", "file", name)
	}
}

func (h *Helper) dumpLogs(ctx context.Context) (string, error) {
	logs, err := h.project.Logs(ctx)
	if err != nil {
		return "", err
	}

	f, err := h.logDir.Create(h.project.Name() + "-")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(logs); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}

func (h *Helper) maybeCollectCoverage(ctx context.Context) {
	if !h.env.Coverage {
		return
	}
	if dst, err := h.collectCoverage(ctx); err != nil {
		h.log.Warnw("failed to collect coverage", "error", err)
	} else {
		h.log.Debugw("coverage collected", "dir", dst)
	}
}
